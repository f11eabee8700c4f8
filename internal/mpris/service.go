package mpris

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/nucleusis/soundbridge/internal/domain"
	"go.uber.org/zap"
)

const (
	// BusName is the well-known identity of the bridge. Exactly one live
	// registration exists per session; a second launch forwards its status
	// text to the first and exits.
	BusName = "org.mpris.MediaPlayer2.cmus.soundmenu"

	// ObjectPath is the fixed MPRIS object path.
	ObjectPath dbus.ObjectPath = "/org/mpris/MediaPlayer2"

	rootInterface       = "org.mpris.MediaPlayer2"
	playerInterface     = "org.mpris.MediaPlayer2.Player"
	playlistsInterface  = "org.mpris.MediaPlayer2.Playlists"
	trackListInterface  = "org.mpris.MediaPlayer2.TrackList"
	propertiesInterface = "org.freedesktop.DBus.Properties"
)

// rootProperties are static for the lifetime of the bridge.
var rootProperties = map[string]dbus.Variant{
	"CanQuit":          dbus.MakeVariant(true),
	"Fullscreen":       dbus.MakeVariant(false),
	"CanSetFullscreen": dbus.MakeVariant(false),
	"CanRaise":         dbus.MakeVariant(false),
	"HasTrackList":     dbus.MakeVariant(false),
	"Identity":         dbus.MakeVariant("cmus"),
	"DesktopEntry":     dbus.MakeVariant("cmus"),
	"SupportedUriSchemes": dbus.MakeVariant([]string{
		"file", "http", "cue", "cdda",
	}),
	"SupportedMimeTypes": dbus.MakeVariant([]string{
		"audio/mpeg", "audio/x-mp3", "audio/x-mpeg", "audio/x-musepack",
		"audio/x-wavpack", "application/ogg", "audio/x-ogg", "audio/aac",
		"audio/aacp", "x-content/audio-cdda", "application/x-cue",
	}),
}

// Intake is the orchestrator as the service sees it: state access, refresh,
// and the raw-text entry point used for cross-instance forwarding.
type Intake interface {
	StateSource

	// ApplyRaw runs a full parse/diff/announce cycle on raw status text.
	ApplyRaw(raw string)
}

// Service is the exported MPRIS object. It implements the root and player
// interfaces plus org.freedesktop.DBus.Properties with an explicit switch
// per property, and owns signal emission.
type Service struct {
	logger *zap.Logger
	bus    BusConn
	player Intake
	disp   *Dispatcher

	// onQuit asynchronously starts bridge teardown after a Quit call.
	onQuit func()
}

// NewService wires the exported object. onQuit is invoked when a remote
// caller asks the bridge to quit.
func NewService(logger *zap.Logger, bus BusConn, player Intake, disp *Dispatcher, onQuit func()) *Service {
	return &Service{logger: logger, bus: bus, player: player, disp: disp, onQuit: onQuit}
}

// Export publishes the object under the MPRIS path. The playlist and
// tracklist interfaces carry no methods and empty property sets on purpose.
func (s *Service) Export() error {
	for _, iface := range []string{rootInterface, playerInterface, propertiesInterface} {
		if err := s.bus.Export(s, ObjectPath, iface); err != nil {
			return fmt.Errorf("failed to export %s: %w", iface, err)
		}
	}
	s.logger.Info("MPRIS object exported", zap.String("path", string(ObjectPath)))
	return nil
}

// AnnouncePlayerChanged emits PropertiesChanged for the player interface.
func (s *Service) AnnouncePlayerChanged(changed map[string]dbus.Variant) {
	err := s.bus.Emit(ObjectPath, propertiesInterface+".PropertiesChanged",
		playerInterface, changed, []string{})
	if err != nil {
		s.logger.Warn("Failed to emit PropertiesChanged", zap.Error(err))
	}
}

// emitSeeked announces the post-seek position when it is known.
func (s *Service) emitSeeked() {
	pos, ok := Position(s.player.State())
	if !ok {
		return
	}
	if err := s.bus.Emit(ObjectPath, playerInterface+".Seeked", pos); err != nil {
		s.logger.Warn("Failed to emit Seeked", zap.Error(err))
	}
}

// --- org.mpris.MediaPlayer2 ---

// Raise is part of the interface for compatibility but has nothing to bring
// to the front; it always fails.
func (s *Service) Raise() *dbus.Error {
	return dbus.MakeFailedError(errors.New("cmus has no window to raise"))
}

// Quit stops the player and then the bridge.
func (s *Service) Quit() *dbus.Error {
	s.logger.Info("Quit requested over the bus")
	err := s.disp.Quit(context.Background())
	s.onQuit()
	if err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// SetStatus receives raw status text from another bridge instance. Not part
// of the MPRIS standard; used solely for cross-instance forwarding.
func (s *Service) SetStatus(arg string) *dbus.Error {
	s.logger.Debug("Received status from another instance", zap.Int("bytes", len(arg)))
	if arg != "" {
		s.player.ApplyRaw(arg)
	}
	return nil
}

// --- org.mpris.MediaPlayer2.Player ---

func (s *Service) Next() *dbus.Error {
	return asDBusError(s.disp.Next(context.Background()))
}

func (s *Service) Previous() *dbus.Error {
	return asDBusError(s.disp.Previous(context.Background()))
}

func (s *Service) Pause() *dbus.Error {
	return asDBusError(s.disp.Pause(context.Background()))
}

func (s *Service) PlayPause() *dbus.Error {
	return asDBusError(s.disp.PlayPause(context.Background()))
}

func (s *Service) Stop() *dbus.Error {
	return asDBusError(s.disp.Stop(context.Background()))
}

func (s *Service) Play() *dbus.Error {
	return asDBusError(s.disp.Play(context.Background()))
}

func (s *Service) Seek(offset int64) *dbus.Error {
	if err := s.disp.Seek(context.Background(), offset); err != nil {
		return dbus.MakeFailedError(err)
	}
	s.emitSeeked()
	return nil
}

func (s *Service) SetPosition(trackID dbus.ObjectPath, position int64) *dbus.Error {
	if err := s.disp.SetPosition(context.Background(), trackID, position); err != nil {
		return dbus.MakeFailedError(err)
	}
	s.emitSeeked()
	return nil
}

func (s *Service) OpenUri(uri string) *dbus.Error {
	return asDBusError(s.disp.OpenUri(context.Background(), uri))
}

// --- org.freedesktop.DBus.Properties ---

// Get returns one property value.
func (s *Service) Get(iface, prop string) (dbus.Variant, *dbus.Error) {
	switch iface {
	case rootInterface:
		if v, ok := rootProperties[prop]; ok {
			return v, nil
		}
	case playerInterface:
		if v, ok := s.playerProperty(prop); ok {
			return v, nil
		}
	case playlistsInterface, trackListInterface:
		// Stubbed empty by design.
	default:
		return dbus.Variant{}, dbus.MakeFailedError(fmt.Errorf("unknown interface %s", iface))
	}
	return dbus.Variant{}, dbus.MakeFailedError(fmt.Errorf("unknown property %s.%s", iface, prop))
}

// GetAll returns the full property set of an interface.
func (s *Service) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	switch iface {
	case rootInterface:
		all := make(map[string]dbus.Variant, len(rootProperties))
		for k, v := range rootProperties {
			all[k] = v
		}
		return all, nil
	case playerInterface:
		all := make(map[string]dbus.Variant, len(playerPropertyNames))
		for _, name := range playerPropertyNames {
			if v, ok := s.playerProperty(name); ok {
				all[name] = v
			}
		}
		return all, nil
	case playlistsInterface, trackListInterface:
		return map[string]dbus.Variant{}, nil
	}
	return nil, dbus.MakeFailedError(fmt.Errorf("unknown interface %s", iface))
}

// Set applies a writable player property; anything else is ignored, matching
// the MPRIS convention of dropping unsupported writes.
func (s *Service) Set(iface, prop string, value dbus.Variant) *dbus.Error {
	if iface != playerInterface {
		s.logger.Debug("Ignoring property write",
			zap.String("interface", iface), zap.String("property", prop))
		return nil
	}
	ctx := context.Background()
	switch prop {
	case "LoopStatus":
		var v string
		if err := value.Store(&v); err != nil {
			return dbus.MakeFailedError(err)
		}
		return asDBusError(s.disp.SetLoopStatus(ctx, v))
	case "Shuffle":
		var v bool
		if err := value.Store(&v); err != nil {
			return dbus.MakeFailedError(err)
		}
		return asDBusError(s.disp.SetShuffle(ctx, v))
	case "Volume":
		var v float64
		if err := value.Store(&v); err != nil {
			return dbus.MakeFailedError(err)
		}
		return asDBusError(s.disp.SetVolume(ctx, v))
	}
	s.logger.Debug("Ignoring property write", zap.String("property", prop))
	return nil
}

// playerPropertyNames drives GetAll for the player interface.
var playerPropertyNames = []string{
	"PlaybackStatus", "LoopStatus", "Rate", "Shuffle", "Metadata", "Volume",
	"Position", "MinimumRate", "MaximumRate", "CanGoNext", "CanGoPrevious",
	"CanPlay", "CanPause", "CanSeek", "CanControl",
}

// playerProperty computes one player property from the current state.
func (s *Service) playerProperty(name string) (dbus.Variant, bool) {
	st := s.player.State()
	switch name {
	case "PlaybackStatus", "LoopStatus", "Shuffle", "Metadata", "Volume":
		return GroupValue(domain.PropertyGroup(name), st), true
	case "Position":
		pos, ok := Position(st)
		if !ok {
			// The elapsed-time field is only included while a track is
			// loaded; ask the player again before giving up.
			if err := s.player.Refresh(context.Background()); err == nil {
				pos, _ = Position(s.player.State())
			}
		}
		return dbus.MakeVariant(pos), true
	case "Rate", "MinimumRate", "MaximumRate":
		return dbus.MakeVariant(1.0), true
	case "CanGoNext", "CanGoPrevious", "CanPlay", "CanPause", "CanSeek", "CanControl":
		return dbus.MakeVariant(true), true
	}
	return dbus.Variant{}, false
}

func asDBusError(err error) *dbus.Error {
	if err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}
