package mpris

import (
	"context"
	"fmt"
	"strconv"

	"github.com/godbus/dbus/v5"
	"github.com/nucleusis/soundbridge/internal/domain"
	"go.uber.org/zap"
)

// StateSource gives the dispatcher access to the authoritative player state
// and lets it resynchronize after issuing a command.
type StateSource interface {
	// State returns the current structured status, nil before the first
	// usable observation.
	State() domain.PlayerState

	// Refresh re-queries the player and publishes any resulting changes.
	Refresh(ctx context.Context) error
}

// Dispatcher translates inbound MPRIS calls into player commands. Every
// dispatched command is followed by an unconditional status refresh so
// observers see the authoritative post-command state, never an optimistic
// local guess.
type Dispatcher struct {
	logger *zap.Logger
	runner domain.CommandRunner
	player StateSource
}

// NewDispatcher creates a dispatcher issuing commands through runner.
func NewDispatcher(logger *zap.Logger, runner domain.CommandRunner, player StateSource) *Dispatcher {
	return &Dispatcher{logger: logger, runner: runner, player: player}
}

// Next skips to the next track.
func (d *Dispatcher) Next(ctx context.Context) error {
	return d.run(ctx, "-n")
}

// Previous skips to the previous track.
func (d *Dispatcher) Previous(ctx context.Context) error {
	return d.run(ctx, "-r")
}

// Pause pauses playback.
func (d *Dispatcher) Pause(ctx context.Context) error {
	return d.run(ctx, "-u")
}

// Play starts or resumes playback.
func (d *Dispatcher) Play(ctx context.Context) error {
	return d.run(ctx, "-p")
}

// Stop stops playback.
func (d *Dispatcher) Stop(ctx context.Context) error {
	return d.run(ctx, "-s")
}

// PlayPause toggles playback, branching on the current status.
func (d *Dispatcher) PlayPause(ctx context.Context) error {
	if d.player.State()["status"] == "playing" {
		return d.run(ctx, "-u")
	}
	return d.run(ctx, "-p")
}

// Seek moves by offset (published time scale, may be negative) relative to
// the current position.
func (d *Dispatcher) Seek(ctx context.Context, offset int64) error {
	return d.run(ctx, "-k", fmt.Sprintf("%+d", offset/timeScale))
}

// SetPosition seeks to an absolute position. Calls with a stale track id or
// an out-of-range position are silently dropped, per MPRIS convention.
func (d *Dispatcher) SetPosition(ctx context.Context, trackID dbus.ObjectPath, position int64) error {
	st := d.player.State()
	if st == nil {
		return nil
	}
	if trackID != TrackID(st["file"]) {
		d.logger.Debug("Dropping SetPosition for stale track id",
			zap.String("trackID", string(trackID)))
		return nil
	}
	// Checked before dividing: integer division truncates toward zero, so
	// small negative positions would otherwise slip through as second 0.
	if position < 0 {
		return nil
	}
	sec := position / timeScale
	duration, err := strconv.ParseInt(st["duration"], 10, 64)
	if err != nil || sec > duration {
		return nil
	}
	return d.run(ctx, "-k", strconv.FormatInt(sec, 10))
}

// OpenUri enqueues the URI and advances to it.
func (d *Dispatcher) OpenUri(ctx context.Context, uri string) error {
	if _, err := d.runner.Run(ctx, "-c", "-q", uri); err != nil {
		_ = d.refresh(ctx)
		return err
	}
	return d.run(ctx, "-n")
}

// SetLoopStatus applies an MPRIS loop enum as player settings.
func (d *Dispatcher) SetLoopStatus(ctx context.Context, value string) error {
	var settings []string
	switch value {
	case "None":
		settings = []string{"set continue=false"}
	case "Track":
		settings = []string{"set continue=true", "set repeat_current=true"}
	case "Playlist":
		settings = []string{"set continue=true", "set repeat_current=false", "set repeat=true"}
	default:
		d.logger.Warn("Ignoring unknown loop status", zap.String("value", value))
		return nil
	}
	for _, s := range settings {
		if _, err := d.runner.Run(ctx, "-C", s); err != nil {
			_ = d.refresh(ctx)
			return err
		}
	}
	return d.refresh(ctx)
}

// SetShuffle applies the shuffle flag.
func (d *Dispatcher) SetShuffle(ctx context.Context, value bool) error {
	return d.run(ctx, "-C", fmt.Sprintf("set shuffle=%t", value))
}

// SetVolume applies a volume on the MPRIS [0.0, 1.0] scale, clamped; the
// player command wants a percentage.
func (d *Dispatcher) SetVolume(ctx context.Context, value float64) error {
	percent := int(value * 100)
	if value < 0 {
		percent = 0
	} else if value > 1 {
		percent = 100
	}
	return d.run(ctx, "-v", fmt.Sprintf("%d%%", percent))
}

// Quit asks the player to exit. The caller is responsible for tearing the
// bridge down afterwards.
func (d *Dispatcher) Quit(ctx context.Context) error {
	_, err := d.runner.Run(ctx, "-C", "q")
	return err
}

func (d *Dispatcher) run(ctx context.Context, args ...string) error {
	if _, err := d.runner.Run(ctx, args...); err != nil {
		// A command failure usually means the player is gone. The refresh
		// is still attempted so its failure path can start the teardown
		// instead of waiting for the resync ticker.
		_ = d.refresh(ctx)
		return err
	}
	return d.refresh(ctx)
}

// refresh resynchronizes after a command. A failing refresh is the engine's
// problem (it initiates shutdown) and must not fail the inbound call that
// triggered it.
func (d *Dispatcher) refresh(ctx context.Context) error {
	if err := d.player.Refresh(ctx); err != nil {
		d.logger.Warn("Post-command refresh failed", zap.Error(err))
	}
	return nil
}
