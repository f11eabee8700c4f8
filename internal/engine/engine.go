package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/nucleusis/soundbridge/internal/config"
	"github.com/nucleusis/soundbridge/internal/domain"
	"github.com/nucleusis/soundbridge/internal/mpris"
	"github.com/nucleusis/soundbridge/internal/status"
	"go.uber.org/zap"
)

// Engine owns the current PlayerState and runs the refresh pipeline:
// query -> parse -> diff -> state swap -> notification -> change announcement.
// Cycles are serialized; a new refresh never begins before the previous
// cycle's announce and notify steps complete.
type Engine struct {
	logger   *zap.Logger
	cfg      *config.AppConfig
	runner   domain.CommandRunner
	parser   *status.Parser
	notifier domain.Notifier

	// cycleMu serializes whole refresh cycles, stateMu guards the state
	// pointer for concurrent readers.
	cycleMu sync.Mutex
	stateMu sync.RWMutex
	state   domain.PlayerState

	onChange  []func(changed map[string]dbus.Variant)
	onFailure func()
	failOnce  sync.Once

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates the engine. Callbacks are registered before Start.
func New(logger *zap.Logger, cfg *config.AppConfig, runner domain.CommandRunner,
	parser *status.Parser, notifier domain.Notifier) *Engine {
	return &Engine{
		logger:   logger,
		cfg:      cfg,
		runner:   runner,
		parser:   parser,
		notifier: notifier,
	}
}

// OnChange registers a callback invoked with the recomputed property values
// whenever a refresh cycle finds changed property groups.
func (e *Engine) OnChange(fn func(changed map[string]dbus.Variant)) {
	e.onChange = append(e.onChange, fn)
}

// OnCommandFailure registers the callback fired (once) when the player
// command channel breaks. A control-command error usually means the player
// has exited, so the registered callback is expected to start shutdown.
func (e *Engine) OnCommandFailure(fn func()) {
	e.onFailure = fn
}

// State returns the current structured status, nil before the first usable
// observation.
func (e *Engine) State() domain.PlayerState {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.state
}

// Start performs the initial observation (announcing the full snapshot) and
// launches the periodic resynchronization loop.
func (e *Engine) Start() error {
	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})

	if err := e.Refresh(runCtx); err != nil {
		cancel()
		close(e.done)
		return err
	}

	go e.runLoop(runCtx)
	e.logger.Info("Engine started",
		zap.Duration("refreshInterval", e.cfg.RefreshInterval))
	return nil
}

// Stop halts the refresh loop.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh queries the player for a fresh status block and runs one full
// cycle on it.
func (e *Engine) Refresh(ctx context.Context) error {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	raw, err := e.runner.Run(ctx, "-Q")
	if err != nil {
		e.logger.Error("Status query failed, shutting down", zap.Error(err))
		e.fail()
		return err
	}
	e.apply(raw)
	return nil
}

// ApplyRaw runs one full cycle on externally supplied status text (the
// cross-instance forwarding path).
func (e *Engine) ApplyRaw(raw string) {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()
	e.apply(raw)
}

// apply is the cycle body. Callers hold cycleMu, which gives the ordering
// guarantee: parse happens-before diff happens-before announce and notify.
func (e *Engine) apply(raw string) {
	prev := e.State()
	next := e.parser.Parse(prev, raw)
	if next == nil {
		e.logger.Debug("No usable status, keeping previous state")
		return
	}

	changed := mpris.Diff(prev, next)

	e.stateMu.Lock()
	e.state = next
	e.stateMu.Unlock()

	if len(changed) == 0 {
		return
	}
	e.logger.Debug("Status changed", zap.Int("groups", len(changed)))

	props := make(map[string]dbus.Variant, len(changed))
	for _, group := range changed {
		if group == domain.GroupMetadata {
			e.notify(next)
		}
		props[string(group)] = mpris.GroupValue(group, next)
	}
	for _, fn := range e.onChange {
		fn(props)
	}
}

// notify shows the now-playing notification. Suppressed when the display
// title is empty (nothing is loaded); failures never affect protocol state.
func (e *Engine) notify(st domain.PlayerState) {
	if !e.cfg.Notifications || e.notifier == nil {
		return
	}
	title := st["title"]
	if title == "" {
		return
	}
	body := st["artist"] + "\n" + st["album"]
	if err := e.notifier.Send(title, body, st["cover"], e.cfg.NotificationTimeoutMs); err != nil {
		e.logger.Warn("Desktop notification failed", zap.Error(err))
	}
}

func (e *Engine) fail() {
	if e.onFailure == nil {
		return
	}
	e.failOnce.Do(e.onFailure)
}

// runLoop resynchronizes with the player on a timer, catching drift that
// produced no status_display_program callback (seeking inside a track,
// volume changed inside cmus itself).
func (e *Engine) runLoop(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine loop stopped")
			return
		case <-ticker.C:
			if err := e.Refresh(ctx); err != nil {
				// fail() already scheduled shutdown; keep looping
				// until the lifecycle cancels us.
				e.logger.Debug("Periodic refresh failed", zap.Error(err))
			}
		}
	}
}

// IntakeFromArgs rebuilds a raw status block from the key/value argument
// pairs cmus passes to its status_display_program.
func IntakeFromArgs(args []string) string {
	var lines []string
	for i := 0; i+1 < len(args); i += 2 {
		lines = append(lines, args[i]+" "+args[i+1])
	}
	return strings.Join(lines, "\n")
}
