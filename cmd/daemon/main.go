package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nucleusis/soundbridge/internal/config"
	"github.com/nucleusis/soundbridge/internal/cover"
	"github.com/nucleusis/soundbridge/internal/domain"
	"github.com/nucleusis/soundbridge/internal/engine"
	"github.com/nucleusis/soundbridge/internal/executor"
	"github.com/nucleusis/soundbridge/internal/mpris"
	"github.com/nucleusis/soundbridge/internal/notify"
	"github.com/nucleusis/soundbridge/internal/status"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// AppOptions is the full dependency graph, shared between main and the
// graph-validity test.
var AppOptions = fx.Options(
	// Logger configuration
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log}
	}),

	// Provide dependencies
	fx.Provide(
		newLogger,
		config.New,
		newBusConn,
		newCommandRunner,
		newCoverResolver,
		newNotifier,
		newParser,
		engine.New,
		newDispatcher,
		newService,
		mpris.NewCoordinator,
	),

	// Lifecycle hooks
	fx.Invoke(registerHooks),
)

func main() {
	app := fx.New(AppOptions)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		panic(err)
	}

	// Wait for interrupt or internal shutdown (lost player, second-instance
	// forwarding, remote Quit).
	select {
	case <-ctx.Done():
	case <-app.Wait():
	}

	if err := app.Stop(context.Background()); err != nil {
		panic(err)
	}
}

// newLogger creates a new zap logger instance
func newLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

func newBusConn() (mpris.BusConn, error) {
	return mpris.NewStdBusConn()
}

func newCommandRunner(logger *zap.Logger, cfg *config.AppConfig) domain.CommandRunner {
	return executor.NewCmusRemote(logger, cfg.CmusRemoteBin, cfg.CommandTimeout)
}

// newCoverResolver returns nil when cover art is disabled; the parser and
// the notification path both tolerate the absence.
func newCoverResolver(logger *zap.Logger, cfg *config.AppConfig) (domain.CoverResolver, error) {
	if !cfg.CoverArt {
		return nil, nil
	}
	return cover.NewResolver(logger)
}

func newNotifier(logger *zap.Logger, cfg *config.AppConfig, bus mpris.BusConn) domain.Notifier {
	if !cfg.Notifications {
		return nil
	}
	return notify.NewFromBus(logger, bus)
}

func newParser(logger *zap.Logger, covers domain.CoverResolver) *status.Parser {
	return status.NewParser(logger, covers)
}

func newDispatcher(logger *zap.Logger, runner domain.CommandRunner, eng *engine.Engine) *mpris.Dispatcher {
	return mpris.NewDispatcher(logger, runner, eng)
}

func newService(logger *zap.Logger, bus mpris.BusConn, eng *engine.Engine,
	disp *mpris.Dispatcher, shutdowner fx.Shutdowner) *mpris.Service {
	return mpris.NewService(logger, bus, eng, disp, func() {
		_ = shutdowner.Shutdown()
	})
}

// registerHooks sets up application lifecycle hooks
func registerHooks(lc fx.Lifecycle, shutdowner fx.Shutdowner, logger *zap.Logger,
	bus mpris.BusConn, eng *engine.Engine, svc *mpris.Service,
	coord *mpris.Coordinator, covers domain.CoverResolver, notifier domain.Notifier) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			primary, err := coord.Register()
			if err != nil {
				return err
			}

			// cmus invokes its status_display_program with key/value
			// argument pairs describing the change that just happened.
			raw := engine.IntakeFromArgs(os.Args[1:])

			if !primary {
				if err := coord.Forward(raw); err != nil {
					logger.Warn("Status forwarding failed", zap.Error(err))
				}
				return shutdowner.Shutdown()
			}

			eng.OnCommandFailure(func() { _ = shutdowner.Shutdown() })
			eng.OnChange(svc.AnnouncePlayerChanged)
			if err := svc.Export(); err != nil {
				return err
			}
			if raw != "" {
				eng.ApplyRaw(raw)
			}
			return eng.Start()
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down")
			var errs error
			errs = multierr.Append(errs, eng.Stop(ctx))
			errs = multierr.Append(errs, coord.Release())
			if covers != nil {
				errs = multierr.Append(errs, covers.Close())
			}
			if notifier != nil {
				errs = multierr.Append(errs, notifier.Close())
			}
			errs = multierr.Append(errs, bus.Close())
			return errs
		},
	})
}
