package domain

import "context"

// CommandRunner executes one cmus-remote invocation and returns its stdout.
// Implementations must be cancellable and timeout-bounded: a hung player
// process must surface as ErrCommandTimeout instead of blocking the caller
// forever.
//
//go:generate mockgen -destination=mocks/command_runner_mock.go -package=mocks github.com/nucleusis/soundbridge/internal/domain CommandRunner
type CommandRunner interface {
	// Run invokes cmus-remote with the given arguments and returns its
	// standard output. Any stderr output is treated as a command failure.
	Run(ctx context.Context, args ...string) (string, error)
}

// CoverResolver turns a track path into a displayable thumbnail.
//
//go:generate mockgen -destination=mocks/cover_resolver_mock.go -package=mocks github.com/nucleusis/soundbridge/internal/domain CoverResolver
type CoverResolver interface {
	// Resolve returns the path of a thumbnail for the track at path, or
	// ok=false when no artwork could be found. Resolution failures are
	// never hard errors; they degrade to "no cover".
	Resolve(path string) (thumb string, ok bool)

	// Close releases the reusable thumbnail file.
	Close() error
}

// Notifier is the desktop notification sink.
//
//go:generate mockgen -destination=mocks/notifier_mock.go -package=mocks github.com/nucleusis/soundbridge/internal/domain Notifier
type Notifier interface {
	// Send shows (or replaces) the now-playing notification. imagePath may
	// be empty. The body is escaped by the implementation before submission.
	Send(title, body, imagePath string, timeoutMs int32) error

	// Close tears down the notification subsystem, best-effort.
	Close() error
}
