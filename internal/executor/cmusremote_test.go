package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nucleusis/soundbridge/internal/domain"
	"go.uber.org/zap"
)

// The tests use /bin/sh as a stand-in binary so no player is required.

func TestRun_CapturesStdout(t *testing.T) {
	r := NewCmusRemote(zap.NewNop(), "/bin/sh", 5*time.Second)

	out, err := r.Run(context.Background(), "-c", "printf 'status playing\nduration 200'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "status playing") {
		t.Errorf("stdout not captured: %q", out)
	}
}

func TestRun_StderrIsCommandFailure(t *testing.T) {
	r := NewCmusRemote(zap.NewNop(), "/bin/sh", 5*time.Second)

	_, err := r.Run(context.Background(), "-c", "echo 'cmus-remote: cmus is not running' >&2")
	if !errors.Is(err, domain.ErrCommandFailed) {
		t.Fatalf("want ErrCommandFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "cmus is not running") {
		t.Errorf("stderr text not surfaced: %v", err)
	}
}

func TestRun_NonZeroExitIsCommandFailure(t *testing.T) {
	r := NewCmusRemote(zap.NewNop(), "/bin/sh", 5*time.Second)

	_, err := r.Run(context.Background(), "-c", "exit 3")
	if !errors.Is(err, domain.ErrCommandFailed) {
		t.Fatalf("want ErrCommandFailed, got %v", err)
	}
}

func TestRun_TimeoutIsItsOwnErrorKind(t *testing.T) {
	r := NewCmusRemote(zap.NewNop(), "/bin/sh", 50*time.Millisecond)

	_, err := r.Run(context.Background(), "-c", "sleep 5")
	if !errors.Is(err, domain.ErrCommandTimeout) {
		t.Fatalf("want ErrCommandTimeout, got %v", err)
	}
	if errors.Is(err, domain.ErrCommandFailed) {
		t.Error("timeout must not be classified as a command failure")
	}
}

func TestRun_MissingBinary(t *testing.T) {
	r := NewCmusRemote(zap.NewNop(), "/nonexistent/cmus-remote", time.Second)

	_, err := r.Run(context.Background(), "-Q")
	if !errors.Is(err, domain.ErrCommandFailed) {
		t.Fatalf("want ErrCommandFailed, got %v", err)
	}
}
