package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/nucleusis/soundbridge/internal/domain"
	"go.uber.org/zap"
)

// CmusRemote runs cmus-remote invocations. Every call is bounded by the
// configured timeout so a hung player can never freeze the bridge; the
// deadline surfaces as domain.ErrCommandTimeout, distinct from the player
// reporting an error.
type CmusRemote struct {
	logger  *zap.Logger
	bin     string
	timeout time.Duration
}

// NewCmusRemote creates a runner for the given cmus-remote binary.
func NewCmusRemote(logger *zap.Logger, bin string, timeout time.Duration) *CmusRemote {
	logger.Info("Player command executor configured",
		zap.String("binary", bin),
		zap.Duration("timeout", timeout))
	return &CmusRemote{logger: logger, bin: bin, timeout: timeout}
}

// Run invokes cmus-remote with args and returns its stdout. Any stderr
// output is a failure: cmus-remote complains on stderr exactly when the
// player is gone.
func (c *CmusRemote) Run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug("Running player command", zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, c.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: %s %s", domain.ErrCommandTimeout, c.bin, strings.Join(args, " "))
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrCommandFailed, strings.TrimSpace(stderr.String()), err)
	}
	if stderr.Len() > 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrCommandFailed, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
