package domain

import "errors"

var (
	// ErrCommandTimeout means the player did not answer within the
	// configured deadline. Surfaced separately from ErrCommandFailed so the
	// engine can tell a hung player from an exited one.
	ErrCommandTimeout = errors.New("player command timed out")

	// ErrCommandFailed means cmus-remote reported an error. This usually
	// means the player itself has exited, so the bridge shuts down rather
	// than retrying.
	ErrCommandFailed = errors.New("player command failed")
)
