package domain

import (
	"github.com/buiducnhanit/management-system/internal/errors"
)

// Domain-specific errors for refresh-token operations.
var (
	// ErrTokenNotFound indicates no token matches the (value, user) pair.
	ErrTokenNotFound = errors.Wrap(errors.ErrNotFound, "refresh token not found")

	// ErrTokenConflict indicates a token-hash collision on insert. Near
	// impossible with 256-bit secrets; the engine retries once with a
	// regenerated secret.
	ErrTokenConflict = errors.Wrap(errors.ErrConflict, "refresh token already exists")

	// ErrRotationDenied is the fail-closed "no rotation" signal: the presented
	// token is missing, inactive, idle-timed-out, or reused. Callers must treat
	// it as an authentication failure and never retry.
	ErrRotationDenied = errors.Wrap(errors.ErrUnauthorized, "refresh token rotation denied")
)
