package domain

import (
	"github.com/buiducnhanit/management-system/internal/errors"
)

// Domain-specific errors for profile operations.
var (
	// ErrProfileNotFound indicates the requested profile does not exist.
	ErrProfileNotFound = errors.Wrap(errors.ErrNotFound, "profile not found")

	// ErrProfileAlreadyExists indicates a profile with the same ID exists.
	ErrProfileAlreadyExists = errors.Wrap(errors.ErrConflict, "profile already exists")
)
