package domain

import (
	"github.com/buiducnhanit/management-system/internal/errors"
)

// Domain-specific errors for identity operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates a user with the same email already exists.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")

	// ErrInvalidCredentials indicates the email/password pair is wrong. The same
	// error is returned for unknown emails to prevent account enumeration.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrUserLocked indicates the identity is locked and cannot authenticate.
	ErrUserLocked = errors.Wrap(errors.ErrLocked, "user is locked")

	// ErrEmailNotConfirmed indicates login was attempted before email confirmation.
	ErrEmailNotConfirmed = errors.Wrap(errors.ErrForbidden, "email not confirmed")

	// ErrInvalidActionToken indicates an email-confirmation or password-reset
	// token is unknown, expired, or already consumed.
	ErrInvalidActionToken = errors.Wrap(errors.ErrUnauthorized, "invalid or expired token")
)
