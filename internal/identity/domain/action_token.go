package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActionTokenPurpose identifies what a one-time action token authorizes.
type ActionTokenPurpose string

const (
	ActionTokenPurposeEmailConfirmation ActionTokenPurpose = "email_confirmation"
	ActionTokenPurposePasswordReset     ActionTokenPurpose = "password_reset"
)

// ActionToken is a single-use, store-backed token for out-of-band flows
// (email confirmation, password reset). Only the SHA-256 hash of the token
// value is persisted.
type ActionToken struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	TokenHash  string
	Purpose    ActionTokenPurpose
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// IsUsable reports whether the token can still be consumed at the given time.
func (t *ActionToken) IsUsable(now time.Time) bool {
	return t.ConsumedAt == nil && now.Before(t.ExpiresAt)
}
