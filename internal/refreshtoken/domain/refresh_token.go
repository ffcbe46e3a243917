// Package domain defines the refresh-token entity and its lifecycle rules.
//
// A refresh token is a long-lived opaque secret exchanged for a new
// access/refresh pair. Only the SHA-256 hash of the secret is persisted.
// Revocation is append-only: RevokedAt is set exactly once and never cleared,
// and rows are never deleted by rotation or cleanup flows.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Revocation reasons recorded for audit.
const (
	RevocationReasonRotated     = "rotated"
	RevocationReasonLogout      = "logout"
	RevocationReasonIdleTimeout = "idle timeout"
	RevocationReasonReuse       = "reuse of revoked or expired token"
	RevocationReasonPassword    = "password changed"
	RevocationReasonUserLocked  = "user locked"
	RevocationReasonAdmin       = "revoked by administrator"
)

// RefreshToken represents one issued refresh credential.
type RefreshToken struct {
	ID               uuid.UUID
	TokenHash        string
	UserID           uuid.UUID
	CreatedAt        time.Time
	ExpiresAt        time.Time
	LastUsedAt       time.Time
	RevokedAt        *time.Time
	RevokedByIP      string
	RevocationReason string
	CreatedByIP      string
}

// IsRevoked reports whether the token has been revoked.
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsActive reports whether the token can still be rotated at the given time.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return !t.IsRevoked() && now.Before(t.ExpiresAt)
}

// IdleSince returns how long the token has gone unused at the given time.
func (t *RefreshToken) IdleSince(now time.Time) time.Duration {
	return now.Sub(t.LastUsedAt)
}
