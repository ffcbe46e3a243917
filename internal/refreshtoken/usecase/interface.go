// Package usecase implements the refresh-token rotation engine and the
// idle-session cleanup sweep.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/buiducnhanit/management-system/internal/identity/domain"
	"github.com/buiducnhanit/management-system/internal/refreshtoken/domain"
)

// RefreshTokenRepository defines persistence operations for refresh tokens.
// Implementations must support transaction-aware operations via context propagation.
type RefreshTokenRepository interface {
	// Create stores a new token. Returns ErrTokenConflict on a token hash collision.
	Create(ctx context.Context, token *domain.RefreshToken) error

	// GetByTokenHash retrieves a token matching both hash and owning user.
	// Returns ErrTokenNotFound if no such token exists.
	GetByTokenHash(ctx context.Context, tokenHash string, userID uuid.UUID) (*domain.RefreshToken, error)

	// ListActiveForUser returns the user's tokens that are neither revoked nor
	// expired at the given time.
	ListActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]*domain.RefreshToken, error)

	// Revoke conditionally sets the revocation fields on a not-yet-revoked
	// token and reports whether this call won the update.
	Revoke(ctx context.Context, id uuid.UUID, at time.Time, byIP string, reason string) (bool, error)

	// RevokeInactiveSince bulk-revokes unrevoked tokens idle longer than the
	// threshold and returns the count.
	RevokeInactiveSince(ctx context.Context, threshold time.Duration, now time.Time) (int64, error)

	// CountInactiveSince reports what RevokeInactiveSince would revoke.
	CountInactiveSince(ctx context.Context, threshold time.Duration, now time.Time) (int64, error)
}

// UserReader is the narrow identity surface the rotation engine needs: it
// only ever fetches a user to stamp roles and the security stamp into a
// freshly minted access token.
type UserReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identityDomain.User, error)
}

// RotationEngine drives the refresh-token lifecycle state machine.
type RotationEngine interface {
	// Issue creates a new refresh token for the user. Remember-me selects the
	// longer configured lifetime. Concurrent sessions are allowed; issuing has
	// no side effects on the user's other tokens.
	Issue(
		ctx context.Context,
		user *identityDomain.User,
		clientIP string,
		rememberMe bool,
	) (*domain.IssuedToken, error)

	// Rotate exchanges a refresh token for a new access/refresh pair. Any
	// failure path returns ErrRotationDenied and never a partial pair:
	// unknown tokens fail closed with no side effects, idle sessions and
	// replayed tokens terminate every live session for the user.
	Rotate(
		ctx context.Context,
		plainToken string,
		userID uuid.UUID,
		clientIP string,
	) (*domain.TokenPair, error)

	// RevokeAllForUser revokes every active token the user has. Idempotent.
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason, clientIP string) error

	// RevokeSpecific revokes a single token if it is still active. Missing or
	// already-inactive tokens are a logged no-op, not an error.
	RevokeSpecific(ctx context.Context, plainToken string, userID uuid.UUID, reason, clientIP string) error
}

// CleanupUseCase is the background idle-session sweep.
type CleanupUseCase interface {
	// Start runs the sweep on the configured interval until ctx is cancelled.
	Start(ctx context.Context) error

	// Sweep revokes (or, in dry-run mode, counts) every token idle longer
	// than the configured threshold. Returns the affected count.
	Sweep(ctx context.Context, dryRun bool) (int64, error)
}
