// Package usecase defines business logic interfaces for identity management.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/buiducnhanit/management-system/internal/identity/domain"
)

// UserRepository defines persistence operations for identities.
// Implementations must support transaction-aware operations via context propagation.
type UserRepository interface {
	// Create stores a new user (and its role list) in the repository.
	Create(ctx context.Context, user *domain.User) error

	// Update modifies an existing user in the repository.
	Update(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID. Returns ErrUserNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email. Returns ErrUserNotFound if not found.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Delete removes a user record. Used as the registration compensating action.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns a page of users ordered by creation time.
	List(ctx context.Context, offset, limit int) ([]*domain.User, error)

	// SetLocked sets or clears the lockout timestamp.
	SetLocked(ctx context.Context, id uuid.UUID, lockedAt *time.Time) error
}

// ActionTokenRepository defines persistence operations for one-time action tokens.
type ActionTokenRepository interface {
	Create(ctx context.Context, token *domain.ActionToken) error
	GetByTokenHash(ctx context.Context, tokenHash string, purpose domain.ActionTokenPurpose) (*domain.ActionToken, error)
	Consume(ctx context.Context, token *domain.ActionToken, at time.Time) error
}

// SecretGenerator produces opaque random secrets and their storage hashes.
// Implemented by the auth token service; declared here so the identity layer
// stays decoupled from it.
type SecretGenerator interface {
	GenerateSecret() (plainSecret string, secretHash string, err error)
	HashSecret(plainSecret string) string
}

// IdentityUseCase is the narrow capability surface over the credential store.
// The refresh-token rotation engine depends only on FindByID and
// UpdateSecurityStamp; the auth orchestration layer uses the rest.
type IdentityUseCase interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// ListUsers returns a page of users ordered by creation time.
	ListUsers(ctx context.Context, offset, limit int) ([]*domain.User, error)

	// CreateUser creates an identity with a hashed password, a fresh security
	// stamp, and the given initial roles.
	CreateUser(ctx context.Context, email, phoneNumber, plainPassword string, roles []string) (*domain.User, error)

	// DeleteUser removes an identity. This is the compensating action for
	// registration failures, not a soft delete.
	DeleteUser(ctx context.Context, id uuid.UUID) error

	SetEmail(ctx context.Context, id uuid.UUID, email string) (*domain.User, error)
	SetPhoneNumber(ctx context.Context, id uuid.UUID, phoneNumber string) (*domain.User, error)

	// VerifyPassword checks a plain password against the stored hash.
	VerifyPassword(user *domain.User, plainPassword string) bool

	// UpdateSecurityStamp rotates the per-user version marker, invalidating
	// access tokens minted with the previous stamp.
	UpdateSecurityStamp(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetRoles returns the current role list for a user.
	GetRoles(ctx context.Context, id uuid.UUID) ([]string, error)

	// AddToRole and RemoveFromRole mutate the role list and return the full
	// recomputed list, never a delta.
	AddToRole(ctx context.Context, id uuid.UUID, role string) ([]string, error)
	RemoveFromRole(ctx context.Context, id uuid.UUID, role string) ([]string, error)

	// GenerateEmailConfirmationToken mints a one-time token for email
	// confirmation. Only the plain token is returned; its hash is persisted.
	GenerateEmailConfirmationToken(ctx context.Context, user *domain.User) (string, error)

	// ConfirmEmail consumes a confirmation token and marks the email confirmed.
	ConfirmEmail(ctx context.Context, plainToken string) (*domain.User, error)

	// GeneratePasswordResetToken mints a one-time token for password reset.
	GeneratePasswordResetToken(ctx context.Context, user *domain.User) (string, error)

	// ResetPassword consumes a reset token and replaces the password hash.
	ResetPassword(ctx context.Context, plainToken string, newPassword string) (*domain.User, error)

	// ChangePassword verifies the current password before replacing it.
	ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) (*domain.User, error)

	// Lock prevents the identity from authenticating; Unlock reverses it.
	Lock(ctx context.Context, id uuid.UUID) error
	Unlock(ctx context.Context, id uuid.UUID) error
}
