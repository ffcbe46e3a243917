// Package usecase implements the auth orchestration layer: it composes the
// identity store, the refresh-token rotation engine, the access-token codec,
// the transactional outbox and the mailer into the operations the HTTP
// surface exposes.
package usecase

import (
	"context"

	"github.com/google/uuid"

	eventsDomain "github.com/buiducnhanit/management-system/internal/events/domain"
	identityDomain "github.com/buiducnhanit/management-system/internal/identity/domain"
	refreshDomain "github.com/buiducnhanit/management-system/internal/refreshtoken/domain"
)

// OutboxWriter stores events in the transactional outbox.
type OutboxWriter interface {
	Create(ctx context.Context, event *eventsDomain.OutboxEvent) error
}

// AuthUseCase is the auth service's operation surface.
type AuthUseCase interface {
	// Register creates the identity, stages the user.registered event in the
	// same transaction, and sends the confirmation email after commit. A mail
	// failure does not undo the registration.
	Register(ctx context.Context, email, phoneNumber, password string) (*identityDomain.User, error)

	// Login verifies credentials and returns a fresh access/refresh pair.
	// Unknown emails and wrong passwords surface the same generic error.
	Login(ctx context.Context, email, password string, rememberMe bool, clientIP string) (*refreshDomain.TokenPair, error)

	// Refresh exchanges a refresh token through the rotation engine.
	Refresh(ctx context.Context, plainToken string, userID uuid.UUID, clientIP string) (*refreshDomain.TokenPair, error)

	// Logout revokes the presented refresh token and rotates the security
	// stamp so outstanding access tokens stop validating.
	Logout(ctx context.Context, plainToken string, userID uuid.UUID, clientIP string) error

	// ForgotPassword sends a reset token to the address if it exists. Unknown
	// addresses are a silent success to prevent account enumeration.
	ForgotPassword(ctx context.Context, email string) error

	// ResetPassword consumes a reset token, replaces the password, and revokes
	// every session the user has.
	ResetPassword(ctx context.Context, plainToken, newPassword, clientIP string) error

	// ConfirmEmail consumes a confirmation token and marks the email confirmed.
	ConfirmEmail(ctx context.Context, plainToken string) error

	// ChangePassword verifies the current password, replaces it, and revokes
	// every session. The caller logs in again with the new password.
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword, clientIP string) error

	// ListUsers returns a page of user accounts for administration.
	ListUsers(ctx context.Context, offset, limit int) ([]*identityDomain.User, error)

	// AddRole and RemoveRole mutate the role list and stage a roles.changed
	// event carrying the full recomputed list.
	AddRole(ctx context.Context, userID uuid.UUID, role string) ([]string, error)
	RemoveRole(ctx context.Context, userID uuid.UUID, role string) ([]string, error)

	// LockUser locks the identity, revokes its sessions, and stages a
	// user.deleted event so the profile service drops the profile.
	LockUser(ctx context.Context, userID uuid.UUID, clientIP string) error

	// UnlockUser clears the lockout and stages user.unlocked so the profile
	// service restores a minimal profile.
	UnlockUser(ctx context.Context, userID uuid.UUID) error
}
