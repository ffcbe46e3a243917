// Package usecase implements business logic orchestration for identity management.
package usecase

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/buiducnhanit/management-system/internal/errors"
	"github.com/buiducnhanit/management-system/internal/identity/domain"
	identityService "github.com/buiducnhanit/management-system/internal/identity/service"
)

const (
	emailConfirmationTokenTTL = 48 * time.Hour
	passwordResetTokenTTL     = 2 * time.Hour
)

// identityUseCase implements IdentityUseCase over the user and action-token repositories.
type identityUseCase struct {
	userRepo        UserRepository
	actionTokenRepo ActionTokenRepository
	passwordService identityService.PasswordService
	secretGenerator SecretGenerator
	now             func() time.Time
}

// NewIdentityUseCase creates a new IdentityUseCase with the provided dependencies.
func NewIdentityUseCase(
	userRepo UserRepository,
	actionTokenRepo ActionTokenRepository,
	passwordService identityService.PasswordService,
	secretGenerator SecretGenerator,
) IdentityUseCase {
	return &identityUseCase{
		userRepo:        userRepo,
		actionTokenRepo: actionTokenRepo,
		passwordService: passwordService,
		secretGenerator: secretGenerator,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (u *identityUseCase) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return u.userRepo.GetByID(ctx, id)
}

func (u *identityUseCase) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return u.userRepo.GetByEmail(ctx, email)
}

func (u *identityUseCase) ListUsers(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	return u.userRepo.List(ctx, offset, limit)
}

// CreateUser creates an identity with a hashed password and a fresh security stamp.
func (u *identityUseCase) CreateUser(
	ctx context.Context,
	email, phoneNumber, plainPassword string,
	roles []string,
) (*domain.User, error) {
	passwordHash, err := u.passwordService.HashPassword(plainPassword)
	if err != nil {
		return nil, err
	}

	stamp, _, err := u.secretGenerator.GenerateSecret()
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:            uuid.Must(uuid.NewV7()),
		Email:         email,
		PhoneNumber:   phoneNumber,
		PasswordHash:  passwordHash,
		SecurityStamp: stamp,
		Roles:         roles,
	}

	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (u *identityUseCase) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return u.userRepo.Delete(ctx, id)
}

func (u *identityUseCase) SetEmail(ctx context.Context, id uuid.UUID, email string) (*domain.User, error) {
	user, err := u.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Email = email
	if err := u.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (u *identityUseCase) SetPhoneNumber(ctx context.Context, id uuid.UUID, phoneNumber string) (*domain.User, error) {
	user, err := u.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.PhoneNumber = phoneNumber
	if err := u.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// VerifyPassword checks a plain password against the stored hash.
func (u *identityUseCase) VerifyPassword(user *domain.User, plainPassword string) bool {
	return u.passwordService.ComparePassword(plainPassword, user.PasswordHash)
}

// UpdateSecurityStamp rotates the per-user version marker. Access tokens carry
// the stamp they were minted with, so rotating it invalidates them system-wide
// at the gateway's validation layer.
func (u *identityUseCase) UpdateSecurityStamp(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := u.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stamp, _, err := u.secretGenerator.GenerateSecret()
	if err != nil {
		return nil, err
	}

	user.SecurityStamp = stamp
	if err := u.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (u *identityUseCase) GetRoles(ctx context.Context, id uuid.UUID) ([]string, error) {
	user, err := u.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Roles, nil
}

// AddToRole adds a role and returns the full recomputed list. Adding an
// already-held role is a no-op.
func (u *identityUseCase) AddToRole(ctx context.Context, id uuid.UUID, role string) ([]string, error) {
	user, err := u.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.HasRole(role) {
		return user.Roles, nil
	}

	user.Roles = append(user.Roles, role)
	slices.Sort(user.Roles)

	if err := u.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user.Roles, nil
}

// RemoveFromRole removes a role and returns the full recomputed list. Removing
// a role the user does not hold is a no-op.
func (u *identityUseCase) RemoveFromRole(ctx context.Context, id uuid.UUID, role string) ([]string, error) {
	user, err := u.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !user.HasRole(role) {
		return user.Roles, nil
	}

	user.Roles = slices.DeleteFunc(user.Roles, func(r string) bool { return r == role })

	if err := u.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user.Roles, nil
}

// GenerateEmailConfirmationToken mints a one-time confirmation token.
func (u *identityUseCase) GenerateEmailConfirmationToken(ctx context.Context, user *domain.User) (string, error) {
	return u.generateActionToken(ctx, user, domain.ActionTokenPurposeEmailConfirmation, emailConfirmationTokenTTL)
}

// ConfirmEmail consumes a confirmation token and marks the email confirmed.
func (u *identityUseCase) ConfirmEmail(ctx context.Context, plainToken string) (*domain.User, error) {
	token, err := u.consumeActionToken(ctx, plainToken, domain.ActionTokenPurposeEmailConfirmation)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, err
	}

	user.EmailConfirmed = true
	if err := u.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// GeneratePasswordResetToken mints a one-time reset token.
func (u *identityUseCase) GeneratePasswordResetToken(ctx context.Context, user *domain.User) (string, error) {
	return u.generateActionToken(ctx, user, domain.ActionTokenPurposePasswordReset, passwordResetTokenTTL)
}

// ResetPassword consumes a reset token, replaces the password hash, and
// rotates the security stamp.
func (u *identityUseCase) ResetPassword(
	ctx context.Context,
	plainToken string,
	newPassword string,
) (*domain.User, error) {
	token, err := u.consumeActionToken(ctx, plainToken, domain.ActionTokenPurposePasswordReset)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, err
	}

	return u.replacePassword(ctx, user, newPassword)
}

// ChangePassword verifies the current password before replacing it. A wrong
// current password surfaces as the generic invalid-credentials error.
func (u *identityUseCase) ChangePassword(
	ctx context.Context,
	id uuid.UUID,
	currentPassword, newPassword string,
) (*domain.User, error) {
	user, err := u.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !u.passwordService.ComparePassword(currentPassword, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return u.replacePassword(ctx, user, newPassword)
}

// Lock prevents the identity from authenticating. Locking an already-locked
// user keeps the original lock time.
func (u *identityUseCase) Lock(ctx context.Context, id uuid.UUID) error {
	user, err := u.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.IsLocked() {
		return nil
	}

	lockedAt := u.now()
	return u.userRepo.SetLocked(ctx, id, &lockedAt)
}

// Unlock clears the lockout timestamp.
func (u *identityUseCase) Unlock(ctx context.Context, id uuid.UUID) error {
	return u.userRepo.SetLocked(ctx, id, nil)
}

// replacePassword hashes and stores the new password and rotates the security stamp.
func (u *identityUseCase) replacePassword(
	ctx context.Context,
	user *domain.User,
	newPassword string,
) (*domain.User, error) {
	passwordHash, err := u.passwordService.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	stamp, _, err := u.secretGenerator.GenerateSecret()
	if err != nil {
		return nil, err
	}

	user.PasswordHash = passwordHash
	user.SecurityStamp = stamp

	if err := u.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// generateActionToken persists a hashed one-time token and returns the plain value.
func (u *identityUseCase) generateActionToken(
	ctx context.Context,
	user *domain.User,
	purpose domain.ActionTokenPurpose,
	ttl time.Duration,
) (string, error) {
	plain, hash, err := u.secretGenerator.GenerateSecret()
	if err != nil {
		return "", err
	}

	token := &domain.ActionToken{
		ID:        uuid.Must(uuid.NewV7()),
		UserID:    user.ID,
		TokenHash: hash,
		Purpose:   purpose,
		ExpiresAt: u.now().Add(ttl),
	}

	if err := u.actionTokenRepo.Create(ctx, token); err != nil {
		return "", apperrors.Wrap(err, "failed to create action token")
	}

	return plain, nil
}

// consumeActionToken validates and consumes a one-time token.
func (u *identityUseCase) consumeActionToken(
	ctx context.Context,
	plainToken string,
	purpose domain.ActionTokenPurpose,
) (*domain.ActionToken, error) {
	token, err := u.actionTokenRepo.GetByTokenHash(ctx, u.secretGenerator.HashSecret(plainToken), purpose)
	if err != nil {
		return nil, err
	}

	if !token.IsUsable(u.now()) {
		return nil, domain.ErrInvalidActionToken
	}

	if err := u.actionTokenRepo.Consume(ctx, token, u.now()); err != nil {
		return nil, err
	}

	return token, nil
}
