package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	authService "github.com/buiducnhanit/management-system/internal/auth/service"
	"github.com/buiducnhanit/management-system/internal/database"
	eventsDomain "github.com/buiducnhanit/management-system/internal/events/domain"
	identityDomain "github.com/buiducnhanit/management-system/internal/identity/domain"
	identityUseCase "github.com/buiducnhanit/management-system/internal/identity/usecase"
	"github.com/buiducnhanit/management-system/internal/mail"
	refreshDomain "github.com/buiducnhanit/management-system/internal/refreshtoken/domain"
	refreshUseCase "github.com/buiducnhanit/management-system/internal/refreshtoken/usecase"
)

// authUseCase implements AuthUseCase.
type authUseCase struct {
	txManager  database.TxManager
	identities identityUseCase.IdentityUseCase
	engine     refreshUseCase.RotationEngine
	codec      authService.TokenCodec
	outboxRepo OutboxWriter
	mailer     mail.Mailer
	logger     *slog.Logger
	now        func() time.Time
}

// NewAuthUseCase creates a new AuthUseCase with the provided dependencies.
func NewAuthUseCase(
	txManager database.TxManager,
	identities identityUseCase.IdentityUseCase,
	engine refreshUseCase.RotationEngine,
	codec authService.TokenCodec,
	outboxRepo OutboxWriter,
	mailer mail.Mailer,
	logger *slog.Logger,
) AuthUseCase {
	return &authUseCase{
		txManager:  txManager,
		identities: identities,
		engine:     engine,
		codec:      codec,
		outboxRepo: outboxRepo,
		mailer:     mailer,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register creates the identity, stages user.registered, and mints the email
// confirmation token in one transaction, then sends the confirmation email.
func (uc *authUseCase) Register(
	ctx context.Context,
	email, phoneNumber, password string,
) (*identityDomain.User, error) {
	var user *identityDomain.User
	var confirmationToken string

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		created, err := uc.identities.CreateUser(
			ctx, email, phoneNumber, password, []string{identityDomain.RoleUser},
		)
		if err != nil {
			return err
		}
		user = created

		event, err := eventsDomain.NewOutboxEvent(
			eventsDomain.EventTypeUserRegistered,
			eventsDomain.UserRegisteredPayload{
				UserID:      user.ID,
				Email:       user.Email,
				PhoneNumber: user.PhoneNumber,
				Roles:       user.Roles,
				OccurredAt:  uc.now(),
			},
		)
		if err != nil {
			return err
		}
		if err := uc.outboxRepo.Create(ctx, event); err != nil {
			return err
		}

		confirmationToken, err = uc.identities.GenerateEmailConfirmationToken(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	// The registration is committed; a mail failure only loses the email.
	if err := uc.mailer.Send(ctx, user.Email, "Confirm your email",
		fmt.Sprintf("Use this token to confirm your email address: %s", confirmationToken),
	); err != nil {
		uc.logger.Error("failed to send confirmation email",
			slog.String("user_id", user.ID.String()),
			slog.String("error", err.Error()))
	}

	uc.logger.Info("user registered",
		slog.String("user_id", user.ID.String()))

	return user, nil
}

// Login verifies credentials and returns a fresh access/refresh pair. The
// password check runs before the lockout check so both failures take the same
// amount of work for an attacker.
func (uc *authUseCase) Login(
	ctx context.Context,
	email, password string,
	rememberMe bool,
	clientIP string,
) (*refreshDomain.TokenPair, error) {
	user, err := uc.identities.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identityDomain.ErrUserNotFound) {
			return nil, identityDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !uc.identities.VerifyPassword(user, password) {
		uc.logger.Warn("login failed: wrong password",
			slog.String("user_id", user.ID.String()),
			slog.String("client_ip", clientIP))
		return nil, identityDomain.ErrInvalidCredentials
	}

	if user.IsLocked() {
		return nil, identityDomain.ErrUserLocked
	}

	if !user.EmailConfirmed {
		return nil, identityDomain.ErrEmailNotConfirmed
	}

	accessToken, accessExpiresAt, err := uc.codec.Mint(user)
	if err != nil {
		return nil, err
	}

	issued, err := uc.engine.Issue(ctx, user, clientIP, rememberMe)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("user logged in",
		slog.String("user_id", user.ID.String()),
		slog.Bool("remember_me", rememberMe))

	return &refreshDomain.TokenPair{
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessExpiresAt,
		RefreshToken:          issued.Plain,
		RefreshTokenExpiresAt: issued.Token.ExpiresAt,
	}, nil
}

func (uc *authUseCase) Refresh(
	ctx context.Context,
	plainToken string,
	userID uuid.UUID,
	clientIP string,
) (*refreshDomain.TokenPair, error) {
	return uc.engine.Rotate(ctx, plainToken, userID, clientIP)
}

// Logout revokes the presented refresh token and rotates the security stamp.
func (uc *authUseCase) Logout(
	ctx context.Context,
	plainToken string,
	userID uuid.UUID,
	clientIP string,
) error {
	if err := uc.engine.RevokeSpecific(
		ctx, plainToken, userID, refreshDomain.RevocationReasonLogout, clientIP,
	); err != nil {
		return err
	}

	if _, err := uc.identities.UpdateSecurityStamp(ctx, userID); err != nil {
		return err
	}

	uc.logger.Info("user logged out", slog.String("user_id", userID.String()))
	return nil
}

// ForgotPassword mails a reset token. Unknown addresses are a silent success.
func (uc *authUseCase) ForgotPassword(ctx context.Context, email string) error {
	user, err := uc.identities.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identityDomain.ErrUserNotFound) {
			uc.logger.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	resetToken, err := uc.identities.GeneratePasswordResetToken(ctx, user)
	if err != nil {
		return err
	}

	return uc.mailer.Send(ctx, user.Email, "Reset your password",
		fmt.Sprintf("Use this token to reset your password: %s", resetToken))
}

// ResetPassword consumes the token, replaces the password, and revokes every
// session in the same transaction.
func (uc *authUseCase) ResetPassword(ctx context.Context, plainToken, newPassword, clientIP string) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		user, err := uc.identities.ResetPassword(ctx, plainToken, newPassword)
		if err != nil {
			return err
		}

		return uc.engine.RevokeAllForUser(
			ctx, user.ID, refreshDomain.RevocationReasonPassword, clientIP,
		)
	})
}

func (uc *authUseCase) ConfirmEmail(ctx context.Context, plainToken string) error {
	user, err := uc.identities.ConfirmEmail(ctx, plainToken)
	if err != nil {
		return err
	}

	uc.logger.Info("email confirmed", slog.String("user_id", user.ID.String()))
	return nil
}

// ChangePassword verifies the current password, replaces it, and revokes every
// session in the same transaction.
func (uc *authUseCase) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	currentPassword, newPassword, clientIP string,
) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if _, err := uc.identities.ChangePassword(ctx, userID, currentPassword, newPassword); err != nil {
			return err
		}

		return uc.engine.RevokeAllForUser(
			ctx, userID, refreshDomain.RevocationReasonPassword, clientIP,
		)
	})
}

// ListUsers returns a page of user accounts for administration.
func (uc *authUseCase) ListUsers(ctx context.Context, offset, limit int) ([]*identityDomain.User, error) {
	return uc.identities.ListUsers(ctx, offset, limit)
}

// AddRole adds a role and stages roles.changed with the full recomputed list.
func (uc *authUseCase) AddRole(ctx context.Context, userID uuid.UUID, role string) ([]string, error) {
	return uc.mutateRoles(ctx, userID, func(ctx context.Context) ([]string, error) {
		return uc.identities.AddToRole(ctx, userID, role)
	})
}

// RemoveRole removes a role and stages roles.changed with the full recomputed list.
func (uc *authUseCase) RemoveRole(ctx context.Context, userID uuid.UUID, role string) ([]string, error) {
	return uc.mutateRoles(ctx, userID, func(ctx context.Context) ([]string, error) {
		return uc.identities.RemoveFromRole(ctx, userID, role)
	})
}

func (uc *authUseCase) mutateRoles(
	ctx context.Context,
	userID uuid.UUID,
	mutate func(ctx context.Context) ([]string, error),
) ([]string, error) {
	var roles []string

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		updated, err := mutate(ctx)
		if err != nil {
			return err
		}
		roles = updated

		event, err := eventsDomain.NewOutboxEvent(
			eventsDomain.EventTypeRolesChanged,
			eventsDomain.RolesChangedPayload{
				UserID:     userID,
				Roles:      roles,
				OccurredAt: uc.now(),
			},
		)
		if err != nil {
			return err
		}

		return uc.outboxRepo.Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	return roles, nil
}

// LockUser locks the identity, revokes its sessions, and stages user.deleted
// so the profile service drops the profile.
func (uc *authUseCase) LockUser(ctx context.Context, userID uuid.UUID, clientIP string) error {
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.identities.Lock(ctx, userID); err != nil {
			return err
		}

		if err := uc.engine.RevokeAllForUser(
			ctx, userID, refreshDomain.RevocationReasonUserLocked, clientIP,
		); err != nil {
			return err
		}

		event, err := eventsDomain.NewOutboxEvent(
			eventsDomain.EventTypeUserDeleted,
			eventsDomain.UserDeletedPayload{UserID: userID, OccurredAt: uc.now()},
		)
		if err != nil {
			return err
		}

		return uc.outboxRepo.Create(ctx, event)
	})
	if err != nil {
		return err
	}

	uc.logger.Info("user locked", slog.String("user_id", userID.String()))
	return nil
}

// UnlockUser clears the lockout and stages user.unlocked.
func (uc *authUseCase) UnlockUser(ctx context.Context, userID uuid.UUID) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		user, err := uc.identities.FindByID(ctx, userID)
		if err != nil {
			return err
		}

		if err := uc.identities.Unlock(ctx, userID); err != nil {
			return err
		}

		event, err := eventsDomain.NewOutboxEvent(
			eventsDomain.EventTypeUserUnlocked,
			eventsDomain.UserUnlockedPayload{
				UserID:     userID,
				Email:      user.Email,
				OccurredAt: uc.now(),
			},
		)
		if err != nil {
			return err
		}

		return uc.outboxRepo.Create(ctx, event)
	})
}
