package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	authService "github.com/buiducnhanit/management-system/internal/auth/service"
	"github.com/buiducnhanit/management-system/internal/config"
	identityDomain "github.com/buiducnhanit/management-system/internal/identity/domain"
	"github.com/buiducnhanit/management-system/internal/refreshtoken/domain"
)

// rotationEngine implements RotationEngine.
//
// State machine per token: Active -> Rotated | RevokedExplicit |
// RevokedIdleTimeout | Expired (passive, by expiry time). Revocation is
// append-only; the conditional revoke in the store resolves concurrent
// rotations so exactly one caller wins and the loser observes a replay.
type rotationEngine struct {
	config        *config.Config
	tokenRepo     RefreshTokenRepository
	users         UserReader
	secretService authService.SecretService
	tokenCodec    authService.TokenCodec
	logger        *slog.Logger
	now           func() time.Time
}

// NewRotationEngine creates a RotationEngine with the provided dependencies.
func NewRotationEngine(
	cfg *config.Config,
	tokenRepo RefreshTokenRepository,
	users UserReader,
	secretService authService.SecretService,
	tokenCodec authService.TokenCodec,
	logger *slog.Logger,
) RotationEngine {
	return &rotationEngine{
		config:        cfg,
		tokenRepo:     tokenRepo,
		users:         users,
		secretService: secretService,
		tokenCodec:    tokenCodec,
		logger:        logger,
		now:           time.Now,
	}
}

// Issue creates and persists a new refresh token for the user.
//
// A token hash collision is cryptographically near-impossible, so a conflict
// from the store is treated as retryable exactly once with a regenerated
// secret before giving up.
func (e *rotationEngine) Issue(
	ctx context.Context,
	user *identityDomain.User,
	clientIP string,
	rememberMe bool,
) (*domain.IssuedToken, error) {
	now := e.now().UTC()

	lifetime := e.config.RefreshTokenLifetime
	if rememberMe {
		lifetime = e.config.RefreshTokenRememberMeLifetime
	}

	var issued *domain.IssuedToken
	for attempt := 0; attempt < 2; attempt++ {
		plain, hash, err := e.secretService.GenerateSecret()
		if err != nil {
			return nil, err
		}

		token := &domain.RefreshToken{
			ID:          uuid.Must(uuid.NewV7()),
			TokenHash:   hash,
			UserID:      user.ID,
			CreatedAt:   now,
			ExpiresAt:   now.Add(lifetime),
			LastUsedAt:  now,
			CreatedByIP: clientIP,
		}

		err = e.tokenRepo.Create(ctx, token)
		if err == nil {
			issued = &domain.IssuedToken{Token: token, Plain: plain}
			break
		}
		if !errors.Is(err, domain.ErrTokenConflict) {
			return nil, err
		}

		e.logger.Warn("refresh token hash collision, regenerating",
			slog.String("user_id", user.ID.String()),
		)
	}
	if issued == nil {
		return nil, domain.ErrTokenConflict
	}

	return issued, nil
}

// Rotate exchanges a refresh token for a new access/refresh pair.
//
// Evaluation order is strict: existence/active check, then idle check, then
// the replay check, then the rotation itself. The idle check runs before the
// replay check because an idle-timed-out token is still nominally active in
// the store and must be caught first.
func (e *rotationEngine) Rotate(
	ctx context.Context,
	plainToken string,
	userID uuid.UUID,
	clientIP string,
) (*domain.TokenPair, error) {
	now := e.now().UTC()

	token, err := e.tokenRepo.GetByTokenHash(ctx, e.secretService.HashSecret(plainToken), userID)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			// Unknown token: fail closed without touching other sessions.
			e.logger.Warn("refresh token rotation denied: token not found",
				slog.String("user_id", userID.String()),
				slog.String("client_ip", clientIP),
			)
			return nil, domain.ErrRotationDenied
		}
		return nil, err
	}

	if !token.IsActive(now) {
		return nil, e.denyReuse(ctx, token, userID, clientIP)
	}

	if token.IdleSince(now) > e.config.IdleSessionTimeout {
		// The whole session family is terminated, not just this token.
		e.logger.Warn("refresh token rotation denied: session idle timeout",
			slog.String("user_id", userID.String()),
			slog.String("token_id", token.ID.String()),
			slog.Duration("idle", token.IdleSince(now)),
		)
		if err := e.RevokeAllForUser(ctx, userID, domain.RevocationReasonIdleTimeout, clientIP); err != nil {
			return nil, err
		}
		return nil, domain.ErrRotationDenied
	}

	won, err := e.tokenRepo.Revoke(ctx, token.ID, now, clientIP, domain.RevocationReasonRotated)
	if err != nil {
		return nil, err
	}
	if !won {
		// A concurrent rotation already superseded this token. The loser
		// takes the replay path: forcing re-login is the safe outcome.
		return nil, e.denyReuse(ctx, token, userID, clientIP)
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	accessToken, accessExpiresAt, err := e.tokenCodec.Mint(user)
	if err != nil {
		return nil, err
	}

	// Preserve the remember-me lifetime choice across rotations.
	rememberMe := token.ExpiresAt.Sub(token.CreatedAt) > e.config.RefreshTokenLifetime
	issued, err := e.Issue(ctx, user, clientIP, rememberMe)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessExpiresAt,
		RefreshToken:          issued.Plain,
		RefreshTokenExpiresAt: issued.Token.ExpiresAt,
	}, nil
}

// denyReuse handles presentation of a revoked or expired token: the canonical
// signature of token theft. Every live session for the user is terminated and
// the incident is logged at elevated severity for audit.
func (e *rotationEngine) denyReuse(
	ctx context.Context,
	token *domain.RefreshToken,
	userID uuid.UUID,
	clientIP string,
) error {
	e.logger.Error("refresh token reuse detected, revoking all sessions",
		slog.String("user_id", userID.String()),
		slog.String("token_id", token.ID.String()),
		slog.String("client_ip", clientIP),
		slog.Bool("was_revoked", token.IsRevoked()),
	)

	if err := e.RevokeAllForUser(ctx, userID, domain.RevocationReasonReuse, clientIP); err != nil {
		return err
	}
	return domain.ErrRotationDenied
}

// RevokeAllForUser revokes every token the user still has active. Losing the
// conditional update on a token is fine: someone else revoked it first.
func (e *rotationEngine) RevokeAllForUser(
	ctx context.Context,
	userID uuid.UUID,
	reason, clientIP string,
) error {
	now := e.now().UTC()

	tokens, err := e.tokenRepo.ListActiveForUser(ctx, userID, now)
	if err != nil {
		return err
	}

	for _, token := range tokens {
		if _, err := e.tokenRepo.Revoke(ctx, token.ID, now, clientIP, reason); err != nil {
			return err
		}
	}

	return nil
}

// RevokeSpecific revokes one token if it is still active. Revocation is
// idempotent by intent: a missing or already-inactive token is a no-op.
func (e *rotationEngine) RevokeSpecific(
	ctx context.Context,
	plainToken string,
	userID uuid.UUID,
	reason, clientIP string,
) error {
	now := e.now().UTC()

	token, err := e.tokenRepo.GetByTokenHash(ctx, e.secretService.HashSecret(plainToken), userID)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			e.logger.Info("revoke skipped: token not found",
				slog.String("user_id", userID.String()),
			)
			return nil
		}
		return err
	}

	if !token.IsActive(now) {
		e.logger.Info("revoke skipped: token already inactive",
			slog.String("user_id", userID.String()),
			slog.String("token_id", token.ID.String()),
		)
		return nil
	}

	if _, err := e.tokenRepo.Revoke(ctx, token.ID, now, clientIP, reason); err != nil {
		return err
	}

	return nil
}
