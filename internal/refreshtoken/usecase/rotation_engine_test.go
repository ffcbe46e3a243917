package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authService "github.com/buiducnhanit/management-system/internal/auth/service"
	"github.com/buiducnhanit/management-system/internal/config"
	identityDomain "github.com/buiducnhanit/management-system/internal/identity/domain"
	"github.com/buiducnhanit/management-system/internal/refreshtoken/domain"
)

// mockRefreshTokenRepository is a mock implementation of RefreshTokenRepository for testing.
type mockRefreshTokenRepository struct {
	mock.Mock
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
	userID uuid.UUID,
) (*domain.RefreshToken, error) {
	args := m.Called(ctx, tokenHash, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepository) ListActiveForUser(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) ([]*domain.RefreshToken, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepository) Revoke(
	ctx context.Context,
	id uuid.UUID,
	at time.Time,
	byIP string,
	reason string,
) (bool, error) {
	args := m.Called(ctx, id, at, byIP, reason)
	return args.Bool(0), args.Error(1)
}

func (m *mockRefreshTokenRepository) RevokeInactiveSince(
	ctx context.Context,
	threshold time.Duration,
	now time.Time,
) (int64, error) {
	args := m.Called(ctx, threshold, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRefreshTokenRepository) CountInactiveSince(
	ctx context.Context,
	threshold time.Duration,
	now time.Time,
) (int64, error) {
	args := m.Called(ctx, threshold, now)
	return args.Get(0).(int64), args.Error(1)
}

// mockUserReader is a mock implementation of UserReader for testing.
type mockUserReader struct {
	mock.Mock
}

func (m *mockUserReader) FindByID(ctx context.Context, id uuid.UUID) (*identityDomain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.User), args.Error(1)
}

// mockSecretService is a mock implementation of SecretService for testing.
type mockSecretService struct {
	mock.Mock
}

func (m *mockSecretService) GenerateSecret() (string, string, error) {
	args := m.Called()
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockSecretService) HashSecret(plainSecret string) string {
	args := m.Called(plainSecret)
	return args.String(0)
}

// mockTokenCodec is a mock implementation of TokenCodec for testing.
type mockTokenCodec struct {
	mock.Mock
}

func (m *mockTokenCodec) Mint(user *identityDomain.User) (string, time.Time, error) {
	args := m.Called(user)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockTokenCodec) Parse(token string) (*authService.AccessClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authService.AccessClaims), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		RefreshTokenLifetime:           7 * 24 * time.Hour,
		RefreshTokenRememberMeLifetime: 30 * 24 * time.Hour,
		IdleSessionTimeout:             12 * time.Hour,
		SessionCleanupInterval:         10 * time.Minute,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine(
	cfg *config.Config,
	repo *mockRefreshTokenRepository,
	users *mockUserReader,
	secrets *mockSecretService,
	codec *mockTokenCodec,
	now time.Time,
) RotationEngine {
	engine := NewRotationEngine(cfg, repo, users, secrets, codec, testLogger())
	engine.(*rotationEngine).now = func() time.Time { return now }
	return engine
}

func testUser() *identityDomain.User {
	return &identityDomain.User{
		ID:            uuid.Must(uuid.NewV7()),
		Email:         "user@example.com",
		SecurityStamp: "stamp-1",
		Roles:         []string{identityDomain.RoleUser},
	}
}

func TestRotationEngine_Issue(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Success_DefaultLifetime", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		secrets := &mockSecretService{}
		user := testUser()

		secrets.On("GenerateSecret").Return("plain-1", "hash-1", nil).Once()
		repo.On("Create", ctx, mock.MatchedBy(func(token *domain.RefreshToken) bool {
			return token.TokenHash == "hash-1" &&
				token.UserID == user.ID &&
				token.ExpiresAt.Equal(now.Add(cfg.RefreshTokenLifetime)) &&
				token.LastUsedAt.Equal(now) &&
				token.CreatedByIP == "192.0.2.1" &&
				token.RevokedAt == nil
		})).Return(nil).Once()

		engine := testEngine(cfg, repo, &mockUserReader{}, secrets, &mockTokenCodec{}, now)
		issued, err := engine.Issue(ctx, user, "192.0.2.1", false)

		require.NoError(t, err)
		assert.Equal(t, "plain-1", issued.Plain)
		assert.Equal(t, "hash-1", issued.Token.TokenHash)
		repo.AssertExpectations(t)
		secrets.AssertExpectations(t)
	})

	t.Run("Success_RememberMeLifetime", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		secrets := &mockSecretService{}
		user := testUser()

		secrets.On("GenerateSecret").Return("plain-1", "hash-1", nil).Once()
		repo.On("Create", ctx, mock.MatchedBy(func(token *domain.RefreshToken) bool {
			return token.ExpiresAt.Equal(now.Add(cfg.RefreshTokenRememberMeLifetime))
		})).Return(nil).Once()

		engine := testEngine(cfg, repo, &mockUserReader{}, secrets, &mockTokenCodec{}, now)
		_, err := engine.Issue(ctx, user, "192.0.2.1", true)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Success_RetriesOnceOnHashCollision", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		secrets := &mockSecretService{}
		user := testUser()

		secrets.On("GenerateSecret").Return("plain-1", "hash-1", nil).Once()
		secrets.On("GenerateSecret").Return("plain-2", "hash-2", nil).Once()
		repo.On("Create", ctx, mock.MatchedBy(func(token *domain.RefreshToken) bool {
			return token.TokenHash == "hash-1"
		})).Return(domain.ErrTokenConflict).Once()
		repo.On("Create", ctx, mock.MatchedBy(func(token *domain.RefreshToken) bool {
			return token.TokenHash == "hash-2"
		})).Return(nil).Once()

		engine := testEngine(cfg, repo, &mockUserReader{}, secrets, &mockTokenCodec{}, now)
		issued, err := engine.Issue(ctx, user, "192.0.2.1", false)

		require.NoError(t, err)
		assert.Equal(t, "plain-2", issued.Plain)
		repo.AssertExpectations(t)
		secrets.AssertExpectations(t)
	})

	t.Run("Error_SecondCollisionSurfaces", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		secrets := &mockSecretService{}
		user := testUser()

		secrets.On("GenerateSecret").Return("plain", "hash", nil).Twice()
		repo.On("Create", ctx, mock.Anything).Return(domain.ErrTokenConflict).Twice()

		engine := testEngine(cfg, repo, &mockUserReader{}, secrets, &mockTokenCodec{}, now)
		issued, err := engine.Issue(ctx, user, "192.0.2.1", false)

		assert.Nil(t, issued)
		assert.ErrorIs(t, err, domain.ErrTokenConflict)
		repo.AssertExpectations(t)
	})

	t.Run("Error_StoreFailureIsNotRetried", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		secrets := &mockSecretService{}
		user := testUser()
		storeErr := errors.New("connection refused")

		secrets.On("GenerateSecret").Return("plain", "hash", nil).Once()
		repo.On("Create", ctx, mock.Anything).Return(storeErr).Once()

		engine := testEngine(cfg, repo, &mockUserReader{}, secrets, &mockTokenCodec{}, now)
		_, err := engine.Issue(ctx, user, "192.0.2.1", false)

		assert.ErrorIs(t, err, storeErr)
		repo.AssertExpectations(t)
	})
}

func TestRotationEngine_Rotate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	activeToken := func(userID uuid.UUID) *domain.RefreshToken {
		return &domain.RefreshToken{
			ID:         uuid.Must(uuid.NewV7()),
			TokenHash:  "old-hash",
			UserID:     userID,
			CreatedAt:  now.Add(-time.Hour),
			ExpiresAt:  now.Add(7*24*time.Hour - time.Hour),
			LastUsedAt: now.Add(-time.Hour),
		}
	}

	t.Run("Success_RotationYieldsNewPair", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		users := &mockUserReader{}
		secrets := &mockSecretService{}
		codec := &mockTokenCodec{}
		user := testUser()
		oldToken := activeToken(user.ID)
		accessExpiry := now.Add(15 * time.Minute)

		secrets.On("HashSecret", "old-plain").Return("old-hash").Once()
		repo.On("GetByTokenHash", ctx, "old-hash", user.ID).Return(oldToken, nil).Once()
		repo.On("Revoke", ctx, oldToken.ID, now, "192.0.2.1", domain.RevocationReasonRotated).
			Return(true, nil).Once()
		users.On("FindByID", ctx, user.ID).Return(user, nil).Once()
		codec.On("Mint", user).Return("access-jwt", accessExpiry, nil).Once()
		secrets.On("GenerateSecret").Return("new-plain", "new-hash", nil).Once()
		repo.On("Create", ctx, mock.MatchedBy(func(token *domain.RefreshToken) bool {
			return token.TokenHash == "new-hash" && token.UserID == user.ID
		})).Return(nil).Once()

		engine := testEngine(cfg, repo, users, secrets, codec, now)
		pair, err := engine.Rotate(ctx, "old-plain", user.ID, "192.0.2.1")

		require.NoError(t, err)
		assert.Equal(t, "access-jwt", pair.AccessToken)
		assert.Equal(t, accessExpiry, pair.AccessTokenExpiresAt)
		assert.Equal(t, "new-plain", pair.RefreshToken)
		assert.NotEqual(t, "old-plain", pair.RefreshToken)
		repo.AssertExpectations(t)
		users.AssertExpectations(t)
		secrets.AssertExpectations(t)
		codec.AssertExpectations(t)
	})

	t.Run("Success_RememberMeLifetimeSurvivesRotation", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		users := &mockUserReader{}
		secrets := &mockSecretService{}
		codec := &mockTokenCodec{}
		user := testUser()

		// Issued with the remember-me lifetime a day ago
		oldToken := activeToken(user.ID)
		oldToken.CreatedAt = now.Add(-24 * time.Hour)
		oldToken.ExpiresAt = oldToken.CreatedAt.Add(cfg.RefreshTokenRememberMeLifetime)

		secrets.On("HashSecret", "old-plain").Return("old-hash").Once()
		repo.On("GetByTokenHash", ctx, "old-hash", user.ID).Return(oldToken, nil).Once()
		repo.On("Revoke", ctx, oldToken.ID, now, "192.0.2.1", domain.RevocationReasonRotated).
			Return(true, nil).Once()
		users.On("FindByID", ctx, user.ID).Return(user, nil).Once()
		codec.On("Mint", user).Return("access-jwt", now.Add(15*time.Minute), nil).Once()
		secrets.On("GenerateSecret").Return("new-plain", "new-hash", nil).Once()
		repo.On("Create", ctx, mock.MatchedBy(func(token *domain.RefreshToken) bool {
			return token.ExpiresAt.Equal(now.Add(cfg.RefreshTokenRememberMeLifetime))
		})).Return(nil).Once()

		engine := testEngine(cfg, repo, users, secrets, codec, now)
		_, err := engine.Rotate(ctx, "old-plain", user.ID, "192.0.2.1")

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Denied_TokenNotFound_NoSideEffects", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		secrets := &mockSecretService{}
		userID := uuid.Must(uuid.NewV7())

		secrets.On("HashSecret", "unknown-plain").Return("unknown-hash").Once()
		repo.On("GetByTokenHash", ctx, "unknown-hash", userID).
			Return(nil, domain.ErrTokenNotFound).Once()

		engine := testEngine(cfg, repo, &mockUserReader{}, secrets, &mockTokenCodec{}, now)
		pair, err := engine.Rotate(ctx, "unknown-plain", userID, "192.0.2.1")

		assert.Nil(t, pair)
		assert.ErrorIs(t, err, domain.ErrRotationDenied)
		// No revocations happen for an unknown token
		repo.AssertNotCalled(t, "ListActiveForUser", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("Denied_IdleTimeout_TerminatesSessionFamily", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		secrets := &mockSecretService{}
		user := testUser()

		// Not expired, not revoked, but unused past the idle threshold
		idleToken := activeToken(user.ID)
		idleToken.LastUsedAt = now.Add(-cfg.IdleSessionTimeout - time.Minute)

		otherToken := activeToken(user.ID)
		otherToken.TokenHash = "other-hash"

		secrets.On("HashSecret", "idle-plain").Return("old-hash").Once()
		repo.On("GetByTokenHash", ctx, "old-hash", user.ID).Return(idleToken, nil).Once()
		repo.On("ListActiveForUser", ctx, user.ID, now).
			Return([]*domain.RefreshToken{idleToken, otherToken}, nil).Once()
		repo.On("Revoke", ctx, idleToken.ID, now, "192.0.2.1", domain.RevocationReasonIdleTimeout).
			Return(true, nil).Once()
		repo.On("Revoke", ctx, otherToken.ID, now, "192.0.2.1", domain.RevocationReasonIdleTimeout).
			Return(true, nil).Once()

		engine := testEngine(cfg, repo, &mockUserReader{}, secrets, &mockTokenCodec{}, now)
		pair, err := engine.Rotate(ctx, "idle-plain", user.ID, "192.0.2.1")

		assert.Nil(t, pair)
		assert.ErrorIs(t, err, domain.ErrRotationDenied)
		repo.AssertExpectations(t)
	})

	t.Run("Denied_ReplayOfRevokedToken_CascadesRevocation", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		secrets := &mockSecretService{}
		user := testUser()

		revokedAt := now.Add(-time.Minute)
		replayedToken := activeToken(user.ID)
		replayedToken.RevokedAt = &revokedAt
		replayedToken.RevocationReason = domain.RevocationReasonRotated

		survivingToken := activeToken(user.ID)
		survivingToken.TokenHash = "surviving-hash"

		secrets.On("HashSecret", "stolen-plain").Return("old-hash").Once()
		repo.On("GetByTokenHash", ctx, "old-hash", user.ID).Return(replayedToken, nil).Once()
		repo.On("ListActiveForUser", ctx, user.ID, now).
			Return([]*domain.RefreshToken{survivingToken}, nil).Once()
		repo.On("Revoke", ctx, survivingToken.ID, now, "203.0.113.9", domain.RevocationReasonReuse).
			Return(true, nil).Once()

		engine := testEngine(cfg, repo, &mockUserReader{}, secrets, &mockTokenCodec{}, now)
		pair, err := engine.Rotate(ctx, "stolen-plain", user.ID, "203.0.113.9")

		assert.Nil(t, pair)
		assert.ErrorIs(t, err, domain.ErrRotationDenied)
		repo.AssertExpectations(t)
	})

	t.Run("Denied_ExpiredToken_CascadesRevocation", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		secrets := &mockSecretService{}
		user := testUser()

		expiredToken := activeToken(user.ID)
		expiredToken.ExpiresAt = now.Add(-time.Minute)

		secrets.On("HashSecret", "expired-plain").Return("old-hash").Once()
		repo.On("GetByTokenHash", ctx, "old-hash", user.ID).Return(expiredToken, nil).Once()
		repo.On("ListActiveForUser", ctx, user.ID, now).
			Return([]*domain.RefreshToken{}, nil).Once()

		engine := testEngine(cfg, repo, &mockUserReader{}, secrets, &mockTokenCodec{}, now)
		pair, err := engine.Rotate(ctx, "expired-plain", user.ID, "192.0.2.1")

		assert.Nil(t, pair)
		assert.ErrorIs(t, err, domain.ErrRotationDenied)
		repo.AssertExpectations(t)
	})

	t.Run("Denied_ConcurrentRotationLoserTakesReusePath", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		secrets := &mockSecretService{}
		user := testUser()
		oldToken := activeToken(user.ID)

		winnersToken := activeToken(user.ID)
		winnersToken.TokenHash = "winners-hash"

		secrets.On("HashSecret", "old-plain").Return("old-hash").Once()
		repo.On("GetByTokenHash", ctx, "old-hash", user.ID).Return(oldToken, nil).Once()
		// The concurrent winner already revoked this token
		repo.On("Revoke", ctx, oldToken.ID, now, "192.0.2.1", domain.RevocationReasonRotated).
			Return(false, nil).Once()
		repo.On("ListActiveForUser", ctx, user.ID, now).
			Return([]*domain.RefreshToken{winnersToken}, nil).Once()
		repo.On("Revoke", ctx, winnersToken.ID, now, "192.0.2.1", domain.RevocationReasonReuse).
			Return(true, nil).Once()

		engine := testEngine(cfg, repo, &mockUserReader{}, secrets, &mockTokenCodec{}, now)
		pair, err := engine.Rotate(ctx, "old-plain", user.ID, "192.0.2.1")

		assert.Nil(t, pair)
		assert.ErrorIs(t, err, domain.ErrRotationDenied)
		repo.AssertExpectations(t)
	})

	t.Run("Error_UserLookupFailureSurfaces", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		users := &mockUserReader{}
		secrets := &mockSecretService{}
		user := testUser()
		oldToken := activeToken(user.ID)

		secrets.On("HashSecret", "old-plain").Return("old-hash").Once()
		repo.On("GetByTokenHash", ctx, "old-hash", user.ID).Return(oldToken, nil).Once()
		repo.On("Revoke", ctx, oldToken.ID, now, "192.0.2.1", domain.RevocationReasonRotated).
			Return(true, nil).Once()
		users.On("FindByID", ctx, user.ID).Return(nil, identityDomain.ErrUserNotFound).Once()

		engine := testEngine(cfg, repo, users, secrets, &mockTokenCodec{}, now)
		pair, err := engine.Rotate(ctx, "old-plain", user.ID, "192.0.2.1")

		assert.Nil(t, pair)
		assert.ErrorIs(t, err, identityDomain.ErrUserNotFound)
		repo.AssertExpectations(t)
	})
}

func TestRotationEngine_RevokeAllForUser(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Success_RevokesEveryActiveToken", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		userID := uuid.Must(uuid.NewV7())

		token1 := &domain.RefreshToken{ID: uuid.Must(uuid.NewV7()), UserID: userID}
		token2 := &domain.RefreshToken{ID: uuid.Must(uuid.NewV7()), UserID: userID}

		repo.On("ListActiveForUser", ctx, userID, now).
			Return([]*domain.RefreshToken{token1, token2}, nil).Once()
		repo.On("Revoke", ctx, token1.ID, now, "192.0.2.1", domain.RevocationReasonLogout).
			Return(true, nil).Once()
		repo.On("Revoke", ctx, token2.ID, now, "192.0.2.1", domain.RevocationReasonLogout).
			Return(true, nil).Once()

		engine := testEngine(cfg, repo, &mockUserReader{}, &mockSecretService{}, &mockTokenCodec{}, now)
		err := engine.RevokeAllForUser(ctx, userID, domain.RevocationReasonLogout, "192.0.2.1")

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Success_NoActiveTokensIsNoOp", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		userID := uuid.Must(uuid.NewV7())

		repo.On("ListActiveForUser", ctx, userID, now).
			Return([]*domain.RefreshToken{}, nil).Once()

		engine := testEngine(cfg, repo, &mockUserReader{}, &mockSecretService{}, &mockTokenCodec{}, now)
		err := engine.RevokeAllForUser(ctx, userID, domain.RevocationReasonLogout, "192.0.2.1")

		require.NoError(t, err)
		repo.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Success_LosingTheConditionalUpdateIsFine", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		userID := uuid.Must(uuid.NewV7())

		token := &domain.RefreshToken{ID: uuid.Must(uuid.NewV7()), UserID: userID}
		repo.On("ListActiveForUser", ctx, userID, now).
			Return([]*domain.RefreshToken{token}, nil).Once()
		repo.On("Revoke", ctx, token.ID, now, "", domain.RevocationReasonPassword).
			Return(false, nil).Once()

		engine := testEngine(cfg, repo, &mockUserReader{}, &mockSecretService{}, &mockTokenCodec{}, now)
		err := engine.RevokeAllForUser(ctx, userID, domain.RevocationReasonPassword, "")

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestRotationEngine_RevokeSpecific(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Success_RevokesActiveToken", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		secrets := &mockSecretService{}
		userID := uuid.Must(uuid.NewV7())

		token := &domain.RefreshToken{
			ID:         uuid.Must(uuid.NewV7()),
			UserID:     userID,
			ExpiresAt:  now.Add(time.Hour),
			LastUsedAt: now,
		}

		secrets.On("HashSecret", "plain").Return("hash").Once()
		repo.On("GetByTokenHash", ctx, "hash", userID).Return(token, nil).Once()
		repo.On("Revoke", ctx, token.ID, now, "192.0.2.1", domain.RevocationReasonLogout).
			Return(true, nil).Once()

		engine := testEngine(cfg, repo, &mockUserReader{}, secrets, &mockTokenCodec{}, now)
		err := engine.RevokeSpecific(ctx, "plain", userID, domain.RevocationReasonLogout, "192.0.2.1")

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Success_MissingTokenIsNoOp", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		secrets := &mockSecretService{}
		userID := uuid.Must(uuid.NewV7())

		secrets.On("HashSecret", "plain").Return("hash").Once()
		repo.On("GetByTokenHash", ctx, "hash", userID).
			Return(nil, domain.ErrTokenNotFound).Once()

		engine := testEngine(cfg, repo, &mockUserReader{}, secrets, &mockTokenCodec{}, now)
		err := engine.RevokeSpecific(ctx, "plain", userID, domain.RevocationReasonLogout, "192.0.2.1")

		require.NoError(t, err)
		repo.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Success_SecondRevocationIsIdempotent", func(t *testing.T) {
		cfg := testConfig()
		repo := &mockRefreshTokenRepository{}
		secrets := &mockSecretService{}
		userID := uuid.Must(uuid.NewV7())

		revokedAt := now.Add(-time.Minute)
		token := &domain.RefreshToken{
			ID:         uuid.Must(uuid.NewV7()),
			UserID:     userID,
			ExpiresAt:  now.Add(time.Hour),
			LastUsedAt: now,
			RevokedAt:  &revokedAt,
		}

		secrets.On("HashSecret", "plain").Return("hash").Once()
		repo.On("GetByTokenHash", ctx, "hash", userID).Return(token, nil).Once()

		engine := testEngine(cfg, repo, &mockUserReader{}, secrets, &mockTokenCodec{}, now)
		err := engine.RevokeSpecific(ctx, "plain", userID, domain.RevocationReasonLogout, "192.0.2.1")

		require.NoError(t, err)
		repo.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
