package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/buiducnhanit/management-system/internal/config"
)

// cleanupUseCase implements the idle-session sweep: a recurring timer that
// bulk-revokes tokens whose last use is older than the idle threshold.
type cleanupUseCase struct {
	config    *config.Config
	tokenRepo RefreshTokenRepository
	logger    *slog.Logger
	now       func() time.Time
}

// NewCleanupUseCase creates a CleanupUseCase with the provided dependencies.
func NewCleanupUseCase(
	cfg *config.Config,
	tokenRepo RefreshTokenRepository,
	logger *slog.Logger,
) CleanupUseCase {
	return &cleanupUseCase{
		config:    cfg,
		tokenRepo: tokenRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// Start runs the sweep on the configured interval until ctx is cancelled.
// A failed cycle is logged and does not stop subsequent cycles; cancellation
// stops the loop between cycles, never mid-sweep.
func (u *cleanupUseCase) Start(ctx context.Context) error {
	u.logger.Info("starting session cleanup scheduler",
		slog.Duration("interval", u.config.SessionCleanupInterval),
		slog.Duration("idle_timeout", u.config.IdleSessionTimeout),
	)

	ticker := time.NewTicker(u.config.SessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			u.logger.Info("stopping session cleanup scheduler")
			return ctx.Err()
		case <-ticker.C:
			if _, err := u.Sweep(ctx, false); err != nil {
				u.logger.Error("session cleanup sweep failed", slog.Any("error", err))
			}
		}
	}
}

// Sweep revokes every token idle longer than the configured threshold. In
// dry-run mode it only reports what would be revoked.
func (u *cleanupUseCase) Sweep(ctx context.Context, dryRun bool) (int64, error) {
	now := u.now().UTC()

	if dryRun {
		return u.tokenRepo.CountInactiveSince(ctx, u.config.IdleSessionTimeout, now)
	}

	count, err := u.tokenRepo.RevokeInactiveSince(ctx, u.config.IdleSessionTimeout, now)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		u.logger.Info("revoked idle sessions", slog.Int64("count", count))
	}

	return count, nil
}
