package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/buiducnhanit/management-system/internal/identity/domain"
	"github.com/buiducnhanit/management-system/internal/metrics"
	"github.com/buiducnhanit/management-system/internal/refreshtoken/domain"
)

// rotationEngineWithMetrics decorates RotationEngine with metrics instrumentation.
type rotationEngineWithMetrics struct {
	next    RotationEngine
	metrics metrics.BusinessMetrics
}

// NewRotationEngineWithMetrics wraps a RotationEngine with metrics recording.
func NewRotationEngineWithMetrics(engine RotationEngine, m metrics.BusinessMetrics) RotationEngine {
	return &rotationEngineWithMetrics{
		next:    engine,
		metrics: m,
	}
}

// Issue records metrics for refresh token issuance.
func (r *rotationEngineWithMetrics) Issue(
	ctx context.Context,
	user *identityDomain.User,
	clientIP string,
	rememberMe bool,
) (*domain.IssuedToken, error) {
	start := time.Now()
	issued, err := r.next.Issue(ctx, user, clientIP, rememberMe)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "session", "token_issue", status)
	r.metrics.RecordDuration(ctx, "session", "token_issue", time.Since(start), status)

	return issued, err
}

// Rotate records metrics for rotation attempts. Denied rotations are recorded
// with their own status so replay and idle-timeout spikes are visible.
func (r *rotationEngineWithMetrics) Rotate(
	ctx context.Context,
	plainToken string,
	userID uuid.UUID,
	clientIP string,
) (*domain.TokenPair, error) {
	start := time.Now()
	pair, err := r.next.Rotate(ctx, plainToken, userID, clientIP)

	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrRotationDenied):
		status = "denied"
	default:
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "session", "token_rotate", status)
	r.metrics.RecordDuration(ctx, "session", "token_rotate", time.Since(start), status)

	return pair, err
}

// RevokeAllForUser records metrics for cascading revocations.
func (r *rotationEngineWithMetrics) RevokeAllForUser(
	ctx context.Context,
	userID uuid.UUID,
	reason, clientIP string,
) error {
	start := time.Now()
	err := r.next.RevokeAllForUser(ctx, userID, reason, clientIP)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "session", "token_revoke_all", status)
	r.metrics.RecordDuration(ctx, "session", "token_revoke_all", time.Since(start), status)

	return err
}

// RevokeSpecific records metrics for single-token revocations.
func (r *rotationEngineWithMetrics) RevokeSpecific(
	ctx context.Context,
	plainToken string,
	userID uuid.UUID,
	reason, clientIP string,
) error {
	start := time.Now()
	err := r.next.RevokeSpecific(ctx, plainToken, userID, reason, clientIP)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "session", "token_revoke", status)
	r.metrics.RecordDuration(ctx, "session", "token_revoke", time.Since(start), status)

	return err
}
