package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/buiducnhanit/management-system/internal/database"
	"github.com/buiducnhanit/management-system/internal/identity/domain"

	apperrors "github.com/buiducnhanit/management-system/internal/errors"
)

// PostgreSQLActionTokenRepository persists one-time action tokens for PostgreSQL.
type PostgreSQLActionTokenRepository struct {
	db *sql.DB
}

// NewPostgreSQLActionTokenRepository creates a new PostgreSQLActionTokenRepository.
func NewPostgreSQLActionTokenRepository(db *sql.DB) *PostgreSQLActionTokenRepository {
	return &PostgreSQLActionTokenRepository{db: db}
}

// Create inserts a new action token.
func (r *PostgreSQLActionTokenRepository) Create(ctx context.Context, token *domain.ActionToken) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO user_action_tokens (id, user_id, token_hash, purpose, expires_at, consumed_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW())`

	_, err := querier.ExecContext(ctx, query, token.ID, token.UserID, token.TokenHash,
		token.Purpose, token.ExpiresAt, token.ConsumedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create action token")
	}
	return nil
}

// GetByTokenHash retrieves an action token by hash and purpose.
// Returns ErrInvalidActionToken if no such token exists.
func (r *PostgreSQLActionTokenRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
	purpose domain.ActionTokenPurpose,
) (*domain.ActionToken, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, user_id, token_hash, purpose, expires_at, consumed_at, created_at
			  FROM user_action_tokens WHERE token_hash = $1 AND purpose = $2`

	var token domain.ActionToken
	err := querier.QueryRowContext(ctx, query, tokenHash, purpose).Scan(
		&token.ID, &token.UserID, &token.TokenHash, &token.Purpose,
		&token.ExpiresAt, &token.ConsumedAt, &token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvalidActionToken
		}
		return nil, apperrors.Wrap(err, "failed to get action token")
	}

	return &token, nil
}

// Consume marks an action token as used. The conditional update guarantees a
// token can only be consumed once even under concurrent attempts; losing the
// race surfaces as ErrInvalidActionToken.
func (r *PostgreSQLActionTokenRepository) Consume(ctx context.Context, token *domain.ActionToken, at time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE user_action_tokens SET consumed_at = $1 WHERE id = $2 AND consumed_at IS NULL`

	result, err := querier.ExecContext(ctx, query, at, token.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to consume action token")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return domain.ErrInvalidActionToken
	}

	token.ConsumedAt = &at
	return nil
}
