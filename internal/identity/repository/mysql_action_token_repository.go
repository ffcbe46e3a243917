package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/buiducnhanit/management-system/internal/database"
	"github.com/buiducnhanit/management-system/internal/identity/domain"

	apperrors "github.com/buiducnhanit/management-system/internal/errors"
)

// MySQLActionTokenRepository persists one-time action tokens for MySQL.
type MySQLActionTokenRepository struct {
	db *sql.DB
}

// NewMySQLActionTokenRepository creates a new MySQLActionTokenRepository.
func NewMySQLActionTokenRepository(db *sql.DB) *MySQLActionTokenRepository {
	return &MySQLActionTokenRepository{db: db}
}

// Create inserts a new action token.
func (r *MySQLActionTokenRepository) Create(ctx context.Context, token *domain.ActionToken) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO user_action_tokens (id, user_id, token_hash, purpose, expires_at, consumed_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, NOW())`

	_, err := querier.ExecContext(ctx, query, token.ID.String(), token.UserID.String(),
		token.TokenHash, token.Purpose, token.ExpiresAt, token.ConsumedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create action token")
	}
	return nil
}

// GetByTokenHash retrieves an action token by hash and purpose.
// Returns ErrInvalidActionToken if no such token exists.
func (r *MySQLActionTokenRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
	purpose domain.ActionTokenPurpose,
) (*domain.ActionToken, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, user_id, token_hash, purpose, expires_at, consumed_at, created_at
			  FROM user_action_tokens WHERE token_hash = ? AND purpose = ?`

	var token domain.ActionToken
	var idStr, userIDStr string

	err := querier.QueryRowContext(ctx, query, tokenHash, purpose).Scan(
		&idStr, &userIDStr, &token.TokenHash, &token.Purpose,
		&token.ExpiresAt, &token.ConsumedAt, &token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvalidActionToken
		}
		return nil, apperrors.Wrap(err, "failed to get action token")
	}

	if token.ID, err = uuid.Parse(idStr); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse action token id")
	}
	if token.UserID, err = uuid.Parse(userIDStr); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse action token user id")
	}

	return &token, nil
}

// Consume marks an action token as used. The conditional update guarantees a
// token can only be consumed once even under concurrent attempts.
func (r *MySQLActionTokenRepository) Consume(ctx context.Context, token *domain.ActionToken, at time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE user_action_tokens SET consumed_at = ? WHERE id = ? AND consumed_at IS NULL`

	result, err := querier.ExecContext(ctx, query, at, token.ID.String())
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
