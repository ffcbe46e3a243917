// Package repository provides data persistence implementations for refresh tokens.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buiducnhanit/management-system/internal/database"
	"github.com/buiducnhanit/management-system/internal/refreshtoken/domain"

	apperrors "github.com/buiducnhanit/management-system/internal/errors"
)

// PostgreSQLRefreshTokenRepository implements refresh-token persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLRefreshTokenRepository struct {
	db *sql.DB
}

// NewPostgreSQLRefreshTokenRepository creates a new PostgreSQL refresh-token repository.
func NewPostgreSQLRefreshTokenRepository(db *sql.DB) *PostgreSQLRefreshTokenRepository {
	return &PostgreSQLRefreshTokenRepository{db: db}
}

const postgresRefreshTokenColumns = `id, token_hash, user_id, created_at, expires_at,
	last_used_at, revoked_at, revoked_by_ip, revocation_reason, created_by_ip`

// Create inserts a new refresh token. Returns ErrTokenConflict if the
// token hash collides with an existing row.
func (p *PostgreSQLRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO refresh_tokens (` + postgresRefreshTokenColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.ID,
		token.TokenHash,
		token.UserID,
		token.CreatedAt,
		token.ExpiresAt,
		token.LastUsedAt,
		token.RevokedAt,
		token.RevokedByIP,
		token.RevocationReason,
		token.CreatedByIP,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrTokenConflict
		}
		return apperrors.Wrap(err, "failed to create refresh token")
	}
	return nil
}

// GetByTokenHash retrieves a refresh token by its hash, scoped to the owning
// user. Returns ErrTokenNotFound if no row matches both fields.
func (p *PostgreSQLRefreshTokenRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
	userID uuid.UUID,
) (*domain.RefreshToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresRefreshTokenColumns + `
			  FROM refresh_tokens WHERE token_hash = $1 AND user_id = $2`

	var token domain.RefreshToken
	err := querier.QueryRowContext(ctx, query, tokenHash, userID).Scan(
		&token.ID,
		&token.TokenHash,
		&token.UserID,
		&token.CreatedAt,
		&token.ExpiresAt,
		&token.LastUsedAt,
		&token.RevokedAt,
		&token.RevokedByIP,
		&token.RevocationReason,
		&token.CreatedByIP,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get refresh token")
	}

	return &token, nil
}

// ListActiveForUser returns all tokens for a user that are neither revoked nor
// expired at the given time.
func (p *PostgreSQLRefreshTokenRepository) ListActiveForUser(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) ([]*domain.RefreshToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresRefreshTokenColumns + `
			  FROM refresh_tokens
			  WHERE user_id = $1 AND revoked_at IS NULL AND expires_at >= $2
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, userID, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list active refresh tokens")
	}
	defer rows.Close() //nolint:errcheck

	var tokens []*domain.RefreshToken
	for rows.Next() {
		var token domain.RefreshToken
		err := rows.Scan(
			&token.ID,
			&token.TokenHash,
			&token.UserID,
			&token.CreatedAt,
			&token.ExpiresAt,
			&token.LastUsedAt,
			&token.RevokedAt,
			&token.RevokedByIP,
			&token.RevocationReason,
			&token.CreatedByIP,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan refresh token")
		}
		tokens = append(tokens, &token)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate refresh tokens")
	}

	return tokens, nil
}

// Revoke sets the revocation fields on a token. The conditional update on
// revoked_at IS NULL makes revocation append-only and resolves concurrent
// rotation races: exactly one caller wins. Returns whether this call won.
func (p *PostgreSQLRefreshTokenRepository) Revoke(
	ctx context.Context,
	id uuid.UUID,
	at time.Time,
	byIP string,
	reason string,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE refresh_tokens
			  SET revoked_at = $1, revoked_by_ip = $2, revocation_reason = $3
			  WHERE id = $4 AND revoked_at IS NULL`

	result, err := querier.ExecContext(ctx, query, at, byIP, reason, id)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to revoke refresh token")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to get affected rows")
	}

	return rows > 0, nil
}

// RevokeInactiveSince bulk-revokes every token whose last use is older than
// now minus the threshold and which is not already revoked. Returns the number
// of tokens revoked.
func (p *PostgreSQLRefreshTokenRepository) RevokeInactiveSince(
	ctx context.Context,
	threshold time.Duration,
	now time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE refresh_tokens
			  SET revoked_at = $1, revocation_reason = $2
			  WHERE last_used_at < $3 AND revoked_at IS NULL`

	result, err := querier.ExecContext(ctx, query, now,
		domain.RevocationReasonIdleTimeout, now.Add(-threshold))
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to revoke inactive refresh tokens")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}

	return rows, nil
}

// CountInactiveSince reports how many tokens RevokeInactiveSince would revoke
// at the given time, without mutating anything. Used for dry runs.
func (p *PostgreSQLRefreshTokenRepository) CountInactiveSince(
	ctx context.Context,
	threshold time.Duration,
	now time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM refresh_tokens
			  WHERE last_used_at < $1 AND revoked_at IS NULL`

	var count int64
	if err := querier.QueryRowContext(ctx, query, now.Add(-threshold)).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count inactive refresh tokens")
	}

	return count, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint" (SQLSTATE 23505)
	return strings.Contains(errMsg, "duplicate key value") || strings.Contains(errMsg, "23505")
}
