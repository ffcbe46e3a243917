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

// MySQLRefreshTokenRepository implements refresh-token persistence for MySQL.
// UUIDs are stored as CHAR(36) strings since MySQL lacks a native UUID type.
type MySQLRefreshTokenRepository struct {
	db *sql.DB
}

// NewMySQLRefreshTokenRepository creates a new MySQL refresh-token repository.
func NewMySQLRefreshTokenRepository(db *sql.DB) *MySQLRefreshTokenRepository {
	return &MySQLRefreshTokenRepository{db: db}
}

const mysqlRefreshTokenColumns = `id, token_hash, user_id, created_at, expires_at,
	last_used_at, revoked_at, revoked_by_ip, revocation_reason, created_by_ip`

// Create inserts a new refresh token. Returns ErrTokenConflict if the
// token hash collides with an existing row.
func (r *MySQLRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO refresh_tokens (` + mysqlRefreshTokenColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.ID.String(),
		token.TokenHash,
		token.UserID.String(),
		token.CreatedAt,
		token.ExpiresAt,
		token.LastUsedAt,
		token.RevokedAt,
		token.RevokedByIP,
		token.RevocationReason,
		token.CreatedByIP,
	)
	if err != nil {
		if isMySQLDuplicateEntry(err) {
			return domain.ErrTokenConflict
		}
		return apperrors.Wrap(err, "failed to create refresh token")
	}
	return nil
}

// GetByTokenHash retrieves a refresh token by its hash, scoped to the owning
// user. Returns ErrTokenNotFound if no row matches both fields.
func (r *MySQLRefreshTokenRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
	userID uuid.UUID,
) (*domain.RefreshToken, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlRefreshTokenColumns + `
			  FROM refresh_tokens WHERE token_hash = ? AND user_id = ?`

	row := querier.QueryRowContext(ctx, query, tokenHash, userID.String())
	token, err := scanMySQLRefreshToken(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get refresh token")
	}

	return token, nil
}

// ListActiveForUser returns all tokens for a user that are neither revoked nor
// expired at the given time.
func (r *MySQLRefreshTokenRepository) ListActiveForUser(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) ([]*domain.RefreshToken, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlRefreshTokenColumns + `
			  FROM refresh_tokens
			  WHERE user_id = ? AND revoked_at IS NULL AND expires_at >= ?
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, userID.String(), now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list active refresh tokens")
	}
	defer rows.Close() //nolint:errcheck

	var tokens []*domain.RefreshToken
	for rows.Next() {
		token, err := scanMySQLRefreshToken(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan refresh token")
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate refresh tokens")
	}

	return tokens, nil
}

// Revoke sets the revocation fields on a token. The conditional update on
// revoked_at IS NULL makes revocation append-only and resolves concurrent
// rotation races: exactly one caller wins. Returns whether this call won.
func (r *MySQLRefreshTokenRepository) Revoke(
	ctx context.Context,
	id uuid.UUID,
	at time.Time,
	byIP string,
	reason string,
) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE refresh_tokens
			  SET revoked_at = ?, revoked_by_ip = ?, revocation_reason = ?
			  WHERE id = ? AND revoked_at IS NULL`

	result, err := querier.ExecContext(ctx, query, at, byIP, reason, id.String())
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
func (r *MySQLRefreshTokenRepository) RevokeInactiveSince(
	ctx context.Context,
	threshold time.Duration,
	now time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE refresh_tokens
			  SET revoked_at = ?, revocation_reason = ?
			  WHERE last_used_at < ? AND revoked_at IS NULL`

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
func (r *MySQLRefreshTokenRepository) CountInactiveSince(
	ctx context.Context,
	threshold time.Duration,
	now time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT COUNT(*) FROM refresh_tokens
			  WHERE last_used_at < ? AND revoked_at IS NULL`

	var count int64
	if err := querier.QueryRowContext(ctx, query, now.Add(-threshold)).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count inactive refresh tokens")
	}

	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMySQLRefreshToken(row rowScanner) (*domain.RefreshToken, error) {
	var token domain.RefreshToken
	var idStr, userIDStr string

	err := row.Scan(
		&idStr,
		&token.TokenHash,
		&userIDStr,
		&token.CreatedAt,
		&token.ExpiresAt,
		&token.LastUsedAt,
		&token.RevokedAt,
		&token.RevokedByIP,
		&token.RevocationReason,
		&token.CreatedByIP,
	)
	if err != nil {
		return nil, err
	}

	token.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	token.UserID, err = uuid.Parse(userIDStr)
	if err != nil {
		return nil, err
	}

	return &token, nil
}

// isMySQLDuplicateEntry checks if the error is a MySQL duplicate entry error.
func isMySQLDuplicateEntry(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Error 1062: Duplicate entry"
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}
