// Package repository provides data persistence implementations for identity entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buiducnhanit/management-system/internal/database"
	"github.com/buiducnhanit/management-system/internal/identity/domain"

	apperrors "github.com/buiducnhanit/management-system/internal/errors"
)

// PostgreSQLUserRepository handles identity persistence for PostgreSQL.
// Roles live in a separate user_roles table and are loaded with every read.
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQLUserRepository.
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{
		db: db,
	}
}

// Create inserts a new user and its initial roles.
func (r *PostgreSQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO users (id, email, phone_number, password_hash, security_stamp,
	                             email_confirmed, locked_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, user.ID, user.Email, user.PhoneNumber,
		user.PasswordHash, user.SecurityStamp, user.EmailConfirmed, user.LockedAt)
	if err != nil {
		// Check for unique constraint violation (duplicate email)
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create user")
	}

	return r.replaceRoles(ctx, querier, user.ID, user.Roles)
}

// Update persists mutations to an existing user (including the role list).
func (r *PostgreSQLUserRepository) Update(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users
			  SET email = $1,
			      phone_number = $2,
			      password_hash = $3,
			      security_stamp = $4,
			      email_confirmed = $5,
			      locked_at = $6,
			      updated_at = NOW()
			  WHERE id = $7`

	result, err := querier.ExecContext(ctx, query, user.Email, user.PhoneNumber,
		user.PasswordHash, user.SecurityStamp, user.EmailConfirmed, user.LockedAt, user.ID)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return apperrors.Wrap(err, "failed to update user")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}

	return r.replaceRoles(ctx, querier, user.ID, user.Roles)
}

// GetByID retrieves a user by ID including its roles.
func (r *PostgreSQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, phone_number, password_hash, security_stamp,
	                 email_confirmed, locked_at, created_at, updated_at
			  FROM users WHERE id = $1`

	return r.scanUser(ctx, querier, querier.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email including its roles.
func (r *PostgreSQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, phone_number, password_hash, security_stamp,
	                 email_confirmed, locked_at, created_at, updated_at
			  FROM users WHERE email = $1`

	return r.scanUser(ctx, querier, querier.QueryRowContext(ctx, query, email))
}

// Delete removes a user record. Used as the compensating action when
// registration fails after the identity row was created.
func (r *PostgreSQLUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id); err != nil {
		return apperrors.Wrap(err, "failed to delete user roles")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete user")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// SetLocked sets or clears the lockout timestamp without touching other columns.
func (r *PostgreSQLUserRepository) SetLocked(ctx context.Context, id uuid.UUID, lockedAt *time.Time) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx,
		`UPDATE users SET locked_at = $1, updated_at = NOW() WHERE id = $2`, lockedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to set user lock state")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// List returns a page of users ordered by creation time.
func (r *PostgreSQLUserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, phone_number, password_hash, security_stamp,
	                 email_confirmed, locked_at, created_at, updated_at
			  FROM users
			  ORDER BY created_at ASC
			  OFFSET $1 LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users")
	}
	defer rows.Close() //nolint:errcheck

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		err := rows.Scan(
			&user.ID, &user.Email, &user.PhoneNumber, &user.PasswordHash, &user.SecurityStamp,
			&user.EmailConfirmed, &user.LockedAt, &user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan user")
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate users")
	}

	for _, user := range users {
		roles, err := r.loadRoles(ctx, querier, user.ID)
		if err != nil {
			return nil, err
		}
		user.Roles = roles
	}

	return users, nil
}

// scanUser scans a user row and loads its roles.
func (r *PostgreSQLUserRepository) scanUser(
	ctx context.Context,
	querier database.Querier,
	row *sql.Row,
) (*domain.User, error) {
	var user domain.User

	err := row.Scan(
		&user.ID, &user.Email, &user.PhoneNumber, &user.PasswordHash, &user.SecurityStamp,
		&user.EmailConfirmed, &user.LockedAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}

	roles, err := r.loadRoles(ctx, querier, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles

	return &user, nil
}

// loadRoles fetches the role list for a user.
func (r *PostgreSQLUserRepository) loadRoles(
	ctx context.Context,
	querier database.Querier,
	userID uuid.UUID,
) ([]string, error) {
	rows, err := querier.QueryContext(ctx,
		`SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role ASC`, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load user roles")
	}
	defer rows.Close() //nolint:errcheck

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan user role")
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate user roles")
	}

	return roles, nil
}

// replaceRoles rewrites the full role list for a user. Role changes always
// carry the complete list, never deltas, so a delete-and-insert is safe.
func (r *PostgreSQLUserRepository) replaceRoles(
	ctx context.Context,
	querier database.Querier,
	userID uuid.UUID,
	roles []string,
) error {
	if _, err := querier.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return apperrors.Wrap(err, "failed to clear user roles")
	}

	for _, role := range roles {
		_, err := querier.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, userID, role)
		if err != nil {
			return apperrors.Wrap(err, "failed to insert user role")
		}
	}

	return nil
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
