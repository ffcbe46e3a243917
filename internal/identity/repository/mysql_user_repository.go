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

// MySQLUserRepository handles identity persistence for MySQL.
// UUIDs are stored as CHAR(36) strings since MySQL lacks a native UUID type.
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQLUserRepository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{
		db: db,
	}
}

// Create inserts a new user and its initial roles.
func (r *MySQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO users (id, email, phone_number, password_hash, security_stamp,
	                             email_confirmed, locked_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, user.ID.String(), user.Email, user.PhoneNumber,
		user.PasswordHash, user.SecurityStamp, user.EmailConfirmed, user.LockedAt)
	if err != nil {
		if isMySQLDuplicateEntry(err) {
			return domain.ErrUserAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create user")
	}

	return r.replaceRoles(ctx, querier, user.ID, user.Roles)
}

// Update persists mutations to an existing user (including the role list).
func (r *MySQLUserRepository) Update(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users
			  SET email = ?,
			      phone_number = ?,
			      password_hash = ?,
			      security_stamp = ?,
			      email_confirmed = ?,
			      locked_at = ?,
			      updated_at = NOW()
			  WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, user.Email, user.PhoneNumber,
		user.PasswordHash, user.SecurityStamp, user.EmailConfirmed, user.LockedAt, user.ID.String())
	if err != nil {
		if isMySQLDuplicateEntry(err) {
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
func (r *MySQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, phone_number, password_hash, security_stamp,
	                 email_confirmed, locked_at, created_at, updated_at
			  FROM users WHERE id = ?`

	return r.scanUser(ctx, querier, querier.QueryRowContext(ctx, query, id.String()))
}

// GetByEmail retrieves a user by email including its roles.
func (r *MySQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, phone_number, password_hash, security_stamp,
	                 email_confirmed, locked_at, created_at, updated_at
			  FROM users WHERE email = ?`

	return r.scanUser(ctx, querier, querier.QueryRowContext(ctx, query, email))
}

// Delete removes a user record and its roles.
func (r *MySQLUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ?`, id.String()); err != nil {
		return apperrors.Wrap(err, "failed to delete user roles")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id.String())
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
func (r *MySQLUserRepository) SetLocked(ctx context.Context, id uuid.UUID, lockedAt *time.Time) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx,
		`UPDATE users SET locked_at = ?, updated_at = NOW() WHERE id = ?`, lockedAt, id.String())
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

// scanUser scans a user row and loads its roles.
// List returns a page of users ordered by creation time.
func (r *MySQLUserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, phone_number, password_hash, security_stamp,
	                 email_confirmed, locked_at, created_at, updated_at
			  FROM users
			  ORDER BY created_at ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users")
	}
	defer rows.Close() //nolint:errcheck

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		var idStr string

		err := rows.Scan(
			&idStr, &user.Email, &user.PhoneNumber, &user.PasswordHash, &user.SecurityStamp,
			&user.EmailConfirmed, &user.LockedAt, &user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan user")
		}

		user.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse user id")
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

func (r *MySQLUserRepository) scanUser(
	ctx context.Context,
	querier database.Querier,
	row *sql.Row,
) (*domain.User, error) {
	var user domain.User
	var idStr string

	err := row.Scan(
		&idStr, &user.Email, &user.PhoneNumber, &user.PasswordHash, &user.SecurityStamp,
		&user.EmailConfirmed, &user.LockedAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}

	user.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse user id")
	}

	roles, err := r.loadRoles(ctx, querier, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles

	return &user, nil
}

// loadRoles fetches the role list for a user.
func (r *MySQLUserRepository) loadRoles(
	ctx context.Context,
	querier database.Querier,
	userID uuid.UUID,
) ([]string, error) {
	rows, err := querier.QueryContext(ctx,
		`SELECT role FROM user_roles WHERE user_id = ? ORDER BY role ASC`, userID.String())
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

// replaceRoles rewrites the full role list for a user.
func (r *MySQLUserRepository) replaceRoles(
	ctx context.Context,
	querier database.Querier,
	userID uuid.UUID,
	roles []string,
) error {
	if _, err := querier.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ?`, userID.String()); err != nil {
		return apperrors.Wrap(err, "failed to clear user roles")
	}

	for _, role := range roles {
		_, err := querier.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role) VALUES (?, ?)`, userID.String(), role)
		if err != nil {
			return apperrors.Wrap(err, "failed to insert user role")
		}
	}

	return nil
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
