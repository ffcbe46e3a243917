// Package repository provides data persistence implementations for profiles.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/buiducnhanit/management-system/internal/database"
	"github.com/buiducnhanit/management-system/internal/profile/domain"

	apperrors "github.com/buiducnhanit/management-system/internal/errors"
)

// PostgreSQLProfileRepository handles profile persistence for PostgreSQL.
// The role list is stored as a JSON array in the roles column.
type PostgreSQLProfileRepository struct {
	db *sql.DB
}

// NewPostgreSQLProfileRepository creates a new PostgreSQLProfileRepository.
func NewPostgreSQLProfileRepository(db *sql.DB) *PostgreSQLProfileRepository {
	return &PostgreSQLProfileRepository{
		db: db,
	}
}

// Create inserts a new profile.
func (r *PostgreSQLProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	querier := database.GetTx(ctx, r.db)

	roles, err := encodeRoles(profile.Roles)
	if err != nil {
		return err
	}

	query := `INSERT INTO profiles (id, email, phone_number, first_name, last_name, roles,
	                                profile_updated_at, roles_changed_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`

	_, err = querier.ExecContext(ctx, query, profile.ID, profile.Email, profile.PhoneNumber,
		profile.FirstName, profile.LastName, roles, profile.ProfileUpdatedAt, profile.RolesChangedAt)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrProfileAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create profile")
	}

	return nil
}

// GetByID retrieves a profile by its user ID.
func (r *PostgreSQLProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, phone_number, first_name, last_name, roles,
	                 profile_updated_at, roles_changed_at, created_at, updated_at
			  FROM profiles WHERE id = $1`

	var profile domain.Profile
	var roles string

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&profile.ID, &profile.Email, &profile.PhoneNumber, &profile.FirstName, &profile.LastName,
		&roles, &profile.ProfileUpdatedAt, &profile.RolesChangedAt, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get profile")
	}

	profile.Roles, err = decodeRoles(roles)
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

// Update persists mutations to an existing profile.
func (r *PostgreSQLProfileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	querier := database.GetTx(ctx, r.db)

	roles, err := encodeRoles(profile.Roles)
	if err != nil {
		return err
	}

	query := `UPDATE profiles
			  SET email = $1,
			      phone_number = $2,
			      first_name = $3,
			      last_name = $4,
			      roles = $5,
			      profile_updated_at = $6,
			      roles_changed_at = $7,
			      updated_at = NOW()
			  WHERE id = $8`

	result, err := querier.ExecContext(ctx, query, profile.Email, profile.PhoneNumber,
		profile.FirstName, profile.LastName, roles, profile.ProfileUpdatedAt,
		profile.RolesChangedAt, profile.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update profile")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return domain.ErrProfileNotFound
	}

	return nil
}

// Delete removes a profile.
func (r *PostgreSQLProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete profile")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return domain.ErrProfileNotFound
	}

	return nil
}

// encodeRoles serializes the role list to its JSON column form.
func encodeRoles(roles []string) (string, error) {
	if roles == nil {
		roles = []string{}
	}
	encoded, err := json.Marshal(roles)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to encode roles")
	}
	return string(encoded), nil
}

// decodeRoles parses the JSON roles column.
func decodeRoles(encoded string) ([]string, error) {
	var roles []string
	if err := json.Unmarshal([]byte(encoded), &roles); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode roles")
	}
	return roles, nil
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
