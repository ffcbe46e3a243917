package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/buiducnhanit/management-system/internal/database"
	"github.com/buiducnhanit/management-system/internal/profile/domain"

	apperrors "github.com/buiducnhanit/management-system/internal/errors"
)

// MySQLProfileRepository handles profile persistence for MySQL.
// The role list is stored as a JSON array in the roles column.
type MySQLProfileRepository struct {
	db *sql.DB
}

// NewMySQLProfileRepository creates a new MySQLProfileRepository.
func NewMySQLProfileRepository(db *sql.DB) *MySQLProfileRepository {
	return &MySQLProfileRepository{
		db: db,
	}
}

// Create inserts a new profile.
func (r *MySQLProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	querier := database.GetTx(ctx, r.db)

	roles, err := encodeRoles(profile.Roles)
	if err != nil {
		return err
	}

	query := `INSERT INTO profiles (id, email, phone_number, first_name, last_name, roles,
	                                profile_updated_at, roles_changed_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err = querier.ExecContext(ctx, query, profile.ID.String(), profile.Email, profile.PhoneNumber,
		profile.FirstName, profile.LastName, roles, profile.ProfileUpdatedAt, profile.RolesChangedAt)
	if err != nil {
		if isMySQLDuplicateEntry(err) {
			return domain.ErrProfileAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create profile")
	}

	return nil
}

// GetByID retrieves a profile by its user ID.
func (r *MySQLProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, phone_number, first_name, last_name, roles,
	                 profile_updated_at, roles_changed_at, created_at, updated_at
			  FROM profiles WHERE id = ?`

	var profile domain.Profile
	var rawID string
	var roles string

	err := querier.QueryRowContext(ctx, query, id.String()).Scan(
		&rawID, &profile.Email, &profile.PhoneNumber, &profile.FirstName, &profile.LastName,
		&roles, &profile.ProfileUpdatedAt, &profile.RolesChangedAt, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get profile")
	}

	profile.ID, err = uuid.Parse(rawID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse profile id")
	}

	profile.Roles, err = decodeRoles(roles)
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

// Update persists mutations to an existing profile.
func (r *MySQLProfileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	querier := database.GetTx(ctx, r.db)

	roles, err := encodeRoles(profile.Roles)
	if err != nil {
		return err
	}

	query := `UPDATE profiles
			  SET email = ?,
			      phone_number = ?,
			      first_name = ?,
			      last_name = ?,
			      roles = ?,
			      profile_updated_at = ?,
			      roles_changed_at = ?,
			      updated_at = NOW()
			  WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, profile.Email, profile.PhoneNumber,
		profile.FirstName, profile.LastName, roles, profile.ProfileUpdatedAt,
		profile.RolesChangedAt, profile.ID.String())
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
func (r *MySQLProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id.String())
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

// isMySQLDuplicateEntry checks if the error is a MySQL duplicate entry violation.
func isMySQLDuplicateEntry(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Duplicate entry ... for key ..." (error 1062)
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}
