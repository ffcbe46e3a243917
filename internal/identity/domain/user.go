// Package domain defines the core identity domain entities and types.
//
// A User is the credential-bearing identity record owned by the auth service.
// Profile data (names, addresses) lives in the profile service and is kept in
// sync through identity-change events.
package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Well-known role names.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents an identity in the auth service.
type User struct {
	ID             uuid.UUID
	Email          string
	PhoneNumber    string
	PasswordHash   string
	SecurityStamp  string
	EmailConfirmed bool
	LockedAt       *time.Time
	Roles          []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsLocked reports whether the identity is locked out of authentication.
func (u *User) IsLocked() bool {
	return u.LockedAt != nil
}

// HasRole reports whether the identity carries the given role.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}
