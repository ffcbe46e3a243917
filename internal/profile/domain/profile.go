// Package domain defines the user profile entity kept by the profile service.
//
// A profile is a denormalized read model of a user: contact fields owned by
// the auth service, name fields owned by the profile service, and the role
// list mirrored from role-change events. Per-field timestamps order
// concurrent updates (last write wins).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile represents one user's profile. The ID is the user's identity ID.
type Profile struct {
	ID          uuid.UUID
	Email       string
	PhoneNumber string
	FirstName   string
	LastName    string
	Roles       []string
	// ProfileUpdatedAt orders contact/name updates across services.
	ProfileUpdatedAt time.Time
	// RolesChangedAt orders role-list updates.
	RolesChangedAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FullName returns the display name, or the email when no name is set.
func (p *Profile) FullName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	case p.LastName != "":
		return p.LastName
	default:
		return p.Email
	}
}
