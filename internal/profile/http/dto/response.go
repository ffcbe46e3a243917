package dto

import (
	"time"

	profileDomain "github.com/buiducnhanit/management-system/internal/profile/domain"
)

// ProfileResponse represents a profile in API responses.
type ProfileResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	FullName    string    `json:"full_name"`
	Roles       []string  `json:"roles"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MapProfileToResponse converts a domain profile to an API response.
func MapProfileToResponse(profile *profileDomain.Profile) ProfileResponse {
	roles := profile.Roles
	if roles == nil {
		roles = []string{}
	}

	return ProfileResponse{
		ID:          profile.ID.String(),
		Email:       profile.Email,
		PhoneNumber: profile.PhoneNumber,
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		FullName:    profile.FullName(),
		Roles:       roles,
		UpdatedAt:   profile.UpdatedAt,
	}
}
