// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"
)

// UpdateProfileRequest contains the updatable profile fields. The profile ID
// is extracted from the URL parameter, not the request body.
type UpdateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Validate checks if the update profile request is valid.
func (r *UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FirstName,
			validation.Length(0, 128),
		),
		validation.Field(&r.LastName,
			validation.Length(0, 128),
		),
	)
}
