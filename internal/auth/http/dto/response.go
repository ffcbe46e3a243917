package dto

import (
	"time"

	identityDomain "github.com/buiducnhanit/management-system/internal/identity/domain"
	refreshDomain "github.com/buiducnhanit/management-system/internal/refreshtoken/domain"
)

// TokenPairResponse carries a freshly minted access/refresh pair.
type TokenPairResponse struct {
	AccessToken           string    `json:"access_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshToken          string    `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

// MapTokenPairToResponse converts a domain token pair to its response payload.
func MapTokenPairToResponse(pair *refreshDomain.TokenPair) TokenPairResponse {
	return TokenPairResponse{
		AccessToken:           pair.AccessToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
	}
}

// UserResponse is the identity representation returned on registration.
// Credential material never leaves the service.
type UserResponse struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
	EmailConfirmed bool      `json:"email_confirmed"`
	Roles          []string  `json:"roles"`
	CreatedAt      time.Time `json:"created_at"`
}

// MapUserToResponse converts a domain user to its response payload.
func MapUserToResponse(user *identityDomain.User) UserResponse {
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}

	return UserResponse{
		ID:             user.ID.String(),
		Email:          user.Email,
		PhoneNumber:    user.PhoneNumber,
		EmailConfirmed: user.EmailConfirmed,
		Roles:          roles,
		CreatedAt:      user.CreatedAt,
	}
}

// RolesResponse carries the full recomputed role list after a role change.
type RolesResponse struct {
	Roles []string `json:"roles"`
}

// UsersResponse carries a page of user accounts.
type UsersResponse struct {
	Users  []UserResponse `json:"users"`
	Offset int            `json:"offset"`
	Limit  int            `json:"limit"`
}

// MapUsersToResponse converts a page of domain users to its response payload.
func MapUsersToResponse(users []*identityDomain.User, offset, limit int) UsersResponse {
	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, MapUserToResponse(user))
	}
	return UsersResponse{Users: out, Offset: offset, Limit: limit}
}
