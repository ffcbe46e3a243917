// Package dto defines request and response payloads for the auth HTTP API.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/buiducnhanit/management-system/internal/validation"
)

// passwordRule is the strength policy applied to new passwords.
var passwordRule = customValidation.PasswordStrength{
	MinLength:     8,
	RequireUpper:  true,
	RequireLower:  true,
	RequireNumber: true,
}

// RegisterRequest creates a new identity.
type RegisterRequest struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// Validate validates the register request.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, customValidation.Email),
		validation.Field(&r.PhoneNumber, validation.Length(0, 32)),
		validation.Field(&r.Password, validation.Required, passwordRule),
	)
}

// LoginRequest authenticates with email and password. RememberMe selects the
// longer refresh-token lifetime.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// Validate validates the login request.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, customValidation.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// RefreshTokenRequest exchanges a refresh token for a new pair. The user id
// scopes the token lookup; a token can never be replayed against another user.
type RefreshTokenRequest struct {
	UserID       string `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}

// Validate validates the refresh token request.
func (r RefreshTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, customValidation.NotBlank),
		validation.Field(&r.RefreshToken, validation.Required, customValidation.NotBlank),
	)
}

// LogoutRequest revokes the presented refresh token.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Validate validates the logout request.
func (r LogoutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required, customValidation.NotBlank),
	)
}

// ForgotPasswordRequest starts the password reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// Validate validates the forgot password request.
func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, customValidation.Email),
	)
}

// ResetPasswordRequest consumes a reset token and sets a new password.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Validate validates the reset password request.
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required, customValidation.NotBlank),
		validation.Field(&r.NewPassword, validation.Required, passwordRule),
	)
}

// ConfirmEmailRequest consumes an email confirmation token.
type ConfirmEmailRequest struct {
	Token string `json:"token"`
}

// Validate validates the confirm email request.
func (r ConfirmEmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required, customValidation.NotBlank),
	)
}

// ChangePasswordRequest replaces the password of the authenticated user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Validate validates the change password request.
func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, passwordRule),
	)
}

// RoleRequest adds or removes a single role.
type RoleRequest struct {
	Role string `json:"role"`
}

// Validate validates the role request.
func (r RoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required, customValidation.NotBlank, validation.Length(1, 64)),
	)
}
