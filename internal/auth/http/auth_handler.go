package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/buiducnhanit/management-system/internal/auth/http/dto"
	authUseCase "github.com/buiducnhanit/management-system/internal/auth/usecase"
	apperrors "github.com/buiducnhanit/management-system/internal/errors"
	"github.com/buiducnhanit/management-system/internal/httputil"
	customValidation "github.com/buiducnhanit/management-system/internal/validation"
)

// AuthHandler handles the auth service's HTTP endpoints.
type AuthHandler struct {
	auth   authUseCase.AuthUseCase
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth authUseCase.AuthUseCase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// RegisterHandler handles POST /v1/auth/register.
func (h *AuthHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Email, req.PhoneNumber, req.Password)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapUserToResponse(user))
}

// LoginHandler handles POST /v1/auth/login.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, req.RememberMe, c.ClientIP())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTokenPairToResponse(pair))
}

// RefreshTokenHandler handles POST /v1/auth/refresh-token.
func (h *AuthHandler) RefreshTokenHandler(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, userID, c.ClientIP())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTokenPairToResponse(pair))
}

// LogoutHandler handles POST /v1/auth/logout. Requires authentication; the
// user id comes from the access-token claims, never from the body.
func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	claims, ok := GetClaims(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken, userID, c.ClientIP()); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// ForgotPasswordHandler handles POST /v1/auth/forgot-password. Always answers
// 202 so the response does not reveal whether the address exists.
func (h *AuthHandler) ForgotPasswordHandler(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusAccepted)
}

// ResetPasswordHandler handles POST /v1/auth/reset-password.
func (h *AuthHandler) ResetPasswordHandler(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword, c.ClientIP()); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// ConfirmEmailHandler handles POST /v1/auth/confirm-email.
func (h *AuthHandler) ConfirmEmailHandler(c *gin.Context) {
	var req dto.ConfirmEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.auth.ConfirmEmail(c.Request.Context(), req.Token); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// ChangePasswordHandler handles POST /v1/auth/change-password. Requires
// authentication.
func (h *AuthHandler) ChangePasswordHandler(c *gin.Context) {
	claims, ok := GetClaims(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	if err := h.auth.ChangePassword(
		c.Request.Context(), userID, req.CurrentPassword, req.NewPassword, c.ClientIP(),
	); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListUsersHandler handles GET /v1/users. Admin only.
func (h *AuthHandler) ListUsersHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	users, err := h.auth.ListUsers(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapUsersToResponse(users, offset, limit))
}

// AddRoleHandler handles POST /v1/users/:id/roles. Admin only.
func (h *AuthHandler) AddRoleHandler(c *gin.Context) {
	userID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req dto.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	roles, err := h.auth.AddRole(c.Request.Context(), userID, req.Role)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.RolesResponse{Roles: roles})
}

// RemoveRoleHandler handles DELETE /v1/users/:id/roles. Admin only.
func (h *AuthHandler) RemoveRoleHandler(c *gin.Context) {
	userID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req dto.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	roles, err := h.auth.RemoveRole(c.Request.Context(), userID, req.Role)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.RolesResponse{Roles: roles})
}

// LockUserHandler handles POST /v1/users/:id/lock. Admin only.
func (h *AuthHandler) LockUserHandler(c *gin.Context) {
	userID, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.auth.LockUser(c.Request.Context(), userID, c.ClientIP()); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// UnlockUserHandler handles POST /v1/users/:id/unlock. Admin only.
func (h *AuthHandler) UnlockUserHandler(c *gin.Context) {
	userID, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.auth.UnlockUser(c.Request.Context(), userID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// parseID extracts and validates the :id path parameter.
func (h *AuthHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return uuid.Nil, false
	}
	return id, true
}
