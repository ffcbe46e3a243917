// Package http provides HTTP handlers for profile operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/buiducnhanit/management-system/internal/httputil"
	"github.com/buiducnhanit/management-system/internal/profile/http/dto"
	profileUseCase "github.com/buiducnhanit/management-system/internal/profile/usecase"
	customValidation "github.com/buiducnhanit/management-system/internal/validation"
)

// ProfileHandler handles HTTP requests for profile operations.
type ProfileHandler struct {
	profiles profileUseCase.ProfileUseCase
	logger   *slog.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(profiles profileUseCase.ProfileUseCase, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   logger,
	}
}

// GetHandler returns a user's profile.
// GET /v1/profiles/:id
func (h *ProfileHandler) GetHandler(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapProfileToResponse(profile))
}

// UpdateHandler replaces a profile's name fields.
// PUT /v1/profiles/:id
func (h *ProfileHandler) UpdateHandler(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	profile, err := h.profiles.UpdateProfile(c.Request.Context(), id, req.FirstName, req.LastName)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapProfileToResponse(profile))
}

// DeleteHandler removes a profile and propagates the deletion to the auth
// service through the event flow.
// DELETE /v1/profiles/:id
func (h *ProfileHandler) DeleteHandler(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.profiles.DeleteProfile(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// parseID extracts the profile ID from the URL parameter.
func (h *ProfileHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(
			c,
			fmt.Errorf("invalid profile id: %w", err),
			h.logger,
		)
		return uuid.Nil, false
	}
	return id, true
}
