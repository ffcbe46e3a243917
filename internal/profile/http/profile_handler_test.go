package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	eventsDomain "github.com/buiducnhanit/management-system/internal/events/domain"
	"github.com/buiducnhanit/management-system/internal/profile/domain"
	"github.com/buiducnhanit/management-system/internal/profile/http/dto"
)

// mockProfileUseCase is a mock implementation of usecase.ProfileUseCase for testing.
type mockProfileUseCase struct {
	mock.Mock
}

func (m *mockProfileUseCase) GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *mockProfileUseCase) UpdateProfile(
	ctx context.Context,
	id uuid.UUID,
	firstName string,
	lastName string,
) (*domain.Profile, error) {
	args := m.Called(ctx, id, firstName, lastName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *mockProfileUseCase) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockProfileUseCase) ApplyUserRegistered(
	ctx context.Context,
	payload eventsDomain.UserRegisteredPayload,
) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *mockProfileUseCase) ApplyProfileUpdated(
	ctx context.Context,
	payload eventsDomain.ProfileUpdatedPayload,
) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *mockProfileUseCase) ApplyRolesChanged(
	ctx context.Context,
	payload eventsDomain.RolesChangedPayload,
) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *mockProfileUseCase) ApplyUserDeleted(
	ctx context.Context,
	payload eventsDomain.UserDeletedPayload,
) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *mockProfileUseCase) ApplyUserUnlocked(
	ctx context.Context,
	payload eventsDomain.UserUnlockedPayload,
) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// setupTestHandler creates a test handler with mocked dependencies.
func setupTestHandler(t *testing.T) (*ProfileHandler, *mockProfileUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	profiles := &mockProfileUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewProfileHandler(profiles, logger), profiles
}

func createTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, w
}

func testProfile(id uuid.UUID) *domain.Profile {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Profile{
		ID:               id,
		Email:            "user@example.com",
		PhoneNumber:      "+15550100",
		FirstName:        "Ada",
		LastName:         "Lovelace",
		Roles:            []string{"user"},
		ProfileUpdatedAt: now,
		RolesChangedAt:   now,
		UpdatedAt:        now,
	}
}

func TestProfileHandler_GetHandler(t *testing.T) {
	t.Run("Success_ReturnsProfile", func(t *testing.T) {
		handler, profiles := setupTestHandler(t)
		profileID := uuid.Must(uuid.NewV7())

		profiles.On("GetProfile", mock.Anything, profileID).
			Return(testProfile(profileID), nil).Once()

		c, w := createTestContext(http.MethodGet, "/v1/profiles/"+profileID.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: profileID.String()}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ProfileResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, profileID.String(), response.ID)
		assert.Equal(t, "user@example.com", response.Email)
		assert.Equal(t, "Ada Lovelace", response.FullName)
		profiles.AssertExpectations(t)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, profiles := setupTestHandler(t)
		profileID := uuid.Must(uuid.NewV7())

		profiles.On("GetProfile", mock.Anything, profileID).
			Return(nil, domain.ErrProfileNotFound).Once()

		c, w := createTestContext(http.MethodGet, "/v1/profiles/"+profileID.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: profileID.String()}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Error_InvalidID", func(t *testing.T) {
		handler, profiles := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/profiles/not-a-uuid", nil)
		c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		profiles.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
	})
}

func TestProfileHandler_UpdateHandler(t *testing.T) {
	t.Run("Success_UpdatesNames", func(t *testing.T) {
		handler, profiles := setupTestHandler(t)
		profileID := uuid.Must(uuid.NewV7())

		updated := testProfile(profileID)
		updated.FirstName = "Grace"
		updated.LastName = "Hopper"

		profiles.On("UpdateProfile", mock.Anything, profileID, "Grace", "Hopper").
			Return(updated, nil).Once()

		request := dto.UpdateProfileRequest{FirstName: "Grace", LastName: "Hopper"}
		c, w := createTestContext(http.MethodPut, "/v1/profiles/"+profileID.String(), request)
		c.Params = gin.Params{{Key: "id", Value: profileID.String()}}

		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ProfileResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Grace Hopper", response.FullName)
		profiles.AssertExpectations(t)
	})

	t.Run("Error_MalformedBody", func(t *testing.T) {
		handler, profiles := setupTestHandler(t)
		profileID := uuid.Must(uuid.NewV7())

		c, w := createTestContext(http.MethodPut, "/v1/profiles/"+profileID.String(), nil)
		c.Request = httptest.NewRequest(http.MethodPut, "/v1/profiles/"+profileID.String(),
			bytes.NewReader([]byte("not json")))
		c.Params = gin.Params{{Key: "id", Value: profileID.String()}}

		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		profiles.AssertNotCalled(t, "UpdateProfile",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, profiles := setupTestHandler(t)
		profileID := uuid.Must(uuid.NewV7())

		profiles.On("UpdateProfile", mock.Anything, profileID, "Grace", "Hopper").
			Return(nil, domain.ErrProfileNotFound).Once()

		request := dto.UpdateProfileRequest{FirstName: "Grace", LastName: "Hopper"}
		c, w := createTestContext(http.MethodPut, "/v1/profiles/"+profileID.String(), request)
		c.Params = gin.Params{{Key: "id", Value: profileID.String()}}

		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestProfileHandler_DeleteHandler(t *testing.T) {
	t.Run("Success_Deletes", func(t *testing.T) {
		handler, profiles := setupTestHandler(t)
		profileID := uuid.Must(uuid.NewV7())

		profiles.On("DeleteProfile", mock.Anything, profileID).Return(nil).Once()

		c, w := createTestContext(http.MethodDelete, "/v1/profiles/"+profileID.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: profileID.String()}}

		handler.DeleteHandler(c)
		c.Writer.WriteHeaderNow()

		assert.Equal(t, http.StatusNoContent, w.Code)
		profiles.AssertExpectations(t)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, profiles := setupTestHandler(t)
		profileID := uuid.Must(uuid.NewV7())

		profiles.On("DeleteProfile", mock.Anything, profileID).
			Return(domain.ErrProfileNotFound).Once()

		c, w := createTestContext(http.MethodDelete, "/v1/profiles/"+profileID.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: profileID.String()}}

		handler.DeleteHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
