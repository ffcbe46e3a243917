// Package usecase implements the profile business logic: local profile
// operations and the idempotent application of identity change events.
package usecase

import (
	"context"

	"github.com/google/uuid"

	eventsDomain "github.com/buiducnhanit/management-system/internal/events/domain"
	"github.com/buiducnhanit/management-system/internal/profile/domain"
)

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	Update(ctx context.Context, profile *domain.Profile) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// OutboxWriter stores events in the transactional outbox.
type OutboxWriter interface {
	Create(ctx context.Context, event *eventsDomain.OutboxEvent) error
}

// ProfileUseCase defines profile operations. The Apply* methods are called by
// the bus consumer and must be idempotent: replaying a delivered event leaves
// the profile unchanged.
type ProfileUseCase interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error)

	// UpdateProfile sets the name fields and emits profile.updated.
	UpdateProfile(ctx context.Context, id uuid.UUID, firstName, lastName string) (*domain.Profile, error)

	// DeleteProfile removes the profile and emits user.deleted so the auth
	// service locks the identity and revokes its sessions.
	DeleteProfile(ctx context.Context, id uuid.UUID) error

	ApplyUserRegistered(ctx context.Context, payload eventsDomain.UserRegisteredPayload) error
	ApplyProfileUpdated(ctx context.Context, payload eventsDomain.ProfileUpdatedPayload) error
	ApplyRolesChanged(ctx context.Context, payload eventsDomain.RolesChangedPayload) error
	ApplyUserDeleted(ctx context.Context, payload eventsDomain.UserDeletedPayload) error
	ApplyUserUnlocked(ctx context.Context, payload eventsDomain.UserUnlockedPayload) error
}
