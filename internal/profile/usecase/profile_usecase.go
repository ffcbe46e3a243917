package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/buiducnhanit/management-system/internal/database"
	eventsDomain "github.com/buiducnhanit/management-system/internal/events/domain"
	"github.com/buiducnhanit/management-system/internal/profile/domain"
)

// profileUseCase implements ProfileUseCase.
type profileUseCase struct {
	txManager   database.TxManager
	profileRepo ProfileRepository
	outboxRepo  OutboxWriter
	logger      *slog.Logger
	now         func() time.Time
}

// NewProfileUseCase creates a new ProfileUseCase.
func NewProfileUseCase(
	txManager database.TxManager,
	profileRepo ProfileRepository,
	outboxRepo OutboxWriter,
	logger *slog.Logger,
) ProfileUseCase {
	return &profileUseCase{
		txManager:   txManager,
		profileRepo: profileRepo,
		outboxRepo:  outboxRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// GetProfile returns the profile for a user.
func (uc *profileUseCase) GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	return uc.profileRepo.GetByID(ctx, id)
}

// UpdateProfile sets the name fields, stamps ProfileUpdatedAt, and records a
// profile.updated event in the same transaction.
func (uc *profileUseCase) UpdateProfile(
	ctx context.Context,
	id uuid.UUID,
	firstName string,
	lastName string,
) (*domain.Profile, error) {
	var updated *domain.Profile

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		profile, err := uc.profileRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		now := uc.now().UTC()
		profile.FirstName = firstName
		profile.LastName = lastName
		profile.ProfileUpdatedAt = now

		if err := uc.profileRepo.Update(ctx, profile); err != nil {
			return err
		}

		event, err := eventsDomain.NewOutboxEvent(eventsDomain.EventTypeProfileUpdated,
			eventsDomain.ProfileUpdatedPayload{
				UserID:     profile.ID,
				FirstName:  firstName,
				LastName:   lastName,
				OccurredAt: now,
			})
		if err != nil {
			return err
		}
		if err := uc.outboxRepo.Create(ctx, event); err != nil {
			return err
		}

		updated = profile
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("profile updated",
		slog.String("user_id", id.String()),
	)

	return updated, nil
}

// DeleteProfile removes the profile and records a user.deleted event in the
// same transaction.
func (uc *profileUseCase) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.profileRepo.Delete(ctx, id); err != nil {
			return err
		}

		event, err := eventsDomain.NewOutboxEvent(eventsDomain.EventTypeUserDeleted,
			eventsDomain.UserDeletedPayload{
				UserID:     id,
				OccurredAt: uc.now().UTC(),
			})
		if err != nil {
			return err
		}
		return uc.outboxRepo.Create(ctx, event)
	})
	if err != nil {
		return err
	}

	uc.logger.Info("profile deleted",
		slog.String("user_id", id.String()),
	)

	return nil
}

// ApplyUserRegistered creates the profile read model for a new user. A replay
// with an existing profile is a no-op.
func (uc *profileUseCase) ApplyUserRegistered(
	ctx context.Context,
	payload eventsDomain.UserRegisteredPayload,
) error {
	_, err := uc.profileRepo.GetByID(ctx, payload.UserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return err
	}

	profile := &domain.Profile{
		ID:               payload.UserID,
		Email:            payload.Email,
		PhoneNumber:      payload.PhoneNumber,
		Roles:            payload.Roles,
		ProfileUpdatedAt: payload.OccurredAt,
		RolesChangedAt:   payload.OccurredAt,
	}

	if err := uc.profileRepo.Create(ctx, profile); err != nil {
		// A concurrent replay got there first
		if errors.Is(err, domain.ErrProfileAlreadyExists) {
			return nil
		}
		return err
	}

	uc.logger.Info("profile created from registration",
		slog.String("user_id", payload.UserID.String()),
	)

	return nil
}

// ApplyProfileUpdated merges changed contact and name fields. Events at or
// before the profile's ProfileUpdatedAt are stale and skipped, which also
// covers the service consuming its own published updates.
func (uc *profileUseCase) ApplyProfileUpdated(
	ctx context.Context,
	payload eventsDomain.ProfileUpdatedPayload,
) error {
	profile, err := uc.profileRepo.GetByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			// The update outran the registration event
			return uc.profileRepo.Create(ctx, &domain.Profile{
				ID:               payload.UserID,
				Email:            payload.Email,
				PhoneNumber:      payload.PhoneNumber,
				FirstName:        payload.FirstName,
				LastName:         payload.LastName,
				ProfileUpdatedAt: payload.OccurredAt,
				RolesChangedAt:   payload.OccurredAt,
			})
		}
		return err
	}

	if !payload.OccurredAt.After(profile.ProfileUpdatedAt) {
		return nil
	}

	if payload.Email != "" {
		profile.Email = payload.Email
	}
	if payload.PhoneNumber != "" {
		profile.PhoneNumber = payload.PhoneNumber
	}
	if payload.FirstName != "" {
		profile.FirstName = payload.FirstName
	}
	if payload.LastName != "" {
		profile.LastName = payload.LastName
	}
	profile.ProfileUpdatedAt = payload.OccurredAt

	return uc.profileRepo.Update(ctx, profile)
}

// ApplyRolesChanged replaces the role list with the full list from the event.
func (uc *profileUseCase) ApplyRolesChanged(
	ctx context.Context,
	payload eventsDomain.RolesChangedPayload,
) error {
	profile, err := uc.profileRepo.GetByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			uc.logger.Warn("roles changed for unknown profile",
				slog.String("user_id", payload.UserID.String()),
			)
			return nil
		}
		return err
	}

	if !payload.OccurredAt.After(profile.RolesChangedAt) {
		return nil
	}

	profile.Roles = payload.Roles
	profile.RolesChangedAt = payload.OccurredAt

	return uc.profileRepo.Update(ctx, profile)
}

// ApplyUserDeleted removes the profile. A missing profile is a replay.
func (uc *profileUseCase) ApplyUserDeleted(
	ctx context.Context,
	payload eventsDomain.UserDeletedPayload,
) error {
	err := uc.profileRepo.Delete(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil
		}
		return err
	}

	uc.logger.Info("profile removed for deleted user",
		slog.String("user_id", payload.UserID.String()),
	)

	return nil
}

// ApplyUserUnlocked recreates a minimal profile for a restored user when the
// original was removed by the lock.
func (uc *profileUseCase) ApplyUserUnlocked(
	ctx context.Context,
	payload eventsDomain.UserUnlockedPayload,
) error {
	_, err := uc.profileRepo.GetByID(ctx, payload.UserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return err
	}

	profile := &domain.Profile{
		ID:               payload.UserID,
		Email:            payload.Email,
		ProfileUpdatedAt: payload.OccurredAt,
		RolesChangedAt:   payload.OccurredAt,
	}

	if err := uc.profileRepo.Create(ctx, profile); err != nil {
		if errors.Is(err, domain.ErrProfileAlreadyExists) {
			return nil
		}
		return err
	}

	uc.logger.Info("profile restored for unlocked user",
		slog.String("user_id", payload.UserID.String()),
	)

	return nil
}
