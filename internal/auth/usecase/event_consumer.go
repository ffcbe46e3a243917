package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/buiducnhanit/management-system/internal/events/bus"
	eventsDomain "github.com/buiducnhanit/management-system/internal/events/domain"
	identityDomain "github.com/buiducnhanit/management-system/internal/identity/domain"
	identityUseCase "github.com/buiducnhanit/management-system/internal/identity/usecase"
	refreshDomain "github.com/buiducnhanit/management-system/internal/refreshtoken/domain"
	refreshUseCase "github.com/buiducnhanit/management-system/internal/refreshtoken/usecase"
)

// EventConsumer applies identity-relevant events from the bus: contact-detail
// changes made in the profile service and account removals. Every handler is
// idempotent, so redelivery and consuming the service's own events are safe.
type EventConsumer struct {
	eventBus   bus.Bus
	identities identityUseCase.IdentityUseCase
	engine     refreshUseCase.RotationEngine
	logger     *slog.Logger
}

// NewEventConsumer creates a consumer over the given bus subscription.
func NewEventConsumer(
	eventBus bus.Bus,
	identities identityUseCase.IdentityUseCase,
	engine refreshUseCase.RotationEngine,
	logger *slog.Logger,
) *EventConsumer {
	return &EventConsumer{
		eventBus:   eventBus,
		identities: identities,
		engine:     engine,
		logger:     logger,
	}
}

// Start consumes events until ctx is cancelled.
func (c *EventConsumer) Start(ctx context.Context) error {
	return c.eventBus.Subscribe(ctx, c.Handle)
}

// Handle dispatches a single bus message. Unknown event types are skipped so a
// newer producer never wedges the subscription.
func (c *EventConsumer) Handle(ctx context.Context, msg *bus.Message) error {
	switch msg.EventType {
	case eventsDomain.EventTypeProfileUpdated:
		var payload eventsDomain.ProfileUpdatedPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		return c.applyProfileUpdated(ctx, payload)
	case eventsDomain.EventTypeUserDeleted:
		var payload eventsDomain.UserDeletedPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		return c.applyUserDeleted(ctx, payload)
	default:
		c.logger.Debug("skipping event not handled by the auth service",
			slog.String("event_id", msg.ID),
			slog.String("event_type", msg.EventType))
		return nil
	}
}

// applyProfileUpdated syncs contact details changed in the profile service.
// Empty fields mean unchanged; name-only updates are a no-op here.
func (c *EventConsumer) applyProfileUpdated(
	ctx context.Context,
	payload eventsDomain.ProfileUpdatedPayload,
) error {
	if payload.Email == "" && payload.PhoneNumber == "" {
		return nil
	}

	if payload.Email != "" {
		if _, err := c.identities.SetEmail(ctx, payload.UserID, payload.Email); err != nil {
			if errors.Is(err, identityDomain.ErrUserNotFound) {
				c.logger.Warn("profile update for unknown identity",
					slog.String("user_id", payload.UserID.String()))
				return nil
			}
			return err
		}
	}

	if payload.PhoneNumber != "" {
		if _, err := c.identities.SetPhoneNumber(ctx, payload.UserID, payload.PhoneNumber); err != nil {
			if errors.Is(err, identityDomain.ErrUserNotFound) {
				return nil
			}
			return err
		}
	}

	return nil
}

// applyUserDeleted locks the identity and revokes its sessions.
func (c *EventConsumer) applyUserDeleted(
	ctx context.Context,
	payload eventsDomain.UserDeletedPayload,
) error {
	if err := c.identities.Lock(ctx, payload.UserID); err != nil {
		if errors.Is(err, identityDomain.ErrUserNotFound) {
			return nil
		}
		return err
	}

	return c.engine.RevokeAllForUser(
		ctx, payload.UserID, refreshDomain.RevocationReasonUserLocked, "",
	)
}
