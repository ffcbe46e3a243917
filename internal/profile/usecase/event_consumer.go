package usecase

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/buiducnhanit/management-system/internal/events/bus"
	eventsDomain "github.com/buiducnhanit/management-system/internal/events/domain"
)

// EventConsumer subscribes the profile service to the identity event flow and
// dispatches messages to the profile use case.
type EventConsumer struct {
	eventBus bus.Bus
	profiles ProfileUseCase
	logger   *slog.Logger
}

// NewEventConsumer creates a new EventConsumer.
func NewEventConsumer(eventBus bus.Bus, profiles ProfileUseCase, logger *slog.Logger) *EventConsumer {
	return &EventConsumer{
		eventBus: eventBus,
		profiles: profiles,
		logger:   logger,
	}
}

// Start consumes events until the context is cancelled.
func (c *EventConsumer) Start(ctx context.Context) error {
	c.logger.Info("starting profile event consumer")
	return c.eventBus.Subscribe(ctx, c.Handle)
}

// Handle applies a single bus message. Unknown event types are skipped so new
// producers can be rolled out ahead of consumers.
func (c *EventConsumer) Handle(ctx context.Context, msg *bus.Message) error {
	switch msg.EventType {
	case eventsDomain.EventTypeUserRegistered:
		var payload eventsDomain.UserRegisteredPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		return c.profiles.ApplyUserRegistered(ctx, payload)

	case eventsDomain.EventTypeProfileUpdated:
		var payload eventsDomain.ProfileUpdatedPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		return c.profiles.ApplyProfileUpdated(ctx, payload)

	case eventsDomain.EventTypeRolesChanged:
		var payload eventsDomain.RolesChangedPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		return c.profiles.ApplyRolesChanged(ctx, payload)

	case eventsDomain.EventTypeUserDeleted:
		var payload eventsDomain.UserDeletedPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		return c.profiles.ApplyUserDeleted(ctx, payload)

	case eventsDomain.EventTypeUserUnlocked:
		var payload eventsDomain.UserUnlockedPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		return c.profiles.ApplyUserUnlocked(ctx, payload)

	default:
		c.logger.Warn("unknown event type",
			slog.String("event_id", msg.ID),
			slog.String("event_type", msg.EventType),
		)
		return nil
	}
}
