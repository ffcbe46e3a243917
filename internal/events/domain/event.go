package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/buiducnhanit/management-system/internal/errors"
)

// Event types exchanged between the auth and profile services.
const (
	EventTypeUserRegistered = "user.registered"
	EventTypeProfileUpdated = "profile.updated"
	EventTypeUserDeleted    = "user.deleted"
	EventTypeRolesChanged   = "roles.changed"
	EventTypeUserUnlocked   = "user.unlocked"
)

// UserRegisteredPayload announces a newly registered user.
type UserRegisteredPayload struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Roles       []string  `json:"roles"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ProfileUpdatedPayload carries changed contact and profile fields. It flows
// in both directions: auth publishes email/phone changes, profile publishes
// name changes. Empty fields are unchanged; OccurredAt orders concurrent
// updates (last write wins).
type ProfileUpdatedPayload struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// RolesChangedPayload carries the full recomputed role list, never deltas.
type RolesChangedPayload struct {
	UserID     uuid.UUID `json:"user_id"`
	Roles      []string  `json:"roles"`
	OccurredAt time.Time `json:"occurred_at"`
}

// UserDeletedPayload announces a user lock. Consumers treat the user as
// deleted: sessions are revoked and the profile is removed.
type UserDeletedPayload struct {
	UserID     uuid.UUID `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// UserUnlockedPayload announces that a previously locked user was restored.
type UserUnlockedPayload struct {
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewOutboxEvent builds a pending outbox row for the given event type and
// payload. The payload is stored as JSON.
func NewOutboxEvent(eventType string, payload any) (*OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal event payload")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate event id")
	}

	return &OutboxEvent{
		ID:        id,
		EventType: eventType,
		Payload:   string(body),
		Status:    OutboxEventStatusPending,
	}, nil
}
