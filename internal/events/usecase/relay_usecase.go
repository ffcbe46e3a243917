// Package usecase implements the outbox relay that moves committed events
// from the outbox table onto the bus.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/buiducnhanit/management-system/internal/database"
	"github.com/buiducnhanit/management-system/internal/events/bus"
	"github.com/buiducnhanit/management-system/internal/events/domain"
)

// Config holds outbox relay configuration
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboxEventRepository defines outbox event repository operations
type OutboxEventRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	Update(ctx context.Context, event *domain.OutboxEvent) error
}

// RelayUseCase defines the interface for the outbox relay
type RelayUseCase interface {
	Start(ctx context.Context) error
	ProcessEvents(ctx context.Context) error
}

// OutboxRelay publishes pending outbox events to the bus with at-least-once
// delivery. Events that keep failing are parked as failed after MaxRetries.
type OutboxRelay struct {
	config     Config
	txManager  database.TxManager
	outboxRepo OutboxEventRepository
	eventBus   bus.Bus
	logger     *slog.Logger
}

// NewOutboxRelay creates a new OutboxRelay
func NewOutboxRelay(
	config Config,
	txManager database.TxManager,
	outboxRepo OutboxEventRepository,
	eventBus bus.Bus,
	logger *slog.Logger,
) *OutboxRelay {
	return &OutboxRelay{
		config:     config,
		txManager:  txManager,
		outboxRepo: outboxRepo,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// Start starts the outbox relay loop
func (uc *OutboxRelay) Start(ctx context.Context) error {
	if uc.logger != nil {
		uc.logger.Info("starting outbox relay",
			slog.Duration("interval", uc.config.Interval),
			slog.Int("batch_size", uc.config.BatchSize),
		)
	}

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if uc.logger != nil {
				uc.logger.Info("stopping outbox relay")
			}
			return ctx.Err()
		case <-ticker.C:
			if err := uc.ProcessEvents(ctx); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to process events", slog.Any("error", err))
				}
			}
		}
	}
}

// ProcessEvents publishes pending events from the outbox in a transaction.
// The SKIP LOCKED read keeps concurrent relays from double-publishing.
func (uc *OutboxRelay) ProcessEvents(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		events, err := uc.outboxRepo.GetPendingEvents(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			return nil
		}

		if uc.logger != nil {
			uc.logger.Info("publishing events", slog.Int("count", len(events)))
		}

		for _, event := range events {
			if err := uc.publishEvent(ctx, event); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to publish event",
						slog.String("event_id", event.ID.String()),
						slog.String("event_type", event.EventType),
						slog.Any("error", err),
					)
				}

				event.Retries++
				errorMsg := err.Error()
				event.LastError = &errorMsg

				if event.Retries >= uc.config.MaxRetries {
					event.Status = domain.OutboxEventStatusFailed
				}

				if err := uc.outboxRepo.Update(ctx, event); err != nil {
					return err
				}
				continue
			}

			now := time.Now()
			event.Status = domain.OutboxEventStatusProcessed
			event.ProcessedAt = &now

			if err := uc.outboxRepo.Update(ctx, event); err != nil {
				return err
			}
		}

		return nil
	})
}

// publishEvent sends a single outbox event to the bus
func (uc *OutboxRelay) publishEvent(ctx context.Context, event *domain.OutboxEvent) error {
	return uc.eventBus.Publish(ctx, &bus.Message{
		ID:        event.ID.String(),
		EventType: event.EventType,
		Payload:   []byte(event.Payload),
	})
}
