package app

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/buiducnhanit/management-system/internal/events/bus"
	eventsRepository "github.com/buiducnhanit/management-system/internal/events/repository"
	eventsUseCase "github.com/buiducnhanit/management-system/internal/events/usecase"
)

const eventStreamName = "identity-events"

// OutboxRepository returns the outbox event repository based on the database
// driver.
func (c *Container) OutboxRepository() (eventsUseCase.OutboxEventRepository, error) {
	var err error
	c.outboxRepoInit.Do(func() {
		c.outboxRepo, err = c.initOutboxRepository()
		if err != nil {
			c.initErrors["outboxRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxRepo"]; exists {
		return nil, storedErr
	}
	return c.outboxRepo, nil
}

// EventBus returns the configured event bus.
func (c *Container) EventBus() (bus.Bus, error) {
	var err error
	c.eventBusInit.Do(func() {
		c.eventBus, err = c.initEventBus()
		if err != nil {
			c.initErrors["eventBus"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["eventBus"]; exists {
		return nil, storedErr
	}
	return c.eventBus, nil
}

// OutboxRelay returns the outbox relay worker.
func (c *Container) OutboxRelay() (*eventsUseCase.OutboxRelay, error) {
	var err error
	c.outboxRelayInit.Do(func() {
		c.outboxRelay, err = c.initOutboxRelay()
		if err != nil {
			c.initErrors["outboxRelay"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxRelay"]; exists {
		return nil, storedErr
	}
	return c.outboxRelay, nil
}

// initOutboxRepository creates the outbox event repository based on the
// database driver.
func (c *Container) initOutboxRepository() (eventsUseCase.OutboxEventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return eventsRepository.NewMySQLOutboxEventRepository(db), nil
	case "postgres":
		return eventsRepository.NewPostgreSQLOutboxEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initEventBus creates the event bus based on the configured driver.
func (c *Container) initEventBus() (bus.Bus, error) {
	switch c.config.EventBusDriver {
	case "pubsub":
		// The configured URL is a gocloud.dev scheme prefix; the topic and
		// subscription share the stream name under it.
		streamURL := c.config.EventBusURL + eventStreamName
		return bus.NewPubSubBus(context.Background(), streamURL, streamURL, c.Logger())
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: c.config.EventBusURL})
		consumer, err := os.Hostname()
		if err != nil || consumer == "" {
			consumer = "consumer-1"
		}
		return bus.NewRedisStreamBus(
			client,
			eventStreamName,
			c.config.EventBusConsumerGroup,
			consumer,
			c.Logger(),
		), nil
	default:
		return nil, fmt.Errorf("unsupported event bus driver: %s", c.config.EventBusDriver)
	}
}

// initOutboxRelay creates the outbox relay with all its dependencies.
func (c *Container) initOutboxRelay() (*eventsUseCase.OutboxRelay, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for outbox relay: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox relay: %w", err)
	}

	eventBus, err := c.EventBus()
	if err != nil {
		return nil, fmt.Errorf("failed to get event bus for outbox relay: %w", err)
	}

	return eventsUseCase.NewOutboxRelay(
		eventsUseCase.Config{
			Interval:   c.config.OutboxRelayInterval,
			BatchSize:  c.config.OutboxRelayBatchSize,
			MaxRetries: c.config.OutboxRelayMaxRetries,
		},
		txManager,
		outboxRepo,
		eventBus,
		c.Logger(),
	), nil
}
