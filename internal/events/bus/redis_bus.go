package bus

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stream field names used for bus messages.
const (
	streamFieldEventID   = "event_id"
	streamFieldEventType = "event_type"
	streamFieldPayload   = "payload"
)

// readBlockTimeout bounds a single blocking read so context cancellation is
// observed between polls.
const readBlockTimeout = time.Second

// RedisStreamBus implements Bus on top of Redis Streams with consumer groups.
// Each service subscribes under its own group, so every group receives the
// full event flow independently.
type RedisStreamBus struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	logger   *slog.Logger
}

// NewRedisStreamBus creates a RedisStreamBus over an existing client.
func NewRedisStreamBus(
	client *redis.Client,
	stream string,
	group string,
	consumer string,
	logger *slog.Logger,
) *RedisStreamBus {
	return &RedisStreamBus{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		logger:   logger,
	}
}

// Publish appends a message to the stream.
func (b *RedisStreamBus) Publish(ctx context.Context, msg *Message) error {
	return b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]any{
			streamFieldEventID:   msg.ID,
			streamFieldEventType: msg.EventType,
			streamFieldPayload:   string(msg.Payload),
		},
	}).Err()
}

// Subscribe reads messages for this consumer group until the context is
// cancelled. Handled messages are acknowledged; handler failures leave the
// entry pending, and the loop returns to the pending backlog so the entry is
// delivered again.
func (b *RedisStreamBus) Subscribe(ctx context.Context, handler Handler) error {
	if err := b.ensureGroup(ctx); err != nil {
		return err
	}

	// Start on the pending backlog: entries delivered to this consumer
	// before a restart, or whose handler failed, are still unacked there.
	backlog := true

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		cursor := ">"
		if backlog {
			cursor = "0"
		}

		streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: b.consumer,
			Streams:  []string{b.stream, cursor},
			Count:    10,
			Block:    readBlockTimeout,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				backlog = false
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		delivered := 0
		failed := false
		for _, stream := range streams {
			for _, entry := range stream.Messages {
				delivered++
				msg := messageFromStreamValues(entry.Values)

				if err := handler(ctx, msg); err != nil {
					failed = true
					if b.logger != nil {
						b.logger.Error("failed to handle event",
							slog.String("event_id", msg.ID),
							slog.String("event_type", msg.EventType),
							slog.Any("error", err),
						)
					}
					continue
				}

				if err := b.client.XAck(ctx, b.stream, b.group, entry.ID).Err(); err != nil {
					if b.logger != nil {
						b.logger.Error("failed to ack event",
							slog.String("event_id", msg.ID),
							slog.Any("error", err),
						)
					}
				}
			}
		}

		if backlog && delivered == 0 {
			// Backlog drained, switch to never-delivered entries.
			backlog = false
		}
		if failed {
			// Revisit the pending backlog next pass. The backlog read does
			// not block, so wait out the poll interval here instead of
			// retrying the failing entry in a tight loop.
			backlog = true
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(readBlockTimeout):
			}
		}
	}
}

// Close closes the underlying client.
func (b *RedisStreamBus) Close(ctx context.Context) error {
	return b.client.Close()
}

// ensureGroup creates the consumer group if it does not exist yet.
func (b *RedisStreamBus) ensureGroup(ctx context.Context) error {
	err := b.client.XGroupCreateMkStream(ctx, b.stream, b.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func messageFromStreamValues(values map[string]any) *Message {
	msg := &Message{}
	if id, ok := values[streamFieldEventID].(string); ok {
		msg.ID = id
	}
	if eventType, ok := values[streamFieldEventType].(string); ok {
		msg.EventType = eventType
	}
	if payload, ok := values[streamFieldPayload].(string); ok {
		msg.Payload = []byte(payload)
	}
	return msg
}
