package bus

import (
	"context"
	"log/slog"

	"gocloud.dev/pubsub"

	apperrors "github.com/buiducnhanit/management-system/internal/errors"

	// Register pubsub drivers resolved by URL
	_ "gocloud.dev/pubsub/mempubsub"
	_ "gocloud.dev/pubsub/rabbitpubsub"
)

// Metadata keys carried alongside the message body.
const (
	metadataEventID   = "event_id"
	metadataEventType = "event_type"
)

// PubSubBus implements Bus on top of gocloud.dev/pubsub. The broker is
// selected by URL: mem:// for in-process delivery, rabbit:// for RabbitMQ.
type PubSubBus struct {
	topic        *pubsub.Topic
	subscription *pubsub.Subscription
	logger       *slog.Logger
}

// NewPubSubBus opens the topic and subscription for the configured broker URLs.
func NewPubSubBus(ctx context.Context, topicURL, subscriptionURL string, logger *slog.Logger) (*PubSubBus, error) {
	topic, err := pubsub.OpenTopic(ctx, topicURL)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open pubsub topic")
	}

	subscription, err := pubsub.OpenSubscription(ctx, subscriptionURL)
	if err != nil {
		_ = topic.Shutdown(ctx)
		return nil, apperrors.Wrap(err, "failed to open pubsub subscription")
	}

	return &PubSubBus{
		topic:        topic,
		subscription: subscription,
		logger:       logger,
	}, nil
}

// Publish sends a message to the topic.
func (b *PubSubBus) Publish(ctx context.Context, msg *Message) error {
	return b.topic.Send(ctx, &pubsub.Message{
		Body: msg.Payload,
		Metadata: map[string]string{
			metadataEventID:   msg.ID,
			metadataEventType: msg.EventType,
		},
	})
}

// Subscribe receives messages until the context is cancelled. Handler errors
// nack the message for redelivery when the driver supports it.
func (b *PubSubBus) Subscribe(ctx context.Context, handler Handler) error {
	for {
		received, err := b.subscription.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		msg := &Message{
			ID:        received.Metadata[metadataEventID],
			EventType: received.Metadata[metadataEventType],
			Payload:   received.Body,
		}

		if err := handler(ctx, msg); err != nil {
			if b.logger != nil {
				b.logger.Error("failed to handle event",
					slog.String("event_id", msg.ID),
					slog.String("event_type", msg.EventType),
					slog.Any("error", err),
				)
			}
			if received.Nackable() {
				received.Nack()
				continue
			}
			// The driver cannot nack (mem). Acknowledge the failed message
			// so the subscription keeps moving; the failure is logged above.
			received.Ack()
			continue
		}

		received.Ack()
	}
}

// Close shuts down the topic and subscription.
func (b *PubSubBus) Close(ctx context.Context) error {
	subErr := b.subscription.Shutdown(ctx)
	topicErr := b.topic.Shutdown(ctx)
	if subErr != nil {
		return subErr
	}
	return topicErr
}
