// Package bus provides the event bus abstraction used to carry identity
// change events between services, with gocloud.dev/pubsub and Redis Streams
// implementations.
package bus

import "context"

// Message is a single event in transit on the bus.
type Message struct {
	ID        string
	EventType string
	Payload   []byte
}

// Handler processes one received message. Returning an error leaves the
// message unacknowledged so the driver can redeliver it.
type Handler func(ctx context.Context, msg *Message) error

// Bus defines publish/subscribe operations over a message transport.
type Bus interface {
	// Publish sends a message to the bus.
	Publish(ctx context.Context, msg *Message) error
	// Subscribe delivers messages to the handler until the context is
	// cancelled. It blocks and returns the context error on shutdown.
	Subscribe(ctx context.Context, handler Handler) error
	// Close releases the underlying transport resources.
	Close(ctx context.Context) error
}
