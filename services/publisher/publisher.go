package publisher

import "context"

// Publisher represents a service for publishing messages
type Publisher interface {
	// Publish publishes a message under key
	Publish(ctx context.Context, key string, message []byte) error

	// Close closes the publisher connection
	Close() error
}

// Noop discards every message. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(ctx context.Context, key string, message []byte) error { return nil }

func (Noop) Close() error { return nil }
