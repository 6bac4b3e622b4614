package queue

import (
	"context"
	"time"
)

const (
	// WorkQueueName holds messages that are due for a delivery attempt now.
	WorkQueueName = "deliveries"

	// RetryQueueName parks messages until their per-message TTL expires, at
	// which point the broker dead-letters them back into the work queue. This
	// makes "become visible again after delay" a single durable publish.
	RetryQueueName = "deliveries.retry"

	// DLQName receives malformed or unprocessable messages rejected by the
	// consumer. It is a broker-level dead letter path, unrelated to the
	// DEAD_LETTERED delivery status.
	DLQName = "dlq.deliveries"
)

// Publisher enqueues delivery messages.
type Publisher interface {
	Publish(ctx context.Context, queueName string, msg DeliveryMessage) error
	PublishDelayed(ctx context.Context, msg DeliveryMessage, delay time.Duration) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg DeliveryMessage) error

// Consumer consumes delivery messages from a queue. A handler error leaves the
// message unacknowledged for broker redelivery; a nil return acknowledges it.
type Consumer interface {
	Consume(ctx context.Context, queueName string, handler MessageHandler) error
	Close() error
}
