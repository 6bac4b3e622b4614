package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMQPublisher struct {
	client *RabbitMQ
}

func NewRabbitMQPublisher(client *RabbitMQ) *RabbitMQPublisher {
	return &RabbitMQPublisher{client: client}
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, queueName string, msg DeliveryMessage) error {
	return p.publish(ctx, queueName, msg, 0)
}

// PublishDelayed parks the message in the retry queue with a per-message TTL
// equal to delay. The broker moves it to the work queue on expiry, so the
// delayed redelivery is one durable operation.
func (p *RabbitMQPublisher) PublishDelayed(ctx context.Context, msg DeliveryMessage, delay time.Duration) error {
	if delay <= 0 {
		return p.publish(ctx, WorkQueueName, msg, 0)
	}
	return p.publish(ctx, RetryQueueName, msg, delay)
}

func (p *RabbitMQPublisher) publish(ctx context.Context, queueName string, msg DeliveryMessage, ttl time.Duration) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("publisher is not initialized")
	}
	if queueName == "" {
		return fmt.Errorf("queue name is required")
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid delivery message: %w", err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery message: %w", err)
	}

	ch, err := p.client.channel(ctx)
	if err != nil {
		return err
	}
	defer ch.Close()

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    msg.DeliveryID,
		Body:         payload,
	}
	if ttl > 0 {
		publishing.Expiration = strconv.FormatInt(ttl.Milliseconds(), 10)
	}

	if err := ch.PublishWithContext(ctx, "", queueName, false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish message to queue %q: %w", queueName, err)
	}

	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
