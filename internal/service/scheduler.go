package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dollarfunding/webhook-engine/internal/queue"
)

// DeliveryScheduler turns "deliver now" and "retry later" decisions into queue
// messages. Delay is honored by the broker (TTL-parked retry queue), never by
// polling or sleeping.
type DeliveryScheduler struct {
	publisher queue.Publisher
}

func NewDeliveryScheduler(publisher queue.Publisher) (*DeliveryScheduler, error) {
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	return &DeliveryScheduler{publisher: publisher}, nil
}

func (s *DeliveryScheduler) EnqueueNow(ctx context.Context, deliveryID string) error {
	return s.publisher.Publish(ctx, queue.WorkQueueName, queue.DeliveryMessage{DeliveryID: deliveryID})
}

func (s *DeliveryScheduler) EnqueueAfter(ctx context.Context, deliveryID string, delay time.Duration) error {
	return s.publisher.PublishDelayed(ctx, queue.DeliveryMessage{DeliveryID: deliveryID}, delay)
}
