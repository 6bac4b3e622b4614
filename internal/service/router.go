package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dollarfunding/webhook-engine/internal/domain"
	"github.com/dollarfunding/webhook-engine/internal/observability"
	"github.com/dollarfunding/webhook-engine/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Scheduler is the router/worker-facing slice of the DeliveryScheduler.
type Scheduler interface {
	EnqueueNow(ctx context.Context, deliveryID string) error
	EnqueueAfter(ctx context.Context, deliveryID string, delay time.Duration) error
}

// EventRouter fans a domain event out to every active subscribed webhook: one
// Delivery row plus one queue message per match. Routing only persists intent
// and enqueues; it never waits for delivery completion.
type EventRouter struct {
	webhooks    repository.WebhookRepository
	deliveries  repository.DeliveryRepository
	scheduler   Scheduler
	logger      *zap.Logger
	metrics     *observability.Metrics
	maxAttempts int
	now         func() time.Time
}

func NewEventRouter(
	webhooks repository.WebhookRepository,
	deliveries repository.DeliveryRepository,
	scheduler Scheduler,
	maxAttempts int,
	logger *zap.Logger,
) (*EventRouter, error) {
	if webhooks == nil {
		return nil, fmt.Errorf("webhook repository is required")
	}
	if deliveries == nil {
		return nil, fmt.Errorf("delivery repository is required")
	}
	if scheduler == nil {
		return nil, fmt.Errorf("scheduler is required")
	}
	if maxAttempts < 0 {
		maxAttempts = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EventRouter{
		webhooks:    webhooks,
		deliveries:  deliveries,
		scheduler:   scheduler,
		logger:      logger,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}, nil
}

func (r *EventRouter) SetMetrics(metrics *observability.Metrics) {
	if r == nil {
		return
	}
	r.metrics = metrics
}

// Route creates and enqueues deliveries for every active webhook subscribed to
// the event type. No match is not an error. Failures for one webhook are
// absorbed and logged so the remaining fan-out proceeds; routing never
// propagates a delivery failure to the event producer.
func (r *EventRouter) Route(ctx context.Context, event domain.Event) ([]domain.Delivery, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	matches, err := r.webhooks.FindActiveByEvent(ctx, event.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions for %q: %w", event.Type, err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	payload, err := event.Envelope()
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	created := make([]domain.Delivery, 0, len(matches))
	for i := range matches {
		webhook := matches[i]

		delivery := domain.Delivery{
			ID:            uuid.NewString(),
			WebhookID:     webhook.ID,
			EventID:       event.ID,
			EventType:     event.Type,
			Payload:       payload,
			Status:        domain.StatusPending,
			Attempts:      0,
			MaxAttempts:   r.maxAttempts,
			NextAttemptAt: &now,
		}

		if err := r.deliveries.Create(ctx, &delivery); err != nil {
			r.logger.Error("failed to create delivery",
				zap.String("eventId", event.ID),
				zap.String("eventType", event.Type.String()),
				zap.String("webhookId", webhook.ID),
				zap.Error(err),
			)
			continue
		}

		if r.metrics != nil {
			r.metrics.IncDeliveryRouted(event.Type.String())
		}

		if err := r.scheduler.EnqueueNow(ctx, delivery.ID); err != nil {
			// The row is durable with a due nextAttemptAt; the sweeper will
			// pick it up.
			r.logger.Error("failed to enqueue delivery, leaving for sweeper",
				zap.String("deliveryId", delivery.ID),
				zap.Error(err),
			)
		}

		created = append(created, delivery)
	}

	return created, nil
}
