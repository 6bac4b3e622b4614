package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dollarfunding/webhook-engine/internal/domain"
	"github.com/dollarfunding/webhook-engine/internal/observability"
	"github.com/dollarfunding/webhook-engine/internal/queue"
	"github.com/dollarfunding/webhook-engine/internal/ratelimit"
	"github.com/dollarfunding/webhook-engine/internal/repository"
	"github.com/dollarfunding/webhook-engine/internal/retry"
	"github.com/dollarfunding/webhook-engine/internal/sender"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	minWorkerConcurrency = 1

	// attemptLease is how far a claim pushes nextAttemptAt into the future.
	// A worker that crashes mid-attempt holds the delivery for at most this
	// long before the sweeper re-enqueues it.
	attemptLease = 5 * time.Minute

	// claimGrace absorbs broker TTL rounding and clock skew between the
	// enqueue delay and the stored nextAttemptAt.
	claimGrace = 30 * time.Second

	deactivatedReason = "endpoint deactivated"
	exhaustedReason   = "retry budget exhausted"
)

// DeliveryWorker consumes due delivery messages, performs the signed HTTP
// call, and advances delivery state. All outcomes are committed with a
// compare-and-set on the status read at load time; each delivery row is its
// own unit of mutual exclusion.
type DeliveryWorker struct {
	deliveries  repository.DeliveryRepository
	attempts    repository.AttemptRepository
	webhooks    repository.WebhookRepository
	consumer    queue.Consumer
	sender      sender.Sender
	scheduler   Scheduler
	policy      *retry.Policy
	rateLimiter ratelimit.RateLimiter
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
	now         func() time.Time
}

func NewDeliveryWorker(
	deliveries repository.DeliveryRepository,
	attempts repository.AttemptRepository,
	webhooks repository.WebhookRepository,
	consumer queue.Consumer,
	httpSender sender.Sender,
	scheduler Scheduler,
	policy *retry.Policy,
	rateLimiter ratelimit.RateLimiter,
	concurrency int,
	logger *zap.Logger,
) (*DeliveryWorker, error) {
	if deliveries == nil {
		return nil, fmt.Errorf("delivery repository is required")
	}
	if webhooks == nil {
		return nil, fmt.Errorf("webhook repository is required")
	}
	if httpSender == nil {
		return nil, fmt.Errorf("sender is required")
	}
	if scheduler == nil {
		return nil, fmt.Errorf("scheduler is required")
	}
	if policy == nil {
		return nil, fmt.Errorf("retry policy is required")
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DeliveryWorker{
		deliveries:  deliveries,
		attempts:    attempts,
		webhooks:    webhooks,
		consumer:    consumer,
		sender:      httpSender,
		scheduler:   scheduler,
		policy:      policy,
		rateLimiter: rateLimiter,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
	}, nil
}

func (w *DeliveryWorker) SetMetrics(metrics *observability.Metrics) {
	if w == nil {
		return
	}
	w.metrics = metrics
}

// Start runs the consumer pool until context cancellation. In-flight attempts
// finish or time out on shutdown; unacknowledged messages are left for broker
// redelivery.
func (w *DeliveryWorker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		workerID := i + 1

		g.Go(func() error {
			w.logger.Info("delivery worker started", zap.Int("workerId", workerID))

			err := w.consumer.Consume(groupCtx, queue.WorkQueueName, w.processMessage)
			if err != nil {
				w.logger.Error("delivery worker stopped with error",
					zap.Int("workerId", workerID),
					zap.Error(err),
				)
				return err
			}

			w.logger.Info("delivery worker stopped", zap.Int("workerId", workerID))
			return nil
		})
	}

	return g.Wait()
}

// processMessage handles one dequeued message. A nil return acknowledges the
// message; an error leaves it unacked for broker redelivery. Failures of a
// single attempt are absorbed here (recorded, retried, or dead-lettered) and
// never propagate to the event producer.
func (w *DeliveryWorker) processMessage(ctx context.Context, msg queue.DeliveryMessage) error {
	delivery, err := w.deliveries.GetByID(ctx, msg.DeliveryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			w.logger.Warn("delivery not found, dropping message",
				zap.String("deliveryId", msg.DeliveryID),
			)
			return nil
		}
		return fmt.Errorf("failed to load delivery: %w", err)
	}

	// Redelivered duplicate of a finished delivery: ack, zero HTTP calls.
	if delivery.Status.IsTerminal() {
		return nil
	}

	prev := delivery.Status
	eventType := delivery.EventType.String()

	webhook, err := w.webhooks.GetByID(ctx, delivery.WebhookID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to load webhook: %w", err)
	}
	if webhook == nil || !webhook.Active {
		return w.deadLetterWithoutCall(ctx, delivery.ID, prev, eventType, deactivatedReason)
	}

	maxAttempts := w.maxAttemptsFor(delivery)
	if delivery.Attempts >= maxAttempts {
		return w.deadLetterWithoutCall(ctx, delivery.ID, prev, eventType, exhaustedReason)
	}

	// Claim the attempt so a concurrently redelivered duplicate makes no
	// HTTP call. The loser sees a stale precondition and acks.
	now := w.now().UTC()
	err = w.deliveries.ClaimAttempt(ctx, delivery.ID, prev, now.Add(claimGrace), now.Add(attemptLease))
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			w.logger.Debug("delivery claimed elsewhere, dropping duplicate",
				zap.String("deliveryId", delivery.ID),
			)
			return nil
		}
		return fmt.Errorf("failed to claim delivery attempt: %w", err)
	}

	if w.metrics != nil {
		w.metrics.IncWorkerInFlight(eventType)
		defer w.metrics.DecWorkerInFlight(eventType)
	}

	if w.rateLimiter != nil {
		if err := w.rateLimiter.Wait(ctx, webhook.ID); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	attemptNumber := delivery.Attempts + 1
	sendStart := w.now()
	resp, sendErr := w.sender.Send(ctx, *webhook, delivery.Payload)
	attemptedAt := w.now().UTC()
	if w.metrics != nil {
		w.metrics.ObserveSendDuration(eventType, attemptedAt.Sub(sendStart))
	}

	w.recordAttempt(ctx, delivery.ID, attemptNumber, resp, sendErr)

	if sendErr == nil {
		if err := w.deliveries.MarkSuccess(ctx, delivery.ID, prev, resp.StatusCode, attemptedAt); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				w.logger.Warn("delivery advanced concurrently, dropping result",
					zap.String("deliveryId", delivery.ID),
				)
				return nil
			}
			return fmt.Errorf("failed to mark delivery succeeded: %w", err)
		}
		if w.metrics != nil {
			w.metrics.IncDeliverySucceeded(eventType)
		}
		return nil
	}

	statusCode := sender.StatusCodeOf(sendErr)
	lastError := sendErr.Error()

	if attemptNumber < maxAttempts {
		delay := w.policy.NextDelay(attemptNumber)
		nextAttemptAt := attemptedAt.Add(delay)

		if err := w.deliveries.ScheduleRetry(ctx, delivery.ID, prev, statusCode, lastError, attemptedAt, nextAttemptAt); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil
			}
			return fmt.Errorf("failed to schedule delivery retry: %w", err)
		}

		// State is durable; if the re-enqueue is lost the sweeper recovers
		// it. The original message is still acked so the broker cannot race
		// a second, undelayed attempt.
		if err := w.scheduler.EnqueueAfter(ctx, delivery.ID, delay); err != nil {
			w.logger.Error("failed to enqueue retry, leaving for sweeper",
				zap.String("deliveryId", delivery.ID),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
		}

		if w.metrics != nil {
			w.metrics.IncRetryScheduled(eventType)
		}
		return nil
	}

	if err := w.deliveries.DeadLetterAfterAttempt(ctx, delivery.ID, prev, statusCode, lastError, attemptedAt); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil
		}
		return fmt.Errorf("failed to dead-letter delivery: %w", err)
	}
	if w.metrics != nil {
		reason := "permanent_error"
		if sender.IsTransient(sendErr) {
			reason = "retry_exhausted"
		}
		w.metrics.IncDeliveryDeadLettered(eventType, reason)
	}

	return nil
}

func (w *DeliveryWorker) deadLetterWithoutCall(ctx context.Context, id string, prev domain.DeliveryStatus, eventType, reason string) error {
	err := w.deliveries.DeadLetter(ctx, id, prev, reason)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil
		}
		return fmt.Errorf("failed to dead-letter delivery: %w", err)
	}

	if w.metrics != nil {
		w.metrics.IncDeliveryDeadLettered(eventType, metricReason(reason))
	}
	return nil
}

func (w *DeliveryWorker) maxAttemptsFor(d *domain.Delivery) int {
	if d != nil && d.MaxAttempts > 0 {
		return d.MaxAttempts
	}
	return w.policy.MaxRetries
}

// recordAttempt appends the audit row for one HTTP call. The row is
// supplementary to the authoritative counters on the delivery itself, so a
// write failure is logged rather than forcing a duplicate call via redelivery.
func (w *DeliveryWorker) recordAttempt(
	ctx context.Context,
	deliveryID string,
	attemptNumber int,
	resp *sender.Response,
	sendErr error,
) {
	if w.attempts == nil {
		return
	}

	var statusCode *int
	var responseBody *string
	var attemptErr *string

	if resp != nil {
		if resp.StatusCode > 0 {
			value := resp.StatusCode
			statusCode = &value
		}
		if body := strings.TrimSpace(resp.Body); body != "" {
			responseBody = &body
		}
	}

	if sendErr != nil {
		value := sendErr.Error()
		attemptErr = &value
		if statusCode == nil {
			statusCode = sender.StatusCodeOf(sendErr)
		}
	}

	attempt := &domain.DeliveryAttempt{
		ID:            uuid.NewString(),
		DeliveryID:    deliveryID,
		AttemptNumber: attemptNumber,
		StatusCode:    statusCode,
		ResponseBody:  responseBody,
		Error:         attemptErr,
		CreatedAt:     w.now().UTC(),
	}

	if err := w.attempts.Create(ctx, attempt); err != nil {
		w.logger.Error("failed to record delivery attempt",
			zap.String("deliveryId", deliveryID),
			zap.Int("attemptNumber", attemptNumber),
			zap.Error(err),
		)
	}
}

func metricReason(reason string) string {
	return strings.ReplaceAll(strings.ToLower(reason), " ", "_")
}
