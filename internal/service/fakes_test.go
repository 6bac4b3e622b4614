package service

import (
	"context"
	"time"

	"github.com/dollarfunding/webhook-engine/internal/domain"
	"github.com/dollarfunding/webhook-engine/internal/queue"
	"github.com/dollarfunding/webhook-engine/internal/ratelimit"
	"github.com/dollarfunding/webhook-engine/internal/repository"
	"github.com/dollarfunding/webhook-engine/internal/sender"
)

type fakeDeliveryRepo struct {
	createFn                 func(ctx context.Context, d *domain.Delivery) error
	getByIDFn                func(ctx context.Context, id string) (*domain.Delivery, error)
	listFn                   func(ctx context.Context, params repository.ListParams) ([]domain.Delivery, int64, error)
	claimAttemptFn           func(ctx context.Context, id string, prev domain.DeliveryStatus, dueBefore, leaseUntil time.Time) error
	markSuccessFn            func(ctx context.Context, id string, prev domain.DeliveryStatus, statusCode int, attemptedAt time.Time) error
	scheduleRetryFn          func(ctx context.Context, id string, prev domain.DeliveryStatus, statusCode *int, lastError string, attemptedAt, nextAttemptAt time.Time) error
	deadLetterAfterAttemptFn func(ctx context.Context, id string, prev domain.DeliveryStatus, statusCode *int, lastError string, attemptedAt time.Time) error
	deadLetterFn             func(ctx context.Context, id string, prev domain.DeliveryStatus, reason string) error
	getDueForRedeliveryFn    func(ctx context.Context, dueBefore time.Time, limit int) ([]domain.Delivery, error)
}

var _ repository.DeliveryRepository = (*fakeDeliveryRepo)(nil)

func (f *fakeDeliveryRepo) Create(ctx context.Context, d *domain.Delivery) error {
	if f.createFn != nil {
		return f.createFn(ctx, d)
	}
	return nil
}

func (f *fakeDeliveryRepo) GetByID(ctx context.Context, id string) (*domain.Delivery, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeDeliveryRepo) List(ctx context.Context, params repository.ListParams) ([]domain.Delivery, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, 0, nil
}

func (f *fakeDeliveryRepo) ClaimAttempt(ctx context.Context, id string, prev domain.DeliveryStatus, dueBefore, leaseUntil time.Time) error {
	if f.claimAttemptFn != nil {
		return f.claimAttemptFn(ctx, id, prev, dueBefore, leaseUntil)
	}
	return nil
}

func (f *fakeDeliveryRepo) MarkSuccess(ctx context.Context, id string, prev domain.DeliveryStatus, statusCode int, attemptedAt time.Time) error {
	if f.markSuccessFn != nil {
		return f.markSuccessFn(ctx, id, prev, statusCode, attemptedAt)
	}
	return nil
}

func (f *fakeDeliveryRepo) ScheduleRetry(ctx context.Context, id string, prev domain.DeliveryStatus, statusCode *int, lastError string, attemptedAt, nextAttemptAt time.Time) error {
	if f.scheduleRetryFn != nil {
		return f.scheduleRetryFn(ctx, id, prev, statusCode, lastError, attemptedAt, nextAttemptAt)
	}
	return nil
}

func (f *fakeDeliveryRepo) DeadLetterAfterAttempt(ctx context.Context, id string, prev domain.DeliveryStatus, statusCode *int, lastError string, attemptedAt time.Time) error {
	if f.deadLetterAfterAttemptFn != nil {
		return f.deadLetterAfterAttemptFn(ctx, id, prev, statusCode, lastError, attemptedAt)
	}
	return nil
}

func (f *fakeDeliveryRepo) DeadLetter(ctx context.Context, id string, prev domain.DeliveryStatus, reason string) error {
	if f.deadLetterFn != nil {
		return f.deadLetterFn(ctx, id, prev, reason)
	}
	return nil
}

func (f *fakeDeliveryRepo) GetDueForRedelivery(ctx context.Context, dueBefore time.Time, limit int) ([]domain.Delivery, error) {
	if f.getDueForRedeliveryFn != nil {
		return f.getDueForRedeliveryFn(ctx, dueBefore, limit)
	}
	return nil, nil
}

type fakeAttemptRepo struct {
	createFn          func(ctx context.Context, a *domain.DeliveryAttempt) error
	getByDeliveryIDFn func(ctx context.Context, deliveryID string) ([]domain.DeliveryAttempt, error)
}

var _ repository.AttemptRepository = (*fakeAttemptRepo)(nil)

func (f *fakeAttemptRepo) Create(ctx context.Context, a *domain.DeliveryAttempt) error {
	if f.createFn != nil {
		return f.createFn(ctx, a)
	}
	return nil
}

func (f *fakeAttemptRepo) GetByDeliveryID(ctx context.Context, deliveryID string) ([]domain.DeliveryAttempt, error) {
	if f.getByDeliveryIDFn != nil {
		return f.getByDeliveryIDFn(ctx, deliveryID)
	}
	return nil, nil
}

type fakeWebhookRepo struct {
	createFn            func(ctx context.Context, w *domain.Webhook) error
	getByIDFn           func(ctx context.Context, id string) (*domain.Webhook, error)
	findActiveByEventFn func(ctx context.Context, eventType domain.EventType) ([]domain.Webhook, error)
	listFn              func(ctx context.Context, page, pageSize int) ([]domain.Webhook, int64, error)
	deactivateFn        func(ctx context.Context, id string) error
}

var _ repository.WebhookRepository = (*fakeWebhookRepo)(nil)

func (f *fakeWebhookRepo) Create(ctx context.Context, w *domain.Webhook) error {
	if f.createFn != nil {
		return f.createFn(ctx, w)
	}
	return nil
}

func (f *fakeWebhookRepo) GetByID(ctx context.Context, id string) (*domain.Webhook, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeWebhookRepo) FindActiveByEvent(ctx context.Context, eventType domain.EventType) ([]domain.Webhook, error) {
	if f.findActiveByEventFn != nil {
		return f.findActiveByEventFn(ctx, eventType)
	}
	return nil, nil
}

func (f *fakeWebhookRepo) List(ctx context.Context, page, pageSize int) ([]domain.Webhook, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, page, pageSize)
	}
	return nil, 0, nil
}

func (f *fakeWebhookRepo) Deactivate(ctx context.Context, id string) error {
	if f.deactivateFn != nil {
		return f.deactivateFn(ctx, id)
	}
	return nil
}

type fakeScheduler struct {
	enqueueNowFn   func(ctx context.Context, deliveryID string) error
	enqueueAfterFn func(ctx context.Context, deliveryID string, delay time.Duration) error
}

var _ Scheduler = (*fakeScheduler)(nil)

func (f *fakeScheduler) EnqueueNow(ctx context.Context, deliveryID string) error {
	if f.enqueueNowFn != nil {
		return f.enqueueNowFn(ctx, deliveryID)
	}
	return nil
}

func (f *fakeScheduler) EnqueueAfter(ctx context.Context, deliveryID string, delay time.Duration) error {
	if f.enqueueAfterFn != nil {
		return f.enqueueAfterFn(ctx, deliveryID, delay)
	}
	return nil
}

type fakeSender struct {
	sendFn func(ctx context.Context, webhook domain.Webhook, payload []byte) (*sender.Response, error)
}

var _ sender.Sender = (*fakeSender)(nil)

func (f *fakeSender) Send(ctx context.Context, webhook domain.Webhook, payload []byte) (*sender.Response, error) {
	if f.sendFn != nil {
		return f.sendFn(ctx, webhook, payload)
	}
	return &sender.Response{StatusCode: 200}, nil
}

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queueName string, handler queue.MessageHandler) error
	closeFn   func() error
}

var _ queue.Consumer = (*fakeConsumer)(nil)

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.MessageHandler) error {
	if f.consumeFn != nil {
		return f.consumeFn(ctx, queueName, handler)
	}
	return nil
}

func (f *fakeConsumer) Close() error {
	if f.closeFn != nil {
		return f.closeFn()
	}
	return nil
}

type fakeRateLimiter struct {
	allowFn func(ctx context.Context, key string) (bool, error)
	waitFn  func(ctx context.Context, key string) error
}

var _ ratelimit.RateLimiter = (*fakeRateLimiter)(nil)

func (f *fakeRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, key)
	}
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, key string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, key)
	}
	return nil
}

type fakePublisher struct {
	publishFn        func(ctx context.Context, queueName string, msg queue.DeliveryMessage) error
	publishDelayedFn func(ctx context.Context, msg queue.DeliveryMessage, delay time.Duration) error
	closeFn          func() error
}

var _ queue.Publisher = (*fakePublisher)(nil)

func (f *fakePublisher) Publish(ctx context.Context, queueName string, msg queue.DeliveryMessage) error {
	if f.publishFn != nil {
		return f.publishFn(ctx, queueName, msg)
	}
	return nil
}

func (f *fakePublisher) PublishDelayed(ctx context.Context, msg queue.DeliveryMessage, delay time.Duration) error {
	if f.publishDelayedFn != nil {
		return f.publishDelayedFn(ctx, msg, delay)
	}
	return nil
}

func (f *fakePublisher) Close() error {
	if f.closeFn != nil {
		return f.closeFn()
	}
	return nil
}
