package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dollarfunding/webhook-engine/internal/domain"
	"gorm.io/gorm"
)

type ListParams struct {
	WebhookID *string
	Status    *domain.DeliveryStatus
	Page      int
	PageSize  int
}

// DeliveryRepository is the durable delivery store. All state-advancing writes
// take the status observed at read time and commit only if it still matches
// (optimistic compare-and-set); a stale precondition surfaces as ErrConflict.
type DeliveryRepository interface {
	Create(ctx context.Context, d *domain.Delivery) error
	GetByID(ctx context.Context, id string) (*domain.Delivery, error)
	List(ctx context.Context, params ListParams) ([]domain.Delivery, int64, error)
	ClaimAttempt(ctx context.Context, id string, prev domain.DeliveryStatus, dueBefore, leaseUntil time.Time) error
	MarkSuccess(ctx context.Context, id string, prev domain.DeliveryStatus, statusCode int, attemptedAt time.Time) error
	ScheduleRetry(ctx context.Context, id string, prev domain.DeliveryStatus, statusCode *int, lastError string, attemptedAt, nextAttemptAt time.Time) error
	DeadLetterAfterAttempt(ctx context.Context, id string, prev domain.DeliveryStatus, statusCode *int, lastError string, attemptedAt time.Time) error
	DeadLetter(ctx context.Context, id string, prev domain.DeliveryStatus, reason string) error
	GetDueForRedelivery(ctx context.Context, dueBefore time.Time, limit int) ([]domain.Delivery, error)
}

type GormDeliveryRepo struct {
	db *gorm.DB
}

func NewGormDeliveryRepo(db *gorm.DB) *GormDeliveryRepo {
	return &GormDeliveryRepo{db: db}
}

func (r *GormDeliveryRepo) Create(ctx context.Context, d *domain.Delivery) error {
	model := deliveryModelFromDomain(d)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if d != nil {
		*d = *deliveryModelToDomain(model)
	}
	return nil
}

func (r *GormDeliveryRepo) GetByID(ctx context.Context, id string) (*domain.Delivery, error) {
	var model DeliveryModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return deliveryModelToDomain(&model), nil
}

func (r *GormDeliveryRepo) List(ctx context.Context, params ListParams) ([]domain.Delivery, int64, error) {
	query := r.db.WithContext(ctx).Model(&DeliveryModel{})

	if params.WebhookID != nil {
		query = query.Where("webhook_id = ?", *params.WebhookID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []DeliveryModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	deliveries := make([]domain.Delivery, 0, len(models))
	for i := range models {
		deliveries = append(deliveries, *deliveryModelToDomain(&models[i]))
	}

	return deliveries, total, nil
}

// ClaimAttempt leases a due delivery to one worker by pushing next_attempt_at
// to leaseUntil. The claim succeeds only while the row is still in prev status
// with a due next_attempt_at, so a concurrent duplicate loses the race before
// any HTTP call is made. A crashed claim expires when the lease does and the
// sweeper re-enqueues it.
func (r *GormDeliveryRepo) ClaimAttempt(ctx context.Context, id string, prev domain.DeliveryStatus, dueBefore, leaseUntil time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&DeliveryModel{}).
		Where("id = ? AND status = ? AND next_attempt_at IS NOT NULL AND next_attempt_at <= ?", id, prev, dueBefore).
		Update("next_attempt_at", leaseUntil)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormDeliveryRepo) MarkSuccess(ctx context.Context, id string, prev domain.DeliveryStatus, statusCode int, attemptedAt time.Time) error {
	return r.compareAndSet(ctx, id, prev, map[string]any{
		"status":           domain.StatusSuccess,
		"attempts":         gorm.Expr("attempts + 1"),
		"last_status_code": statusCode,
		"last_error":       nil,
		"last_attempt_at":  attemptedAt,
		"next_attempt_at":  nil,
	})
}

func (r *GormDeliveryRepo) ScheduleRetry(ctx context.Context, id string, prev domain.DeliveryStatus, statusCode *int, lastError string, attemptedAt, nextAttemptAt time.Time) error {
	return r.compareAndSet(ctx, id, prev, map[string]any{
		"status":           domain.StatusRetryScheduled,
		"attempts":         gorm.Expr("attempts + 1"),
		"last_status_code": statusCode,
		"last_error":       lastError,
		"last_attempt_at":  attemptedAt,
		"next_attempt_at":  nextAttemptAt,
	})
}

func (r *GormDeliveryRepo) DeadLetterAfterAttempt(ctx context.Context, id string, prev domain.DeliveryStatus, statusCode *int, lastError string, attemptedAt time.Time) error {
	return r.compareAndSet(ctx, id, prev, map[string]any{
		"status":           domain.StatusDeadLettered,
		"attempts":         gorm.Expr("attempts + 1"),
		"last_status_code": statusCode,
		"last_error":       lastError,
		"last_attempt_at":  attemptedAt,
		"next_attempt_at":  nil,
	})
}

// DeadLetter terminates a delivery without counting an attempt. Used when the
// endpoint was deactivated before any call could be made.
func (r *GormDeliveryRepo) DeadLetter(ctx context.Context, id string, prev domain.DeliveryStatus, reason string) error {
	return r.compareAndSet(ctx, id, prev, map[string]any{
		"status":          domain.StatusDeadLettered,
		"last_error":      reason,
		"next_attempt_at": nil,
	})
}

func (r *GormDeliveryRepo) GetDueForRedelivery(ctx context.Context, dueBefore time.Time, limit int) ([]domain.Delivery, error) {
	var models []DeliveryModel
	err := r.db.WithContext(ctx).
		Where("status IN ? AND next_attempt_at <= ?",
			[]domain.DeliveryStatus{domain.StatusPending, domain.StatusRetryScheduled}, dueBefore).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	deliveries := make([]domain.Delivery, 0, len(models))
	for i := range models {
		deliveries = append(deliveries, *deliveryModelToDomain(&models[i]))
	}

	return deliveries, nil
}

// compareAndSet commits fields only if the stored status still equals prev.
// RowsAffected == 0 means another worker advanced the row first.
func (r *GormDeliveryRepo) compareAndSet(ctx context.Context, id string, prev domain.DeliveryStatus, fields map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&DeliveryModel{}).
		Where("id = ? AND status = ?", id, prev).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}
