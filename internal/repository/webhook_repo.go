package repository

import (
	"context"
	"errors"

	"github.com/dollarfunding/webhook-engine/internal/domain"
	"gorm.io/gorm"
)

// WebhookRepository backs the webhook registry. The delivery pipeline only
// reads from it; writes happen through the registry service at registration
// time.
type WebhookRepository interface {
	Create(ctx context.Context, w *domain.Webhook) error
	GetByID(ctx context.Context, id string) (*domain.Webhook, error)
	FindActiveByEvent(ctx context.Context, eventType domain.EventType) ([]domain.Webhook, error)
	List(ctx context.Context, page, pageSize int) ([]domain.Webhook, int64, error)
	Deactivate(ctx context.Context, id string) error
}

type GormWebhookRepo struct {
	db *gorm.DB
}

func NewGormWebhookRepo(db *gorm.DB) *GormWebhookRepo {
	return &GormWebhookRepo{db: db}
}

func (r *GormWebhookRepo) Create(ctx context.Context, w *domain.Webhook) error {
	model := webhookModelFromDomain(w)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if w != nil {
		*w = *webhookModelToDomain(model)
	}
	return nil
}

func (r *GormWebhookRepo) GetByID(ctx context.Context, id string) (*domain.Webhook, error) {
	var model WebhookModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return webhookModelToDomain(&model), nil
}

func (r *GormWebhookRepo) FindActiveByEvent(ctx context.Context, eventType domain.EventType) ([]domain.Webhook, error) {
	var models []WebhookModel
	err := r.db.WithContext(ctx).
		Where("active = ? AND event_types @> ?", true, `["`+eventType.String()+`"]`).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	webhooks := make([]domain.Webhook, 0, len(models))
	for i := range models {
		webhooks = append(webhooks, *webhookModelToDomain(&models[i]))
	}

	return webhooks, nil
}

func (r *GormWebhookRepo) List(ctx context.Context, page, pageSize int) ([]domain.Webhook, int64, error) {
	query := r.db.WithContext(ctx).Model(&WebhookModel{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page = max(page, 1)
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []WebhookModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	webhooks := make([]domain.Webhook, 0, len(models))
	for i := range models {
		webhooks = append(webhooks, *webhookModelToDomain(&models[i]))
	}

	return webhooks, total, nil
}

func (r *GormWebhookRepo) Deactivate(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&WebhookModel{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
