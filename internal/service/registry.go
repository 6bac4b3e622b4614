package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dollarfunding/webhook-engine/internal/domain"
	"github.com/dollarfunding/webhook-engine/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegistryService owns webhook subscriptions. All configuration validation
// happens here at registration time; records the delivery pipeline reads are
// trusted as-is.
type RegistryService struct {
	webhooks repository.WebhookRepository
	logger   *zap.Logger
}

func NewRegistryService(webhooks repository.WebhookRepository, logger *zap.Logger) (*RegistryService, error) {
	if webhooks == nil {
		return nil, fmt.Errorf("webhook repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RegistryService{
		webhooks: webhooks,
		logger:   logger,
	}, nil
}

func (s *RegistryService) Register(ctx context.Context, webhook *domain.Webhook) (*domain.Webhook, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if webhook == nil {
		return nil, fmt.Errorf("%w: webhook is required", domain.ErrValidation)
	}

	webhook.URL = strings.TrimSpace(webhook.URL)
	webhook.Description = strings.TrimSpace(webhook.Description)
	webhook.ID = strings.TrimSpace(webhook.ID)
	if webhook.ID == "" {
		webhook.ID = uuid.NewString()
	}
	webhook.Active = true

	if err := webhook.Validate(); err != nil {
		return nil, err
	}

	if err := s.webhooks.Create(ctx, webhook); err != nil {
		return nil, err
	}

	s.logger.Info("webhook registered",
		zap.String("webhookId", webhook.ID),
		zap.Int("eventTypes", len(webhook.EventTypes)),
	)

	return webhook, nil
}

func (s *RegistryService) Get(ctx context.Context, id string) (*domain.Webhook, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: webhook id is required", domain.ErrValidation)
	}
	return s.webhooks.GetByID(ctx, strings.TrimSpace(id))
}

func (s *RegistryService) List(ctx context.Context, page, pageSize int) ([]domain.Webhook, int64, error) {
	return s.webhooks.List(ctx, page, pageSize)
}

func (s *RegistryService) Deactivate(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: webhook id is required", domain.ErrValidation)
	}

	if err := s.webhooks.Deactivate(ctx, strings.TrimSpace(id)); err != nil {
		return err
	}

	s.logger.Info("webhook deactivated", zap.String("webhookId", id))
	return nil
}
