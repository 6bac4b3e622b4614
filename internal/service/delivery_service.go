package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dollarfunding/webhook-engine/internal/domain"
	"github.com/dollarfunding/webhook-engine/internal/repository"
)

// DeliveryService is the read-only audit surface over the delivery store.
// There is no write path here: delivery records are mutated only by the
// worker.
type DeliveryService struct {
	deliveries repository.DeliveryRepository
	attempts   repository.AttemptRepository
}

// DeliveryDetail pairs a delivery with its full attempt history.
type DeliveryDetail struct {
	Delivery domain.Delivery
	Attempts []domain.DeliveryAttempt
}

func NewDeliveryService(
	deliveries repository.DeliveryRepository,
	attempts repository.AttemptRepository,
) (*DeliveryService, error) {
	if deliveries == nil {
		return nil, fmt.Errorf("delivery repository is required")
	}
	if attempts == nil {
		return nil, fmt.Errorf("attempt repository is required")
	}

	return &DeliveryService{
		deliveries: deliveries,
		attempts:   attempts,
	}, nil
}

func (s *DeliveryService) GetByID(ctx context.Context, id string) (*DeliveryDetail, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: delivery id is required", domain.ErrValidation)
	}

	delivery, err := s.deliveries.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}

	attempts, err := s.attempts.GetByDeliveryID(ctx, delivery.ID)
	if err != nil {
		return nil, err
	}

	return &DeliveryDetail{
		Delivery: *delivery,
		Attempts: attempts,
	}, nil
}

func (s *DeliveryService) List(ctx context.Context, params repository.ListParams) ([]domain.Delivery, int64, error) {
	return s.deliveries.List(ctx, params)
}
