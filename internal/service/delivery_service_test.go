package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dollarfunding/webhook-engine/internal/domain"
	"github.com/dollarfunding/webhook-engine/internal/repository"
)

func TestDeliveryServiceGetByID(t *testing.T) {
	t.Parallel()

	deliveries := &fakeDeliveryRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Delivery, error) {
			if id != "d1" {
				t.Fatalf("id = %q, want d1", id)
			}
			return &domain.Delivery{ID: "d1", Status: domain.StatusSuccess, Attempts: 2}, nil
		},
	}
	attempts := &fakeAttemptRepo{
		getByDeliveryIDFn: func(ctx context.Context, deliveryID string) ([]domain.DeliveryAttempt, error) {
			return []domain.DeliveryAttempt{
				{ID: "a1", DeliveryID: "d1", AttemptNumber: 1},
				{ID: "a2", DeliveryID: "d1", AttemptNumber: 2},
			}, nil
		},
	}

	svc, err := NewDeliveryService(deliveries, attempts)
	if err != nil {
		t.Fatalf("NewDeliveryService() error = %v", err)
	}

	detail, err := svc.GetByID(context.Background(), " d1 ")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if detail.Delivery.ID != "d1" {
		t.Fatalf("delivery id = %q, want d1", detail.Delivery.ID)
	}
	if len(detail.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(detail.Attempts))
	}
	if detail.Attempts[0].AttemptNumber != 1 || detail.Attempts[1].AttemptNumber != 2 {
		t.Fatal("attempts should be ordered by attempt number")
	}
}

func TestDeliveryServiceGetByIDNotFound(t *testing.T) {
	t.Parallel()

	svc, err := NewDeliveryService(&fakeDeliveryRepo{}, &fakeAttemptRepo{})
	if err != nil {
		t.Fatalf("NewDeliveryService() error = %v", err)
	}

	_, err = svc.GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestDeliveryServiceGetByIDRequiresID(t *testing.T) {
	t.Parallel()

	svc, err := NewDeliveryService(&fakeDeliveryRepo{}, &fakeAttemptRepo{})
	if err != nil {
		t.Fatalf("NewDeliveryService() error = %v", err)
	}

	if _, err := svc.GetByID(context.Background(), ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("GetByID() error = %v, want ErrValidation", err)
	}
}

func TestDeliveryServiceListPassesFilters(t *testing.T) {
	t.Parallel()

	status := domain.StatusDeadLettered
	webhookID := "wh1"

	deliveries := &fakeDeliveryRepo{
		listFn: func(ctx context.Context, params repository.ListParams) ([]domain.Delivery, int64, error) {
			if params.WebhookID == nil || *params.WebhookID != webhookID {
				t.Fatalf("webhook filter = %v, want wh1", params.WebhookID)
			}
			if params.Status == nil || *params.Status != status {
				t.Fatalf("status filter = %v, want DEAD_LETTERED", params.Status)
			}
			return []domain.Delivery{{ID: "d1"}}, 1, nil
		},
	}

	svc, err := NewDeliveryService(deliveries, &fakeAttemptRepo{})
	if err != nil {
		t.Fatalf("NewDeliveryService() error = %v", err)
	}

	list, total, err := svc.List(context.Background(), repository.ListParams{
		WebhookID: &webhookID,
		Status:    &status,
		Page:      1,
		PageSize:  20,
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("list/total = %d/%d, want 1/1", len(list), total)
	}
}
