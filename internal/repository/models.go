package repository

import (
	"time"

	"github.com/dollarfunding/webhook-engine/internal/domain"
)

// WebhookModel is the persistence model for the webhooks table.
type WebhookModel struct {
	ID          string             `gorm:"type:uuid;primaryKey"`
	URL         string             `gorm:"type:varchar(2048);not null"`
	EventTypes  []domain.EventType `gorm:"serializer:json;type:jsonb;not null"`
	Secret      string             `gorm:"type:varchar(255);not null"`
	Active      bool               `gorm:"not null;default:true"`
	Description string             `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (WebhookModel) TableName() string {
	return "webhooks"
}

// DeliveryModel is the persistence model for the deliveries table.
type DeliveryModel struct {
	ID             string                `gorm:"type:uuid;primaryKey"`
	WebhookID      string                `gorm:"type:uuid;not null"`
	EventID        string                `gorm:"type:varchar(64);not null"`
	EventType      domain.EventType      `gorm:"type:varchar(40);not null"`
	Payload        []byte                `gorm:"type:jsonb;not null"`
	Status         domain.DeliveryStatus `gorm:"type:varchar(20);not null"`
	Attempts       int                   `gorm:"not null;default:0"`
	MaxAttempts    int                   `gorm:"not null;default:3"`
	LastStatusCode *int                  `gorm:"type:int"`
	LastError      *string               `gorm:"type:text"`
	LastAttemptAt  *time.Time
	NextAttemptAt  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (DeliveryModel) TableName() string {
	return "deliveries"
}

// DeliveryAttemptModel is the persistence model for delivery_attempts.
type DeliveryAttemptModel struct {
	ID            string  `gorm:"type:uuid;primaryKey"`
	DeliveryID    string  `gorm:"type:uuid;not null"`
	AttemptNumber int     `gorm:"not null"`
	StatusCode    *int    `gorm:"type:int"`
	ResponseBody  *string `gorm:"type:text"`
	Error         *string `gorm:"type:text"`
	CreatedAt     time.Time
}

func (DeliveryAttemptModel) TableName() string {
	return "delivery_attempts"
}

func webhookModelFromDomain(w *domain.Webhook) *WebhookModel {
	if w == nil {
		return nil
	}

	return &WebhookModel{
		ID:          w.ID,
		URL:         w.URL,
		EventTypes:  w.EventTypes,
		Secret:      w.Secret,
		Active:      w.Active,
		Description: w.Description,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func webhookModelToDomain(m *WebhookModel) *domain.Webhook {
	if m == nil {
		return nil
	}

	return &domain.Webhook{
		ID:          m.ID,
		URL:         m.URL,
		EventTypes:  m.EventTypes,
		Secret:      m.Secret,
		Active:      m.Active,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func deliveryModelFromDomain(d *domain.Delivery) *DeliveryModel {
	if d == nil {
		return nil
	}

	return &DeliveryModel{
		ID:             d.ID,
		WebhookID:      d.WebhookID,
		EventID:        d.EventID,
		EventType:      d.EventType,
		Payload:        d.Payload,
		Status:         d.Status,
		Attempts:       d.Attempts,
		MaxAttempts:    d.MaxAttempts,
		LastStatusCode: d.LastStatusCode,
		LastError:      d.LastError,
		LastAttemptAt:  d.LastAttemptAt,
		NextAttemptAt:  d.NextAttemptAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func deliveryModelToDomain(m *DeliveryModel) *domain.Delivery {
	if m == nil {
		return nil
	}

	return &domain.Delivery{
		ID:             m.ID,
		WebhookID:      m.WebhookID,
		EventID:        m.EventID,
		EventType:      m.EventType,
		Payload:        m.Payload,
		Status:         m.Status,
		Attempts:       m.Attempts,
		MaxAttempts:    m.MaxAttempts,
		LastStatusCode: m.LastStatusCode,
		LastError:      m.LastError,
		LastAttemptAt:  m.LastAttemptAt,
		NextAttemptAt:  m.NextAttemptAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func attemptModelFromDomain(a *domain.DeliveryAttempt) *DeliveryAttemptModel {
	if a == nil {
		return nil
	}

	return &DeliveryAttemptModel{
		ID:            a.ID,
		DeliveryID:    a.DeliveryID,
		AttemptNumber: a.AttemptNumber,
		StatusCode:    a.StatusCode,
		ResponseBody:  a.ResponseBody,
		Error:         a.Error,
		CreatedAt:     a.CreatedAt,
	}
}

func attemptModelToDomain(m *DeliveryAttemptModel) *domain.DeliveryAttempt {
	if m == nil {
		return nil
	}

	return &domain.DeliveryAttempt{
		ID:            m.ID,
		DeliveryID:    m.DeliveryID,
		AttemptNumber: m.AttemptNumber,
		StatusCode:    m.StatusCode,
		ResponseBody:  m.ResponseBody,
		Error:         m.Error,
		CreatedAt:     m.CreatedAt,
	}
}
