package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dollarfunding/webhook-engine/internal/domain"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

type WebhookService interface {
	Register(ctx context.Context, webhook *domain.Webhook) (*domain.Webhook, error)
	Get(ctx context.Context, id string) (*domain.Webhook, error)
	List(ctx context.Context, page, pageSize int) ([]domain.Webhook, int64, error)
	Deactivate(ctx context.Context, id string) error
}

type WebhookHandler struct {
	service WebhookService
}

func NewWebhookHandler(service WebhookService) (*WebhookHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("webhook service is required")
	}
	return &WebhookHandler{service: service}, nil
}

func RegisterWebhookRoutes(router fiber.Router, service WebhookService) error {
	h, err := NewWebhookHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/webhooks", h.RegisterWebhook)
	v1.Get("/webhooks/:id", h.GetWebhook)
	v1.Get("/webhooks", h.ListWebhooks)
	v1.Post("/webhooks/:id/deactivate", h.DeactivateWebhook)

	return nil
}

type registerWebhookRequest struct {
	URL         string   `json:"url"`
	Secret      string   `json:"secret"`
	EventTypes  []string `json:"eventTypes"`
	Description string   `json:"description"`
}

// The secret never appears in responses. It is accepted at registration and
// used only to sign outbound payloads.
type webhookResponse struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	EventTypes  []string  `json:"eventTypes"`
	Active      bool      `json:"active"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type listWebhooksResponse struct {
	Data []webhookResponse `json:"data"`
	Meta listMeta          `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

func (h *WebhookHandler) RegisterWebhook(c *fiber.Ctx) error {
	var req registerWebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	eventTypes := make([]domain.EventType, 0, len(req.EventTypes))
	for _, raw := range req.EventTypes {
		eventType, err := domain.ParseEventTypeFromString(raw)
		if err != nil {
			return toHTTPError(err)
		}
		eventTypes = append(eventTypes, eventType)
	}

	webhook := domain.Webhook{
		URL:         strings.TrimSpace(req.URL),
		Secret:      req.Secret,
		EventTypes:  eventTypes,
		Description: strings.TrimSpace(req.Description),
	}

	created, err := h.service.Register(c.Context(), &webhook)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toWebhookResponse(created))
}

func (h *WebhookHandler) GetWebhook(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	webhook, err := h.service.Get(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toWebhookResponse(webhook))
}

func (h *WebhookHandler) ListWebhooks(c *fiber.Ctx) error {
	page := c.QueryInt("page", defaultPage)
	pageSize := c.QueryInt("pageSize", defaultPageSize)
	if page < 1 {
		return toHTTPError(fmt.Errorf("%w: page must be >= 1", domain.ErrValidation))
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return toHTTPError(fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize))
	}

	webhooks, total, err := h.service.List(c.Context(), page, pageSize)
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]webhookResponse, 0, len(webhooks))
	for _, webhook := range webhooks {
		w := webhook
		responses = append(responses, toWebhookResponse(&w))
	}

	return c.Status(fiber.StatusOK).JSON(listWebhooksResponse{
		Data: responses,
		Meta: listMeta{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	})
}

func (h *WebhookHandler) DeactivateWebhook(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if err := h.service.Deactivate(c.Context(), id); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"webhookId": id,
		"active":    false,
	})
}

func toWebhookResponse(w *domain.Webhook) webhookResponse {
	if w == nil {
		return webhookResponse{}
	}

	eventTypes := make([]string, 0, len(w.EventTypes))
	for _, eventType := range w.EventTypes {
		eventTypes = append(eventTypes, eventType.String())
	}

	return webhookResponse{
		ID:          w.ID,
		URL:         w.URL,
		EventTypes:  eventTypes,
		Active:      w.Active,
		Description: w.Description,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}
