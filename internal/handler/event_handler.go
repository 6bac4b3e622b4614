package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/dollarfunding/webhook-engine/internal/domain"
)

type EventService interface {
	Route(ctx context.Context, event domain.Event) ([]domain.Delivery, error)
}

type EventHandler struct {
	router EventService
}

func NewEventHandler(router EventService) (*EventHandler, error) {
	if router == nil {
		return nil, fmt.Errorf("event router is required")
	}
	return &EventHandler{router: router}, nil
}

func RegisterEventRoutes(router fiber.Router, service EventService) error {
	h, err := NewEventHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/events", h.PublishEvent)

	return nil
}

type publishEventRequest struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp *time.Time      `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

type publishEventResponse struct {
	EventID    string `json:"eventId"`
	Deliveries int    `json:"deliveries"`
}

// PublishEvent accepts an event and fans it out asynchronously. The 202
// acknowledges that deliveries were recorded and enqueued, not that any
// endpoint has been called yet.
func (h *EventHandler) PublishEvent(c *fiber.Ctx) error {
	var req publishEventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	eventType, err := domain.ParseEventTypeFromString(req.Type)
	if err != nil {
		return toHTTPError(err)
	}

	event := domain.Event{
		ID:   strings.TrimSpace(req.ID),
		Type: eventType,
		Data: req.Data,
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if req.Timestamp != nil {
		event.Timestamp = *req.Timestamp
	} else {
		event.Timestamp = time.Now().UTC()
	}

	deliveries, err := h.router.Route(c.Context(), event)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(publishEventResponse{
		EventID:    event.ID,
		Deliveries: len(deliveries),
	})
}
