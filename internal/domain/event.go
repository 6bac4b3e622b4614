package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EventType identifies a domain event emitted by the application platform.
type EventType string

const (
	EventApplicationReceived EventType = "application.received"
	EventApplicationApproved EventType = "application.approved"
	EventApplicationRejected EventType = "application.rejected"
	EventDocumentProcessed   EventType = "document.processed"
	EventDocumentRejected    EventType = "document.rejected"
	EventReviewRequired      EventType = "review.required"
	EventFundingCompleted    EventType = "funding.completed"
)

func (t EventType) String() string { return string(t) }

func (t EventType) IsValid() bool {
	switch t {
	case EventApplicationReceived, EventApplicationApproved, EventApplicationRejected,
		EventDocumentProcessed, EventDocumentRejected, EventReviewRequired, EventFundingCompleted:
		return true
	}
	return false
}

// EventTypes lists every known event type.
func EventTypes() []EventType {
	return []EventType{
		EventApplicationReceived,
		EventApplicationApproved,
		EventApplicationRejected,
		EventDocumentProcessed,
		EventDocumentRejected,
		EventReviewRequired,
		EventFundingCompleted,
	}
}

func ParseEventTypeFromString(s string) (EventType, error) {
	t := EventType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: invalid event type %q", ErrValidation, s)
	}
	return t, nil
}

// Event is a domain event to be fanned out to subscribed webhooks.
// Its JSON form is the envelope POSTed to endpoints.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: event id is required", ErrValidation)
	}
	if !e.Type.IsValid() {
		return fmt.Errorf("%w: invalid event type %q", ErrValidation, e.Type)
	}
	return nil
}

// Envelope marshals the event into the payload bytes that are stored on a
// Delivery, signed, and transmitted. The timestamp is normalized to UTC so the
// wire form is ISO-8601 regardless of producer locale.
func (e Event) Envelope() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	normalized := e
	normalized.Timestamp = e.Timestamp.UTC()
	if normalized.Data == nil {
		normalized.Data = json.RawMessage("{}")
	}

	payload, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event envelope: %w", err)
	}
	return payload, nil
}
