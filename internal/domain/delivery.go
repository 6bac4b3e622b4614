package domain

import (
	"fmt"
	"strings"
	"time"
)

// DeliveryStatus represents the lifecycle state of a delivery.
type DeliveryStatus string

const (
	StatusPending        DeliveryStatus = "PENDING"
	StatusRetryScheduled DeliveryStatus = "RETRY_SCHEDULED"
	StatusSuccess        DeliveryStatus = "SUCCESS"
	StatusDeadLettered   DeliveryStatus = "DEAD_LETTERED"
)

func (s DeliveryStatus) String() string { return string(s) }

func (s DeliveryStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusRetryScheduled, StatusSuccess, StatusDeadLettered:
		return true
	}
	return false
}

// IsTerminal reports whether the status is immutable once reached.
func (s DeliveryStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusDeadLettered
}

// CanTransitionTo reports whether the state machine allows moving to next.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch s {
	case StatusPending, StatusRetryScheduled:
		return next == StatusSuccess || next == StatusRetryScheduled || next == StatusDeadLettered
	}
	return false
}

func ParseDeliveryStatusFromString(s string) (DeliveryStatus, error) {
	st := DeliveryStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid delivery status %q", ErrValidation, s)
	}
	return st, nil
}

// Delivery is the durable attempt-history record for sending one event to one
// webhook endpoint. Created once at routing time, mutated only by the worker,
// never deleted. Attempts counts HTTP calls actually made, including the one
// that succeeded.
type Delivery struct {
	ID             string
	WebhookID      string
	EventID        string
	EventType      EventType
	Payload        []byte
	Status         DeliveryStatus
	Attempts       int
	MaxAttempts    int
	LastStatusCode *int
	LastError      *string
	LastAttemptAt  *time.Time
	NextAttemptAt  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DeliveryAttempt is the audit row for a single outbound call.
type DeliveryAttempt struct {
	ID            string
	DeliveryID    string
	AttemptNumber int
	StatusCode    *int
	ResponseBody  *string
	Error         *string
	CreatedAt     time.Time
}
