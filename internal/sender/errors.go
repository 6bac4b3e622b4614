package sender

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// DeliveryError classifies a failed outbound call. Transient and permanent
// failures follow the same bounded retry count; the flag only feeds metrics
// and audit wording, deliberately not the retry decision, so that transient
// client-side misconfiguration is never misclassified into an early dead
// letter.
type DeliveryError struct {
	StatusCode int
	Message    string
	Transient  bool
	Cause      error
}

func (e *DeliveryError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, "delivery error")

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *DeliveryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// StatusCodeOf extracts the HTTP status from a delivery error, if any.
func StatusCodeOf(err error) *int {
	var deliveryErr *DeliveryError
	if errors.As(err, &deliveryErr) && deliveryErr.StatusCode > 0 {
		code := deliveryErr.StatusCode
		return &code
	}
	return nil
}

// IsTransient reports whether the failure looks recoverable.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var deliveryErr *DeliveryError
	if errors.As(err, &deliveryErr) {
		return deliveryErr.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
