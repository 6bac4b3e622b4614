package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// MinSecretLength is the minimum signing secret size in bytes.
const MinSecretLength = 32

// Webhook is a registered external HTTPS endpoint subscribed to event types.
// Validation happens once at registration time; the delivery pipeline trusts
// stored records.
type Webhook struct {
	ID          string
	URL         string
	EventTypes  []EventType
	Secret      string
	Active      bool
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (w *Webhook) Validate() error {
	if w == nil {
		return fmt.Errorf("%w: webhook is required", ErrValidation)
	}

	parsed, err := url.Parse(strings.TrimSpace(w.URL))
	if err != nil {
		return fmt.Errorf("%w: invalid endpoint url: %v", ErrValidation, err)
	}
	if parsed.Scheme != "https" {
		return fmt.Errorf("%w: endpoint url must use https, got %q", ErrValidation, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: endpoint url host is required", ErrValidation)
	}

	if len(w.Secret) < MinSecretLength {
		return fmt.Errorf("%w: secret must be at least %d bytes", ErrValidation, MinSecretLength)
	}

	if len(w.EventTypes) == 0 {
		return fmt.Errorf("%w: at least one event type subscription is required", ErrValidation)
	}
	for _, t := range w.EventTypes {
		if !t.IsValid() {
			return fmt.Errorf("%w: invalid event type %q", ErrValidation, t)
		}
	}

	return nil
}

// Subscribed reports whether the webhook subscribes to the given event type.
func (w *Webhook) Subscribed(t EventType) bool {
	if w == nil {
		return false
	}
	for _, sub := range w.EventTypes {
		if sub == t {
			return true
		}
	}
	return false
}
