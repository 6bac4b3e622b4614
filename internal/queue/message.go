package queue

import (
	"fmt"
	"strings"
)

// DeliveryMessage is the broker payload for delivery processing. It carries
// only the delivery id: attempt count and status live in the store so that
// redelivered duplicates can never drift from the durable record.
type DeliveryMessage struct {
	DeliveryID string `json:"deliveryId"`
}

func (m DeliveryMessage) Validate() error {
	if strings.TrimSpace(m.DeliveryID) == "" {
		return fmt.Errorf("deliveryId is required")
	}
	return nil
}
