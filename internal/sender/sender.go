package sender

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dollarfunding/webhook-engine/internal/domain"
	"github.com/dollarfunding/webhook-engine/internal/signature"
	"github.com/go-resty/resty/v2"
)

const (
	// DefaultTimeout bounds a single outbound attempt.
	DefaultTimeout = 5 * time.Second

	minTimeout = time.Second
	maxTimeout = 30 * time.Second

	// DefaultUserAgent identifies this service to receiving endpoints.
	DefaultUserAgent = "dollarfunding-webhook-engine/1.0"
)

// Sender is the outbound delivery port. Engine-level retry owns all retry
// decisions, so implementations must make exactly one HTTP call per Send.
type Sender interface {
	Send(ctx context.Context, webhook domain.Webhook, payload []byte) (*Response, error)
}

// Response stores call metadata for audit and persistence.
type Response struct {
	StatusCode int
	Body       string
}

// HTTPSender POSTs signed payloads to webhook endpoints.
type HTTPSender struct {
	client    *resty.Client
	userAgent string
}

func NewHTTPSender(timeout time.Duration, userAgent string) *HTTPSender {
	if timeout < minTimeout || timeout > maxTimeout {
		timeout = DefaultTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return NewHTTPSenderWithClient(client, userAgent)
}

func NewHTTPSenderWithClient(client *resty.Client, userAgent string) *HTTPSender {
	if strings.TrimSpace(userAgent) == "" {
		userAgent = DefaultUserAgent
	}
	if client.GetClient().Timeout == 0 {
		client.SetTimeout(DefaultTimeout)
	}
	client.SetRetryCount(0)

	return &HTTPSender{
		client:    client,
		userAgent: userAgent,
	}
}

// Send signs the payload with the webhook secret and POSTs it. The signature
// covers the exact bytes transmitted as the request body.
func (s *HTTPSender) Send(ctx context.Context, webhook domain.Webhook, payload []byte) (*Response, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("sender is not initialized")
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("payload is required")
	}

	response, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(signature.Header, signature.Sign(webhook.Secret, payload)).
		SetHeader("User-Agent", s.userAgent).
		SetBody(payload).
		Post(webhook.URL)
	if err != nil {
		return nil, &DeliveryError{
			Message:   "delivery request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return nil, &DeliveryError{
			Message:   "endpoint returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	responseBody := strings.TrimSpace(response.String())

	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &Response{
			StatusCode: statusCode,
			Body:       responseBody,
		}, nil
	}

	return nil, &DeliveryError{
		StatusCode: statusCode,
		Message:    endpointErrorMessage(statusCode, responseBody),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func endpointErrorMessage(statusCode int, body string) string {
	base := fmt.Sprintf("endpoint returned status %d", statusCode)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}
