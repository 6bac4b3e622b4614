package ratelimit

import "context"

// RateLimiter bounds outbound call throughput per key. The worker keys by
// webhook id so one slow or noisy endpoint cannot starve the rest.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Wait(ctx context.Context, key string) error
}
