package retry

import (
	"math/rand"
	"time"
)

const (
	// DefaultBaseDelay is the backoff base for the first retry.
	DefaultBaseDelay = 60 * time.Second

	// DefaultMaxRetries bounds how many HTTP calls are made per delivery.
	DefaultMaxRetries = 3

	// DefaultMaxDelay caps a single backoff interval.
	DefaultMaxDelay = time.Hour

	minRetries = 0
	maxRetries = 10

	minMaxDelay = time.Second
	maxMaxDelay = time.Hour

	maxJitter = time.Second
)

// Policy computes the delay before the next delivery attempt:
// base * 2^attempts, capped at MaxDelay, plus uniform jitter in [0, 1s) so
// retries of unrelated deliveries do not synchronize. Attempt zero is the
// initial send and is never pre-delayed.
type Policy struct {
	Base       time.Duration
	MaxRetries int
	MaxDelay   time.Duration

	randInt63n func(n int64) int64
}

// NewPolicy builds a policy with out-of-range settings clamped to their
// documented bounds. Zero values select the defaults.
func NewPolicy(base time.Duration, maxRetriesCount int, maxDelay time.Duration) *Policy {
	if base <= 0 {
		base = DefaultBaseDelay
	}

	if maxRetriesCount < minRetries {
		maxRetriesCount = minRetries
	}
	if maxRetriesCount > maxRetries {
		maxRetriesCount = maxRetries
	}

	if maxDelay == 0 {
		maxDelay = DefaultMaxDelay
	}
	if maxDelay < minMaxDelay {
		maxDelay = minMaxDelay
	}
	if maxDelay > maxMaxDelay {
		maxDelay = maxMaxDelay
	}

	return &Policy{
		Base:       base,
		MaxRetries: maxRetriesCount,
		MaxDelay:   maxDelay,
		randInt63n: rand.Int63n,
	}
}

// NextDelay returns the delay before the attempt following the given number of
// completed attempts. NextDelay(0) is always zero.
func (p *Policy) NextDelay(attempts int) time.Duration {
	if attempts <= 0 {
		return 0
	}

	delay := p.Base
	for i := 0; i < attempts; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	return delay + p.jitter()
}

func (p *Policy) jitter() time.Duration {
	if p.randInt63n == nil {
		return 0
	}
	return time.Duration(p.randInt63n(int64(maxJitter)))
}
