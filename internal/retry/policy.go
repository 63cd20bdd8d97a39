package retry

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const (
	baseDelay    = 1000 * time.Millisecond
	minDelay     = 500 * time.Millisecond
	maxDelay     = 60000 * time.Millisecond
	jitterFloor  = 0.8
	jitterSpread = 0.4
)

// Policy computes bounded, jittered exponential backoff delays for retrying
// a single failed operation. It spaces retries of the same call; spacing of
// successful sequential calls belongs to the quota governor.
type Policy struct {
	mu     sync.Mutex
	sample func() float64
}

// Option customizes Policy construction.
type Option func(*Policy)

// WithSample overrides the uniform random source (used for deterministic tests).
// The function must return values in [0, 1).
func WithSample(sample func() float64) Option {
	return func(p *Policy) {
		if sample != nil {
			p.sample = sample
		}
	}
}

// NewPolicy builds a backoff policy seeded from the current time.
func NewPolicy(opts ...Option) *Policy {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	p := &Policy{sample: rng.Float64}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Delay returns the backoff delay for attempt n (0-indexed):
// base*2^n scaled by a jitter factor uniform in [0.8, 1.2], clamped to
// [500ms, 60s].
func (p *Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	p.mu.Lock()
	sample := p.sample()
	p.mu.Unlock()

	return DelayWithSample(attempt, sample)
}

// DelayWithSample is the pure computation behind Delay: sample must be a
// uniform draw from [0, 1). Once the un-jittered delay exceeds the 60s
// ceiling the result pins to the ceiling exactly.
func DelayWithSample(attempt int, sample float64) time.Duration {
	raw := float64(baseDelay)
	for i := 0; i < attempt; i++ {
		raw *= 2
		if raw > float64(maxDelay) {
			return maxDelay
		}
	}
	jitter := jitterFloor + jitterSpread*sample
	delay := time.Duration(raw * jitter)
	if delay < minDelay {
		return minDelay
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

// Sleep blocks for the attempt's delay, returning early when ctx is done.
func (p *Policy) Sleep(ctx context.Context, attempt int) error {
	delay := p.Delay(attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
