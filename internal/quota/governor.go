package quota

import (
	"context"
	"sync"
	"time"
)

// Category identifies a class of remote calls that shares one throughput limit.
type Category string

const (
	CategoryVideo Category = "video"
	CategoryImage Category = "image"
	CategoryText  Category = "text"
)

// Governor enforces a minimum spacing between remote calls of the same
// category. Categories are fully independent; acquisitions within one
// category serialize so consecutive calls never land closer together than
// the configured interval.
type Governor struct {
	now   func() time.Time
	sleep func(context.Context, time.Duration) error

	mu         sync.Mutex
	categories map[Category]*categoryState
}

type categoryState struct {
	interval time.Duration
	gate     chan struct{}
	lastCall time.Time
}

// Option customizes Governor construction.
type Option func(*Governor)

// WithClock overrides the wall clock (used in tests).
func WithClock(now func() time.Time) Option {
	return func(g *Governor) {
		if now != nil {
			g.now = now
		}
	}
}

// WithSleeper overrides how waits are performed (used in tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(g *Governor) {
		if sleep != nil {
			g.sleep = sleep
		}
	}
}

// NewGovernor builds a governor from per-category minimum intervals.
// Categories with a non-positive interval pass through without waiting.
func NewGovernor(intervals map[Category]time.Duration, opts ...Option) *Governor {
	g := &Governor{
		now:        time.Now,
		sleep:      sleepContext,
		categories: make(map[Category]*categoryState, len(intervals)),
	}
	for category, interval := range intervals {
		g.categories[category] = newCategoryState(interval)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func newCategoryState(interval time.Duration) *categoryState {
	gate := make(chan struct{}, 1)
	gate <- struct{}{}
	return &categoryState{interval: interval, gate: gate}
}

// Acquire blocks until at least the category's minimum interval has elapsed
// since the previous acquisition of the same category, then records the call.
// Concurrent acquirers of one category queue behind each other; each waits
// relative to the timestamp recorded by its predecessor.
func (g *Governor) Acquire(ctx context.Context, category Category) error {
	state := g.state(category)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-state.gate:
	}
	defer func() { state.gate <- struct{}{} }()

	if state.interval > 0 && !state.lastCall.IsZero() {
		elapsed := g.now().Sub(state.lastCall)
		if remaining := state.interval - elapsed; remaining > 0 {
			if err := g.sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}
	state.lastCall = g.now()
	return nil
}

// Interval reports the configured minimum spacing for a category.
func (g *Governor) Interval(category Category) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if state, ok := g.categories[category]; ok {
		return state.interval
	}
	return 0
}

func (g *Governor) state(category Category) *categoryState {
	g.mu.Lock()
	defer g.mu.Unlock()
	state, ok := g.categories[category]
	if !ok {
		state = newCategoryState(0)
		g.categories[category] = state
	}
	return state
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
