package scraper

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the minimum gap between two requests to the guide site
const DefaultDelay = 2 * time.Second

// Throttle enforces a minimum delay between consecutive fetches. Each Wait
// reserves the next free slot under the lock, so concurrent callers are
// spaced apart rather than released together.
type Throttle struct {
	mu    sync.Mutex
	delay time.Duration
	last  time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewThrottle creates a throttle with the given minimum delay
func NewThrottle(delay time.Duration) *Throttle {
	return &Throttle{
		delay: delay,
		now:   time.Now,
		sleep: sleepContext,
	}
}

// Wait blocks until the caller's reserved slot, at least the configured
// delay after the previous slot or the last Mark.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	now := t.now()
	next := now
	if !t.last.IsZero() {
		if earliest := t.last.Add(t.delay); earliest.After(next) {
			next = earliest
		}
	}
	t.last = next
	t.mu.Unlock()

	if remaining := next.Sub(now); remaining > 0 {
		return t.sleep(ctx, remaining)
	}
	return ctx.Err()
}

// Mark records the completion time of a fetch. It never moves a later
// reservation backwards.
func (t *Throttle) Mark() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if now := t.now(); now.After(t.last) {
		t.last = now
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
