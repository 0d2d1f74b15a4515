package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a sliding time-window call counter. WaitIfNeeded blocks
// cooperatively until the call count within the trailing window drops below
// the configured ceiling, then records the call.
type RateLimiter struct {
	maxCalls int
	window   time.Duration

	mu    sync.Mutex
	calls []time.Time
}

// NewRateLimiter creates a limiter allowing maxCalls per window.
func NewRateLimiter(maxCalls int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxCalls: maxCalls,
		window:   window,
	}
}

// WaitIfNeeded blocks until the current call fits inside the window, then
// records it. Returns early with the context error on cancellation.
func (rl *RateLimiter) WaitIfNeeded(ctx context.Context) error {
	for {
		wait := rl.tryAcquire(time.Now())
		if wait <= 0 {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tryAcquire records the call and returns zero if it fits in the window,
// otherwise returns how long until the oldest in-window call ages out.
func (rl *RateLimiter) tryAcquire(now time.Time) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.prune(now)

	if len(rl.calls) < rl.maxCalls {
		rl.calls = append(rl.calls, now)
		return 0
	}

	return rl.calls[0].Add(rl.window).Sub(now)
}

// prune drops timestamps that fell out of the trailing window.
func (rl *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-rl.window)
	i := 0
	for i < len(rl.calls) && !rl.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		rl.calls = rl.calls[i:]
	}
}

// Pending returns the number of calls currently inside the window.
func (rl *RateLimiter) Pending() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.prune(time.Now())
	return len(rl.calls)
}
