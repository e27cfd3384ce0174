package resilience

import (
	"context"
	"sync"
	"time"
)

// WindowLimiter enforces a sliding-window request quota per provider:
// at most Limit calls within Window. Unlike a token bucket it tracks the
// actual timestamps of recent calls, so a burst at the start of a window
// blocks until the oldest call ages out.
type WindowLimiter struct {
	limit  int
	window time.Duration

	mu    sync.Mutex
	calls []time.Time

	nowFunc   func() time.Time
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewWindowLimiter creates a sliding-window limiter allowing limit calls per
// window.
func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &WindowLimiter{
		limit:     limit,
		window:    window,
		nowFunc:   time.Now,
		sleepFunc: sleepCtx,
	}
}

// Wait blocks until a call slot is available or the context is cancelled.
func (w *WindowLimiter) Wait(ctx context.Context) error {
	for {
		w.mu.Lock()
		now := w.nowFunc()
		w.evict(now)

		if len(w.calls) < w.limit {
			w.calls = append(w.calls, now)
			w.mu.Unlock()
			return nil
		}

		wait := w.calls[0].Add(w.window).Sub(now)
		w.mu.Unlock()

		if err := w.sleepFunc(ctx, wait); err != nil {
			return err
		}
	}
}

// Allow reports whether a call slot is available without blocking, consuming
// one if so.
func (w *WindowLimiter) Allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.nowFunc()
	w.evict(now)
	if len(w.calls) >= w.limit {
		return false
	}
	w.calls = append(w.calls, now)
	return true
}

// evict drops timestamps older than the window. Caller holds the lock.
func (w *WindowLimiter) evict(now time.Time) {
	cutoff := now.Add(-w.window)
	i := 0
	for i < len(w.calls) && !w.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.calls = append(w.calls[:0], w.calls[i:]...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

// ProviderLimiters manages sliding-window limiters keyed by provider name.
type ProviderLimiters struct {
	mu       sync.Mutex
	limiters map[string]*WindowLimiter
	limit    int
	window   time.Duration
}

// NewProviderLimiters creates a registry of per-provider window limiters
// sharing the same quota.
func NewProviderLimiters(limit int, window time.Duration) *ProviderLimiters {
	return &ProviderLimiters{
		limiters: make(map[string]*WindowLimiter),
		limit:    limit,
		window:   window,
	}
}

// Get returns the limiter for the named provider, creating one if needed.
func (pl *ProviderLimiters) Get(provider string) *WindowLimiter {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if l, ok := pl.limiters[provider]; ok {
		return l
	}
	l := NewWindowLimiter(pl.limit, pl.window)
	pl.limiters[provider] = l
	return l
}
