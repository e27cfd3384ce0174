package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowLimiter_AllowWithinQuota(t *testing.T) {
	w := NewWindowLimiter(2, time.Minute)
	assert.True(t, w.Allow())
	assert.True(t, w.Allow())
	assert.False(t, w.Allow())
}

func TestWindowLimiter_SlotFreesAfterWindow(t *testing.T) {
	w := NewWindowLimiter(1, time.Minute)
	now := time.Now()
	w.nowFunc = func() time.Time { return now }

	require.True(t, w.Allow())
	require.False(t, w.Allow())

	now = now.Add(61 * time.Second)
	assert.True(t, w.Allow())
}

func TestWindowLimiter_WaitBlocksUntilSlot(t *testing.T) {
	w := NewWindowLimiter(1, time.Minute)
	now := time.Now()
	w.nowFunc = func() time.Time { return now }

	var slept time.Duration
	w.sleepFunc = func(ctx context.Context, d time.Duration) error {
		slept += d
		now = now.Add(d)
		return nil
	}

	require.NoError(t, w.Wait(context.Background()))
	require.NoError(t, w.Wait(context.Background()))

	// Second call had to wait out the full window.
	assert.Equal(t, time.Minute, slept)
}

func TestWindowLimiter_WaitHonorsCancellation(t *testing.T) {
	w := NewWindowLimiter(1, time.Minute)
	require.True(t, w.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProviderLimiters(t *testing.T) {
	pl := NewProviderLimiters(5, time.Minute)
	assert.Same(t, pl.Get("serp"), pl.Get("serp"))
	assert.NotSame(t, pl.Get("serp"), pl.Get("snov"))
}
