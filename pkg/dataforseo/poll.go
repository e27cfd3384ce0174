package dataforseo

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultPreDelay    = 5 * time.Second
	defaultMaxAttempts = 30
	maxPollWait        = 30 * time.Second
)

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	preDelay    time.Duration
	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration) error
}

func defaultPollConfig() pollConfig {
	return pollConfig{
		preDelay:    defaultPreDelay,
		maxAttempts: defaultMaxAttempts,
		sleep:       sleepCtx,
	}
}

// WithPreDelay overrides the wait before the first poll.
func WithPreDelay(d time.Duration) PollOption {
	return func(c *pollConfig) { c.preDelay = d }
}

// WithMaxAttempts overrides the poll attempt budget.
func WithMaxAttempts(n int) PollOption {
	return func(c *pollConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithSleepFunc overrides the sleep implementation (for testing).
func WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) PollOption {
	return func(c *pollConfig) { c.sleep = fn }
}

// pollWait returns the backoff before re-polling after the given attempt:
// min(3*(attempt+1), 30) seconds. A transient not-found doubles the wait,
// still capped at 30 seconds.
func pollWait(attempt int, notFound bool) time.Duration {
	secs := 3 * (attempt + 1)
	if notFound {
		secs *= 2
	}
	d := time.Duration(secs) * time.Second
	if d > maxPollWait {
		d = maxPollWait
	}
	return d
}

// PollTask polls TaskGet until the task carries results, fails terminally,
// or the attempt budget is exhausted. Queued/processing/handed-off statuses
// keep polling with increasing waits; a "not found yet" response is retried
// with a longer wait rather than treated as failure.
func PollTask(ctx context.Context, client Client, taskID string, opts ...PollOption) (*TaskResult, error) {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.preDelay > 0 {
		if err := cfg.sleep(ctx, cfg.preDelay); err != nil {
			return nil, eris.Wrapf(err, "dataforseo: poll task %s cancelled", taskID)
		}
	}

	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		result, err := client.TaskGet(ctx, taskID)
		if err != nil {
			return nil, eris.Wrapf(err, "dataforseo: poll task %s", taskID)
		}

		switch {
		case result.Ready():
			return result, nil
		case result.InProgress():
			// keep polling
		default:
			return nil, eris.Errorf("dataforseo: task %s failed: %d %s",
				taskID, result.StatusCode, result.StatusMsg)
		}

		if attempt >= cfg.maxAttempts-1 {
			break
		}

		wait := pollWait(attempt, result.StatusCode == StatusTaskNotFound)
		if err := cfg.sleep(ctx, wait); err != nil {
			return nil, eris.Wrapf(err, "dataforseo: poll task %s cancelled", taskID)
		}
	}

	return nil, eris.Errorf("dataforseo: task %s timed out after %d attempts", taskID, cfg.maxAttempts)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
