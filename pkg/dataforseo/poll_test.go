package dataforseo

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient returns a fixed sequence of task states, one per TaskGet call.
type scriptedClient struct {
	states []TaskResult
	calls  int
	err    error
}

func (c *scriptedClient) TaskPost(ctx context.Context, req TaskRequest) (string, error) {
	return "task-1", nil
}

func (c *scriptedClient) TaskGet(ctx context.Context, taskID string) (*TaskResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.calls >= len(c.states) {
		c.calls++
		return &c.states[len(c.states)-1], nil
	}
	state := c.states[c.calls]
	c.calls++
	return &state, nil
}

func recordSleeps(sleeps *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
}

func TestPollTask_Convergence(t *testing.T) {
	client := &scriptedClient{states: []TaskResult{
		{ID: "task-1", StatusCode: StatusTaskCreated},
		{ID: "task-1", StatusCode: StatusTaskInQueue},
		{ID: "task-1", StatusCode: StatusTaskInQueue},
		{ID: "task-1", StatusCode: StatusOK, Organic: []OrganicResult{{Type: "organic", URL: "https://acme.com"}}},
	}}

	var sleeps []time.Duration
	result, err := PollTask(context.Background(), client, "task-1",
		WithSleepFunc(recordSleeps(&sleeps)))
	require.NoError(t, err)

	// Exactly four polls, results parsed on the fourth.
	assert.Equal(t, 4, client.calls)
	require.Len(t, result.Organic, 1)
	assert.Equal(t, "https://acme.com", result.Organic[0].URL)

	// Pre-delay plus three strictly increasing backoff waits.
	require.Len(t, sleeps, 4)
	assert.Equal(t, 5*time.Second, sleeps[0])
	for i := 2; i < len(sleeps); i++ {
		assert.Greater(t, sleeps[i], sleeps[i-1])
	}
}

func TestPollTask_TimeoutAfterBudget(t *testing.T) {
	client := &scriptedClient{states: []TaskResult{
		{ID: "task-1", StatusCode: StatusTaskInQueue},
	}}

	var sleeps []time.Duration
	_, err := PollTask(context.Background(), client, "task-1",
		WithMaxAttempts(5),
		WithSleepFunc(recordSleeps(&sleeps)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Equal(t, 5, client.calls)
}

func TestPollTask_TerminalFailure(t *testing.T) {
	client := &scriptedClient{states: []TaskResult{
		{ID: "task-1", StatusCode: StatusTaskInQueue},
		{ID: "task-1", StatusCode: 40501, StatusMsg: "Invalid Field."},
	}}

	var sleeps []time.Duration
	_, err := PollTask(context.Background(), client, "task-1",
		WithSleepFunc(recordSleeps(&sleeps)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "40501")
	assert.Equal(t, 2, client.calls)
}

func TestPollTask_NotFoundWaitsLonger(t *testing.T) {
	client := &scriptedClient{states: []TaskResult{
		{ID: "task-1", StatusCode: StatusTaskNotFound},
		{ID: "task-1", StatusCode: StatusOK},
	}}

	var sleeps []time.Duration
	_, err := PollTask(context.Background(), client, "task-1",
		WithPreDelay(0),
		WithSleepFunc(recordSleeps(&sleeps)))
	require.NoError(t, err)

	// Not-found doubles the normal first wait (3s -> 6s).
	require.Len(t, sleeps, 1)
	assert.Equal(t, 6*time.Second, sleeps[0])
}

func TestPollTask_ProviderError(t *testing.T) {
	client := &scriptedClient{err: eris.New("boom")}
	_, err := PollTask(context.Background(), client, "task-1", WithPreDelay(0),
		WithSleepFunc(func(context.Context, time.Duration) error { return nil }))
	assert.Error(t, err)
}

func TestPollTask_Cancellation(t *testing.T) {
	client := &scriptedClient{states: []TaskResult{
		{ID: "task-1", StatusCode: StatusTaskInQueue},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := PollTask(ctx, client, "task-1")
	assert.Error(t, err)
	// Cancelled during the pre-delay, before the first provider call.
	assert.Equal(t, 0, client.calls)
}

func TestPollWait_Capped(t *testing.T) {
	assert.Equal(t, 3*time.Second, pollWait(0, false))
	assert.Equal(t, 6*time.Second, pollWait(1, false))
	assert.Equal(t, 30*time.Second, pollWait(9, false))
	assert.Equal(t, 30*time.Second, pollWait(20, false))
	assert.Equal(t, 30*time.Second, pollWait(9, true))
}
