// Package dataforseo provides a client for the DataForSEO SERP API's
// two-phase task protocol: post a task, then poll until results are ready.
package dataforseo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

// Provider status codes. Anything not listed here is a terminal failure.
const (
	// StatusOK means results are attached and ready.
	StatusOK = 20000
	// StatusTaskCreated is returned by TaskPost on success; no results yet.
	StatusTaskCreated = 20100
	// StatusTaskHanded means the task was handed off to the SERP backend.
	StatusTaskHanded = 40601
	// StatusTaskInQueue means the task is queued or still processing.
	StatusTaskInQueue = 40602
	// StatusTaskNotFound is transient shortly after task creation; polling
	// retries it with a longer wait.
	StatusTaskNotFound = 40401
)

// Client defines the SERP task operations.
type Client interface {
	// TaskPost submits a search task. A "task created" response is success
	// even though no results are attached yet.
	TaskPost(ctx context.Context, req TaskRequest) (string, error)
	// TaskGet fetches the current state of a task.
	TaskGet(ctx context.Context, taskID string) (*TaskResult, error)
}

// TaskRequest describes one SERP search task.
type TaskRequest struct {
	Keyword      string `json:"keyword"`
	LocationCode int    `json:"location_code"`
	LanguageCode string `json:"language_code"`
	Depth        int    `json:"depth"`
	Device       string `json:"device"`
}

// TaskResult is the state of a posted task.
type TaskResult struct {
	ID         string          `json:"id"`
	StatusCode int             `json:"status_code"`
	StatusMsg  string          `json:"status_message"`
	Organic    []OrganicResult `json:"-"`
	Raw        json.RawMessage `json:"-"`
}

// Ready reports whether results are attached.
func (r *TaskResult) Ready() bool { return r.StatusCode == StatusOK }

// InProgress reports whether the task is still queued, processing, or not
// yet visible, and should be polled again.
func (r *TaskResult) InProgress() bool {
	switch r.StatusCode {
	case StatusTaskCreated, StatusTaskHanded, StatusTaskInQueue, StatusTaskNotFound:
		return true
	default:
		return false
	}
}

// OrganicResult is a single organic SERP entry.
type OrganicResult struct {
	Type        string `json:"type"`
	RankAbs     int    `json:"rank_absolute"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Domain      string `json:"domain"`
	Description string `json:"description"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	login    string
	password string
	baseURL  string
	http     *http.Client
}

// NewClient creates a DataForSEO client using basic auth credentials.
func NewClient(login, password string, opts ...Option) Client {
	c := &httpClient{
		login:    login,
		password: password,
		baseURL:  "https://api.dataforseo.com/v3",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the provider's outer response shape: a top-level status plus a
// list of task entries.
type envelope struct {
	StatusCode int    `json:"status_code"`
	StatusMsg  string `json:"status_message"`
	Tasks      []struct {
		ID         string          `json:"id"`
		StatusCode int             `json:"status_code"`
		StatusMsg  string          `json:"status_message"`
		Result     json.RawMessage `json:"result"`
	} `json:"tasks"`
}

func (c *httpClient) TaskPost(ctx context.Context, req TaskRequest) (string, error) {
	payload, err := json.Marshal([]TaskRequest{req})
	if err != nil {
		return "", eris.Wrap(err, "dataforseo: marshal task")
	}

	body, status, err := c.do(ctx, http.MethodPost, "/serp/google/organic/task_post", payload)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		if status == http.StatusTooManyRequests {
			return "", resilience.NewRateLimitedError("dataforseo", eris.Errorf("status %d", status))
		}
		return "", eris.Errorf("dataforseo: task_post status %d: %s", status, truncate(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", eris.Wrap(err, "dataforseo: parse task_post response")
	}
	if len(env.Tasks) == 0 {
		return "", eris.Errorf("dataforseo: task_post returned no tasks (status %d %s)", env.StatusCode, env.StatusMsg)
	}

	task := env.Tasks[0]
	// Task created is success, not an error: results arrive via task_get.
	if task.StatusCode != StatusTaskCreated && task.StatusCode != StatusOK {
		return "", eris.Errorf("dataforseo: task_post rejected: %d %s", task.StatusCode, task.StatusMsg)
	}
	return task.ID, nil
}

func (c *httpClient) TaskGet(ctx context.Context, taskID string) (*TaskResult, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/serp/google/organic/task_get/advanced/"+taskID, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		if status == http.StatusTooManyRequests {
			return nil, resilience.NewRateLimitedError("dataforseo", eris.Errorf("status %d", status))
		}
		return nil, eris.Errorf("dataforseo: task_get status %d: %s", status, truncate(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrap(err, "dataforseo: parse task_get response")
	}
	if len(env.Tasks) == 0 {
		// The task is not visible yet; report it as still pending so the
		// poller retries instead of failing.
		return &TaskResult{ID: taskID, StatusCode: StatusTaskNotFound}, nil
	}

	task := env.Tasks[0]
	result := &TaskResult{
		ID:         task.ID,
		StatusCode: task.StatusCode,
		StatusMsg:  task.StatusMsg,
		Raw:        task.Result,
	}
	if result.Ready() && len(task.Result) > 0 {
		organic, err := parseOrganic(task.Result)
		if err != nil {
			return nil, eris.Wrap(err, "dataforseo: parse organic results")
		}
		result.Organic = organic
	}
	return result, nil
}

// parseOrganic extracts organic items from the task result payload, skipping
// ads, snippets, and other non-organic item types.
func parseOrganic(raw json.RawMessage) ([]OrganicResult, error) {
	var pages []struct {
		Items []OrganicResult `json:"items"`
	}
	if err := json.Unmarshal(raw, &pages); err != nil {
		return nil, err
	}

	var organic []OrganicResult
	for _, page := range pages {
		for _, item := range page.Items {
			if item.Type != "organic" {
				continue
			}
			organic = append(organic, item)
		}
	}
	return organic, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, eris.Wrap(err, "dataforseo: create request")
	}
	req.SetBasicAuth(c.login, c.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, eris.Wrap(err, "dataforseo: request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, resp.StatusCode, eris.Wrap(err, "dataforseo: read response body")
	}
	return body, resp.StatusCode, nil
}

func truncate(b []byte) string {
	const max = 200
	if len(b) > max {
		return fmt.Sprintf("%s...", b[:max])
	}
	return string(b)
}
