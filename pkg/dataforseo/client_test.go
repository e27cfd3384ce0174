package dataforseo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

func TestTaskPost_Created(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/serp/google/organic/task_post", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "login", user)
		assert.Equal(t, "secret", pass)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status_code": 20000,
			"tasks": [{"id": "task-123", "status_code": 20100, "status_message": "Task Created."}]
		}`))
	}))
	defer srv.Close()

	client := NewClient("login", "secret", WithBaseURL(srv.URL))
	id, err := client.TaskPost(context.Background(), TaskRequest{
		Keyword:      "plumber new york",
		LocationCode: 2840,
		LanguageCode: "en",
		Depth:        20,
		Device:       "desktop",
	})
	require.NoError(t, err)
	assert.Equal(t, "task-123", id)
}

func TestTaskPost_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"status_code": 20000,
			"tasks": [{"id": "", "status_code": 40501, "status_message": "Invalid Field."}]
		}`))
	}))
	defer srv.Close()

	client := NewClient("login", "secret", WithBaseURL(srv.URL))
	_, err := client.TaskPost(context.Background(), TaskRequest{Keyword: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "40501")
}

func TestTaskPost_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient("login", "secret", WithBaseURL(srv.URL))
	_, err := client.TaskPost(context.Background(), TaskRequest{Keyword: "x"})
	require.Error(t, err)
	assert.True(t, resilience.IsRateLimited(err))
}

func TestTaskGet_Ready(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/serp/google/organic/task_get/advanced/task-123", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"status_code": 20000,
			"tasks": [{
				"id": "task-123",
				"status_code": 20000,
				"status_message": "Ok.",
				"result": [{"items": [
					{"type": "organic", "rank_absolute": 1, "title": "Acme Plumbing", "url": "https://acme.com", "domain": "acme.com", "description": "Plumbing services"},
					{"type": "paid", "title": "Ad", "url": "https://ads.example.com"},
					{"type": "organic", "rank_absolute": 2, "title": "Best Plumbers", "url": "https://best.com", "domain": "best.com"}
				]}]
			}]
		}`))
	}))
	defer srv.Close()

	client := NewClient("login", "secret", WithBaseURL(srv.URL))
	result, err := client.TaskGet(context.Background(), "task-123")
	require.NoError(t, err)

	assert.True(t, result.Ready())
	require.Len(t, result.Organic, 2)
	assert.Equal(t, "acme.com", result.Organic[0].Domain)
	assert.Equal(t, "Best Plumbers", result.Organic[1].Title)
}

func TestTaskGet_InQueue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"status_code": 20000,
			"tasks": [{"id": "task-123", "status_code": 40602, "status_message": "Task In Queue."}]
		}`))
	}))
	defer srv.Close()

	client := NewClient("login", "secret", WithBaseURL(srv.URL))
	result, err := client.TaskGet(context.Background(), "task-123")
	require.NoError(t, err)
	assert.False(t, result.Ready())
	assert.True(t, result.InProgress())
}

func TestTaskGet_NotVisibleYet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status_code": 20000, "tasks": []}`))
	}))
	defer srv.Close()

	client := NewClient("login", "secret", WithBaseURL(srv.URL))
	result, err := client.TaskGet(context.Background(), "task-123")
	require.NoError(t, err)
	assert.Equal(t, StatusTaskNotFound, result.StatusCode)
	assert.True(t, result.InProgress())
}

func TestLocationCode(t *testing.T) {
	code, ok := LocationCode("usa")
	assert.True(t, ok)
	assert.Equal(t, 2840, code)

	code, ok = LocationCode("United Kingdom")
	assert.True(t, ok)
	assert.Equal(t, 2826, code)

	code, ok = LocationCode("atlantis")
	assert.False(t, ok)
	assert.Equal(t, DefaultLocationCode, code)
}
