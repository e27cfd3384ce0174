package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/jobs"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

func newServeHarness(t *testing.T) (http.Handler, *jobs.Runner, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	runner := jobs.NewRunner(st, 0)
	return newServeRouter(st, runner), runner, st
}

func TestServe_Health(t *testing.T) {
	router, _, _ := newServeHarness(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServe_SubmitJob(t *testing.T) {
	router, runner, st := newServeHarness(t)
	runner.Register(model.JobEnrich, func(context.Context, *model.Job, model.JobParams) (*model.JobResult, error) {
		return &model.JobResult{Executed: 2, Succeeded: 2}, nil
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs",
		strings.NewReader(`{"type": "enrich", "params": {"max": 10}}`)))

	require.Equal(t, http.StatusAccepted, rec.Code)
	var job model.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, model.JobEnrich, job.Type)

	runner.Wait()
	got, err := st.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, got.Status)
	assert.Equal(t, 2, got.Result.Succeeded)
}

func TestServe_SubmitJob_BadRequests(t *testing.T) {
	router, runner, _ := newServeHarness(t)
	runner.Register(model.JobDiscover, func(context.Context, *model.Job, model.JobParams) (*model.JobResult, error) {
		return &model.JobResult{}, nil
	})

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing type", `{"params": {}}`},
		{"unregistered type", `{"type": "enrich"}`},
		{"invalid params", `{"type": "discover", "params": {"keywords": ["x"]}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(tc.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestServe_GetJob(t *testing.T) {
	router, runner, _ := newServeHarness(t)
	runner.Register(model.JobVerify, func(context.Context, *model.Job, model.JobParams) (*model.JobResult, error) {
		return &model.JobResult{}, nil
	})

	submit := httptest.NewRecorder()
	router.ServeHTTP(submit, httptest.NewRequest(http.MethodPost, "/jobs",
		strings.NewReader(`{"type": "verify"}`)))
	require.Equal(t, http.StatusAccepted, submit.Code)
	runner.Wait()

	var job model.Job
	require.NoError(t, json.Unmarshal(submit.Body.Bytes(), &job))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	list := httptest.NewRecorder()
	router.ServeHTTP(list, httptest.NewRequest(http.MethodGet, "/jobs?status=completed", nil))
	assert.Equal(t, http.StatusOK, list.Code)
	var rows []model.Job
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &rows))
	assert.Len(t, rows, 1)
}

func TestServe_GetJob_NotFound(t *testing.T) {
	router, _, _ := newServeHarness(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_CancelJob(t *testing.T) {
	router, runner, st := newServeHarness(t)
	started := make(chan struct{})
	runner.Register(model.JobEnrich, func(ctx context.Context, _ *model.Job, _ model.JobParams) (*model.JobResult, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	submit := httptest.NewRecorder()
	router.ServeHTTP(submit, httptest.NewRequest(http.MethodPost, "/jobs",
		strings.NewReader(`{"type": "enrich"}`)))
	require.Equal(t, http.StatusAccepted, submit.Code)
	var job model.Job
	require.NoError(t, json.Unmarshal(submit.Body.Bytes(), &job))

	<-started
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/"+job.ID+"/cancel", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	runner.Wait()
	got, err := st.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCancelled, got.Status)
}

func TestServe_CancelJob_NotRunning(t *testing.T) {
	router, _, _ := newServeHarness(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/nope/cancel", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}
