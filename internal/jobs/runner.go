// Package jobs runs pipeline jobs asynchronously with cooperative
// cancellation and a hard wall-clock ceiling.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

// DefaultTimeout is the wall-clock ceiling for a single job.
const DefaultTimeout = 2 * time.Hour

// Handler executes one job type. The context is cancelled on job
// cancellation and on the runner's timeout; handlers are expected to check
// it at their own yield points and may return a partial result alongside the
// context error.
type Handler func(ctx context.Context, job *model.Job, params model.JobParams) (*model.JobResult, error)

// Runner owns the job registry: every running job is registered under its id
// so cancellation reaches the task, not just the row.
type Runner struct {
	store    store.Store
	handlers map[model.JobType]Handler
	timeout  time.Duration

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewRunner creates a runner. A timeout of zero applies DefaultTimeout.
func NewRunner(st store.Store, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{
		store:    st,
		handlers: make(map[model.JobType]Handler),
		timeout:  timeout,
		running:  make(map[string]context.CancelFunc),
	}
}

// Register installs the handler for a job type.
func (r *Runner) Register(jobType model.JobType, h Handler) {
	r.handlers[jobType] = h
}

// Submit validates params, persists a pending job row, and starts the job
// asynchronously. Malformed params fail here, before any worker runs.
func (r *Runner) Submit(ctx context.Context, jobType model.JobType, raw json.RawMessage) (*model.Job, error) {
	handler, ok := r.handlers[jobType]
	if !ok {
		return nil, eris.Errorf("jobs: no handler registered for type %q", jobType)
	}

	params, err := model.ParseParams(jobType, raw)
	if err != nil {
		return nil, err
	}

	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	job := &model.Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Params:    raw,
		Status:    model.JobPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(context.Background(), r.timeout)
	r.mu.Lock()
	r.running[job.ID] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(runCtx, cancel, job, handler, params)

	return job, nil
}

// Cancel requests cooperative cancellation of a running job. The job's own
// goroutine persists the final cancelled status, so the row and the task
// converge even when the two race.
func (r *Runner) Cancel(jobID string) error {
	r.mu.Lock()
	cancel, ok := r.running[jobID]
	r.mu.Unlock()
	if !ok {
		return eris.Errorf("jobs: job %s is not running", jobID)
	}
	cancel()
	return nil
}

// Wait blocks until every in-flight job has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context, cancel context.CancelFunc, job *model.Job, handler Handler, params model.JobParams) {
	defer r.wg.Done()
	defer cancel()
	defer func() {
		r.mu.Lock()
		delete(r.running, job.ID)
		r.mu.Unlock()
	}()

	log := zap.L().With(zap.String("job_id", job.ID), zap.String("job_type", string(job.Type)))

	// Status transitions are persisted immediately so a crash mid-job leaves
	// a consistent, resumable row.
	if err := r.store.UpdateJobStatus(context.Background(), job.ID, model.JobRunning, ""); err != nil {
		log.Error("mark job running failed", zap.Error(err))
	}
	log.Info("job started")

	var (
		result *model.JobResult
		err    error
	)
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic: %v", rec)
				log.Error("job panicked", zap.Any("panic", rec), zap.Stack("stack"))
			}
		}()
		result, err = handler(ctx, job, params)
	}()

	status, errMsg := finalStatus(ctx, err, r.timeout)
	if err := r.store.CompleteJob(context.Background(), job.ID, status, result, errMsg); err != nil {
		log.Error("persist job completion failed", zap.Error(err))
	}
	log.Info("job finished", zap.String("status", string(status)), zap.String("error", errMsg))
}

// finalStatus maps the handler outcome onto the job state machine. The
// timeout ceiling forces failed, a cooperative cancel lands on cancelled.
func finalStatus(ctx context.Context, err error, timeout time.Duration) (model.JobStatus, string) {
	switch {
	case err == nil:
		return model.JobCompleted, ""
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return model.JobFailed, fmt.Sprintf("timed out after %s", timeout)
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return model.JobCancelled, "cancelled by request"
	default:
		return model.JobFailed, err.Error()
	}
}
