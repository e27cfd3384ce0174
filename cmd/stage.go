package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

// runStageJob submits one pipeline job and waits for it to finish. Ctrl-C
// requests cooperative cancellation instead of killing the job mid-write.
func runStageJob(parent context.Context, jobType model.JobType, params any) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "migrate store")
	}

	runner, err := initRunner(st)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return eris.Wrapf(err, "marshal %s params", jobType)
	}

	job, err := runner.Submit(ctx, jobType, raw)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = runner.Cancel(job.ID)
	}()
	runner.Wait()

	row, err := st.GetJob(context.Background(), job.ID)
	if err != nil {
		return eris.Wrap(err, "load job result")
	}

	out, err := json.MarshalIndent(row, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal job")
	}
	fmt.Fprintln(os.Stdout, string(out))

	if row.Status != model.JobCompleted {
		return eris.Errorf("job %s %s: %s", row.ID, row.Status, row.ErrorMessage)
	}
	return nil
}
