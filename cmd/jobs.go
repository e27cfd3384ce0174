package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect pipeline job history",
	Long:  "Commands for listing, viewing, and cancelling pipeline jobs.",
}

// -- jobs list --

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		jobType, _ := cmd.Flags().GetString("type")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		rows, err := st.ListJobs(ctx, store.JobFilter{
			Type:   model.JobType(jobType),
			Status: model.JobStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "jobs list")
		}

		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No jobs found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tCREATED\tDURATION")
		for _, j := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				j.ID, j.Type, j.Status,
				j.CreatedAt.Format(time.RFC3339),
				jobDuration(&j))
		}
		return w.Flush()
	},
}

func jobDuration(j *model.Job) string {
	if j.StartedAt == nil {
		return "-"
	}
	end := time.Now().UTC()
	if j.CompletedAt != nil {
		end = *j.CompletedAt
	}
	return end.Sub(*j.StartedAt).Round(time.Second).String()
}

// -- jobs get --

var jobsGetCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Show one job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		job, err := st.GetJob(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "jobs get %s", args[0])
		}

		out, err := json.MarshalIndent(job, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal job")
		}
		fmt.Println(string(out))
		return nil
	},
}

// -- jobs cancel --

var jobsCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a stale pending or running job row",
	Long:  "Marks an orphaned job row cancelled. Jobs running inside a serve process are cancelled through its HTTP surface instead.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		job, err := st.GetJob(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "jobs cancel %s", args[0])
		}
		if job.Status != model.JobPending && job.Status != model.JobRunning {
			return eris.Errorf("job %s is already %s", job.ID, job.Status)
		}

		if err := st.CompleteJob(ctx, job.ID, model.JobCancelled, job.Result, "cancelled by request"); err != nil {
			return eris.Wrapf(err, "jobs cancel %s", args[0])
		}
		fmt.Printf("Job %s cancelled.\n", job.ID)
		return nil
	},
}

func init() {
	jobsListCmd.Flags().String("type", "", "filter by job type")
	jobsListCmd.Flags().String("status", "", "filter by status")
	jobsListCmd.Flags().Int("limit", 50, "max jobs to list")

	jobsCmd.AddCommand(jobsListCmd, jobsGetCmd, jobsCancelCmd)
	rootCmd.AddCommand(jobsCmd)
}
