package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/model"
)

var (
	composeIDs []string
	composeMax int
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Draft outreach messages for prospects with an email",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStageJob(cmd.Context(), model.JobCompose, model.ComposeParams{
			ProspectIDs: composeIDs,
			Max:         composeMax,
		})
	},
}

func init() {
	composeCmd.Flags().StringSliceVar(&composeIDs, "id", nil, "prospect id (repeatable; default all with an email)")
	composeCmd.Flags().IntVar(&composeMax, "max", 0, "cap on prospects processed (0 = unlimited)")
	rootCmd.AddCommand(composeCmd)
}
