package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/model"
)

var (
	enrichIDs         []string
	enrichMax         int
	enrichOnlyMissing bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Resolve contact emails through the provider waterfall",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStageJob(cmd.Context(), model.JobEnrich, model.EnrichParams{
			ProspectIDs:       enrichIDs,
			Max:               enrichMax,
			OnlyMissingEmails: enrichOnlyMissing,
		})
	},
}

func init() {
	enrichCmd.Flags().StringSliceVar(&enrichIDs, "id", nil, "prospect id (repeatable; default all)")
	enrichCmd.Flags().IntVar(&enrichMax, "max", 0, "cap on prospects processed (0 = unlimited)")
	enrichCmd.Flags().BoolVar(&enrichOnlyMissing, "only-missing", false, "only prospects without an email")
	rootCmd.AddCommand(enrichCmd)
}
