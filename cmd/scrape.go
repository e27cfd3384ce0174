package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/model"
)

var (
	scrapeIDs []string
	scrapeMax int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Re-harvest emails from prospect websites",
	Long:  "Runs the local harvesting tier only, without paid provider calls. Targets prospects that never got an email.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStageJob(cmd.Context(), model.JobScrape, model.ScrapeParams{
			ProspectIDs: scrapeIDs,
			Max:         scrapeMax,
		})
	},
}

func init() {
	scrapeCmd.Flags().StringSliceVar(&scrapeIDs, "id", nil, "prospect id (repeatable)")
	scrapeCmd.Flags().IntVar(&scrapeMax, "max", 0, "cap on prospects processed (0 = unlimited)")
	rootCmd.AddCommand(scrapeCmd)
}
