package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/model"
)

var (
	discoverKeywords   []string
	discoverCategories []string
	discoverLocations  []string
	discoverMaxResults int
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover prospects via SERP queries",
	Long:  "Generates search queries from keywords, categories, and locations, runs them against the SERP provider, and saves qualifying organic results as prospects.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStageJob(cmd.Context(), model.JobDiscover, model.DiscoverParams{
			Keywords:   discoverKeywords,
			Categories: discoverCategories,
			Locations:  discoverLocations,
			MaxResults: discoverMaxResults,
		})
	},
}

func init() {
	discoverCmd.Flags().StringSliceVar(&discoverKeywords, "keyword", nil, "search keyword (repeatable)")
	discoverCmd.Flags().StringSliceVar(&discoverCategories, "category", nil, "business category (repeatable)")
	discoverCmd.Flags().StringSliceVar(&discoverLocations, "location", nil, "target location (repeatable)")
	discoverCmd.Flags().IntVar(&discoverMaxResults, "max-results", 0, "cap on saved prospects (0 = unlimited)")
	rootCmd.AddCommand(discoverCmd)
}
