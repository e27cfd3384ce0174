package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/dedupe"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Collapse duplicate prospects per domain",
	Long:  "Groups prospects by case-folded domain and keeps the best row per group: an email beats no email, then the most recently updated wins.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		result, err := dedupe.NewEngine(st).Run(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Deduplicated %d group(s), removed %d prospect(s).\n", result.Groups, result.Deleted)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dedupeCmd)
}
