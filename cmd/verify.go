package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/model"
)

var (
	verifyIDs []string
	verifyMax int
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify stored contact emails",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStageJob(cmd.Context(), model.JobVerify, model.VerifyParams{
			ProspectIDs: verifyIDs,
			Max:         verifyMax,
		})
	},
}

func init() {
	verifyCmd.Flags().StringSliceVar(&verifyIDs, "id", nil, "prospect id (repeatable; default all with an email)")
	verifyCmd.Flags().IntVar(&verifyMax, "max", 0, "cap on prospects processed (0 = unlimited)")
	rootCmd.AddCommand(verifyCmd)
}
