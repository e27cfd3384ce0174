package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/model"
)

var (
	sendIDs []string
	sendMax int
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send drafted messages to verified prospects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStageJob(cmd.Context(), model.JobSend, model.SendParams{
			ProspectIDs: sendIDs,
			Max:         sendMax,
		})
	},
}

func init() {
	sendCmd.Flags().StringSliceVar(&sendIDs, "id", nil, "prospect id (repeatable; default all drafted)")
	sendCmd.Flags().IntVar(&sendMax, "max", 0, "cap on prospects processed (0 = unlimited)")
	rootCmd.AddCommand(sendCmd)
}
