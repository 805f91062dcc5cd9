package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hannajonsd/build-optimizer/analyzer"
)

// summaryCmd represents the summary command.
var summaryCmd = newSummaryCmd()

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <report>",
		Short: "Print the summary of a saved run report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := analyzer.ReadReport(appFs, args[0])
			if err != nil {
				return err
			}

			analyzer.PrintSummary(cmd.OutOrStdout(), report, true, colorEnabled(cmd.OutOrStdout()))

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
