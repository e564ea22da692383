package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mailtriage/internal/pipeline"
	"mailtriage/internal/triagerun"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Triage the newest inbox messages once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			summary, runErr := triagerun.Run(cmd.Context(), cfg, logger, triagerun.Options{})
			if runErr != nil && summary.RunID == "" {
				return runErr
			}
			if jsonOutput {
				if err := writeJSON(cmd, summary); err != nil {
					return err
				}
			} else {
				printSummary(cmd.OutOrStdout(), summary)
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run summary as JSON")
	return cmd
}

func printSummary(out io.Writer, s pipeline.Summary) {
	fmt.Fprintf(out, "Run %s finished in %s\n", s.RunID, s.Duration.Round(time.Millisecond))
	rows := [][]string{
		{"Fetched", fmt.Sprint(s.Fetched)},
		{"Already processed", fmt.Sprint(s.Skipped)},
		{"Spam moved", fmt.Sprint(s.SpamMoved)},
		{"Spam move failures", fmt.Sprint(s.SpamMoveFailures)},
		{"Alerts sent", fmt.Sprint(s.AlertsSent)},
		{"Alert failures", fmt.Sprint(s.AlertFailures)},
		{"Unclassifiable", fmt.Sprint(s.Unclassifiable)},
		{"No action", fmt.Sprint(s.NoAction)},
	}
	writeRows(out, []string{"Outcome", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}
