package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mailtriage/internal/triage"
	"mailtriage/internal/triagerun"
)

func newTestAlertCommand(ctx *commandContext) *cobra.Command {
	var recruiter, company, date, clock, text string

	cmd := &cobra.Command{
		Use:   "test-alert",
		Short: "Send a voice alert without touching the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			alerter, err := triagerun.NewAlerter(cfg, logger)
			if err != nil {
				return err
			}

			var status string
			if strings.TrimSpace(text) != "" {
				status, err = alerter.Say(cmd.Context(), text)
			} else {
				status, err = alerter.Alert(cmd.Context(), triage.InterviewRecord{
					InterviewDate: optional(date),
					InterviewTime: optional(clock),
					RecruiterName: optional(recruiter),
					CompanyName:   optional(company),
				})
			}
			if status != "" {
				fmt.Fprintln(cmd.OutOrStdout(), status)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&recruiter, "recruiter", "", "Recruiter name to announce")
	cmd.Flags().StringVar(&company, "company", "", "Company name to announce")
	cmd.Flags().StringVar(&date, "date", "", "Interview date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&clock, "time", "", "Interview time (HH:MM)")
	cmd.Flags().StringVar(&text, "text", "", "Speak this text instead of the interview sentence")
	return cmd
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
