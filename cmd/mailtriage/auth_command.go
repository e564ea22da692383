package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mailtriage/internal/mailsource"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize mailbox access",
	}
	authCmd.AddCommand(newAuthGmailCommand(ctx))
	return authCmd
}

func newAuthGmailCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "gmail",
		Short: "Run the Gmail OAuth consent flow and save the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			oauthCfg, err := mailsource.OAuthConfig(cfg.Paths.CredentialsFile)
			if err != nil {
				return err
			}
			token, err := mailsource.Authorize(cmd.Context(), oauthCfg, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := mailsource.SaveToken(cfg.Paths.TokenFile, token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved Gmail token to %s\n", cfg.Paths.TokenFile)
			return nil
		},
	}
}
