package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mailtriage/internal/secrets"
)

func newSecretsCommand() *cobra.Command {
	secretsCmd := &cobra.Command{
		Use:         "secrets",
		Short:       "Manage credentials stored in the OS keyring",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	secretsCmd.AddCommand(newSecretsSetCommand())
	secretsCmd.AddCommand(newSecretsDeleteCommand())
	return secretsCmd
}

func secretNamesHelp() string {
	return "one of: " + strings.Join(secrets.Names(), ", ")
}

func newSecretsSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name>",
		Short: "Store a secret read from stdin",
		Long:  "Store a secret read from the first line of stdin. Name is " + secretNamesHelp() + ".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			reader := bufio.NewReader(cmd.InOrStdin())
			value, err := reader.ReadString('\n')
			if err != nil && value == "" {
				return errors.New("no secret value provided on stdin")
			}
			if err := secrets.Set(name, strings.TrimSpace(value)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s in keyring\n", name)
			return nil
		},
	}
}

func newSecretsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a secret from the keyring",
		Long:  "Remove a secret from the keyring. Name is " + secretNamesHelp() + ".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if err := secrets.Delete(name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s from keyring\n", name)
			return nil
		},
	}
}
