package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mailtriage/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the processed-message ledger",
	}
	ledgerCmd.AddCommand(newLedgerUnmovedCommand(ctx))
	ledgerCmd.AddCommand(newLedgerShowCommand(ctx))
	return ledgerCmd
}

func (c *commandContext) withLedger(cmdCtx context.Context, fn func(*ledger.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ledger.Open(cmdCtx, cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newLedgerUnmovedCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "unmoved",
		Short: "List processed messages that were never moved",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(cmd.Context(), func(store *ledger.Store) error {
				entries, err := store.ListUnmoved(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					if entries == nil {
						entries = []ledger.Entry{}
					}
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No unmoved messages")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						entry.MessageID,
						entry.ProcessedAt.Local().Format(time.DateTime),
						entry.Sender,
						entry.Subject,
					})
				}
				writeRows(out, []string{"Message ID", "Processed", "Sender", "Subject"}, rows, nil)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print entries as JSON")
	return cmd
}

func newLedgerShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <message-id>",
		Short: "Show one ledger entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(cmd.Context(), func(store *ledger.Store) error {
				entry, err := store.Get(cmd.Context(), args[0])
				if errors.Is(err, ledger.ErrEntryNotFound) {
					return fmt.Errorf("message %s has not been processed", args[0])
				}
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, entry)
				}
				moved := "-"
				if entry.MovedAt != nil {
					moved = entry.MovedAt.Local().Format(time.DateTime)
				}
				rows := [][]string{
					{"Message ID", entry.MessageID},
					{"Processed", entry.ProcessedAt.Local().Format(time.DateTime)},
					{"Sender", entry.Sender},
					{"Subject", entry.Subject},
					{"Moved", yesNo(entry.Moved)},
					{"Moved at", moved},
				}
				writeRows(cmd.OutOrStdout(), []string{"Field", "Value"}, rows, nil)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the entry as JSON")
	return cmd
}
