// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/pokemon-app/internal/history"
)

var errHistoryDisabled = errors.New("lookup history is disabled")

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the lookup history",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent lookups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openHistory(cmd, flags)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tKIND\tTERM\tOUTCOME\tTRACE")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					e.At.Local().Format(time.DateTime), e.Kind, e.Term, e.Outcome, e.TraceID)
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultLimit, "number of entries to show")

	var mode string
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the history database for corruption",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if mode != "quick" && mode != "full" {
				return fmt.Errorf("invalid mode %q (quick or full)", mode)
			}
			store, err := openHistory(cmd, flags)
			if err != nil {
				return err
			}
			defer store.Close()

			issues, err := store.Verify(cmd.Context(), mode)
			if err != nil {
				return err
			}
			if len(issues) > 0 {
				for _, issue := range issues {
					fmt.Fprintln(cmd.ErrOrStderr(), issue)
				}
				return fmt.Errorf("history database is corrupt (%d issues)", len(issues))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "History database OK (%s check)\n", mode)
			return nil
		},
	}
	verifyCmd.Flags().StringVar(&mode, "mode", "quick", "check mode: quick or full")

	cmd.AddCommand(listCmd, verifyCmd)
	return cmd
}

func openHistory(cmd *cobra.Command, flags *globalFlags) (*history.Store, error) {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, errHistoryDisabled
	}
	return history.Open(cmd.Context(), cfg.History.Path, cfg.History.MaxEntries)
}
