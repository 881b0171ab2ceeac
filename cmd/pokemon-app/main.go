// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command pokemon-app serves the evolution chain demo and queries the
// PokeAPI from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ManuGH/pokemon-app/internal/config"
	"github.com/ManuGH/pokemon-app/internal/version"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "pokemon-app",
		Short: "Pokemon evolution chain service",
		Long: `pokemon-app looks up creatures in the PokeAPI and resolves their
evolution chains. It serves an HTML page and a JSON API with OpenTelemetry
tracing, and offers the same lookups from the command line.

Configuration comes from an optional YAML file and PKMN_* environment
variables; environment variables win.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", os.Getenv(config.EnvConfigPath), "path to config file (YAML)")

	root.AddCommand(
		newServeCmd(&flags),
		newLookupCmd(&flags),
		newEvolutionCmd(&flags),
		newConfigCmd(&flags),
		newHistoryCmd(&flags),
		newHealthcheckCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
