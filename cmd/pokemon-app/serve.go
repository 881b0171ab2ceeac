// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/ManuGH/pokemon-app/internal/daemon"
	"github.com/ManuGH/pokemon-app/internal/version"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the HTTP server until SIGINT or SIGTERM.

SIGHUP and edits to the config file reload the configuration; only the log
level is applied without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return daemon.Run(daemon.Options{
				ConfigPath: flags.configPath,
				Version:    version.Version,
				LogOutput:  cmd.OutOrStdout(),
			})
		},
	}
}
