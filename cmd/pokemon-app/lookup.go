// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ManuGH/pokemon-app/internal/cache"
	"github.com/ManuGH/pokemon-app/internal/config"
	"github.com/ManuGH/pokemon-app/internal/daemon"
	applog "github.com/ManuGH/pokemon-app/internal/log"
	"github.com/ManuGH/pokemon-app/internal/pokeapi"
	"github.com/ManuGH/pokemon-app/internal/render"
	"github.com/ManuGH/pokemon-app/internal/version"
)

// loadConfig loads the configuration and routes logs to stderr so they never
// mix with command output.
func loadConfig(cmd *cobra.Command, flags *globalFlags) (config.AppConfig, error) {
	applog.Configure(applog.Config{
		Level:   "warn",
		Output:  cmd.ErrOrStderr(),
		Service: daemon.ServiceName,
		Version: version.Version,
	})
	return config.NewLoader(flags.configPath, version.Version).Load()
}

// newCLIClient builds a client with a process-local cache.
func newCLIClient(cfg config.AppConfig) (*pokeapi.Client, io.Closer, error) {
	c := cache.NewMemoryCache(cfg.Cache.CleanupInterval)
	client, err := daemon.NewPokemonClient(cfg, c)
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return client, c, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLookupCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "lookup <name|id>",
		Short: "Show a creature card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			client, closer, err := newCLIClient(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			p, err := client.Pokemon(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			card := render.NewCard(p)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), card)
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.NewTerminal(cmd.OutOrStdout()).Card(card))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the card as JSON")
	return cmd
}

func newEvolutionCmd(flags *globalFlags) *cobra.Command {
	var (
		asJSON      bool
		allBranches bool
	)
	cmd := &cobra.Command{
		Use:   "evolution <name|id>",
		Short: "Show the evolution chain of a creature",
		Long: `Show the evolution chain of a creature, following the first branch at
every stage. --branches lists every path of a branching chain.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			client, closer, err := newCLIClient(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			p, err := client.Pokemon(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			chain, err := client.EvolutionChain(cmd.Context(), p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if allBranches {
					return writeJSON(out, chain.Tree().Paths())
				}
				return writeJSON(out, chain.Stages())
			}
			term := render.NewTerminal(out)
			if allBranches {
				fmt.Fprintln(out, term.Branches(render.Branches(chain.Tree())))
				return nil
			}
			fmt.Fprintln(out, term.Chain(render.StageViews(chain.Stages())))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stages as JSON")
	cmd.Flags().BoolVar(&allBranches, "branches", false, "list every branch of the chain")
	return cmd
}
