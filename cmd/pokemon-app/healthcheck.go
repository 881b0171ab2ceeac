// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/pokemon-app/internal/platform/httpx"
	pnet "github.com/ManuGH/pokemon-app/internal/platform/net"
)

func newHealthcheckCmd() *cobra.Command {
	var (
		mode    string
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe a running server",
		Long:  "Probe a running server. Exits non-zero unless the probe answers 200; suitable for container health checks.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := "/readyz"
			switch mode {
			case "ready":
			case "live":
				path = "/healthz"
			default:
				return fmt.Errorf("invalid mode %q (ready or live)", mode)
			}

			base, err := pnet.ServerURL(addr)
			if err != nil {
				return err
			}

			client := httpx.NewClient(timeout)
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, base.String()+path, nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("healthcheck failed (network): %w", err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("healthcheck failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Healthcheck successful (%s)\n", mode)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "ready", "probe: ready or live")
	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "server address (host:port or URL)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "probe timeout")
	return cmd
}
