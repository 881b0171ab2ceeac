// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ManuGH/pokemon-app/internal/config"
	applog "github.com/ManuGH/pokemon-app/internal/log"
	"github.com/rs/zerolog"
)

// PerformStartupChecks verifies that every directory the daemon writes to
// exists and is writable before the server starts.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := applog.WithComponent("startup-check")
	logger.Info().Str("event", "startup.checks_begin").Msg("running pre-flight startup checks")

	dirs := map[string]string{"dataDir": cfg.DataDir}
	if cfg.History.Enabled {
		dirs["history.path"] = filepath.Dir(cfg.History.Path)
	}
	if cfg.Cache.Backend == "badger" {
		dirs["cache.dir"] = cfg.Cache.Dir
	}

	for field, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := checkWritableDir(logger, dir); err != nil {
			return fmt.Errorf("%s check failed: %w", field, err)
		}
	}

	logger.Info().Str("event", "startup.checks_passed").Msg("all startup checks passed")
	return nil
}

func checkWritableDir(logger zerolog.Logger, path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	probe, err := os.CreateTemp(path, ".write_test-*")
	if err != nil {
		return fmt.Errorf("directory is not writable: %s: %w", path, err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	logger.Debug().Str("path", path).Msg("directory is writable")
	return nil
}
