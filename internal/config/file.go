// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by WriteDefault when the target exists and
// overwrite was not requested.
var ErrConfigExists = errors.New("config file already exists")

const defaultHeader = "# pokemon-app configuration. Environment variables (PKMN_*) override these values.\n"

// WriteDefault atomically writes the default configuration to path.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	body, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	data := append([]byte(defaultHeader), body...)

	if err := renameio.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LoadFile loads a YAML config file onto the defaults without applying
// environment overrides or validation.
func LoadFile(path string) (AppConfig, error) {
	cfg := Default()
	if err := NewLoader(path, "").loadFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
