// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	applog "github.com/ManuGH/pokemon-app/internal/log"
	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence.
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader. configPath may be empty,
// in which case only defaults and environment variables apply.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: map[string]struct{}{EnvConfigPath: {}},
	}
}

// Path returns the configuration file path, if any.
func (l *Loader) Path() string { return l.configPath }

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envList(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseList(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults, then
// resolves data paths and validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)
	if unknown := l.UnknownEnvKeys(); len(unknown) > 0 {
		applog.WithComponent("config").Warn().
			Str("event", "config.unknown_env").
			Strs("keys", unknown).
			Msg("ignoring unknown environment variables")
	}

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	cfg.Cache.Dir = resolveUnder(cfg.DataDir, cfg.Cache.Dir)
	cfg.History.Path = resolveUnder(cfg.DataDir, cfg.History.Path)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes a YAML file onto cfg with STRICT parsing.
// Keys absent from the file keep their current values.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

// mergeEnvConfig applies PKMN_* overrides.
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.DataDir = l.envString("PKMN_DATA_DIR", cfg.DataDir)
	cfg.LogLevel = l.envString("PKMN_LOG_LEVEL", cfg.LogLevel)
	cfg.Environment = l.envString("PKMN_ENVIRONMENT", cfg.Environment)

	srv := &cfg.Server
	srv.ListenAddr = l.envString("PKMN_LISTEN_ADDR", srv.ListenAddr)
	srv.ReadTimeout = l.envDuration("PKMN_READ_TIMEOUT", srv.ReadTimeout)
	srv.WriteTimeout = l.envDuration("PKMN_WRITE_TIMEOUT", srv.WriteTimeout)
	srv.IdleTimeout = l.envDuration("PKMN_IDLE_TIMEOUT", srv.IdleTimeout)
	srv.ShutdownTimeout = l.envDuration("PKMN_SHUTDOWN_TIMEOUT", srv.ShutdownTimeout)
	srv.AllowedOrigins = l.envList("PKMN_ALLOWED_ORIGINS", srv.AllowedOrigins)
	srv.RateLimit.Enabled = l.envBool("PKMN_RATELIMIT_ENABLED", srv.RateLimit.Enabled)
	srv.RateLimit.PerMinute = l.envInt("PKMN_RATELIMIT_PER_MINUTE", srv.RateLimit.PerMinute)
	srv.RateLimit.Whitelist = l.envList("PKMN_RATELIMIT_WHITELIST", srv.RateLimit.Whitelist)

	up := &cfg.Upstream
	up.BaseURL = l.envString("PKMN_API_BASE_URL", up.BaseURL)
	up.Timeout = l.envDuration("PKMN_API_TIMEOUT", up.Timeout)
	up.MaxRetries = l.envInt("PKMN_API_MAX_RETRIES", up.MaxRetries)
	up.Backoff = l.envDuration("PKMN_API_BACKOFF", up.Backoff)
	up.MaxBackoff = l.envDuration("PKMN_API_MAX_BACKOFF", up.MaxBackoff)
	up.RateLimit = l.envFloat("PKMN_API_RATE_LIMIT", up.RateLimit)
	up.Burst = l.envInt("PKMN_API_BURST", up.Burst)
	up.BreakerThreshold = l.envInt("PKMN_BREAKER_THRESHOLD", up.BreakerThreshold)
	up.BreakerReset = l.envDuration("PKMN_BREAKER_RESET", up.BreakerReset)
	up.UserAgent = l.envString("PKMN_API_USER_AGENT", up.UserAgent)

	c := &cfg.Cache
	c.Backend = l.envString("PKMN_CACHE_BACKEND", c.Backend)
	c.TTL = l.envDuration("PKMN_CACHE_TTL", c.TTL)
	c.CleanupInterval = l.envDuration("PKMN_CACHE_CLEANUP_INTERVAL", c.CleanupInterval)
	c.Dir = l.envString("PKMN_CACHE_DIR", c.Dir)
	c.Redis.Addr = l.envString("PKMN_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = l.envString("PKMN_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = l.envInt("PKMN_REDIS_DB", c.Redis.DB)
	c.Redis.KeyPrefix = l.envString("PKMN_REDIS_KEY_PREFIX", c.Redis.KeyPrefix)

	h := &cfg.History
	h.Enabled = l.envBool("PKMN_HISTORY_ENABLED", h.Enabled)
	h.Path = l.envString("PKMN_HISTORY_PATH", h.Path)
	h.MaxEntries = l.envInt("PKMN_HISTORY_MAX_ENTRIES", h.MaxEntries)

	tel := &cfg.Telemetry
	tel.Enabled = l.envBool("PKMN_TELEMETRY_ENABLED", tel.Enabled)
	tel.Exporter = l.envString("PKMN_OTEL_EXPORTER", tel.Exporter)
	tel.Endpoint = l.envString("PKMN_OTEL_ENDPOINT", tel.Endpoint)
	tel.Console = l.envBool("PKMN_OTEL_CONSOLE", tel.Console)
	tel.SamplingRate = l.envFloat("PKMN_OTEL_SAMPLING_RATE", tel.SamplingRate)

	cfg.Metrics.Enabled = l.envBool("PKMN_METRICS_ENABLED", cfg.Metrics.Enabled)
}

// UnknownEnvKeys lists PKMN_* variables present in the environment that the
// loader never read, which usually means a typo.
func (l *Loader) UnknownEnvKeys() []string {
	var unknown []string
	for _, pair := range os.Environ() {
		key, _, _ := strings.Cut(pair, "=")
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		if _, ok := l.ConsumedEnvKeys[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func resolveUnder(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
