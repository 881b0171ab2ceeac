// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config provides configuration management for pokemon-app.
//
// Values are resolved with the precedence ENV > file > defaults. The YAML
// file is parsed strictly: unknown keys are rejected.
package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "PKMN_"

// EnvConfigPath names the config file when no path is given on the command line.
const EnvConfigPath = EnvPrefix + "CONFIG"

// AppConfig is the fully resolved application configuration.
type AppConfig struct {
	Version     string `yaml:"-"`
	DataDir     string `yaml:"dataDir"`
	LogLevel    string `yaml:"logLevel"`
	Environment string `yaml:"environment"`

	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Cache     CacheConfig     `yaml:"cache"`
	History   HistoryConfig   `yaml:"history"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP ingress settings.
type ServerConfig struct {
	ListenAddr      string          `yaml:"listenAddr"`
	ReadTimeout     time.Duration   `yaml:"readTimeout"`
	WriteTimeout    time.Duration   `yaml:"writeTimeout"`
	IdleTimeout     time.Duration   `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdownTimeout"`
	AllowedOrigins  []string        `yaml:"allowedOrigins,omitempty"`
	RateLimit       RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig configures the per-client ingress limit.
type RateLimitConfig struct {
	Enabled   bool     `yaml:"enabled"`
	PerMinute int      `yaml:"perMinute"`
	Whitelist []string `yaml:"whitelist,omitempty"`
}

// UpstreamConfig configures the PokeAPI client.
type UpstreamConfig struct {
	BaseURL          string        `yaml:"baseUrl"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxRetries       int           `yaml:"maxRetries"`
	Backoff          time.Duration `yaml:"backoff"`
	MaxBackoff       time.Duration `yaml:"maxBackoff"`
	RateLimit        float64       `yaml:"rateLimit"` // requests per second, 0 disables
	Burst            int           `yaml:"burst"`
	BreakerThreshold int           `yaml:"breakerThreshold"`
	BreakerReset     time.Duration `yaml:"breakerReset"`
	UserAgent        string        `yaml:"userAgent,omitempty"`
}

// CacheConfig selects the response cache backend.
type CacheConfig struct {
	Backend         string        `yaml:"backend"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
	Dir             string        `yaml:"dir,omitempty"` // badger directory, relative to dataDir
	Redis           RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password,omitempty"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"keyPrefix,omitempty"`
}

// HistoryConfig configures the lookup history store.
type HistoryConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path,omitempty"` // relative to dataDir
	MaxEntries int    `yaml:"maxEntries"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	Console      bool    `yaml:"console"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// MetricsConfig toggles the prometheus endpoint and ingress metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		DataDir:     "data",
		LogLevel:    "info",
		Environment: "development",
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:   true,
				PerMinute: 120,
			},
		},
		Upstream: UpstreamConfig{
			BaseURL:          "https://pokeapi.co/api/v2",
			Timeout:          10 * time.Second,
			MaxRetries:       2,
			Backoff:          200 * time.Millisecond,
			MaxBackoff:       2 * time.Second,
			RateLimit:        10,
			Burst:            20,
			BreakerThreshold: 5,
			BreakerReset:     30 * time.Second,
		},
		Cache: CacheConfig{
			Backend:         "memory",
			TTL:             time.Hour,
			CleanupInterval: 5 * time.Minute,
			Dir:             "cache",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "pokemon-app:",
			},
		},
		History: HistoryConfig{
			Enabled:    true,
			Path:       "history.db",
			MaxEntries: 1000,
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			Exporter:     "http",
			Endpoint:     "localhost:14318",
			SamplingRate: 1.0,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// String renders the configuration as YAML with secrets redacted.
func (c AppConfig) String() string {
	redacted := c
	if redacted.Cache.Redis.Password != "" {
		redacted.Cache.Redis.Password = "***"
	}
	out, err := yaml.Marshal(redacted)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return strings.TrimSpace(string(out))
}
