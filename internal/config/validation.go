// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"time"

	"github.com/ManuGH/pokemon-app/internal/validate"
)

var (
	logLevels     = []string{"trace", "debug", "info", "warn", "error"}
	cacheBackends = []string{"memory", "redis", "badger", "none"}
	exporters     = []string{"grpc", "http", "console"}
)

// Validate checks a resolved configuration. The data directory is created
// when missing.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.Directory("dataDir", cfg.DataDir, false)
	v.OneOf("logLevel", cfg.LogLevel, logLevels)
	v.NotEmpty("environment", cfg.Environment)

	v.ListenAddr("server.listenAddr", cfg.Server.ListenAddr)
	v.MinDuration("server.readTimeout", cfg.Server.ReadTimeout, time.Second)
	v.MinDuration("server.writeTimeout", cfg.Server.WriteTimeout, time.Second)
	v.MinDuration("server.idleTimeout", cfg.Server.IdleTimeout, 0)
	v.MinDuration("server.shutdownTimeout", cfg.Server.ShutdownTimeout, time.Second)
	for _, origin := range cfg.Server.AllowedOrigins {
		if origin != "*" {
			v.URL("server.allowedOrigins", origin, []string{"http", "https"})
		}
	}
	if cfg.Server.RateLimit.Enabled {
		v.Positive("server.rateLimit.perMinute", cfg.Server.RateLimit.PerMinute)
	}
	v.CIDROrIP("server.rateLimit.whitelist", cfg.Server.RateLimit.Whitelist)

	up := cfg.Upstream
	v.URL("upstream.baseUrl", up.BaseURL, []string{"http", "https"})
	v.MinDuration("upstream.timeout", up.Timeout, 100*time.Millisecond)
	v.Range("upstream.maxRetries", up.MaxRetries, -1, 10)
	v.MinDuration("upstream.backoff", up.Backoff, 0)
	if up.MaxBackoff < up.Backoff {
		v.AddError("upstream.maxBackoff", "must not be smaller than upstream.backoff", up.MaxBackoff)
	}
	if up.RateLimit < 0 {
		v.AddError("upstream.rateLimit", "cannot be negative", up.RateLimit)
	}
	v.NonNegative("upstream.burst", up.Burst)
	v.Positive("upstream.breakerThreshold", up.BreakerThreshold)
	v.MinDuration("upstream.breakerReset", up.BreakerReset, time.Second)

	v.OneOf("cache.backend", cfg.Cache.Backend, cacheBackends)
	v.MinDuration("cache.ttl", cfg.Cache.TTL, 0)
	switch cfg.Cache.Backend {
	case "memory":
		v.MinDuration("cache.cleanupInterval", cfg.Cache.CleanupInterval, time.Second)
	case "redis":
		v.HostPort("cache.redis.addr", cfg.Cache.Redis.Addr)
		v.Range("cache.redis.db", cfg.Cache.Redis.DB, 0, 15)
	case "badger":
		v.NotEmpty("cache.dir", cfg.Cache.Dir)
	}

	if cfg.History.Enabled {
		v.NotEmpty("history.path", cfg.History.Path)
		v.Positive("history.maxEntries", cfg.History.MaxEntries)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, exporters)
		if cfg.Telemetry.Exporter != "console" {
			v.HostPort("telemetry.endpoint", cfg.Telemetry.Endpoint)
		}
		v.FloatRange("telemetry.samplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	return v.Err()
}
