// SPDX-License-Identifier: MIT

// Package daemon assembles the service from its configuration and runs it.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/ManuGH/pokemon-app/internal/api"
	"github.com/ManuGH/pokemon-app/internal/cache"
	"github.com/ManuGH/pokemon-app/internal/config"
	"github.com/ManuGH/pokemon-app/internal/health"
	"github.com/ManuGH/pokemon-app/internal/history"
	applog "github.com/ManuGH/pokemon-app/internal/log"
	pnet "github.com/ManuGH/pokemon-app/internal/platform/net"
	"github.com/ManuGH/pokemon-app/internal/pokeapi"
	"github.com/ManuGH/pokemon-app/internal/telemetry"
)

// ServiceName identifies the service in logs and spans.
const ServiceName = "pokemon-app"

// Options selects the configuration and build of the daemon.
type Options struct {
	// ConfigPath is the YAML config file; empty means defaults plus environment.
	ConfigPath string

	// Version is the build version
	Version string

	// LogOutput receives the log stream; defaults to os.Stdout.
	LogOutput io.Writer
}

// Bootstrap loads the configuration and builds every component. The returned
// App owns them: they are released when Run returns.
func Bootstrap(ctx context.Context, opts Options) (*App, error) {
	loader := config.NewLoader(opts.ConfigPath, opts.Version)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	out := opts.LogOutput
	if out == nil {
		out = os.Stdout
	}
	applog.Configure(applog.Config{
		Level:   cfg.LogLevel,
		Output:  out,
		Service: ServiceName,
		Version: cfg.Version,
	})
	logger := applog.WithComponent("daemon")

	logger.Info().
		Str("version", cfg.Version).
		Str("config", opts.ConfigPath).
		Str("listen", cfg.Server.ListenAddr).
		Str("upstream", pnet.SanitizeURL(cfg.Upstream.BaseURL)).
		Str("cache_backend", cfg.Cache.Backend).
		Bool("history", cfg.History.Enabled).
		Bool("telemetry", cfg.Telemetry.Enabled).
		Msg("Starting pokemon-app daemon")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		return nil, fmt.Errorf("startup checks: %w", err)
	}

	var cleanup closers
	fail := func(err error) (*App, error) {
		return nil, errors.Join(err, cleanup.run(context.WithoutCancel(ctx)))
	}

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    ServiceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		Console:        cfg.Telemetry.Console,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry init failed: %w", err)
	}
	cleanup.add("telemetry", tel.Shutdown)
	if tel.Enabled() {
		logger.Info().
			Str("exporter", cfg.Telemetry.Exporter).
			Str("endpoint", cfg.Telemetry.Endpoint).
			Float64("sampling_rate", cfg.Telemetry.SamplingRate).
			Msg("Telemetry initialized")
	}

	c, cacheCloser, err := cache.New(cache.Config{
		Backend:         cfg.Cache.Backend,
		CleanupInterval: cfg.Cache.CleanupInterval,
		BadgerDir:       cfg.Cache.Dir,
		Redis: cache.RedisConfig{
			Addr:      cfg.Cache.Redis.Addr,
			Password:  cfg.Cache.Redis.Password,
			DB:        cfg.Cache.Redis.DB,
			KeyPrefix: cfg.Cache.Redis.KeyPrefix,
		},
	}, applog.WithComponent("cache"))
	if err != nil {
		return fail(fmt.Errorf("cache: %w", err))
	}
	cleanup.add("cache", func(context.Context) error { return cacheCloser.Close() })

	client, err := NewPokemonClient(cfg, c)
	if err != nil {
		return fail(fmt.Errorf("pokeapi client: %w", err))
	}

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewBreakerChecker("pokeapi", func() string {
		return string(client.BreakerState())
	}))
	if hc, ok := c.(cache.HealthChecker); ok {
		hm.RegisterChecker(health.NewPingChecker("cache", false, hc.HealthCheck))
	}

	deps := api.Deps{Client: client, Health: hm}
	if cfg.History.Enabled {
		store, err := history.Open(ctx, cfg.History.Path, cfg.History.MaxEntries)
		if err != nil {
			return fail(fmt.Errorf("history: %w", err))
		}
		cleanup.add("history", func(context.Context) error { return store.Close() })
		hm.RegisterChecker(health.NewPingChecker("history", false, store.Ping))
		deps.History = store
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = promhttp.Handler()
	}

	srv, err := api.New(cfg, deps)
	if err != nil {
		return fail(fmt.Errorf("api server: %w", err))
	}

	mgr, err := NewManager(cfg.Server, Deps{Logger: logger, APIHandler: srv})
	if err != nil {
		return fail(err)
	}
	// Hooks run in reverse, so the tracer flushes after the stores close.
	for _, h := range cleanup {
		mgr.RegisterShutdownHook(h.name, h.hook)
	}

	return NewApp(logger, mgr, config.NewConfigHolder(cfg, loader)), nil
}

// NewPokemonClient builds the upstream client from the upstream section of cfg.
func NewPokemonClient(cfg config.AppConfig, c cache.Cache) (*pokeapi.Client, error) {
	logger := applog.WithComponent("pokeapi")
	return pokeapi.NewClient(pokeapi.Options{
		BaseURL:          cfg.Upstream.BaseURL,
		Timeout:          cfg.Upstream.Timeout,
		CacheTTL:         cfg.Cache.TTL,
		MaxRetries:       cfg.Upstream.MaxRetries,
		Backoff:          cfg.Upstream.Backoff,
		MaxBackoff:       cfg.Upstream.MaxBackoff,
		RateLimit:        rate.Limit(cfg.Upstream.RateLimit),
		RateLimitBurst:   cfg.Upstream.Burst,
		BreakerThreshold: cfg.Upstream.BreakerThreshold,
		BreakerReset:     cfg.Upstream.BreakerReset,
		UserAgent:        cfg.Upstream.UserAgent,
		ServiceName:      ServiceName,
		ServiceVersion:   cfg.Version,
		Cache:            c,
		Logger:           &logger,
	})
}

// Run bootstraps the daemon and serves until SIGINT or SIGTERM.
func Run(opts Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := Bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}

// closers releases components built before a later step failed.
type closers []namedHook

func (c *closers) add(name string, hook ShutdownHook) {
	*c = append(*c, namedHook{name: name, hook: hook})
}

func (c closers) run(ctx context.Context) error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].hook(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c[i].name, err))
		}
	}
	return errors.Join(errs...)
}
