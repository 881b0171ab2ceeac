// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package pokeapi fetches creature and evolution data from the public PokeAPI.
package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/ManuGH/pokemon-app/internal/cache"
	applog "github.com/ManuGH/pokemon-app/internal/log"
	"github.com/ManuGH/pokemon-app/internal/metrics"
	"github.com/ManuGH/pokemon-app/internal/platform/httpx"
	pnet "github.com/ManuGH/pokemon-app/internal/platform/net"
	"github.com/ManuGH/pokemon-app/internal/resilience"
	"github.com/ManuGH/pokemon-app/internal/telemetry"
)

const (
	DefaultBaseURL = "https://pokeapi.co/api/v2"

	defaultTimeout          = 10 * time.Second
	defaultCacheTTL         = 24 * time.Hour
	defaultRetries          = 2
	defaultBackoff          = 200 * time.Millisecond
	defaultMaxBackoff       = 2 * time.Second
	defaultRateLimit        = 10
	defaultRateLimitBurst   = 20
	defaultBreakerThreshold = 5
	defaultBreakerReset     = 30 * time.Second
	maxBodyBytes            = 4 << 20
)

// Options configures the client. Zero values select defaults.
type Options struct {
	BaseURL          string
	Timeout          time.Duration
	CacheTTL         time.Duration
	MaxRetries       int
	Backoff          time.Duration
	MaxBackoff       time.Duration
	RateLimit        rate.Limit
	RateLimitBurst   int
	BreakerThreshold int
	BreakerReset     time.Duration
	UserAgent        string

	// ServiceName and ServiceVersion are repeated on fetch spans.
	ServiceName    string
	ServiceVersion string

	Cache          cache.Cache
	TracerProvider trace.TracerProvider
	Logger         *zerolog.Logger
}

// Client talks to the PokeAPI. It is safe for concurrent use.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	cache          cache.Cache
	cacheTTL       time.Duration
	limiter        *rate.Limiter
	breaker        *resilience.CircuitBreaker
	group          singleflight.Group
	tracer         trace.Tracer
	logger         zerolog.Logger
	maxRetries     int
	backoff        time.Duration
	maxBackoff     time.Duration
	serviceName    string
	serviceVersion string
}

// NewClient creates a client for the API rooted at opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	nopts := normalizeOptions(opts)

	base, err := pnet.ParseHTTPURL(nopts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("base URL: %w", err)
	}

	logger := applog.WithComponent("pokeapi")
	if nopts.Logger != nil {
		logger = *nopts.Logger
	}

	breaker := resilience.NewCircuitBreaker("pokeapi", nopts.BreakerThreshold, nopts.BreakerReset,
		resilience.WithFailurePredicate(countsAgainstBreaker))
	httpClient := httpx.NewClient(nopts.Timeout,
		httpx.WithTracing(nopts.TracerProvider),
		httpx.WithUserAgent(nopts.UserAgent))

	return &Client{
		baseURL:        base,
		http:           httpClient,
		cache:          nopts.Cache,
		cacheTTL:       nopts.CacheTTL,
		limiter:        rate.NewLimiter(nopts.RateLimit, nopts.RateLimitBurst),
		breaker:        breaker,
		tracer:         nopts.TracerProvider.Tracer(telemetry.TracerName),
		logger:         logger,
		maxRetries:     nopts.MaxRetries,
		backoff:        nopts.Backoff,
		maxBackoff:     nopts.MaxBackoff,
		serviceName:    nopts.ServiceName,
		serviceVersion: nopts.ServiceVersion,
	}, nil
}

func normalizeOptions(opts Options) Options {
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Limit(defaultRateLimit)
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = defaultRateLimitBurst
	}
	if opts.BreakerThreshold <= 0 {
		opts.BreakerThreshold = defaultBreakerThreshold
	}
	if opts.BreakerReset <= 0 {
		opts.BreakerReset = defaultBreakerReset
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = "pokemon-app"
	}
	if opts.ServiceName == "" {
		opts.ServiceName = telemetry.TracerName
	}
	if opts.ServiceVersion == "" {
		opts.ServiceVersion = "1.0.0"
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNoOpCache()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	return opts
}

// NormalizeTerm lower-cases and trims a search term and rejects anything
// that is not a plain resource name.
func NormalizeTerm(term string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(term))
	if t == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTerm)
	}
	for _, r := range t {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return "", fmt.Errorf("%w: %q", ErrInvalidTerm, term)
		}
	}
	return t, nil
}

// Pokemon fetches a creature by name or numeric id.
func (c *Client) Pokemon(ctx context.Context, term string) (*Pokemon, error) {
	ctx, span := c.tracer.Start(ctx, telemetry.SpanFetchPokemon)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.SearchTermKey, term))
	span.SetAttributes(telemetry.ServiceAttributes(c.serviceName, c.serviceVersion)...)

	p, err := c.fetchPokemon(ctx, term)
	metrics.RecordLookup("pokemon", Outcome(err))
	if err != nil {
		telemetry.RecordError(span, err)
		applog.WithContext(ctx, c.logger).Warn().
			Err(err).
			Str(applog.FieldEvent, "pokeapi.pokemon_failed").
			Str(applog.FieldSearchTerm, term).
			Msg("pokemon lookup failed")
		return nil, err
	}

	span.SetAttributes(attribute.String(telemetry.PokemonNameKey, p.Name))
	span.SetStatus(codes.Ok, "")
	return p, nil
}

func (c *Client) fetchPokemon(ctx context.Context, term string) (*Pokemon, error) {
	name, err := NormalizeTerm(term)
	if err != nil {
		return nil, err
	}

	var p Pokemon
	if err := c.getJSON(ctx, "pokemon", c.endpoint("pokemon", name), &p); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, &APIError{Sentinel: ErrBadResponse, Operation: "pokemon", Err: errors.New("missing name")}
	}
	return &p, nil
}

// EvolutionChain fetches the species of p and then its evolution chain.
// The two requests are sequential because the chain URL comes from the species.
func (c *Client) EvolutionChain(ctx context.Context, p *Pokemon) (*EvolutionChain, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: no pokemon selected", ErrInvalidTerm)
	}

	ctx, span := c.tracer.Start(ctx, telemetry.SpanFetchEvolutionChain)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.PokemonNameKey, p.Name))

	chain, err := c.fetchEvolutionChain(ctx, p)
	metrics.RecordLookup("evolution", Outcome(err))
	if err != nil {
		telemetry.RecordError(span, err)
		applog.WithContext(ctx, c.logger).Warn().
			Err(err).
			Str(applog.FieldEvent, "pokeapi.evolution_failed").
			Str(applog.FieldPokemon, p.Name).
			Msg("evolution chain lookup failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int(telemetry.EvolutionChainIDKey, chain.ID))
	span.SetStatus(codes.Ok, "")
	return chain, nil
}

func (c *Client) fetchEvolutionChain(ctx context.Context, p *Pokemon) (*EvolutionChain, error) {
	speciesURL := p.Species.URL
	if speciesURL == "" {
		name, err := NormalizeTerm(p.Name)
		if err != nil {
			return nil, err
		}
		speciesURL = c.endpoint("pokemon-species", name)
	}
	speciesURL, err := c.resolve(speciesURL)
	if err != nil {
		return nil, err
	}

	var species Species
	if err := c.getJSON(ctx, "species", speciesURL, &species); err != nil {
		return nil, fmt.Errorf("failed to fetch species: %w", err)
	}
	if species.EvolutionChain.URL == "" {
		return nil, &APIError{Sentinel: ErrBadResponse, Operation: "species", Err: errors.New("missing evolution_chain url")}
	}

	chainURL, err := c.resolve(species.EvolutionChain.URL)
	if err != nil {
		return nil, err
	}

	var chain EvolutionChain
	if err := c.getJSON(ctx, "evolution-chain", chainURL, &chain); err != nil {
		return nil, fmt.Errorf("failed to fetch evolution chain: %w", err)
	}
	return &chain, nil
}

// Ping checks that the upstream answers, for readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	if c.breaker.State() == resilience.StateOpen {
		return resilience.ErrCircuitOpen
	}
	_, err := c.do(ctx, "ping", c.endpoint("pokemon-species")+"?limit=1")
	return err
}

// BreakerState reports the upstream circuit breaker state.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

func (c *Client) endpoint(parts ...string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Join(parts, "/")
	return u.String()
}

// resolve makes a linked URL absolute and refuses links that leave the upstream host.
func (c *Client) resolve(raw string) (string, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", &APIError{Sentinel: ErrBadResponse, Operation: "link", Err: err}
	}
	abs := c.baseURL.ResolveReference(ref)
	if abs.Host != c.baseURL.Host {
		return "", &APIError{Sentinel: ErrBadResponse, Operation: "link", Err: fmt.Errorf("unexpected host %q", abs.Host)}
	}
	return abs.String(), nil
}

// getJSON serves rawURL from the cache or the network and decodes it into v.
// Concurrent requests for the same URL share one round trip.
func (c *Client) getJSON(ctx context.Context, resource, rawURL string, v any) error {
	span := trace.SpanFromContext(ctx)

	if body, ok := c.cache.Get(rawURL); ok {
		metrics.RecordCacheResult(c.cache.Backend(), true)
		span.SetAttributes(attribute.Bool(telemetry.CacheHitKey, true))
		if err := json.Unmarshal(body, v); err == nil {
			return nil
		}
		c.cache.Delete(rawURL)
	}
	metrics.RecordCacheResult(c.cache.Backend(), false)
	span.SetAttributes(attribute.Bool(telemetry.CacheHitKey, false))

	ch := c.group.DoChan(rawURL, func() (any, error) {
		// Detached from the first caller's cancellation so waiters are not
		// failed by it; the HTTP client timeout still bounds the call.
		fetchCtx := context.WithoutCancel(ctx)
		var body []byte
		err := c.breaker.Execute(func() error {
			var err error
			body, err = c.do(fetchCtx, resource, rawURL)
			return err
		})
		if err != nil {
			if errors.Is(err, resilience.ErrCircuitOpen) {
				return nil, &APIError{Sentinel: ErrUpstreamUnavailable, Operation: resource, Err: err}
			}
			return nil, err
		}
		c.cache.Set(rawURL, body, c.cacheTTL)
		return body, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return &APIError{Sentinel: ErrTimeout, Operation: resource, Err: ctx.Err()}
	case res = <-ch:
	}
	if res.Err != nil {
		return res.Err
	}

	if err := json.Unmarshal(res.Val.([]byte), v); err != nil {
		return &APIError{Sentinel: ErrBadResponse, Operation: resource, Err: err}
	}
	return nil
}

// do performs a GET with rate limiting and retries on transport errors and 5xx.
func (c *Client) do(ctx context.Context, resource, rawURL string) ([]byte, error) {
	maxAttempts := c.maxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &APIError{Sentinel: ErrTimeout, Operation: resource, Err: err}
		}

		body, err := c.attempt(ctx, resource, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !countsAgainstBreaker(err) || attempt == maxAttempts {
			break
		}

		c.logger.Debug().
			Err(err).
			Str(applog.FieldEvent, "pokeapi.retry").
			Str(applog.FieldURL, rawURL).
			Int("attempt", attempt).
			Msg("retrying upstream request")

		if err := sleepWithContext(ctx, c.backoffFor(attempt-1)); err != nil {
			return nil, &APIError{Sentinel: ErrTimeout, Operation: resource, Err: err}
		}
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, resource, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &APIError{Sentinel: ErrBadResponse, Operation: resource, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveUpstream(resource, 0, time.Since(start))
		return nil, transportError(resource, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.ObserveUpstream(resource, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, transportError(resource, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resource, resp.StatusCode, body)
	}
	return body, nil
}

func transportError(resource string, err error) *APIError {
	sentinel := ErrUpstreamUnavailable
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		sentinel = ErrTimeout
	}
	return &APIError{Sentinel: sentinel, Operation: resource, Err: err}
}

func (c *Client) backoffFor(attempt int) time.Duration {
	wait := c.backoff * time.Duration(1<<attempt)
	if wait > c.maxBackoff {
		wait = c.maxBackoff
	}
	return wait
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
