// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api implements the HTTP surface of pokemon-app: the server-rendered
// page, the JSON lookup API and the browser telemetry beacons.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ManuGH/pokemon-app/internal/config"
	"github.com/ManuGH/pokemon-app/internal/health"
	"github.com/ManuGH/pokemon-app/internal/history"
	applog "github.com/ManuGH/pokemon-app/internal/log"
	"github.com/ManuGH/pokemon-app/internal/pokeapi"
	"github.com/ManuGH/pokemon-app/internal/render"
	"github.com/ManuGH/pokemon-app/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// PokemonClient looks up creatures and their evolution chains.
type PokemonClient interface {
	Pokemon(ctx context.Context, term string) (*pokeapi.Pokemon, error)
	EvolutionChain(ctx context.Context, p *pokeapi.Pokemon) (*pokeapi.EvolutionChain, error)
}

// HistoryStore records and lists lookups.
type HistoryStore interface {
	Record(ctx context.Context, e history.Entry) error
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Deps are the collaborators of the server.
type Deps struct {
	Client PokemonClient
	// History is optional; nil disables recording and the history route.
	History        HistoryStore
	Health         *health.Manager
	TracerProvider trace.TracerProvider
	// Metrics serves /metrics; nil leaves the route unregistered.
	Metrics http.Handler
}

// Server serves the pokemon-app HTTP API.
type Server struct {
	cfg      config.AppConfig
	client   PokemonClient
	history  HistoryStore
	health   *health.Manager
	metrics  http.Handler
	renderer *render.Renderer
	tp       trace.TracerProvider
	tracer   trace.Tracer
	logger   zerolog.Logger
	handler  http.Handler
}

// New builds the server and its routes.
func New(cfg config.AppConfig, deps Deps) (*Server, error) {
	if deps.Client == nil {
		return nil, errors.New("api: pokemon client is required")
	}
	renderer, err := render.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}

	tp := deps.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	hm := deps.Health
	if hm == nil {
		hm = health.NewManager(cfg.Version)
	}

	s := &Server{
		cfg:      cfg,
		client:   deps.Client,
		history:  deps.History,
		health:   hm,
		metrics:  deps.Metrics,
		renderer: renderer,
		tp:       tp,
		tracer:   tp.Tracer(telemetry.TracerName),
		logger:   applog.WithComponent("api"),
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
