// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"strings"

	"github.com/ManuGH/pokemon-app/internal/evolution"
	"github.com/ManuGH/pokemon-app/internal/history"
	applog "github.com/ManuGH/pokemon-app/internal/log"
	"github.com/ManuGH/pokemon-app/internal/metrics"
	"github.com/ManuGH/pokemon-app/internal/pokeapi"
	"github.com/ManuGH/pokemon-app/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxRecordedTerm = 64

// resolvedChain is an evolution chain after resolution.
type resolvedChain struct {
	id     int
	stages []evolution.Stage
	tree   *evolution.StageTree
}

// resolveChain fetches and resolves the evolution chain of p.
func (s *Server) resolveChain(ctx context.Context, p *pokeapi.Pokemon) (*resolvedChain, error) {
	chain, err := s.client.EvolutionChain(ctx, p)
	s.record(ctx, history.KindEvolution, p.Name, p, err)
	if err != nil {
		return nil, err
	}

	rc := &resolvedChain{id: chain.ID, stages: chain.Stages(), tree: chain.Tree()}
	metrics.ObserveEvolutionStages(len(rc.stages))
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int(telemetry.EvolutionChainIDKey, rc.id),
		attribute.Int(telemetry.EvolutionStagesKey, len(rc.stages)),
	)
	return rc, nil
}

// record stores a lookup in the history. Failures are logged and swallowed.
func (s *Server) record(ctx context.Context, kind, term string, p *pokeapi.Pokemon, lookupErr error) {
	if s.history == nil {
		return
	}
	term = truncate(strings.TrimSpace(term), maxRecordedTerm)

	e := history.Entry{
		Term:    term,
		Kind:    kind,
		Outcome: pokeapi.Outcome(lookupErr),
	}
	if p != nil {
		e.Pokemon = p.Name
		e.PokemonID = p.ID
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		e.TraceID = sc.TraceID().String()
	}

	if err := s.history.Record(context.WithoutCancel(ctx), e); err != nil {
		applog.WithContext(ctx, s.logger).Warn().
			Err(err).
			Str(applog.FieldEvent, "history.record_failed").
			Str(applog.FieldSearchTerm, term).
			Msg("failed to record lookup")
	}
}

// recent lists the latest lookups, or nil when history is disabled or failing.
func (s *Server) recent(ctx context.Context, limit int) []history.Entry {
	if s.history == nil {
		return nil
	}
	entries, err := s.history.Recent(ctx, limit)
	if err != nil {
		applog.WithContext(ctx, s.logger).Warn().
			Err(err).
			Str(applog.FieldEvent, "history.recent_failed").
			Msg("failed to list recent lookups")
		return nil
	}
	return entries
}
