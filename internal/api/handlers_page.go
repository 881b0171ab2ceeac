// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/ManuGH/pokemon-app/internal/api/middleware"
	"github.com/ManuGH/pokemon-app/internal/history"
	applog "github.com/ManuGH/pokemon-app/internal/log"
	"github.com/ManuGH/pokemon-app/internal/metrics"
	"github.com/ManuGH/pokemon-app/internal/render"
	"github.com/ManuGH/pokemon-app/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	componentName       = "Demo"
	evolutionButtonType = "evolution-chain"
	maxClickCount       = 1 << 20
)

// handlePage renders the explorer page.
//
// Query parameters: q searches for a creature, evolution=1 also fetches its
// evolution chain (the "Get Evolution Chain" button), clicks carries the
// button's click counter between requests.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.mountComponent(ctx)

	q := r.URL.Query()
	data := render.PageData{
		Query:       strings.TrimSpace(q.Get("q")),
		ClickCount:  parseClicks(q.Get("clicks")),
		TraceParent: middleware.TraceParent(r),
	}
	wantEvolution := q.Get("evolution") == "1"

	if data.Query != "" {
		p, err := s.client.Pokemon(ctx, data.Query)
		if !wantEvolution {
			s.record(ctx, history.KindPokemon, data.Query, p, err)
		}
		if err != nil {
			data.Error = err.Error()
		} else {
			card := render.NewCard(p)
			data.Card = &card

			if wantEvolution {
				if data.ClickCount < 1 {
					data.ClickCount = 1
				}
				s.recordClick(ctx, data.ClickCount, evolutionButtonType)

				chain, err := s.resolveChain(ctx, p)
				if err != nil {
					data.EvolveError = err.Error()
				} else {
					data.Evolution = render.StageViews(chain.stages)
					if chain.tree.Branching() {
						data.Branches = render.Branches(chain.tree)
					}
				}
			}
		}
	}
	data.History = s.recent(ctx, history.DefaultLimit)

	var buf bytes.Buffer
	if err := s.renderer.Page(&buf, data); err != nil {
		applog.WithContext(ctx, s.logger).Error().
			Err(err).
			Str(applog.FieldEvent, "page.render_failed").
			Msg("failed to render page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// mountComponent emits the component.mount span of a page render.
func (s *Server) mountComponent(ctx context.Context) {
	_, span := s.tracer.Start(ctx, telemetry.SpanComponentMount,
		trace.WithAttributes(attribute.String(telemetry.ComponentNameKey, componentName)))
	span.AddEvent(telemetry.EventComponentMounted)
	span.End()
}

// recordClick emits a user-interaction span for a button click.
func (s *Server) recordClick(ctx context.Context, count int, button string) {
	_, span := s.tracer.Start(ctx, telemetry.SpanUserInteraction)
	span.AddEvent(telemetry.EventButtonClick, trace.WithAttributes(
		attribute.Int(telemetry.ClickCountKey, count),
		attribute.String(telemetry.ButtonTypeKey, button),
	))
	span.End()
	metrics.RecordInteraction(button)
}

func parseClicks(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return min(n, maxClickCount)
}
