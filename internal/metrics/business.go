// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics exposes the prometheus collectors of pokemon-app.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

var (
	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokemon_app_lookups_total",
		Help: "Creature and evolution lookups by kind (pokemon|evolution) and outcome",
	}, []string{"kind", "outcome"})

	evolutionStages = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pokemon_app_evolution_stages",
		Help:    "Number of stages in resolved evolution chains",
		Buckets: []float64{1, 2, 3, 4, 5, 8},
	})

	interactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokemon_app_ui_interactions_total",
		Help: "User interactions reported by the page, by button type",
	}, []string{"button"})

	clientErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokemon_app_client_errors_total",
		Help: "Uncaught exceptions reported by browsers",
	})

	pageLoadSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pokemon_app_page_load_seconds",
		Help:    "Browser-reported page load duration",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})
)

// RecordLookup counts one lookup.
func RecordLookup(kind, outcome string) {
	lookupsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveEvolutionStages records the length of a resolved chain.
func ObserveEvolutionStages(n int) {
	evolutionStages.Observe(float64(n))
}

// RecordInteraction counts a reported button click.
func RecordInteraction(button string) {
	if button == "" {
		button = "unknown"
	}
	interactionsTotal.WithLabelValues(button).Inc()
}

// RecordClientError counts a browser-reported uncaught exception.
func RecordClientError() {
	clientErrorsTotal.Inc()
}

// ObservePageLoad records a browser page load duration given in milliseconds.
func ObservePageLoad(ms float64) {
	if ms < 0 {
		return
	}
	pageLoadSeconds.Observe(ms / 1000)
}
