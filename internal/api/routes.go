// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"

	"github.com/ManuGH/pokemon-app/internal/api/middleware"
	"github.com/ManuGH/pokemon-app/internal/render"
	"github.com/ManuGH/pokemon-app/internal/telemetry"
	"github.com/go-chi/chi/v5"
)

func (s *Server) routes() http.Handler {
	srv := s.cfg.Server
	r := middleware.NewRouter(middleware.StackConfig{
		EnableCORS:            len(srv.AllowedOrigins) > 0,
		AllowedOrigins:        srv.AllowedOrigins,
		EnableSecurityHeaders: true,
		EnableMetrics:         s.cfg.Metrics.Enabled,
		TracingService:        telemetry.TracerName,
		TracerProvider:        s.tp,
		EnableLogging:         true,
		EnableRateLimit:       srv.RateLimit.Enabled,
		RateLimitPerMinute:    srv.RateLimit.PerMinute,
		RateLimitWhitelist:    srv.RateLimit.Whitelist,
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(render.Static())))

	r.Get("/", s.handlePage)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/pokemon/{name}", s.handlePokemon)
		r.Get("/pokemon/{name}/evolution", s.handleEvolution)
		r.Get("/history", s.handleHistory)

		r.Route("/telemetry", func(r chi.Router) {
			r.Post("/page-load", s.handlePageLoad)
			r.Post("/interaction", s.handleInteraction)
			r.Post("/error", s.handleClientError)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSONError(w, r, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSONError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" not allowed")
	})
	return r
}
