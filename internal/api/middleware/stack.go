// SPDX-License-Identifier: MIT

// Package middleware provides the HTTP ingress middleware stack.
package middleware

import (
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	applog "github.com/ManuGH/pokemon-app/internal/log"
)

// StackConfig configures the canonical HTTP ingress middleware stack.
type StackConfig struct {
	// CORS
	EnableCORS     bool
	AllowedOrigins []string

	// Security headers
	EnableSecurityHeaders bool
	CSP                   string

	// Observability
	EnableMetrics  bool
	TracingService string // empty disables tracing
	TracerProvider trace.TracerProvider
	EnableLogging  bool

	// Rate limiting
	EnableRateLimit    bool
	RateLimitPerMinute int
	RateLimitWhitelist []string
}

// NewRouter constructs a chi router with the canonical middleware stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the canonical middleware stack to r.
func ApplyStack(r chi.Router, cfg StackConfig) {
	// 1. Recoverer (outermost safety net)
	r.Use(Recoverer)
	// 2. RequestID (correlation early)
	r.Use(RequestID)
	// 3. CORS (so OPTIONS and browser clients behave)
	if cfg.EnableCORS {
		r.Use(CORS(cfg.AllowedOrigins))
	}
	// 4. Security headers
	if cfg.EnableSecurityHeaders {
		r.Use(SecurityHeaders(cfg.CSP))
	}
	// 5. Metrics (track all requests)
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	// 6. Tracing (server span, extracts inbound traceparent)
	if cfg.TracingService != "" {
		r.Use(OTelHTTP(cfg.TracingService, cfg.TracerProvider))
	}
	// 7. Logging (inside tracing so log lines carry trace ids)
	if cfg.EnableLogging {
		r.Use(applog.Middleware())
	}
	// 8. Rate limit (per client IP)
	if cfg.EnableRateLimit {
		r.Use(APIRateLimit(cfg.RateLimitPerMinute, cfg.RateLimitWhitelist))
	}
}
