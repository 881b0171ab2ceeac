// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/ManuGH/pokemon-app/internal/api/middleware"
	applog "github.com/ManuGH/pokemon-app/internal/log"
	"github.com/ManuGH/pokemon-app/internal/metrics"
	"github.com/ManuGH/pokemon-app/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxBeaconBytes  = 16 << 10
	maxMessageBytes = 1 << 10
	maxStackBytes   = 8 << 10
)

// PageLoadBeacon carries browser navigation timing in milliseconds.
type PageLoadBeacon struct {
	LoadDuration             float64 `json:"loadDuration"`
	DOMContentLoadedDuration float64 `json:"domContentLoadedDuration"`
	FirstPaintDuration       float64 `json:"firstPaintDuration"`
	URL                      string  `json:"url"`
}

// InteractionBeacon reports a button click.
type InteractionBeacon struct {
	ClickCount int    `json:"clickCount"`
	ButtonType string `json:"buttonType"`
}

// ErrorBeacon reports an uncaught browser exception.
type ErrorBeacon struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Stack   string `json:"stack"`
	Source  string `json:"source"`
	Lineno  int    `json:"lineno"`
	Colno   int    `json:"colno"`
}

func decodeBeacon(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBeaconBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		middleware.WriteJSONError(w, r, status, "invalid_beacon", err.Error())
		return false
	}
	return true
}

// handlePageLoad turns a navigation timing beacon into a page.load span.
func (s *Server) handlePageLoad(w http.ResponseWriter, r *http.Request) {
	var b PageLoadBeacon
	if !decodeBeacon(w, r, &b) {
		return
	}
	if b.LoadDuration < 0 || b.DOMContentLoadedDuration < 0 || b.FirstPaintDuration < 0 {
		middleware.WriteJSONError(w, r, http.StatusBadRequest, "invalid_beacon", "durations must not be negative")
		return
	}

	_, span := s.tracer.Start(r.Context(), telemetry.SpanPageLoad)
	span.SetAttributes(
		attribute.Float64(telemetry.PageLoadDurationKey, b.LoadDuration),
		attribute.Float64(telemetry.PageDOMContentLoadedKey, b.DOMContentLoadedDuration),
		attribute.Float64(telemetry.PageFirstPaintDurationKey, b.FirstPaintDuration),
		attribute.String(telemetry.PageURLKey, truncate(b.URL, maxMessageBytes)),
	)
	span.AddEvent(telemetry.EventPageLoaded, trace.WithAttributes(
		attribute.Float64(telemetry.PageLoadTimeMSKey, b.LoadDuration),
		attribute.Float64(telemetry.PageDOMReadyMSKey, b.DOMContentLoadedDuration),
	))
	span.End()

	metrics.ObservePageLoad(b.LoadDuration)
	w.WriteHeader(http.StatusNoContent)
}

// handleInteraction records a button click reported by a client.
func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	var b InteractionBeacon
	if !decodeBeacon(w, r, &b) {
		return
	}
	b.ButtonType = strings.TrimSpace(b.ButtonType)
	if b.ButtonType == "" || b.ClickCount < 1 {
		middleware.WriteJSONError(w, r, http.StatusBadRequest, "invalid_beacon", "buttonType and a positive clickCount are required")
		return
	}

	s.recordClick(r.Context(), b.ClickCount, truncate(b.ButtonType, 64))
	w.WriteHeader(http.StatusNoContent)
}

// handleClientError turns an uncaught browser exception into an
// uncaught-exception span.
func (s *Server) handleClientError(w http.ResponseWriter, r *http.Request) {
	var b ErrorBeacon
	if !decodeBeacon(w, r, &b) {
		return
	}
	if strings.TrimSpace(b.Message) == "" {
		middleware.WriteJSONError(w, r, http.StatusBadRequest, "invalid_beacon", "message is required")
		return
	}
	if b.Type == "" {
		b.Type = "Error"
	}
	msg := truncate(b.Message, maxMessageBytes)

	ctx, span := s.tracer.Start(r.Context(), telemetry.SpanUncaughtException)
	span.SetAttributes(
		attribute.Bool(telemetry.ErrorKey, true),
		attribute.String(telemetry.ErrorMessageKey, msg),
	)
	span.AddEvent(telemetry.EventException, trace.WithAttributes(
		semconv.ExceptionType(truncate(b.Type, 128)),
		semconv.ExceptionMessage(msg),
		semconv.ExceptionStacktrace(truncate(b.Stack, maxStackBytes)),
		attribute.String("source", truncate(b.Source, maxMessageBytes)),
		attribute.Int("lineno", b.Lineno),
		attribute.Int("colno", b.Colno),
	))
	span.SetStatus(codes.Error, msg)
	span.End()

	metrics.RecordClientError()
	applog.WithContext(ctx, s.logger).Warn().
		Str(applog.FieldEvent, "client.uncaught_exception").
		Str("error_type", b.Type).
		Str("source", fmt.Sprintf("%s:%d:%d", truncate(b.Source, maxMessageBytes), b.Lineno, b.Colno)).
		Msg(msg)
	w.WriteHeader(http.StatusNoContent)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
