// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/ManuGH/pokemon-app/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

const pageTraceParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func TestPageLoadBeacon(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/v1/telemetry/page-load",
		`{"loadDuration":812.5,"domContentLoadedDuration":301,"firstPaintDuration":120.25,"url":"http://localhost:8080/?q=pikachu"}`,
		"traceparent", pageTraceParent)
	require.Equal(t, http.StatusNoContent, rec.Code)

	spans := env.spans(telemetry.SpanPageLoad)
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", span.SpanContext().TraceID().String(),
		"the beacon joins the trace of the rendered page")

	a := attrs(span.Attributes())
	assert.InDelta(t, 812.5, a[telemetry.PageLoadDurationKey].AsFloat64(), 1e-9)
	assert.InDelta(t, 301.0, a[telemetry.PageDOMContentLoadedKey].AsFloat64(), 1e-9)
	assert.InDelta(t, 120.25, a[telemetry.PageFirstPaintDurationKey].AsFloat64(), 1e-9)
	assert.Equal(t, "http://localhost:8080/?q=pikachu", a[telemetry.PageURLKey].AsString())

	require.Len(t, span.Events(), 1)
	ev := span.Events()[0]
	assert.Equal(t, telemetry.EventPageLoaded, ev.Name)
	assert.InDelta(t, 812.5, attrs(ev.Attributes)[telemetry.PageLoadTimeMSKey].AsFloat64(), 1e-9)
	assert.InDelta(t, 301.0, attrs(ev.Attributes)[telemetry.PageDOMReadyMSKey].AsFloat64(), 1e-9)
}

func TestPageLoadBeacon_Rejects(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"loadDuration":`, http.StatusBadRequest},
		{"wrong type", `{"loadDuration":"fast"}`, http.StatusBadRequest},
		{"negative", `{"loadDuration":-1}`, http.StatusBadRequest},
		{"too large", `{"url":"` + strings.Repeat("a", 20<<10) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/telemetry/page-load", tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	assert.Empty(t, env.spans(telemetry.SpanPageLoad))
}

func TestInteractionBeacon(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/telemetry/interaction", `{"clickCount":2,"buttonType":"evolution-chain"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	spans := env.spans(telemetry.SpanUserInteraction)
	require.Len(t, spans, 1)
	ev := spans[0].Events()[0]
	assert.Equal(t, telemetry.EventButtonClick, ev.Name)
	assert.Equal(t, int64(2), attrs(ev.Attributes)[telemetry.ClickCountKey].AsInt64())

	rec = env.do(t, http.MethodPost, "/api/v1/telemetry/interaction", `{"clickCount":0,"buttonType":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/v1/telemetry/interaction", `{"clickCount":1,"buttonType":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorBeacon(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/telemetry/error", `{
		"message": "This is a test error for OpenTelemetry!",
		"type": "Error",
		"stack": "Error: This is a test error\n    at throwError (Demo.tsx:54:15)",
		"source": "http://localhost:8080/static/app.js",
		"lineno": 54,
		"colno": 15
	}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	spans := env.spans(telemetry.SpanUncaughtException)
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, codes.Error, span.Status().Code)

	a := attrs(span.Attributes())
	assert.True(t, a[telemetry.ErrorKey].AsBool())
	assert.Equal(t, "This is a test error for OpenTelemetry!", a[telemetry.ErrorMessageKey].AsString())

	require.Len(t, span.Events(), 1)
	ev := attrs(span.Events()[0].Attributes)
	assert.Equal(t, telemetry.EventException, span.Events()[0].Name)
	assert.Equal(t, "Error", ev["exception.type"].AsString())
	assert.Equal(t, "This is a test error for OpenTelemetry!", ev["exception.message"].AsString())
	assert.Contains(t, ev["exception.stacktrace"].AsString(), "throwError")
	assert.Equal(t, "http://localhost:8080/static/app.js", ev["source"].AsString())
	assert.Equal(t, int64(54), ev["lineno"].AsInt64())
	assert.Equal(t, int64(15), ev["colno"].AsInt64())
}

func TestErrorBeacon_DefaultsAndValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/telemetry/error", `{"message":"boom"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	ev := attrs(env.spans(telemetry.SpanUncaughtException)[0].Events()[0].Attributes)
	assert.Equal(t, "Error", ev["exception.type"].AsString())

	rec = env.do(t, http.MethodPost, "/api/v1/telemetry/error", `{"message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	// "é" is two bytes; cutting inside it drops the whole rune.
	assert.Equal(t, "Pok", truncate("Pokémon", 4))
	assert.Equal(t, "Poké", truncate("Pokémon", 5))
}
