// SPDX-License-Identifier: MIT

package telemetry

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for consistent tracing across the application.
const (
	// Service attributes repeated on fetch spans
	ServiceNameKey    = "service.name"
	ServiceVersionKey = "service.version"

	// Lookup attributes
	SearchTermKey       = "searchTerm"
	PokemonNameKey      = "pokemon.name"
	EvolutionChainIDKey = "evolution.chain.id"
	EvolutionStagesKey  = "evolution.stages"
	CacheHitKey         = "cache.hit"

	// UI attributes
	ComponentNameKey = "component.name"
	ClickCountKey    = "click.count"
	ButtonTypeKey    = "button.type"

	// Page load attributes
	PageLoadDurationKey       = "page.load.duration"
	PageDOMContentLoadedKey   = "page.dom_content_loaded.duration"
	PageFirstPaintDurationKey = "page.first_paint.duration"
	PageURLKey                = "page.url"
	PageLoadTimeMSKey         = "load_time_ms"
	PageDOMReadyMSKey         = "dom_ready_ms"

	// Error attributes
	ErrorKey        = "error"
	ErrorCodeKey    = "error.code"
	ErrorMessageKey = "error.message"
)

// Span and event names shared by the server and the browser beacons.
const (
	SpanComponentMount      = "component.mount"
	SpanPageLoad            = "page.load"
	SpanFetchPokemon        = "fetchPokemon"
	SpanFetchEvolutionChain = "fetchEvolutionChain"
	SpanUserInteraction     = "user-interaction"
	SpanUncaughtException   = "uncaught-exception"

	EventComponentMounted = "component.mounted"
	EventPageLoaded       = "page.loaded"
	EventButtonClick      = "button.click"
	EventException        = "exception"
)

// ServiceAttributes repeats the resource identity on a span, as fetch spans carry it.
func ServiceAttributes(name, version string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ServiceNameKey, name),
		attribute.String(ServiceVersionKey, version),
	}
}

// codedError is implemented by errors that carry an upstream status code.
type codedError interface {
	StatusCode() int
}

// RecordError marks span as failed: error attributes, an exception event with
// stack trace and an Error status. A nil err is a no-op.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.SetAttributes(
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorMessageKey, err.Error()),
	)
	var ce codedError
	if errors.As(err, &ce) && ce.StatusCode() > 0 {
		span.SetAttributes(attribute.String(ErrorCodeKey, fmt.Sprintf("%d", ce.StatusCode())))
	}
	span.RecordError(err, trace.WithStackTrace(true))
	span.SetStatus(codes.Error, err.Error())
}
