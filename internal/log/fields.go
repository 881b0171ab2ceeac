// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"

	FieldEvent     = "event"
	FieldComponent = "component"

	// Domain fields
	FieldSearchTerm = "search_term"
	FieldPokemon    = "pokemon"
	FieldChainID    = "chain_id"
	FieldCacheKey   = "cache_key"

	// HTTP fields
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldDurationMS = "duration_ms"
	FieldRemoteAddr = "remote_addr"
	FieldURL        = "url"
)
