// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package pokeapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ManuGH/pokemon-app/internal/metrics"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrNotFound            = errors.New("pokeapi: resource not found")
	ErrInvalidTerm         = errors.New("pokeapi: invalid search term")
	ErrUpstreamUnavailable = errors.New("pokeapi: host unreachable or transport failure")
	ErrUpstreamError       = errors.New("pokeapi: upstream error")
	ErrBadResponse         = errors.New("pokeapi: invalid response format or malformed data")
	ErrTimeout             = errors.New("pokeapi: request timed out")
)

// APIError wraps a sentinel with the context of the failed request.
// Message carries the upstream explanation of a non-2xx response.
type APIError struct {
	Sentinel  error
	Operation string
	Status    int
	Message   string
	Err       error
}

// Error renders status failures the way the page shows them:
// "HTTP error! status: 404, message: Not Found".
func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("HTTP error! status: %d, message: %s", e.Status, e.Message)
	}
	msg := fmt.Sprintf("%s: %v", e.Operation, e.Sentinel)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}

// StatusCode returns the upstream HTTP status, 0 for transport failures.
func (e *APIError) StatusCode() int {
	return e.Status
}

func newStatusError(operation string, status int, body []byte) *APIError {
	sentinel := ErrUpstreamError
	switch {
	case status == 404:
		sentinel = ErrNotFound
	case status == 400:
		sentinel = ErrInvalidTerm
	}
	return &APIError{
		Sentinel:  sentinel,
		Operation: operation,
		Status:    status,
		Message:   errorMessage(body),
	}
}

// errorMessage extracts a readable message from an error body: the JSON
// "message" field when present, the compact JSON document otherwise, and the
// raw text when the body is not JSON.
func errorMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)

	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return string(trimmed)
	}
	if obj, ok := decoded.(map[string]any); ok {
		if msg, ok := obj["message"].(string); ok && msg != "" {
			return msg
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

// Outcome classifies a lookup result for metrics and history.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrInvalidTerm):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

// countsAgainstBreaker reports whether err indicates an unhealthy upstream.
// Client errors such as 404 leave the breaker untouched.
func countsAgainstBreaker(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrUpstreamError) ||
		errors.Is(err, ErrTimeout)
}
