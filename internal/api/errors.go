// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/pokemon-app/internal/api/middleware"
	"github.com/ManuGH/pokemon-app/internal/pokeapi"
	"github.com/ManuGH/pokemon-app/internal/resilience"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// lookupStatus maps a lookup failure to an HTTP status and error code.
func lookupStatus(err error) (int, string) {
	switch {
	case errors.Is(err, pokeapi.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, pokeapi.ErrInvalidTerm):
		return http.StatusBadRequest, "invalid_term"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return http.StatusServiceUnavailable, "upstream_unavailable"
	default:
		return http.StatusBadGateway, "upstream_error"
	}
}

// writeLookupError answers a failed lookup on a JSON route.
func writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := lookupStatus(err)
	middleware.WriteJSONError(w, r, status, code, err.Error())
}
