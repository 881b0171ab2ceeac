// SPDX-License-Identifier: MIT

package middleware

import (
	"encoding/json"
	"net/http"

	applog "github.com/ManuGH/pokemon-app/internal/log"
)

// ErrorBody is the JSON shape of every error answered by the API.
type ErrorBody struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// WriteJSONError answers with an ErrorBody carrying the request id from r.
func WriteJSONError(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{
		Error:     code,
		Detail:    detail,
		RequestID: applog.RequestIDFromContext(r.Context()),
	})
}
