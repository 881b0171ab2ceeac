// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"net/http"
	"runtime"
	"strings"
	"unicode/utf8"

	applog "github.com/ManuGH/pokemon-app/internal/log"
)

// Recoverer ensures that panics inside any downstream handler
// do not crash the process. It logs the panic with context and returns a 500 JSON.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			buf := make([]byte, 8192)
			n := runtime.Stack(buf, false)

			pathLabel := r.URL.Path
			if !utf8.ValidString(pathLabel) {
				pathLabel = strings.ToValidUTF8(pathLabel, "")
			}

			logger := applog.WithComponentFromContext(r.Context(), "panic-recovery")
			logger.Error().
				Str(applog.FieldEvent, "panic.recovered").
				Str(applog.FieldMethod, r.Method).
				Str(applog.FieldPath, pathLabel).
				Str(applog.FieldRemoteAddr, r.RemoteAddr).
				Interface("panic_value", rec).
				Str("stack_trace", string(buf[:n])).
				Msg("panic recovered in HTTP handler")

			WriteJSONError(w, r, http.StatusInternalServerError, "internal_error",
				"An unexpected error occurred. Please try again later.")
		}()

		next.ServeHTTP(w, r)
	})
}
