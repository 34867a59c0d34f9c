package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"portico-hq/portico/pkg/convert"
)

// RecoveryMiddleware recovers from panics in downstream handlers and
// converts them into a Messages-schema 500 response. The stack trace is
// logged with the request ID for correlation.
//
// Example usage:
//
//	handler = RecoveryMiddleware(handler)
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(r.Context(), "panic recovered",
					"panic", rec,
					"request_id", GetRequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				// Headers may already be written if the handler was
				// mid-stream; ignore the secondary write error.
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				body := convert.NewErrorBody("api_error", "an internal error occurred")
				_ = json.NewEncoder(w).Encode(body)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
