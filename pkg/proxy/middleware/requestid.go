package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

// RequestIDHeader carries the request's correlation ID in both
// directions: a client-supplied value is honored, otherwise one is
// generated.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware attaches a request ID to the context and echoes
// it in the response header. Every log line and usage record for the
// request carries this ID.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = generateRequestID()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// generateRequestID returns 16 random bytes hex-encoded.
func generateRequestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform is broken; a fixed
		// marker keeps the request serviceable.
		return "fallback-request-id"
	}
	return hex.EncodeToString(b)
}

// GetRequestID extracts the request ID from the context, empty when
// the middleware did not run.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
