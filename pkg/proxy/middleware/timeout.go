package middleware

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware bounds each request's context with the given
// deadline. Handlers observe expiry through ctx.Done(); streaming
// responses that outlive the deadline are cut off at the next write.
//
// A non-positive timeout disables the middleware.
//
// Example usage:
//
//	handler = TimeoutMiddleware(5*time.Minute)(handler)
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
