package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"portico-hq/portico/pkg/convert"
)

// APIKeyHeader is the header clients use to authenticate, matching the
// Messages API convention. Authorization: Bearer is accepted as well.
const APIKeyHeader = "x-api-key"

// AuthMiddleware rejects requests that do not carry one of the
// configured client API keys. An empty key list disables authentication.
//
// Example usage:
//
//	handler = AuthMiddleware([]string{"sk-portico-..."})(handler)
func AuthMiddleware(keys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := clientKey(r)
			if presented == "" || !keyAllowed(presented, keys) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				body := convert.NewErrorBody("authentication_error", "invalid or missing API key")
				_ = json.NewEncoder(w).Encode(body)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey extracts the presented key from x-api-key or a Bearer token.
func clientKey(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return token
	}
	return ""
}

func keyAllowed(presented string, keys []string) bool {
	for _, key := range keys {
		if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) == 1 {
			return true
		}
	}
	return false
}
