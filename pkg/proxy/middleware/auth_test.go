package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("no keys disables auth", func(t *testing.T) {
		wrapped := AuthMiddleware(nil)(ok)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, httptest.NewRequest("POST", "/v1/messages", nil))
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("accepts x-api-key", func(t *testing.T) {
		wrapped := AuthMiddleware([]string{"sk-test"})(ok)
		r := httptest.NewRequest("POST", "/v1/messages", nil)
		r.Header.Set("x-api-key", "sk-test")
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("accepts bearer token", func(t *testing.T) {
		wrapped := AuthMiddleware([]string{"sk-test"})(ok)
		r := httptest.NewRequest("POST", "/v1/messages", nil)
		r.Header.Set("Authorization", "Bearer sk-test")
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("rejects wrong key", func(t *testing.T) {
		wrapped := AuthMiddleware([]string{"sk-test"})(ok)
		r := httptest.NewRequest("POST", "/v1/messages", nil)
		r.Header.Set("x-api-key", "sk-wrong")
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("rejects missing key", func(t *testing.T) {
		wrapped := AuthMiddleware([]string{"sk-test"})(ok)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, httptest.NewRequest("POST", "/v1/messages", nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})
}

func TestTimeoutMiddleware(t *testing.T) {
	t.Run("sets a deadline", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); !ok {
				t.Error("context has no deadline")
			}
			w.WriteHeader(http.StatusOK)
		})
		wrapped := TimeoutMiddleware(time.Minute)(handler)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("zero timeout is a no-op", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				t.Error("context unexpectedly has a deadline")
			}
			w.WriteHeader(http.StatusOK)
		})
		wrapped := TimeoutMiddleware(0)(handler)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}
