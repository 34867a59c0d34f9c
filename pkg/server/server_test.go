package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"portico-hq/portico/pkg/config"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()

	dir := t.TempDir()
	credsPath := filepath.Join(dir, "credentials.json")
	creds := `[{"id":"cred-a","refreshToken":"rt","accessToken":"at","expiresAt":"` +
		time.Now().Add(time.Hour).UTC().Format(time.RFC3339) + `"}]`
	if err := os.WriteFile(credsPath, []byte(creds), 0o600); err != nil {
		t.Fatalf("write credentials: %v", err)
	}

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Credentials.Path = credsPath
	if mutate != nil {
		mutate(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	srv, err := New(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func TestHandlerLiveness(t *testing.T) {
	srv := newTestServer(t, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("/health status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/ready", nil))
	if w.Code != http.StatusOK {
		t.Errorf("/ready status = %d, want 200; body %s", w.Code, w.Body.String())
	}
}

func TestHandlerRequestIDHeader(t *testing.T) {
	srv := newTestServer(t, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("response is missing X-Request-ID")
	}
}

func TestHandlerClientAuth(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.APIKeys = []string{"sk-client"}
	})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("POST", "/v1/messages", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", w.Code)
	}

	// Health stays public.
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("/health status = %d, want 200", w.Code)
	}
}

func TestHandlerAdminMountedWhenEnabled(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Admin.Enabled = true
		cfg.Admin.Token = "admin-secret"
	})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/admin/credentials", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/admin/credentials", nil)
	r.Header.Set("Authorization", "Bearer admin-secret")
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("with token: status = %d, want 200; body %s", w.Code, w.Body.String())
	}
}

func TestHandlerMetricsMountedWhenEnabled(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Telemetry.Metrics.Enabled = true
	})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Errorf("/metrics status = %d, want 200", w.Code)
	}
}

func TestNewRejectsMissingCredentialFile(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Credentials.Path = filepath.Join(t.TempDir(), "absent.json")

	if _, err := New(cfg, slog.New(slog.DiscardHandler)); err == nil {
		t.Fatal("New() expected error for missing credential file")
	}
}
