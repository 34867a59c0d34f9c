package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portico-hq/portico/pkg/credential"
	"portico-hq/portico/pkg/providers"
)

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestReadyHandler(t *testing.T) {
	store := credential.NewStore()
	if err := store.Add(&credential.Credential{
		ID:          "cred-a",
		AccessToken: "tok",
		ExpiresAt:   time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	mgr := credential.NewManager(store, nil, credential.ManagerConfig{}, slog.New(slog.DiscardHandler))
	h := NewReadyHandler(mgr, nil, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}

	// Disable the only credential and the service stops being ready.
	store.Update("cred-a", func(c *credential.Credential) { c.Disabled = true })

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503; body %s", w.Code, w.Body.String())
	}
}

func TestReadyHandlerReportsBackendHealth(t *testing.T) {
	store := credential.NewStore()
	if err := store.Add(&credential.Credential{
		ID:          "cred-a",
		AccessToken: "tok",
		ExpiresAt:   time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	mgr := credential.NewManager(store, nil, credential.ManagerConfig{}, slog.New(slog.DiscardHandler))

	tracker := providers.NewHealthTracker(2)
	tracker.RecordFailure(errors.New("connection refused"))
	tracker.RecordFailure(errors.New("connection refused"))

	h := NewReadyHandler(mgr, nil, tracker)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/readyz", nil))

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	backend, ok := body["backend"].(map[string]any)
	if !ok {
		t.Fatalf("no backend section in %s", w.Body.String())
	}
	if backend["healthy"] != false {
		t.Errorf("backend healthy = %v, want false", backend["healthy"])
	}
	if backend["consecutive_failures"] != float64(2) {
		t.Errorf("consecutive_failures = %v, want 2", backend["consecutive_failures"])
	}
	if backend["last_error"] != "connection refused" {
		t.Errorf("last_error = %v", backend["last_error"])
	}
}
