package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"portico-hq/portico/pkg/credential"
	"portico-hq/portico/pkg/providers"
)

// HealthHandler handles health check requests for liveness probes.
type HealthHandler struct{}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// ServeHTTP implements http.Handler for liveness checks.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// EndpointReporter exposes the backend endpoints' breaker state. The
// codewhisperer client implements it.
type EndpointReporter interface {
	Endpoints() map[string]providers.Health
}

// ReadyHandler handles readiness check requests. The service is ready
// when at least one credential is eligible to serve traffic.
type ReadyHandler struct {
	creds     *credential.Manager
	endpoints EndpointReporter
	backend   *providers.HealthTracker
}

// NewReadyHandler creates a new readiness check handler. The endpoint
// reporter and the backend tracker (fed by the periodic prober) are
// both optional.
func NewReadyHandler(creds *credential.Manager, endpoints EndpointReporter, backend *providers.HealthTracker) *ReadyHandler {
	return &ReadyHandler{creds: creds, endpoints: endpoints, backend: backend}
}

// ServeHTTP implements http.Handler for readiness checks.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eligible := 0
	total := 0
	for _, c := range h.creds.Store().List() {
		total++
		if c.Disabled {
			continue
		}
		if h.creds.Cooldowns().Remaining(c.ID) > 0 {
			continue
		}
		eligible++
	}

	status := "ready"
	statusCode := http.StatusOK
	if eligible == 0 {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status": status,
		"credentials": map[string]interface{}{
			"eligible": eligible,
			"total":    total,
		},
		"timestamp": time.Now().Unix(),
	}

	if h.endpoints != nil {
		endpoints := make(map[string]interface{})
		for name, health := range h.endpoints.Endpoints() {
			var lastError interface{}
			if health.LastError != nil {
				lastError = health.LastError.Error()
			}
			endpoints[name] = map[string]interface{}{
				"healthy":    health.Healthy,
				"last_check": health.LastCheck.Unix(),
				"last_error": lastError,
			}
		}
		response["endpoints"] = endpoints
	}

	if h.backend != nil {
		snap := h.backend.Snapshot()
		var lastError interface{}
		if snap.LastError != nil {
			lastError = snap.LastError.Error()
		}
		response["backend"] = map[string]interface{}{
			"healthy":              snap.Healthy,
			"consecutive_failures": snap.ConsecutiveFailures,
			"last_check":           snap.LastCheck.Unix(),
			"last_error":           lastError,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}
