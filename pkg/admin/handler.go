package admin

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"portico-hq/portico/pkg/convert"
	"portico-hq/portico/pkg/credential"
	"portico-hq/portico/pkg/usage"
)

// defaultUsageWindow bounds the usage summary when no window is given.
const defaultUsageWindow = 24 * time.Hour

// Handler serves the admin API.
type Handler struct {
	creds    *credential.Manager
	settings *Settings
	usage    *usage.Store
	token    string
	logger   *slog.Logger
	mux      *http.ServeMux
}

// New builds the admin handler. The usage store is optional; with a nil
// store the usage route reports 404. An empty token disables the whole
// surface: every request is rejected.
func New(creds *credential.Manager, settings *Settings, store *usage.Store, token string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		creds:    creds,
		settings: settings,
		usage:    store,
		token:    token,
		logger:   logger.With("component", "admin"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/credentials", h.listCredentials)
	mux.HandleFunc("POST /api/admin/credentials/{id}/disabled", h.setDisabled)
	mux.HandleFunc("POST /api/admin/credentials/{id}/priority", h.setPriority)
	mux.HandleFunc("POST /api/admin/credentials/{id}/reset", h.resetCredential)
	mux.HandleFunc("GET /api/admin/config/tool-compression", h.getCompression)
	mux.HandleFunc("PUT /api/admin/config/tool-compression", h.setCompression)
	mux.HandleFunc("GET /api/admin/usage", h.usageSummary)
	h.mux = mux
	return h
}

// ServeHTTP implements http.Handler, gating every route on the token.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.token == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	presented, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(h.token)) == 1
}

// credentialStatus is one pool entry as reported to operators. Tokens
// are masked.
type credentialStatus struct {
	ID                  string `json:"id"`
	Priority            int    `json:"priority"`
	AccessToken         string `json:"access_token"`
	ExpiresAt           string `json:"expires_at,omitempty"`
	ProfileARN          string `json:"profile_arn,omitempty"`
	Disabled            bool   `json:"disabled"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	CooldownRemaining   string `json:"cooldown_remaining,omitempty"`
	CooldownReason      string `json:"cooldown_reason,omitempty"`
}

func (h *Handler) listCredentials(w http.ResponseWriter, r *http.Request) {
	creds := h.creds.Store().List()
	statuses := make([]credentialStatus, 0, len(creds))
	for _, c := range creds {
		st := credentialStatus{
			ID:                  c.ID,
			Priority:            c.Priority,
			AccessToken:         c.MaskedAccessToken(),
			ProfileARN:          c.ProfileARN,
			Disabled:            c.Disabled,
			ConsecutiveFailures: c.ConsecutiveFailures,
		}
		if !c.ExpiresAt.IsZero() {
			st.ExpiresAt = c.ExpiresAt.UTC().Format(time.RFC3339)
		}
		if rem := h.creds.Cooldowns().Remaining(c.ID); rem > 0 {
			st.CooldownRemaining = rem.Round(time.Second).String()
			if reason, ok := h.creds.Cooldowns().Reason(c.ID); ok {
				st.CooldownReason = string(reason)
			}
		}
		statuses = append(statuses, st)
	}
	writeJSON(w, http.StatusOK, map[string]any{"credentials": statuses})
}

func (h *Handler) setDisabled(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var body struct {
		Disabled bool `json:"disabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if !h.creds.Store().Update(id, func(c *credential.Credential) { c.Disabled = body.Disabled }) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown credential"})
		return
	}
	h.logger.Info("credential disabled flag changed", "credential", id, "disabled", body.Disabled)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "disabled": body.Disabled})
}

func (h *Handler) setPriority(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var body struct {
		Priority *int `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Priority == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "priority is required"})
		return
	}
	if !h.creds.Store().Update(id, func(c *credential.Credential) { c.Priority = *body.Priority }) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown credential"})
		return
	}
	h.logger.Info("credential priority changed", "credential", id, "priority", *body.Priority)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "priority": *body.Priority})
}

func (h *Handler) resetCredential(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.creds.ResetHealth(id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown credential"})
		return
	}
	h.logger.Info("credential health reset", "credential", id)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "reset": true})
}

func (h *Handler) getCompression(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"mode": string(h.settings.CompressionMode())})
}

func (h *Handler) setCompression(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	mode, err := convert.ParseMode(body.Mode)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	h.settings.SetCompressionMode(mode)
	h.logger.Info("tool compression mode changed", "mode", string(mode))
	writeJSON(w, http.StatusOK, map[string]string{"mode": string(mode)})
}

func (h *Handler) usageSummary(w http.ResponseWriter, r *http.Request) {
	if h.usage == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "usage accounting is disabled"})
		return
	}
	window := defaultUsageWindow
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "window must be a positive duration"})
			return
		}
		window = d
	}
	summaries, err := h.usage.Summarize(r.Context(), time.Now().Add(-window))
	if err != nil {
		h.logger.Error("usage summary failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "summary query failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"window":  window.String(),
		"summary": summaries,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
