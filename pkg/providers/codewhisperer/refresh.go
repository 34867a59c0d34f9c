package codewhisperer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"portico-hq/portico/pkg/credential"
)

// DefaultRefreshURL is the desktop auth service's refresh endpoint.
const DefaultRefreshURL = "https://prod.us-east-1.auth.desktop.kiro.dev/refreshToken"

// RefreshConfig configures the token refresh function.
type RefreshConfig struct {
	// URL is the refresh endpoint; defaults to DefaultRefreshURL
	URL string

	// Timeout bounds one refresh call; defaults to 30s
	Timeout time.Duration
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	// ExpiresIn is the token lifetime in seconds
	ExpiresIn int64 `json:"expiresIn"`
	// ExpiresAt, when present, is an absolute RFC 3339 expiry and
	// takes precedence over ExpiresIn
	ExpiresAt string `json:"expiresAt"`
}

// NewRefreshFunc returns a credential.RefreshFunc that exchanges the
// credential's refresh token for a fresh access token at the desktop
// auth service.
func NewRefreshFunc(cfg RefreshConfig, logger *slog.Logger) credential.RefreshFunc {
	if cfg.URL == "" {
		cfg.URL = DefaultRefreshURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := &http.Client{Timeout: cfg.Timeout}

	return func(ctx context.Context, c credential.Credential) (*credential.TokenSet, error) {
		body, err := json.Marshal(refreshRequest{RefreshToken: c.RefreshToken})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentTypeJSON)
		req.Header.Set("Accept", contentTypeJSON)

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("refresh request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err != nil {
			return nil, fmt.Errorf("refresh response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("refresh rejected (status %d): %s", resp.StatusCode, respBody)
		}

		var parsed refreshResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, fmt.Errorf("refresh response: %w", err)
		}
		if parsed.AccessToken == "" {
			return nil, fmt.Errorf("refresh response missing access token")
		}

		expiry := tokenExpiry(parsed, time.Now())
		refreshToken := parsed.RefreshToken
		if refreshToken == "" {
			refreshToken = c.RefreshToken
		}

		logger.Debug("token refreshed", "credential", c.ID, "expires_at", expiry)
		return &credential.TokenSet{
			AccessToken:  parsed.AccessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    expiry,
		}, nil
	}
}

func tokenExpiry(r refreshResponse, now time.Time) time.Time {
	if r.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, r.ExpiresAt); err == nil {
			return t
		}
	}
	if r.ExpiresIn > 0 {
		return now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return time.Time{}
}
