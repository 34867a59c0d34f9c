package credential

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// fileEntry tolerates both camelCase and snake_case field names, since
// credential files come from several exporters.
type fileEntry struct {
	ID                string `json:"id"`
	Priority          *int   `json:"priority"`
	AccessToken       string `json:"accessToken"`
	AccessTokenSnake  string `json:"access_token"`
	RefreshToken      string `json:"refreshToken"`
	RefreshTokenSnake string `json:"refresh_token"`
	ExpiresAt         string `json:"expiresAt"`
	ExpiresAtSnake    string `json:"expires_at"`
	ProfileARN        string `json:"profileArn"`
	ProfileARNSnake   string `json:"profile_arn"`
	Disabled          bool   `json:"disabled"`
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// LoadFile reads a credential file holding either a single JSON object
// or an array of them. Entries without an id get a positional one.
func LoadFile(path string) ([]*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file %q: %w", path, err)
	}
	return parseCredentials(data, path)
}

func parseCredentials(data []byte, source string) ([]*Credential, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("credential file %q is empty", source)
	}

	var entries []fileEntry
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse credential file %q: %w", source, err)
		}
	} else {
		var single fileEntry
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, fmt.Errorf("failed to parse credential file %q: %w", source, err)
		}
		entries = []fileEntry{single}
	}

	creds := make([]*Credential, 0, len(entries))
	seen := make(map[string]bool)
	for i, e := range entries {
		refreshToken := firstOf(e.RefreshToken, e.RefreshTokenSnake)
		if refreshToken == "" {
			return nil, fmt.Errorf("credential %d in %q has no refresh token", i, source)
		}

		id := e.ID
		if id == "" {
			id = fmt.Sprintf("credential-%d", i+1)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate credential id %q in %q", id, source)
		}
		seen[id] = true

		c := &Credential{
			ID:           id,
			RefreshToken: refreshToken,
			AccessToken:  firstOf(e.AccessToken, e.AccessTokenSnake),
			ProfileARN:   firstOf(e.ProfileARN, e.ProfileARNSnake),
			Disabled:     e.Disabled,
		}
		if e.Priority != nil {
			c.Priority = *e.Priority
		} else {
			c.Priority = i
		}
		if raw := firstOf(e.ExpiresAt, e.ExpiresAtSnake); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return nil, fmt.Errorf("credential %q in %q has invalid expiry %q: %w", id, source, raw, err)
			}
			c.ExpiresAt = t
		}
		creds = append(creds, c)
	}
	return creds, nil
}
