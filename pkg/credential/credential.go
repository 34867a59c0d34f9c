package credential

import (
	"strings"
	"time"
)

// Credential is one set of backend auth tokens plus health and priority
// metadata. Instances handed out by the Store are snapshots; all
// mutation goes through Store operations.
type Credential struct {
	// ID is unique within the store.
	ID string
	// Priority orders selection; lower is preferred. Ties break by
	// insertion order.
	Priority int

	RefreshToken string
	AccessToken  string
	// ExpiresAt is the access token expiry. Zero means unknown; the JWT
	// exp claim is consulted instead when present.
	ExpiresAt time.Time

	// ProfileARN routes requests to a billing profile; optional.
	ProfileARN string

	// Disabled credentials are never selected. Set by failure handling
	// or through the admin surface.
	Disabled bool

	// ConsecutiveFailures counts transient failures since the last
	// success.
	ConsecutiveFailures int

	insertSeq int
}

// TokenExpired reports whether the access token is expired or will be
// within the margin.
func (c *Credential) TokenExpired(margin time.Duration) bool {
	exp := c.ExpiresAt
	if exp.IsZero() {
		exp = jwtExpiry(c.AccessToken)
	}
	if exp.IsZero() {
		// No expiry known from any source; treat the token as usable
		// and let the backend's 403 trigger a refresh.
		return c.AccessToken == ""
	}
	return time.Now().Add(margin).After(exp)
}

// MaskedAccessToken returns a redacted token for status surfaces.
func (c *Credential) MaskedAccessToken() string {
	return maskToken(c.AccessToken)
}

func maskToken(tok string) string {
	if len(tok) <= 10 {
		return strings.Repeat("*", len(tok))
	}
	return tok[:6] + "..." + tok[len(tok)-4:]
}
