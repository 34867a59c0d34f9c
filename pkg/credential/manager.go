package credential

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// FailureKind classifies an outcome reported against a credential.
type FailureKind int

const (
	// FailureAuth disables the credential: its tokens are invalid.
	FailureAuth FailureKind = iota
	// FailureRateLimited puts the credential on a time-boxed cooldown.
	FailureRateLimited
	// FailureTransient increments the consecutive-failure counter and
	// disables the credential once it reaches the threshold.
	FailureTransient
)

// TokenSet is the result of one successful refresh.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// RefreshFunc performs the upstream token refresh for one credential.
// It is called outside any store lock and must honor the context.
type RefreshFunc func(ctx context.Context, c Credential) (*TokenSet, error)

// ManagerConfig tunes selection and refresh behavior.
type ManagerConfig struct {
	// RefreshMargin refreshes tokens this long before expiry.
	RefreshMargin time.Duration
	// TransientThreshold is the consecutive transient-failure count at
	// which the credential is disabled.
	TransientThreshold int
}

func (c *ManagerConfig) applyDefaults() {
	if c.RefreshMargin <= 0 {
		c.RefreshMargin = 5 * time.Minute
	}
	if c.TransientThreshold <= 0 {
		c.TransientThreshold = 3
	}
}

// Manager selects credentials, coordinates refreshes, and records
// health outcomes. Safe for concurrent use.
type Manager struct {
	store     *Store
	cooldowns *CooldownTracker
	refresh   RefreshFunc
	group     singleflight.Group
	logger    *slog.Logger
	cfg       ManagerConfig
}

// NewManager builds a Manager over the store. refresh may be nil for
// pools whose tokens are managed externally; expired credentials are
// then skipped instead of refreshed.
func NewManager(store *Store, refresh RefreshFunc, cfg ManagerConfig, logger *slog.Logger) *Manager {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:     store,
		cooldowns: NewCooldownTracker(),
		refresh:   refresh,
		logger:    logger.With("component", "credential"),
		cfg:       cfg,
	}
}

// Store exposes the underlying registry for the admin surface.
func (m *Manager) Store() *Store { return m.store }

// Cooldowns exposes the tracker for status reporting.
func (m *Manager) Cooldowns() *CooldownTracker { return m.cooldowns }

// Acquire returns the highest-priority eligible credential. A
// credential whose token is expired (or inside the refresh margin) is
// refreshed synchronously before being handed out; if that refresh
// fails the credential is disabled and the next candidate is tried.
func (m *Manager) Acquire(ctx context.Context) (Credential, error) {
	reasons := make(map[string]string)
	for _, c := range m.store.List() {
		if err := ctx.Err(); err != nil {
			return Credential{}, err
		}
		if c.Disabled {
			reasons[c.ID] = "disabled"
			continue
		}
		if rem := m.cooldowns.Remaining(c.ID); rem > 0 {
			reason, _ := m.cooldowns.Reason(c.ID)
			reasons[c.ID] = fmt.Sprintf("cooling down for %s (%s)", rem.Round(time.Second), reason)
			continue
		}
		if c.TokenExpired(m.cfg.RefreshMargin) {
			if m.refresh == nil {
				reasons[c.ID] = "token expired"
				continue
			}
			if err := m.Refresh(ctx, c.ID); err != nil {
				if ctx.Err() != nil {
					return Credential{}, ctx.Err()
				}
				reasons[c.ID] = fmt.Sprintf("refresh failed: %v", err)
				continue
			}
			refreshed, ok := m.store.Get(c.ID)
			if !ok {
				reasons[c.ID] = "removed during refresh"
				continue
			}
			c = refreshed
		}
		return c, nil
	}
	return Credential{}, &NoEligibleError{Reasons: reasons}
}

// Refresh renews the credential's access token. Concurrent calls for
// the same id share a single upstream request; every caller observes
// that request's outcome. A failed refresh disables the credential and
// records a refresh-failed cooldown.
func (m *Manager) Refresh(ctx context.Context, id string) error {
	if m.refresh == nil {
		return fmt.Errorf("no refresh function configured")
	}
	_, err, _ := m.group.Do(id, func() (any, error) {
		c, ok := m.store.Get(id)
		if !ok {
			return nil, fmt.Errorf("credential %q not found", id)
		}
		// Another caller may have finished a refresh while this one
		// waited on the flight group.
		if !c.TokenExpired(m.cfg.RefreshMargin) {
			return nil, nil
		}

		tokens, err := m.refresh(ctx, c)
		if err != nil {
			// A cancelled refresh says nothing about credential health.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			m.store.Update(id, func(c *Credential) { c.Disabled = true })
			m.cooldowns.Trigger(id, ReasonRefreshFailed, 0)
			m.logger.Warn("token refresh failed, credential disabled", "id", id, "error", err)
			return nil, &RefreshError{ID: id, Err: err}
		}

		m.store.Update(id, func(c *Credential) {
			c.AccessToken = tokens.AccessToken
			if tokens.RefreshToken != "" {
				c.RefreshToken = tokens.RefreshToken
			}
			c.ExpiresAt = tokens.ExpiresAt
		})
		m.logger.Info("token refreshed", "id", id, "expires_at", tokens.ExpiresAt)
		return nil, nil
	})
	return err
}

// ReportFailure records a classified failure against a credential.
// retryAfter, when positive, overrides the rate-limit cooldown duration
// (typically from a Retry-After header).
func (m *Manager) ReportFailure(id string, kind FailureKind, retryAfter time.Duration) {
	switch kind {
	case FailureAuth:
		m.store.Update(id, func(c *Credential) { c.Disabled = true })
		m.logger.Warn("credential disabled after auth failure", "id", id)
	case FailureRateLimited:
		d := m.cooldowns.Trigger(id, ReasonRateLimit, retryAfter)
		m.logger.Info("credential rate limited", "id", id, "cooldown", d)
	case FailureTransient:
		var failures int
		var disabled bool
		m.store.Update(id, func(c *Credential) {
			c.ConsecutiveFailures++
			failures = c.ConsecutiveFailures
			if failures >= m.cfg.TransientThreshold {
				c.Disabled = true
				disabled = true
			}
		})
		if disabled {
			m.logger.Warn("credential disabled after repeated transient failures",
				"id", id, "failures", failures)
		}
	}
}

// ReportSuccess resets the consecutive-failure counter. An elapsed
// cooldown is cleared so its escalation counter starts fresh.
func (m *Manager) ReportSuccess(id string) {
	m.store.Update(id, func(c *Credential) { c.ConsecutiveFailures = 0 })
	if m.cooldowns.Remaining(id) == 0 {
		m.cooldowns.Clear(id)
	}
}

// ResetHealth clears all runtime health state for a credential: the
// admin surface's recovery lever.
func (m *Manager) ResetHealth(id string) bool {
	m.cooldowns.Clear(id)
	return m.store.Update(id, func(c *Credential) {
		c.ConsecutiveFailures = 0
		c.Disabled = false
	})
}
