package credential

import (
	"math"
	"sync"
	"time"
)

// CooldownReason classifies why a credential was put on cooldown. Each
// reason carries its own base duration; auto-recoverable reasons
// escalate with repeated triggers, the rest take a long fixed cooldown.
type CooldownReason string

const (
	ReasonRateLimit        CooldownReason = "rate_limit"
	ReasonRefreshFailed    CooldownReason = "token_refresh_failed"
	ReasonServerError      CooldownReason = "server_error"
	ReasonModelUnavailable CooldownReason = "model_unavailable"
	ReasonAuthFailed       CooldownReason = "auth_failed"
	ReasonAccountSuspended CooldownReason = "account_suspended"
	ReasonQuotaExhausted   CooldownReason = "quota_exhausted"
)

func (r CooldownReason) baseDuration() time.Duration {
	switch r {
	case ReasonRateLimit, ReasonRefreshFailed:
		return 60 * time.Second
	case ReasonServerError:
		return 120 * time.Second
	case ReasonModelUnavailable:
		return 300 * time.Second
	case ReasonAuthFailed:
		return time.Hour
	case ReasonAccountSuspended, ReasonQuotaExhausted:
		return 24 * time.Hour
	default:
		return 60 * time.Second
	}
}

func (r CooldownReason) autoRecoverable() bool {
	switch r {
	case ReasonRateLimit, ReasonRefreshFailed, ReasonServerError, ReasonModelUnavailable:
		return true
	default:
		return false
	}
}

const (
	// maxShortCooldown caps escalated cooldowns for recoverable reasons.
	maxShortCooldown = 300 * time.Second
	// longCooldown applies to non-recoverable reasons.
	longCooldown = 24 * time.Hour
	// escalationFactor multiplies the base per consecutive trigger.
	escalationFactor = 1.5
)

type cooldownEntry struct {
	until        time.Time
	reason       CooldownReason
	triggerCount int
}

// CooldownTracker records per-credential cooldown windows. Safe for
// concurrent use.
type CooldownTracker struct {
	mu      sync.Mutex
	entries map[string]*cooldownEntry
	now     func() time.Time
}

// NewCooldownTracker returns an empty tracker.
func NewCooldownTracker() *CooldownTracker {
	return &CooldownTracker{
		entries: make(map[string]*cooldownEntry),
		now:     time.Now,
	}
}

// Trigger starts or escalates a cooldown and returns the applied
// duration. Consecutive triggers of a recoverable reason escalate
// base × 1.5^(n−1), capped at 300s; non-recoverable reasons always take
// the 24h cooldown. An explicit duration override (from a Retry-After
// hint) wins when positive.
func (t *CooldownTracker) Trigger(id string, reason CooldownReason, override time.Duration) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[id]
	if e == nil {
		e = &cooldownEntry{}
		t.entries[id] = e
	}
	if e.reason == reason {
		e.triggerCount++
	} else {
		e.reason = reason
		e.triggerCount = 1
	}

	var d time.Duration
	switch {
	case override > 0:
		d = override
	case reason.autoRecoverable():
		scaled := float64(reason.baseDuration()) * math.Pow(escalationFactor, float64(e.triggerCount-1))
		d = time.Duration(scaled)
		if d > maxShortCooldown {
			d = maxShortCooldown
		}
	default:
		d = longCooldown
	}

	e.until = t.now().Add(d)
	return d
}

// Remaining reports the time left on an active cooldown, or zero when
// none is in effect.
func (t *CooldownTracker) Remaining(id string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return 0
	}
	if rem := e.until.Sub(t.now()); rem > 0 {
		return rem
	}
	return 0
}

// Reason returns the active cooldown reason, if any.
func (t *CooldownTracker) Reason(id string) (CooldownReason, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok || !e.until.After(t.now()) {
		return "", false
	}
	return e.reason, true
}

// Clear removes any cooldown state for the credential, resetting its
// escalation counter.
func (t *CooldownTracker) Clear(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

// CleanupExpired drops entries whose window has passed, so escalation
// counters do not persist across well-spaced incidents. Returns the
// number removed.
func (t *CooldownTracker) CleanupExpired() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for id, e := range t.entries {
		if !e.until.After(t.now()) {
			delete(t.entries, id)
			n++
		}
	}
	return n
}
