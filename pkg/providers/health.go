package providers

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Health is a snapshot of the backend's observed health.
type Health struct {
	// Healthy reports whether the endpoint is considered usable
	Healthy bool

	// ConsecutiveFailures counts failed checks since the last success
	ConsecutiveFailures int

	// LastCheck is when the health was last evaluated
	LastCheck time.Time

	// LastError is the most recent failure (nil when healthy)
	LastError error
}

// HealthTracker is a consecutive-failure circuit breaker for one
// backend endpoint. It is updated both by the periodic checker and by
// request outcomes, so a run of failed requests opens the breaker
// without waiting for the next scheduled check.
type HealthTracker struct {
	mu        sync.RWMutex
	health    Health
	threshold int
}

// NewHealthTracker creates a tracker that marks the endpoint unhealthy
// after threshold consecutive failures. A non-positive threshold
// defaults to 3.
func NewHealthTracker(threshold int) *HealthTracker {
	if threshold <= 0 {
		threshold = 3
	}
	return &HealthTracker{
		health:    Health{Healthy: true, LastCheck: time.Now()},
		threshold: threshold,
	}
}

// Healthy reports whether the breaker is closed.
func (t *HealthTracker) Healthy() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.health.Healthy
}

// Snapshot returns the current health state.
func (t *HealthTracker) Snapshot() Health {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.health
}

// RecordSuccess closes the breaker and resets the failure count.
func (t *HealthTracker) RecordSuccess() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.health = Health{Healthy: true, LastCheck: time.Now()}
}

// RecordFailure counts a failure and opens the breaker once the
// threshold is reached.
func (t *HealthTracker) RecordFailure(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.health.ConsecutiveFailures++
	t.health.LastCheck = time.Now()
	t.health.LastError = err
	if t.health.ConsecutiveFailures >= t.threshold {
		t.health.Healthy = false
	}
}

// StartHealthChecker runs periodic health checks against the provider
// until the context is cancelled. When the endpoint is unhealthy the
// check interval backs off exponentially to reduce load.
func StartHealthChecker(ctx context.Context, p Provider, tracker *HealthTracker, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	go runHealthChecker(ctx, p, tracker, interval, logger)
}

func runHealthChecker(ctx context.Context, p Provider, tracker *HealthTracker, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("health checker started", "provider", p.Name(), "interval", interval)

	for {
		select {
		case <-ctx.Done():
			logger.Debug("health checker stopped", "provider", p.Name())
			return

		case <-ticker.C:
			performHealthCheck(ctx, p, tracker, logger)

			if snap := tracker.Snapshot(); !snap.Healthy {
				next := checkBackoff(snap.ConsecutiveFailures, interval)
				ticker.Reset(next)
				logger.Debug("health check backoff",
					"provider", p.Name(),
					"consecutive_failures", snap.ConsecutiveFailures,
					"next_check_in", next,
				)
			} else {
				ticker.Reset(interval)
			}
		}
	}
}

func performHealthCheck(ctx context.Context, p Provider, tracker *HealthTracker, logger *slog.Logger) {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	err := p.HealthCheck(checkCtx)
	latency := time.Since(start)

	if err != nil {
		tracker.RecordFailure(err)
		logger.Error("health check failed",
			"provider", p.Name(),
			"error", err,
			"latency", latency,
		)
		return
	}

	recovered := tracker.Snapshot().ConsecutiveFailures > 0
	tracker.RecordSuccess()
	if recovered {
		logger.Info("backend recovered", "provider", p.Name())
	} else {
		logger.Debug("health check passed", "provider", p.Name(), "latency", latency)
	}
}

// checkBackoff widens the check interval while the endpoint stays
// unhealthy, capped at 10x the base interval and 5 minutes.
func checkBackoff(consecutiveFailures int, base time.Duration) time.Duration {
	if consecutiveFailures <= 0 {
		return base
	}
	multiplier := 1 << uint(consecutiveFailures)
	if multiplier > 10 {
		multiplier = 10
	}
	backoff := base * time.Duration(multiplier)
	if backoff > 5*time.Minute {
		backoff = 5 * time.Minute
	}
	return backoff
}
