// Package providers implements the outbound delivery layer for backend
// requests.
//
// # Overview
//
// The package defines the Provider contract for one backend service,
// a typed error taxonomy that classifies every failure mode the
// backend can produce, and an Orchestrator that drives requests
// through a provider with retry, exponential backoff, and credential
// failover.
//
// # Error taxonomy
//
// Providers report failures as one of four typed errors:
//
//  1. AuthError - the backend rejected the bearer token (401/403)
//  2. RateLimitError - the backend throttled the credential (429)
//  3. TransientError - timeouts, 5xx responses, dropped connections
//  4. NonRetryableError - permanent rejections such as validation failures
//
// The orchestrator maps each class to a recovery strategy: transient
// failures retry on the same credential with backoff, auth failures
// get one token refresh before failover, rate limits fail over
// immediately, and permanent rejections surface to the caller.
//
// # Failover
//
// When every credential is spent the caller receives an
// ExhaustedError listing each attempt with its terminal cause. The
// total attempt count is bounded by RetryConfig.MaxAttempts
// regardless of pool size.
//
// # Health
//
// HealthTracker is a consecutive-failure circuit breaker, fed both by
// request outcomes and by a periodic background checker that backs
// off while the endpoint stays down.
package providers
