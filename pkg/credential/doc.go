// Package credential manages the pool of backend credentials: selection
// by priority, health bookkeeping, cooldowns, and access-token refresh.
//
// # Architecture
//
// The Store is the only state shared across concurrent requests. It
// exposes narrow atomic operations so the critical section covers
// selection and bookkeeping decisions only; refresh network I/O never
// runs under its lock. The Manager composes the Store with a cooldown
// tracker and a single-flight refresh group: concurrent requests that
// need the same credential's refresh share one upstream call and all
// observe its outcome.
//
// Supporting pieces: a file Loader accepting single-credential and array
// forms, an fsnotify Watcher for hot reload, a cron-driven background
// Refresher that renews tokens ahead of expiry, and a deterministic
// device Fingerprint derived from each credential so outbound requests
// present a stable client identity.
package credential
