// Package usage persists per-request accounting records.
//
// Every completed request writes one row: which credential served it,
// the model, token counts, stop reason, attempt count, and latency.
// The raw metering events the backend emits are stored alongside as
// JSON for billing reconciliation.
//
// Storage is a single SQLite database (modernc.org/sqlite, cgo-free).
// A cron-scheduled pruner bounds retention.
package usage
