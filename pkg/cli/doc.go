// Package cli provides shared helpers for the portico command line
// interface: signal-aware contexts for graceful shutdown, typed errors
// for configuration and command failures, and output formatters for
// rendering command results as text or JSON.
package cli
