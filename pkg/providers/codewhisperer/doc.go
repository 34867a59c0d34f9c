// Package codewhisperer implements the providers.Provider contract
// for the CodeWhisperer streaming backend.
//
// The client serializes conversation-state requests as JSON, attaches
// the bearer token and fingerprinted SDK headers, and selects between
// the regional endpoint profiles (Amazon Q primary, CodeWhisperer
// fallback), each guarded by its own circuit breaker. Responses arrive
// as vnd.amazon.eventstream bodies, which the caller hands to
// pkg/eventstream for decoding.
//
// The package also provides the token refresh function wired into the
// credential manager.
package codewhisperer
