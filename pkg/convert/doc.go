// Package convert implements the bidirectional mapping between the
// Anthropic Messages schema spoken by clients and the backend's
// conversation schema.
//
// The forward direction (BuildBackendRequest) translates the system
// prompt, message history, tool definitions and limits into the backend's
// conversation-state shape, removing server-side tools the backend does
// not accept and applying the configured tool-definition compression
// mode. The backward direction maps decoded backend events into
// Anthropic content blocks, stop reasons and usage accounting; the
// stream-ordering state machine itself lives in package assemble.
//
// All mapping functions are stateless and pure given their inputs and
// the active compression mode, so they are safe to call from any number
// of concurrent request pipelines.
package convert
