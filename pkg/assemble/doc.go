// Package assemble turns the backend's decoded event sequence into the
// ordered Anthropic Messages streaming contract.
//
// An Assembler is stateful per request. It guarantees the envelope
// invariants the streaming contract requires: exactly one message_start
// first, every content_block_start before its deltas, every opened block
// closed before the next opens, and exactly one terminal event
// (message_stop or error) last — regardless of how the backend stream
// behaves or fails. Tool-call argument fragments are buffered until the
// argument JSON is structurally complete; anything still buffered at
// stream end is flushed and checked for truncation.
//
// The same Assembler drives non-streaming responses: feed every event,
// call Finish, then read the accumulated Response.
package assemble
