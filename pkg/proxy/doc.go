// Package proxy implements the HTTP entry layer for the Messages API.
//
// # Overview
//
// The proxy package parses inbound Anthropic Messages requests, maps
// pipeline failures to the Messages error envelope with the right HTTP
// status, and writes responses both as plain JSON and as Server-Sent
// Events for streaming.
//
// The request pipeline itself lives elsewhere: pkg/convert builds the
// backend request, pkg/providers delivers it, pkg/eventstream decodes
// the response frames, and pkg/assemble turns them back into Messages
// stream events. The handlers in proxy/handlers glue those stages
// together per request; proxy/middleware supplies request IDs,
// recovery, logging, timeouts, CORS, and client authentication.
package proxy
