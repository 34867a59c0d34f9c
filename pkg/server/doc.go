// Package server assembles Portico's components and owns the HTTP
// listener lifecycle.
//
// New builds the component graph from a validated configuration: the
// credential pool (with optional file watching and scheduled token
// renewal), the backend client, the delivery orchestrator, runtime
// settings, and the optional usage store and metrics collector. Start
// runs the listener and background loops until the context is
// cancelled, a SIGINT/SIGTERM arrives, or the listener fails; Shutdown
// then drains in-flight requests within the configured timeout and
// stops every background component.
//
// The route table:
//
//	POST /v1/messages   the proxy endpoint (client-key protected when configured)
//	GET  /health        liveness
//	GET  /ready         readiness: at least one eligible credential
//	GET  /metrics       Prometheus (when enabled)
//	     /api/admin/    operator API (when enabled)
//
// The server deliberately leaves http.Server.WriteTimeout at zero;
// per-request deadlines come from the timeout middleware so streaming
// responses are not cut off mid-event.
package server
