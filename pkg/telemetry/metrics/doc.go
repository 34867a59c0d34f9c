// Package metrics provides Prometheus metrics collection for the proxy.
//
// # Overview
//
// The metrics package covers the three surfaces worth watching in a
// credential-pooling proxy: the inbound request path (count, latency,
// tokens, delivery attempts), the credential pool (composition,
// refreshes, reported failures), and the backend event stream decoder
// (frames and events by result).
//
// # Usage
//
//	collector := metrics.NewCollector(metrics.Config{}, nil)
//
//	collector.Requests().RecordRequest("claude-sonnet-4", metrics.OutcomeSuccess, elapsed, attempts)
//	collector.Requests().RecordTokens("claude-sonnet-4", in, out)
//	collector.Credentials().SetPool(active, cooling, disabled)
//	collector.Streams().RecordFrame("ok")
//
//	http.Handle("/metrics", collector.Handler())
//
// # Prometheus Endpoint
//
// All metrics are exposed in standard Prometheus format:
//
//	# HELP portico_requests_total Total number of message requests processed
//	# TYPE portico_requests_total counter
//	portico_requests_total{model="claude-sonnet-4",outcome="success"} 1234
package metrics
