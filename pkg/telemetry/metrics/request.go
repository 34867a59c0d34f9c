package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcome labels.
const (
	OutcomeSuccess   = "success"
	OutcomeClientErr = "client_error"
	OutcomeUpstream  = "upstream_error"
	OutcomeCancelled = "cancelled"
)

// RequestMetrics tracks proxied message requests.
//
// Metrics:
//   - portico_requests_total: request count by model and outcome
//   - portico_request_duration_seconds: end-to-end latency histogram
//   - portico_request_tokens_total: token throughput by direction
//   - portico_backend_attempts_total: delivery attempts per request outcome
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokensTotal     *prometheus.CounterVec
	backendAttempts prometheus.Histogram
}

func newRequestMetrics(cfg Config, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "requests_total",
				Help:      "Total number of message requests processed",
			},
			[]string{"model", "outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "request_duration_seconds",
				Help:      "End-to-end request duration in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"model"},
		),
		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "request_tokens_total",
				Help:      "Total tokens processed by direction",
			},
			[]string{"model", "direction"},
		),
		backendAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "backend_attempts",
				Help:      "Delivery attempts needed per request",
				Buckets:   []float64{1, 2, 3, 4, 5},
			},
		),
	}
	registry.MustRegister(rm.requestsTotal, rm.requestDuration, rm.tokensTotal, rm.backendAttempts)
	return rm
}

// RecordRequest records one completed request.
func (rm *RequestMetrics) RecordRequest(model, outcome string, duration time.Duration, attempts int) {
	rm.requestsTotal.WithLabelValues(model, outcome).Inc()
	rm.requestDuration.WithLabelValues(model).Observe(duration.Seconds())
	if attempts > 0 {
		rm.backendAttempts.Observe(float64(attempts))
	}
}

// RecordTokens records input and output token counts.
func (rm *RequestMetrics) RecordTokens(model string, inputTokens, outputTokens int) {
	if inputTokens > 0 {
		rm.tokensTotal.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		rm.tokensTotal.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}
