package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StreamMetrics tracks backend event stream decoding.
//
// Metrics:
//   - portico_stream_events_total: decoded backend events by type
//   - portico_stream_frames_total: frames by result (ok, corrupt, truncated)
type StreamMetrics struct {
	eventsTotal *prometheus.CounterVec
	framesTotal *prometheus.CounterVec
}

func newStreamMetrics(cfg Config, registry *prometheus.Registry) *StreamMetrics {
	sm := &StreamMetrics{
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "stream_events_total",
				Help:      "Backend stream events decoded by type",
			},
			[]string{"type"},
		),
		framesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "stream_frames_total",
				Help:      "Backend stream frames by decode result",
			},
			[]string{"result"},
		),
	}
	registry.MustRegister(sm.eventsTotal, sm.framesTotal)
	return sm
}

// RecordEvent counts one decoded backend event.
func (sm *StreamMetrics) RecordEvent(eventType string) {
	sm.eventsTotal.WithLabelValues(eventType).Inc()
}

// RecordFrame counts one frame decode result: ok, corrupt, truncated.
func (sm *StreamMetrics) RecordFrame(result string) {
	sm.framesTotal.WithLabelValues(result).Inc()
}
