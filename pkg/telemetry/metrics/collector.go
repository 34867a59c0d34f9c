package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Config controls metric naming and histogram resolution.
type Config struct {
	// Namespace is the metric name prefix.
	Namespace string

	// RequestDurationBuckets are the histogram buckets for request
	// latency, in seconds.
	RequestDurationBuckets []float64
}

// Collector owns every Prometheus metric the proxy exposes and the
// registry they live in.
type Collector struct {
	config   Config
	registry *prometheus.Registry

	requestMetrics    *RequestMetrics
	credentialMetrics *CredentialMetrics
	streamMetrics     *StreamMetrics
}

// NewCollector creates a collector and registers all metric families
// with the given registry. If registry is nil a fresh one is used.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "portico"
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		// Sized for model-generation latencies (100ms - 120s).
		cfg.RequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0, 120.0}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}
	c.requestMetrics = newRequestMetrics(cfg, registry)
	c.credentialMetrics = newCredentialMetrics(cfg, registry)
	c.streamMetrics = newStreamMetrics(cfg, registry)
	return c
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Requests returns the request metric family.
func (c *Collector) Requests() *RequestMetrics { return c.requestMetrics }

// Credentials returns the credential pool metric family.
func (c *Collector) Credentials() *CredentialMetrics { return c.credentialMetrics }

// Streams returns the stream decoding metric family.
func (c *Collector) Streams() *StreamMetrics { return c.streamMetrics }
