package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CredentialMetrics tracks the credential pool and token refresh
// activity.
//
// Metrics:
//   - portico_credential_pool: credentials by state (gauge)
//   - portico_credential_refreshes_total: refresh attempts by result
//   - portico_credential_failures_total: reported failures by class
type CredentialMetrics struct {
	pool           *prometheus.GaugeVec
	refreshesTotal *prometheus.CounterVec
	failuresTotal  *prometheus.CounterVec
}

func newCredentialMetrics(cfg Config, registry *prometheus.Registry) *CredentialMetrics {
	cm := &CredentialMetrics{
		pool: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "credential_pool",
				Help:      "Credentials in the pool by state",
			},
			[]string{"state"},
		),
		refreshesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "credential_refreshes_total",
				Help:      "Token refresh attempts by result",
			},
			[]string{"result"},
		),
		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "credential_failures_total",
				Help:      "Credential failures reported by class",
			},
			[]string{"class"},
		),
	}
	registry.MustRegister(cm.pool, cm.refreshesTotal, cm.failuresTotal)
	return cm
}

// SetPool records the pool composition. States: active, cooling,
// disabled.
func (cm *CredentialMetrics) SetPool(active, cooling, disabled int) {
	cm.pool.WithLabelValues("active").Set(float64(active))
	cm.pool.WithLabelValues("cooling").Set(float64(cooling))
	cm.pool.WithLabelValues("disabled").Set(float64(disabled))
}

// RecordRefresh counts one refresh attempt. Results: success, failure.
func (cm *CredentialMetrics) RecordRefresh(result string) {
	cm.refreshesTotal.WithLabelValues(result).Inc()
}

// RecordFailure counts one reported credential failure. Classes: auth,
// rate_limit, transient.
func (cm *CredentialMetrics) RecordFailure(class string) {
	cm.failuresTotal.WithLabelValues(class).Inc()
}
