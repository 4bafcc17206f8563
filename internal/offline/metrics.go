package offline

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts sync outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	drains         prometheus.Counter
	promoted       prometheus.Counter
	draftFailures  *prometheus.CounterVec
	cacheFallbacks prometheus.Counter
	queued         *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics registers the sync collectors on a private registry.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		drains: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_drains_total",
			Help:      "Draft queue drains executed",
		}),
		promoted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_drafts_promoted_total",
			Help:      "Drafts persisted to the remote store and removed from the queue",
		}),
		draftFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_draft_failures_total",
			Help:      "Draft promotions that failed, by error class",
		}, []string{"class"}),
		cacheFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_cache_fallbacks_total",
			Help:      "Quote list reads served from the offline cache",
		}),
		queued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_created_total",
			Help:      "Quotes created, by destination",
		}, []string{"destination"}),
		registry: registry,
	}
	registry.MustRegister(m.drains, m.promoted, m.draftFailures, m.cacheFallbacks, m.queued)
	return m
}

// Registry exposes the collectors for an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

func (m *Metrics) drain(promoted int) {
	if m == nil {
		return
	}
	m.drains.Inc()
	m.promoted.Add(float64(promoted))
}

func (m *Metrics) draftFailed(offline bool) {
	if m == nil {
		return
	}
	class := "repository"
	if offline {
		class = "network"
	}
	m.draftFailures.WithLabelValues(class).Inc()
}

func (m *Metrics) cacheFallback() {
	if m == nil {
		return
	}
	m.cacheFallbacks.Inc()
}

func (m *Metrics) created(destination string) {
	if m == nil {
		return
	}
	m.queued.WithLabelValues(destination).Inc()
}
