package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the API.
type Metrics struct {
	// Narrative generation. labels: kind={urgent_action,facility_summary,violation_explanation},
	// source={model,fallback}, reason={none,disabled,rate_limited,transport,empty,malformed,prompt}
	NarrativeOutcomes *prometheus.CounterVec
	NarrativeDuration *prometheus.HistogramVec // labels: kind

	// Response caches. labels: cache={urgent_action,facility_summary,violation_explanation}, result={hit,miss}
	CacheLookups *prometheus.CounterVec

	// HTTP. labels: route, method, status
	HTTPRequests *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.NarrativeOutcomes,
		m.NarrativeDuration,
		m.CacheLookups,
		m.HTTPRequests,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		NarrativeOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "h2operator",
			Name:      "narrative_outcomes_total",
			Help:      "Narrative generations by kind, source and fallback reason.",
		}, []string{"kind", "source", "reason"}),
		NarrativeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "h2operator",
			Name:      "narrative_duration_seconds",
			Help:      "Wall time of narrative generation including the remote call.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"kind"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "h2operator",
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by cache and result.",
		}, []string{"cache", "result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "h2operator",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "status"}),
	}
}

// CacheHit records a cache lookup result. Safe on a nil receiver.
func (m *Metrics) CacheHit(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}
