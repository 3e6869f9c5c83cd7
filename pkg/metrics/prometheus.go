package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	SeatUpdates   *prometheus.CounterVec
	TripsCreated  prometheus.Counter
	CacheRequests *prometheus.CounterVec
	AccessDenied  prometheus.Counter
	HTTPDuration  *prometheus.HistogramVec
	ErrorsCount   *prometheus.CounterVec
}

// NewMetrics registers the service metrics on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SeatUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seat_updates_total",
			Help:      "The total number of persisted seat status changes",
		}, []string{"status"}),
		TripsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trips_created_total",
			Help:      "The total number of created trips",
		}),
		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_cache_requests_total",
			Help:      "Query cache lookups by result",
		}, []string{"result"}),
		AccessDenied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_denied_total",
			Help:      "Requests denied by the company status gate",
		}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}

func (m *Metrics) SeatUpdated(status string) {
	if m == nil {
		return
	}
	m.SeatUpdates.WithLabelValues(status).Inc()
}

func (m *Metrics) TripCreated() {
	if m == nil {
		return
	}
	m.TripsCreated.Inc()
}

func (m *Metrics) CacheRequest(result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) Denied() {
	if m == nil {
		return
	}
	m.AccessDenied.Inc()
}

func (m *Metrics) ObserveHTTP(method, route, code string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(method, route, code).Observe(seconds)
}

func (m *Metrics) Failed(operation string) {
	if m == nil {
		return
	}
	m.ErrorsCount.WithLabelValues(operation).Inc()
}
