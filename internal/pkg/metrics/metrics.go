package metrics

import "github.com/prometheus/client_golang/prometheus"

// Operations carries RED-style counters for the library use cases. A nil
// *Operations is valid and records nothing, so tests can skip wiring it.
type Operations struct {
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

func NewOperations(reg prometheus.Registerer) *Operations {
	m := &Operations{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_operations_total",
				Help: "Total number of library operation invocations.",
			},
			[]string{"operation", "outcome"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "library_operation_duration_seconds",
				Help:    "Duration of library operation execution in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
	reg.MustRegister(m.requests, m.durations)
	return m
}

func (m *Operations) Observe(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(operation, outcome).Inc()
	m.durations.WithLabelValues(operation).Observe(seconds)
}

// HTTP carries the transport-level request metrics used by the middleware.
type HTTP struct {
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

func NewHTTP(reg prometheus.Registerer) *HTTP {
	m := &HTTP{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests served.",
			},
			[]string{"method", "path", "status"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP request handling in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
	reg.MustRegister(m.requests, m.durations)
	return m
}

func (m *HTTP) Observe(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, status).Inc()
	m.durations.WithLabelValues(method, path).Observe(seconds)
}
