package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	requests            *prometheus.CounterVec
	duration            *prometheus.HistogramVec
	errors              *prometheus.CounterVec
	guardDenials        *prometheus.CounterVec
	statusTransitions   *prometheus.CounterVec
	sweepRuns           *prometheus.CounterVec
	impersonationIssued *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors under prefix.
func NewMetrics(prefix string) *Metrics {
	if prefix == "" {
		prefix = "curtain"
	}
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_http_errors_total",
			Help: "Failed requests by error code",
		}, []string{"method", "path", "code"}),
		guardDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_guard_denials_total",
			Help: "Authorization and subscription gate denials",
		}, []string{"guard", "code"}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_subscription_transitions_total",
			Help: "Persisted subscription status transitions",
		}, []string{"from", "to", "source"}),
		sweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_subscription_sweeps_total",
			Help: "Subscription sweep executions",
		}, []string{"outcome"}),
		impersonationIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_impersonations_total",
			Help: "Impersonation tokens issued",
		}, []string{"scope"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.errors,
		m.guardDenials,
		m.statusTransitions,
		m.sweepRuns,
		m.impersonationIssued,
	)
	return m
}

// RecordRequest observes a finished request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requests.WithLabelValues(method, path, code).Inc()
	m.duration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(method, path, code).Inc()
}

// RecordDenial counts a guard or gate rejection.
func (m *Metrics) RecordDenial(guard, code string) {
	if m == nil {
		return
	}
	m.guardDenials.WithLabelValues(guard, code).Inc()
}

// RecordTransition counts a persisted subscription status change.
func (m *Metrics) RecordTransition(from, to, source string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.statusTransitions.WithLabelValues(from, to, source).Add(float64(n))
}

// RecordSweep counts a sweep run by outcome.
func (m *Metrics) RecordSweep(outcome string) {
	if m == nil {
		return
	}
	m.sweepRuns.WithLabelValues(outcome).Inc()
}

// RecordImpersonation counts an issued impersonation token.
func (m *Metrics) RecordImpersonation(scope string) {
	if m == nil {
		return
	}
	m.impersonationIssued.WithLabelValues(scope).Inc()
}
