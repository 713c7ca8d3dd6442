package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector handles Prometheus metrics collection. Every collector owns its
// registry so several can coexist in one process.
type Collector struct {
	serviceName string
	registry    *prometheus.Registry

	accessDecisions *prometheus.CounterVec
	ledgerCalls     *prometheus.CounterVec
	ledgerDuration  *prometheus.HistogramVec
	logouts         *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewCollector creates a new metrics collector
func NewCollector(serviceName string) *Collector {
	c := &Collector{
		serviceName: serviceName,
		registry:    prometheus.NewRegistry(),

		// Access metrics
		accessDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "access_decisions_total",
				Help: "Total number of page access decisions",
			},
			[]string{"role", "outcome", "reason", "service"},
		),

		// Ledger metrics
		ledgerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_calls_total",
				Help: "Total number of ledger contract calls",
			},
			[]string{"function", "status", "service"},
		),
		ledgerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_call_duration_seconds",
				Help:    "Duration of ledger contract calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"function", "service"},
		),

		// Logout metrics
		logouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logouts_total",
				Help: "Total number of logout attempts",
			},
			[]string{"role", "status", "service"},
		),

		// HTTP request metrics
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code", "service"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "service"},
		),
	}

	c.registry.MustRegister(
		c.accessDecisions,
		c.ledgerCalls,
		c.ledgerDuration,
		c.logouts,
		c.httpRequests,
		c.httpDuration,
	)

	return c
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordAccessDecision records the outcome of one page validation
func (c *Collector) RecordAccessDecision(role, outcome, reason string) {
	if c == nil {
		return
	}
	c.accessDecisions.WithLabelValues(role, outcome, reason, c.serviceName).Inc()
}

// RecordLedgerCall records ledger contract call metrics
func (c *Collector) RecordLedgerCall(function, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.ledgerCalls.WithLabelValues(function, status, c.serviceName).Inc()
	c.ledgerDuration.WithLabelValues(function, c.serviceName).Observe(duration.Seconds())
}

// RecordLogout records a logout attempt
func (c *Collector) RecordLogout(role, status string) {
	if c == nil {
		return
	}
	c.logouts.WithLabelValues(role, status, c.serviceName).Inc()
}

// RecordHTTPRequest records HTTP request metrics
func (c *Collector) RecordHTTPRequest(method, route, statusCode string, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, statusCode, c.serviceName).Inc()
	c.httpDuration.WithLabelValues(method, route, c.serviceName).Observe(duration.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
