// Package metrics exposes Prometheus instrumentation for the Meridian
// accounts server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process-wide collectors.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	authAttempts    *prometheus.CounterVec
	accountsCreated prometheus.Counter
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "meridian_http_requests_total",
			Help: "Total HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meridian_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "meridian_auth_attempts_total",
			Help: "Authentication attempts by kind and outcome.",
		}, []string{"kind", "outcome"}),
		accountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "meridian_accounts_created_total",
			Help: "Total accounts successfully created.",
		}),
	}
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveAuthAttempt records one authentication attempt. Kind is
// "credentials", "token" or "request"; outcome is "ok", "denied" or "error".
func (m *Metrics) ObserveAuthAttempt(kind, outcome string) {
	m.authAttempts.WithLabelValues(kind, outcome).Inc()
}

// AccountCreated records one successful account creation.
func (m *Metrics) AccountCreated() {
	m.accountsCreated.Inc()
}
