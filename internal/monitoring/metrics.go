// Package monitoring exposes Prometheus metrics for the preview server.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Route labels. Every request path is either the listing or a file, so the
// label set stays bounded regardless of file names.
const (
	RouteListing = "listing"
	RouteFile    = "file"
)

// Metrics holds the collectors recorded by the HTTP middleware.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	renderedBytes   prometheus.Counter
}

// NewMetrics creates a registry with request metrics plus the Go and process
// collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mdview",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mdview",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		renderedBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "mdview",
				Name:      "rendered_bytes_total",
				Help:      "Bytes of HTML written for rendered markdown files",
			},
		),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.renderedBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RouteFor classifies a request path.
func RouteFor(path string) string {
	if path == "/" || path == "" {
		return RouteListing
	}
	return RouteFile
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// AddRenderedBytes counts HTML written for a rendered file.
func (m *Metrics) AddRenderedBytes(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.renderedBytes.Add(float64(n))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
