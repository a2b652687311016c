// Package telemetry exposes Prometheus metrics for dashboard loads, views and HTTP
// traffic. A nil *Metrics is valid and records nothing.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "minidash"

// Metrics owns a private registry so tests can create independent instances
type Metrics struct {
	registry *prometheus.Registry

	sourceLoads    *prometheus.CounterVec
	sourceDuration *prometheus.HistogramVec
	sourceRows     *prometheus.GaugeVec
	views          *prometheus.CounterVec
	emptyViews     *prometheus.CounterVec
	answers        *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		sourceLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "source_loads_total",
			Help: "Dataset loads by dashboard and result.",
		}, []string{"dashboard", "result"}),
		sourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "source_load_duration_seconds",
			Help:    "Time spent reading a dashboard dataset.",
			Buckets: prometheus.DefBuckets,
		}, []string{"dashboard"}),
		sourceRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "source_rows",
			Help: "Rows in the currently loaded dataset.",
		}, []string{"dashboard"}),
		views: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "dashboard_views_total",
			Help: "Dashboard views computed.",
		}, []string{"dashboard"}),
		emptyViews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "dashboard_empty_views_total",
			Help: "Views whose filters matched no rows.",
		}, []string{"dashboard"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "answers_total",
			Help: "Question answers stored.",
		}, []string{"dashboard"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.sourceLoads, m.sourceDuration, m.sourceRows,
		m.views, m.emptyViews, m.answers,
		m.httpRequests, m.httpDuration,
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveLoad records one dataset load
func (m *Metrics) ObserveLoad(dashboard string, rows int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.sourceLoads.WithLabelValues(dashboard, "error").Inc()
		return
	}
	m.sourceLoads.WithLabelValues(dashboard, "ok").Inc()
	m.sourceDuration.WithLabelValues(dashboard).Observe(elapsed.Seconds())
	m.sourceRows.WithLabelValues(dashboard).Set(float64(rows))
}

// ObserveView records one computed view
func (m *Metrics) ObserveView(dashboard string, rows int) {
	if m == nil {
		return
	}
	m.views.WithLabelValues(dashboard).Inc()
	if rows == 0 {
		m.emptyViews.WithLabelValues(dashboard).Inc()
	}
}

// ObserveAnswers records stored answers
func (m *Metrics) ObserveAnswers(dashboard string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.answers.WithLabelValues(dashboard).Add(float64(n))
}

// GinMiddleware records request counts and latency keyed by the matched route
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
