// Package metrics exposes prometheus collectors for the API and workers.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chantier"

// Metrics holds every collector on a private registry
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	verificationsTotal *prometheus.CounterVec
	failOpenTotal      prometheus.Counter
	pendingReviews     prometheus.Gauge
	jobsTotal          *prometheus.CounterVec
	jobDuration        *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		requestInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "in_flight_requests",
				Help:      "Number of in-flight HTTP requests.",
			},
		),
		verificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "verification",
				Name:      "evaluations_total",
				Help:      "Verification evaluations by resulting status.",
			},
			[]string{"status"},
		),
		failOpenTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "verification",
				Name:      "fail_open_total",
				Help:      "Evaluations that granted access because documents could not be fetched.",
			},
		),
		pendingReviews: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "documents",
				Name:      "pending_reviews",
				Help:      "Document submissions waiting for an administrator.",
			},
		),
		jobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "jobs",
				Name:      "processed_total",
				Help:      "Background jobs processed by type and result.",
			},
			[]string{"type", "result"},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "jobs",
				Name:      "duration_seconds",
				Help:      "Background job duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestTotal,
		m.requestDuration,
		m.requestInFlight,
		m.verificationsTotal,
		m.failOpenTotal,
		m.pendingReviews,
		m.jobsTotal,
		m.jobDuration,
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count, latency and in-flight requests.
// Paths are labelled with the route template to keep cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.requestInFlight.Inc()
		start := time.Now()

		c.Next()

		m.requestInFlight.Dec()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		m.requestTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// ObserveVerification counts an evaluation and whether it failed open
func (m *Metrics) ObserveVerification(status string, failedOpen bool) {
	m.verificationsTotal.WithLabelValues(status).Inc()
	if failedOpen {
		m.failOpenTotal.Inc()
	}
}

// SetPendingReviews updates the review backlog gauge
func (m *Metrics) SetPendingReviews(n int64) {
	m.pendingReviews.Set(float64(n))
}

// ObserveJob records the outcome of a background job
func (m *Metrics) ObserveJob(jobType string, err error, duration time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.jobsTotal.WithLabelValues(jobType, result).Inc()
	m.jobDuration.WithLabelValues(jobType).Observe(duration.Seconds())
}
