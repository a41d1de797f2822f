package middleware

import (
	"strconv"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricHTTPRequestDuration = "devseek_http_request_duration_seconds"
	MetricHTTPRequestsTotal   = "devseek_http_requests_total"
	MetricHTTPPanicsTotal     = "devseek_http_panics_total"
)

// Metrics holds the prometheus collectors for the HTTP surface. All
// operations are safe for concurrent use.
type Metrics struct {
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
	httpPanicsTotal     prometheus.Counter
}

// NewMetrics creates all collectors without registering them; call Register
// to attach them to a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.01, 0.1, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpPanicsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricHTTPPanicsTotal,
				Help: "Total number of recovered handler panics",
			},
		),
	}
}

// Register registers all collectors with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.httpRequestDuration,
		m.httpRequestsTotal,
		m.httpPanicsTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRequest records one completed request.
func (m *Metrics) ObserveRequest(method, path, status string, duration float64) {
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": status,
	}
	m.httpRequestDuration.With(labels).Observe(duration)
	m.httpRequestsTotal.With(labels).Inc()
}

// IncPanic increments the recovered-panic counter.
func (m *Metrics) IncPanic() {
	m.httpPanicsTotal.Inc()
}

// MetricsFilter measures every request routed through the container. The
// path label uses the selected route template, not the raw URL, to keep
// label cardinality bounded.
func MetricsFilter(m *Metrics) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		start := time.Now()
		chain.ProcessFilter(req, resp)
		path := req.SelectedRoutePath()
		if path == "" {
			path = req.Request.URL.Path
		}
		m.ObserveRequest(req.Request.Method, path, strconv.Itoa(resp.StatusCode()), time.Since(start).Seconds())
	}
}
