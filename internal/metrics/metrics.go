// Package metrics exposes report pipeline counters and latencies to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "interview_report"

// Report outcomes recorded by ObserveReport
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Metrics holds the collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	reports        *prometheus.CounterVec
	llmDuration    prometheus.Histogram
	renderDuration prometheus.Histogram
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New creates the collectors together with Go runtime and process metrics
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Reports generated, by kind and outcome.",
		}, []string{"kind", "status"}),
		llmDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_duration_seconds",
			Help:      "Time spent waiting for the language model, retries included.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent converting HTML to PDF.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, path and status code.",
		}, []string{"method", "path", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.reports,
		m.llmDuration,
		m.renderDuration,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry for scraping
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// ObserveReport counts one finished report
func (m *Metrics) ObserveReport(kind, status string) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(kind, status).Inc()
}

// ObserveLLM records one model call
func (m *Metrics) ObserveLLM(d time.Duration) {
	if m == nil {
		return
	}
	m.llmDuration.Observe(d.Seconds())
}

// ObserveRender records one PDF conversion
func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(d.Seconds())
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, path string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
