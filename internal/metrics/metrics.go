// Package metrics holds the Prometheus collectors shared by the publisher,
// the Graph client, the watermarker and the HTTP layer. A nil *Metrics is
// valid and records nothing, which keeps tests free of registries.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	PublishTotal     *prometheus.CounterVec
	PublishDuration  prometheus.Histogram
	FallbackTotal    *prometheus.CounterVec
	GraphRequests    *prometheus.CounterVec
	GraphLatency     *prometheus.HistogramVec
	WatermarkTotal   *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPLatency      *prometheus.HistogramVec
	PrunedPostsTotal prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "publisher_publish_total",
			Help: "Publish attempts by outcome.",
		}, []string{"outcome"}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "publisher_publish_duration_seconds",
			Help:    "End-to-end publish latency including platform calls.",
			Buckets: prometheus.DefBuckets,
		}),
		FallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "publisher_fallback_total",
			Help: "Degraded delivery paths taken.",
		}, []string{"reason"}),
		GraphRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "publisher_graph_requests_total",
			Help: "Graph API calls by operation and HTTP status.",
		}, []string{"op", "status"}),
		GraphLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "publisher_graph_request_duration_seconds",
			Help:    "Graph API call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		WatermarkTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "publisher_watermark_total",
			Help: "Watermark runs by result (applied or passthrough).",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "publisher_http_requests_total",
			Help: "Inbound HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "publisher_http_request_duration_seconds",
			Help:    "Inbound HTTP latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		PrunedPostsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "publisher_pruned_posts_total",
			Help: "Published posts removed by the retention janitor.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.PublishTotal, m.PublishDuration, m.FallbackTotal,
			m.GraphRequests, m.GraphLatency, m.WatermarkTotal,
			m.HTTPRequests, m.HTTPLatency, m.PrunedPostsTotal,
		)
	}
	return m
}

func (m *Metrics) ObservePublish(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.PublishTotal.WithLabelValues(outcome).Inc()
	m.PublishDuration.Observe(d.Seconds())
}

func (m *Metrics) Fallback(reason string) {
	if m == nil {
		return
	}
	m.FallbackTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveGraph(op, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.GraphRequests.WithLabelValues(op, status).Inc()
	m.GraphLatency.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) Watermark(applied bool) {
	if m == nil {
		return
	}
	result := "passthrough"
	if applied {
		result = "applied"
	}
	m.WatermarkTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) Pruned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PrunedPostsTotal.Add(float64(n))
}
