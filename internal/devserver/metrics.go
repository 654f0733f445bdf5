package devserver

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	refunds  *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dsadmin_dev",
			Name:      "http_requests_total",
			Help:      "Requests served, by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dsadmin_dev",
			Name:      "http_request_duration_seconds",
			Help:      "Request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		refunds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dsadmin_dev",
			Name:      "refund_transitions_total",
			Help:      "Refund actions by verb and outcome.",
		}, []string{"verb", "outcome"}),
	}
	m.registry.MustRegister(m.requests, m.latency, m.refunds)
	return m
}

func (m *metrics) observe(method, route string, status int, took time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route).Observe(took.Seconds())
}

func (m *metrics) refund(verb, outcome string) {
	m.refunds.WithLabelValues(verb, outcome).Inc()
}
