package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Collector with Prometheus vectors.
type PrometheusCollector struct {
	mutations       *prometheus.CounterVec
	mutationLatency *prometheus.HistogramVec
	rateMisses      *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
}

// NewPrometheusCollector creates the vectors under namespace. Call Register
// to expose them.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_mutations_total",
				Help:      "Balance mutations by kind and result",
			},
			[]string{"kind", "result"},
		),
		mutationLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ledger_mutation_duration_seconds",
				Help:      "Latency of balance mutations including the storage transaction",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"kind"},
		),
		rateMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exchange_rate_misses_total",
				Help:      "Conversions that found no exchange rate",
			},
			[]string{"from", "to"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latencies in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Register registers every vector with registerer.
func (pc *PrometheusCollector) Register(registerer prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		pc.mutations,
		pc.mutationLatency,
		pc.rateMisses,
		pc.requests,
		pc.requestLatency,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordMutation implements Collector.
func (pc *PrometheusCollector) RecordMutation(kind string, result string, duration time.Duration) {
	pc.mutations.WithLabelValues(kind, result).Inc()
	pc.mutationLatency.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordRateMiss implements Collector.
func (pc *PrometheusCollector) RecordRateMiss(from, to string) {
	pc.rateMisses.WithLabelValues(from, to).Inc()
}

// RecordRequest implements Collector.
func (pc *PrometheusCollector) RecordRequest(method, route string, status int, duration time.Duration) {
	pc.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	pc.requestLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}
