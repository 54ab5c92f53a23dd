// Package metrics exposes Prometheus instrumentation for the routing
// pipeline. Counters are package-level and registered once via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synthroute_requests_total",
			Help: "Total number of synthesis requests by tier and outcome strategy",
		},
		[]string{"tier", "strategy"},
	)

	BackendCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synthroute_backend_calls_total",
			Help: "Total backend call attempts by backend and result",
		},
		[]string{"backend", "result"},
	)

	Failovers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synthroute_failovers_total",
			Help: "Total one-shot failover attempts by primary backend",
		},
		[]string{"primary"},
	)

	LocalFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "synthroute_local_fallbacks_total",
			Help: "Total requests resolved by local synthesis after all backends failed",
		},
	)

	QueueRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "synthroute_queue_rejections_total",
			Help: "Total admissions rejected because the queue was at capacity",
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "synthroute_queue_depth",
			Help: "Current number of entries waiting in the bounded queue",
		},
	)

	BackendLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "synthroute_backend_latency_seconds",
			Help: "Backend call latency in seconds",
		},
		[]string{"backend"},
	)
)
