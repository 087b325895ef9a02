package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adlens_http_requests_total",
		Help: "HTTP requests by path and status.",
	}, []string{"path", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "adlens_http_request_duration_seconds",
		Help:    "HTTP request latency by path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})

	Queries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adlens_queries_total",
		Help: "Semantic queries by outcome (ok or error code).",
	}, []string{"status"})

	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "adlens_query_duration_seconds",
		Help:    "End-to-end ask latency: resolve, compile, execute, stats.",
		Buckets: prometheus.DefBuckets,
	})

	DatasetReloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adlens_dataset_reloads_total",
		Help: "Snapshot swaps since process start.",
	})

	HistoryEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adlens_history_evictions_total",
		Help: "History entries dropped by FIFO eviction.",
	})
)
