// Package metrics holds the prometheus collectors of the document backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "document"

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	DocumentSaves = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "saves_total",
		Help:      "Document updates accepted.",
	})

	// Checkpoints counts checkpoint requests by result: created or refused.
	Checkpoints = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkpoints_total",
		Help:      "Checkpoint requests by result.",
	}, []string{"result"})

	Restores = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "restores_total",
		Help:      "Documents restored from a checkpoint.",
	})

	CheckpointsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkpoints_pruned_total",
		Help:      "Checkpoints deleted by the retention job.",
	})

	// CacheLookups counts document cache reads by result: hit or miss.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Document cache reads by result.",
	}, []string{"result"})
)
