package shardqueue

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// queueDepth is only updated in the worker goroutine, so each shard's gauge
// has a single writer.
var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "disasterwatch",
			Subsystem: "shardqueue",
			Name:      "submissions_total",
			Help:      "Refetch and geocoding jobs accepted onto a shard.",
		},
		[]string{"shard"},
	)

	queueFullTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "disasterwatch",
			Subsystem: "shardqueue",
			Name:      "queue_full_total",
			Help:      "Jobs refused because their shard stayed full.",
		},
		[]string{"shard"},
	)

	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "disasterwatch",
			Subsystem: "shardqueue",
			Name:      "retries_total",
			Help:      "Retries scheduled after a recoverable fetch error.",
		},
		[]string{"shard"},
	)

	panicsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "disasterwatch",
			Subsystem: "shardqueue",
			Name:      "panics_total",
			Help:      "Jobs that panicked and were recovered.",
		},
		[]string{"shard"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "disasterwatch",
			Subsystem: "shardqueue",
			Name:      "run_duration_seconds",
			Help:      "Time spent in a single job attempt.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"shard"},
	)

	queueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "disasterwatch",
			Subsystem: "shardqueue",
			Name:      "queue_depth",
			Help:      "Jobs waiting on each shard.",
		},
		[]string{"shard"},
	)
)

func labelFor(i int) string { return strconv.Itoa(i) }
