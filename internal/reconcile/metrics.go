package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	invalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "disasterwatch_reconcile_invalidations_total",
		Help: "Invalidations by partition kind and outcome (refresh|coalesced|ignored)",
	}, []string{"kind", "outcome"})

	refreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "disasterwatch_reconcile_refreshes_total",
		Help: "Completed refreshes by partition kind and outcome (ok|error|dropped)",
	}, []string{"kind", "outcome"})

	refreshDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "disasterwatch_reconcile_refresh_duration_seconds",
		Help:    "Time from issuing a refresh to applying its result",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	fetchesByShard = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "disasterwatch_reconcile_fetches_total",
		Help: "Fetches issued, by hashed partition label",
	}, []string{"shard"})

	partitionsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "disasterwatch_reconcile_partitions",
		Help: "Tracked partitions by state",
	}, []string{"state"})
)
