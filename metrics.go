package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	actionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "disasterwatch_client",
			Name:      "actions_total",
			Help:      "User actions by name and outcome (ok|validation|error).",
		},
		[]string{"action", "outcome"},
	)

	noticesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "disasterwatch_client",
			Name:      "notices_total",
			Help:      "Notices emitted to the presentation layer by level.",
		},
		[]string{"level"},
	)

	noticesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "disasterwatch_client",
			Name:      "notices_dropped_total",
			Help:      "Oldest notices discarded because nobody drained the channel.",
		},
	)
)
