package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "disasterwatch",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Outbound REST calls by method and status (or transport_error).",
	},
	[]string{"method", "status"},
)
