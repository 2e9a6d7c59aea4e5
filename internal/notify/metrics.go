package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "disasterwatch_notify_events_total",
		Help: "Push events received, by event name and outcome (classified|ignored)",
	}, []string{"event", "outcome"})

	connectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "disasterwatch_notify_connects_total",
		Help: "Push channel connection attempts, by transport and result",
	}, []string{"transport", "result"})

	connectedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "disasterwatch_notify_connected",
		Help: "1 while the push channel is connected",
	})
)

// eventLabel keeps the event label bounded.
func eventLabel(name string) string {
	switch name {
	case EventDisasterUpdated, EventSocialMediaUpdated, EventResourcesUpdated:
		return name
	default:
		return "other"
	}
}
