package event

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	eventsTotal    *prometheus.CounterVec
	subscribers    *prometheus.GaugeVec
	deliveryErrors *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nameward_events_total",
			Help: "Events published, by type.",
		}, []string{"type"}),
		subscribers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nameward_event_subscribers",
			Help: "Active event subscriptions, by type and kind.",
		}, []string{"type", "kind"}),
		deliveryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nameward_event_delivery_errors_total",
			Help: "Failed or panicked event deliveries, by type and kind.",
		}, []string{"type", "kind"}),
	}
}
