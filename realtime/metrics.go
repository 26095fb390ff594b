package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "filmcrew_realtime_connections",
		Help: "Currently attached websocket sessions.",
	})
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filmcrew_realtime_events_published_total",
		Help: "Events published into the hub, by type.",
	}, []string{"type"})
	eventsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filmcrew_realtime_events_delivered_total",
		Help: "Event frames delivered to sockets.",
	})
)
