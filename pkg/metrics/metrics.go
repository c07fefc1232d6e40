// Package metrics exposes the relay's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chess_relay_connections",
		Help: "Live websocket connections.",
	})
	Rooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chess_relay_rooms",
		Help: "Rooms with at least one player or spectator.",
	})
	Events = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chess_relay_events_total",
		Help: "Inbound events applied by the hub, by event name.",
	}, []string{"event"})
	DroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chess_relay_dropped_frames_total",
		Help: "Outbound frames dropped because a client send buffer was full.",
	})
	PresenceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chess_relay_presence_failures_total",
		Help: "Presence store writes that failed.",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
