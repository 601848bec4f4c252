package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsActive tracks live websocket connections across all rooms.
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pairpad_ws_connections_active",
		Help: "Number of live websocket connections.",
	})

	// MessagesInbound counts decoded client frames by message type.
	MessagesInbound = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pairpad_ws_messages_inbound_total",
		Help: "Inbound websocket messages by type.",
	}, []string{"type"})

	// ProtocolErrors counts malformed or unknown frames.
	ProtocolErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pairpad_ws_protocol_errors_total",
		Help: "Frames rejected with an error reply.",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
