package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Connected reports whether a central-system session is up.
	Connected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cpsim_connected",
		Help: "1 while a WebSocket session to the central system is open.",
	})

	// CallsSent counts outbound CALL frames by action.
	CallsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cpsim_calls_sent_total",
		Help: "Total number of CALL frames sent to the central system.",
	}, []string{"action"})

	// FramesReceived counts inbound frames by message type.
	FramesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cpsim_frames_received_total",
		Help: "Total number of frames received from the central system.",
	}, []string{"message_type"})

	// CallErrors counts CALLERROR frames received for our calls.
	CallErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cpsim_call_errors_total",
		Help: "Total number of CALLERROR replies received.",
	})

	// CallTimeouts counts pending calls that never got a reply.
	CallTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cpsim_call_timeouts_total",
		Help: "Total number of outbound calls dropped on reply timeout.",
	})

	// HeartbeatInterval reports the interval dictated by the central system.
	HeartbeatInterval = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cpsim_heartbeat_interval_seconds",
		Help: "Heartbeat interval as returned by the last BootNotification.",
	})
)

// Serve exposes /metrics on addr. Blocks; run in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
