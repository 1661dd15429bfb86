package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gateway metrics for monitoring the real-time session gateway
var (
	// Connection lifecycle metrics
	GatewayConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_connections_active",
		Help: "Current number of active WebSocket connections",
	})

	GatewayConnectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_connections_total",
		Help: "Total number of WebSocket connection attempts",
	}, []string{"status"}) // "accepted", "rejected", "upgrade_failed"

	GatewayDisconnectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_disconnections_total",
		Help: "Total number of WebSocket disconnections",
	}, []string{"reason"}) // "closed"

	// Command metrics
	GatewayCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_commands_total",
		Help: "Total number of inbound commands",
	}, []string{"command"})

	GatewayCommandErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_command_errors_total",
		Help: "Total number of rejected commands",
	}, []string{"command", "code"})

	// Fan-out metrics
	GatewayEventsDeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_events_delivered_total",
		Help: "Total number of events enqueued to clients",
	}, []string{"event"})

	GatewayEventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_events_dropped_total",
		Help: "Total number of events dropped due to full client queues",
	})

	// Room metrics
	GatewayRoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_rooms_active",
		Help: "Current number of rooms with at least one member",
	})

	// Typing presence metrics
	GatewayTypingEntriesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_typing_entries_active",
		Help: "Current number of live typing entries",
	})

	GatewayTypingSweepEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_typing_sweep_evictions_total",
		Help: "Total number of typing entries evicted by the background sweep",
	})

	// Call signaling metrics
	GatewayCallsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_calls_active",
		Help: "Current number of non-terminal call sessions",
	})

	GatewayCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_calls_total",
		Help: "Total number of call sessions by outcome",
	}, []string{"outcome"}) // "answered", "declined", "disconnected"

	GatewaySignalsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_signals_dropped_total",
		Help: "Total number of signaling events dropped due to call state",
	})

	// External store metrics
	GatewayStoreWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_store_writes_total",
		Help: "Total number of asynchronous writes to the external store",
	}, []string{"operation", "status"})
)
