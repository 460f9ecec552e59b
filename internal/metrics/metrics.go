package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the server's Prometheus collectors behind nil-safe
// helpers, so packages can record without caring whether metrics are wired
// (tests pass a nil *Metrics).
type Metrics struct {
	registry *prometheus.Registry

	roomsCreated      prometheus.Counter
	roomsActive       prometheus.Gauge
	connectionsActive prometheus.Gauge
	movesTotal        *prometheus.CounterVec
	protocolErrors    *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		roomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ms_rooms_created_total",
			Help: "Rooms created since process start.",
		}),
		roomsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ms_rooms_active",
			Help: "Rooms currently held by the registry.",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ms_connections_active",
			Help: "Live websocket connections.",
		}),
		movesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ms_moves_total",
			Help: "Moves processed, by action.",
		}, []string{"action"}),
		protocolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ms_protocol_errors_total",
			Help: "Errors sent to clients, by code.",
		}, []string{"code"}),
	}

	reg.MustRegister(m.roomsCreated, m.roomsActive, m.connectionsActive, m.movesTotal, m.protocolErrors)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncRoomsCreated() {
	if m == nil {
		return
	}
	m.roomsCreated.Inc()
}

func (m *Metrics) SetRoomsActive(n int) {
	if m == nil {
		return
	}
	m.roomsActive.Set(float64(n))
}

func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.connectionsActive.Inc()
}

func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.connectionsActive.Dec()
}

func (m *Metrics) IncMove(action string) {
	if m == nil {
		return
	}
	m.movesTotal.WithLabelValues(action).Inc()
}

func (m *Metrics) IncProtocolError(code string) {
	if m == nil {
		return
	}
	m.protocolErrors.WithLabelValues(code).Inc()
}
