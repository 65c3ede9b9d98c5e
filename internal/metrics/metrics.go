// Package metrics Prometheus 指标。所有方法对 nil 接收者安全，未启用时直接传 nil。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "uno_arena"

// Metrics 服务端指标
type Metrics struct {
	registry *prometheus.Registry

	roomsCreated     prometheus.Counter
	matchesStarted   prometheus.Counter
	matchesConcluded *prometheus.CounterVec
	timeoutDraws     prometheus.Counter
	ledgerCalls      *prometheus.CounterVec
	settlements      *prometheus.CounterVec
	connections      prometheus.Gauge
	messages         *prometheus.CounterVec
}

// New 创建指标并注册到独立的 registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		roomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rooms_created_total", Help: "Rooms created.",
		}),
		matchesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "matches_started_total", Help: "Matches started.",
		}),
		matchesConcluded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "matches_concluded_total", Help: "Matches concluded by reason.",
		}, []string{"reason"}),
		timeoutDraws: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "timeout_draws_total", Help: "Draws forced by the turn timer.",
		}),
		ledgerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ledger_calls_total", Help: "Ledger calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "settlement_transitions_total", Help: "Settlement state transitions.",
		}, []string{"state"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "ws_connections", Help: "Open WebSocket connections.",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ws_messages_total", Help: "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.roomsCreated, m.matchesStarted, m.matchesConcluded, m.timeoutDraws,
		m.ledgerCalls, m.settlements, m.connections, m.messages,
	)
	return m
}

// RegisterActiveMatches 注册进行中对局数的 GaugeFunc
func (m *Metrics) RegisterActiveMatches(f func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Name: "active_matches", Help: "Matches in progress.",
	}, func() float64 { return float64(f()) }))
}

// Handler /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry 底层 registry，测试用
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) RoomCreated() {
	if m != nil {
		m.roomsCreated.Inc()
	}
}

func (m *Metrics) MatchStarted() {
	if m != nil {
		m.matchesStarted.Inc()
	}
}

func (m *Metrics) MatchConcluded(reason string) {
	if m != nil {
		m.matchesConcluded.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) TimeoutDraw() {
	if m != nil {
		m.timeoutDraws.Inc()
	}
}

func (m *Metrics) LedgerCall(op, outcome string) {
	if m != nil {
		m.ledgerCalls.WithLabelValues(op, outcome).Inc()
	}
}

func (m *Metrics) SettlementState(state string) {
	if m != nil {
		m.settlements.WithLabelValues(state).Inc()
	}
}

func (m *Metrics) ConnOpened() {
	if m != nil {
		m.connections.Inc()
	}
}

func (m *Metrics) ConnClosed() {
	if m != nil {
		m.connections.Dec()
	}
}

// 消息方向
const (
	Inbound  = "in"
	Outbound = "out"
)

func (m *Metrics) Message(direction, msgType string) {
	if m != nil {
		m.messages.WithLabelValues(direction, msgType).Inc()
	}
}
