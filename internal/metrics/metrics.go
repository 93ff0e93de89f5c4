package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dmrelay"

// Drop reasons for inbound events.
const (
	ReasonValidation  = "validation"
	ReasonPersistence = "persistence"
	ReasonDecode      = "decode"
	ReasonRateLimit   = "rate_limit"
	ReasonClosed      = "closed"
)

// Metrics groups the relay's Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	activeConnections prometheus.Gauge
	onlineUsers       prometheus.Gauge
	authFailures      prometheus.Counter
	takeovers         prometheus.Counter
	messagesPersisted prometheus.Counter
	eventsDropped     *prometheus.CounterVec
	eventsDelivered   *prometheus.CounterVec
	outboundDropped   *prometheus.CounterVec
}

// New registers collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers collectors on reg and exposes them from gatherer.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: gatherer,
		activeConnections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of open websocket connections.",
		}),
		onlineUsers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_users",
			Help:      "Number of identities with a registered presence entry.",
		}),
		authFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Connections refused by the identity verifier.",
		}),
		takeovers: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presence_takeovers_total",
			Help:      "Connections that replaced an existing presence entry.",
		}),
		messagesPersisted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_persisted_total",
			Help:      "Direct messages written to the message store.",
		}),
		eventsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Inbound events discarded without effect, by reason.",
		}, []string{"reason"}),
		eventsDelivered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_delivered_total",
			Help:      "Outbound events enqueued for a connection, by event.",
		}, []string{"event"}),
		outboundDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_dropped_total",
			Help:      "Outbound events discarded because a connection queue was full, by policy.",
		}, []string{"policy"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.activeConnections.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.activeConnections.Dec()
	}
}

func (m *Metrics) SetOnlineUsers(n int) {
	if m != nil {
		m.onlineUsers.Set(float64(n))
	}
}

func (m *Metrics) AuthFailed() {
	if m != nil {
		m.authFailures.Inc()
	}
}

func (m *Metrics) Takeover() {
	if m != nil {
		m.takeovers.Inc()
	}
}

func (m *Metrics) MessagePersisted() {
	if m != nil {
		m.messagesPersisted.Inc()
	}
}

func (m *Metrics) EventDropped(reason string) {
	if m != nil {
		m.eventsDropped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) EventDelivered(event string) {
	if m != nil {
		m.eventsDelivered.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) OutboundDropped(policy string) {
	if m != nil {
		m.outboundDropped.WithLabelValues(policy).Inc()
	}
}

// Dropped returns the current drop count for reason.
func (m *Metrics) Dropped(reason string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.eventsDropped.WithLabelValues(reason))
}
