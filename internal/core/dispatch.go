package core

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/dmrelay/internal/metrics"
)

// Dispatcher delivers events to one connection or to every attached connection.
// Delivery is fire-and-forget: a full queue loses events according to its policy.
type Dispatcher struct {
	mu      sync.RWMutex
	conns   map[*Conn]struct{}
	closed  bool
	log     *zerolog.Logger
	metrics *metrics.Metrics
}

// NewDispatcher builds a dispatcher with no attached connections.
func NewDispatcher(logger *zerolog.Logger, m *metrics.Metrics) *Dispatcher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Dispatcher{
		conns:   make(map[*Conn]struct{}),
		log:     logger,
		metrics: m,
	}
}

// Attach makes conn a broadcast target. It returns false once the dispatcher is closed.
func (d *Dispatcher) Attach(conn *Conn) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}
	d.conns[conn] = struct{}{}
	return true
}

// Detach removes conn from broadcast targets.
func (d *Dispatcher) Detach(conn *Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.conns, conn)
}

// Len returns the number of attached connections.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.conns)
}

// SendTo enqueues ev on a single connection.
func (d *Dispatcher) SendTo(conn *Conn, ev *Event) {
	if conn == nil || ev == nil {
		return
	}
	d.deliver(conn, ev)
}

// Broadcast enqueues ev on every attached connection, the originator included.
func (d *Dispatcher) Broadcast(ev *Event) {
	if ev == nil {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	for conn := range d.conns {
		d.deliver(conn, ev)
	}
}

// CloseAll closes every attached connection and refuses new ones.
func (d *Dispatcher) CloseAll() {
	d.mu.Lock()
	conns := make([]*Conn, 0, len(d.conns))
	for conn := range d.conns {
		conns = append(conns, conn)
	}
	clear(d.conns)
	d.closed = true
	d.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}

func (d *Dispatcher) deliver(conn *Conn, ev *Event) {
	switch conn.enqueue(ev) {
	case enqueued:
		d.metrics.EventDelivered(ev.Kind.String())
	case enqueuedDroppedOldest:
		d.metrics.EventDelivered(ev.Kind.String())
		d.metrics.OutboundDropped(string(DropOldest))
		d.log.Debug().Str("conn_id", conn.ID).Str("user_id", conn.Identity.ID).
			Str("event", ev.Kind.String()).Msg("outbound queue full, dropped oldest event")
	case droppedNewest:
		d.metrics.OutboundDropped(string(DropNewest))
		d.log.Debug().Str("conn_id", conn.ID).Str("user_id", conn.Identity.ID).
			Str("event", ev.Kind.String()).Msg("outbound queue full, dropped event")
	case connClosed:
	}
}
