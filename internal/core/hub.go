package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/dmrelay/internal/metrics"
	"github.com/vovakirdan/dmrelay/internal/store"
)

// DefaultHistoryLimit is the number of messages replayed on connect.
const DefaultHistoryLimit = 50

// Options tune a Hub. Zero values fall back to defaults.
type Options struct {
	// AdminID is the universal counterparty whose conversation is replayed on connect.
	// Empty disables history replay.
	AdminID        string
	HistoryLimit   int
	QueueSize      int
	QueuePolicy    QueuePolicy
	PersistTimeout time.Duration
	Logger         *zerolog.Logger
	Metrics        *metrics.Metrics
	// Now overrides the clock used for message timestamps.
	Now func() time.Time
}

// Hub owns the presence directory and dispatcher shared by all sessions.
type Hub struct {
	directory  *Directory
	dispatcher *Dispatcher
	store      store.MessageStore
	clock      *clock

	adminID        string
	historyLimit   int
	queueSize      int
	queuePolicy    QueuePolicy
	persistTimeout time.Duration

	log     *zerolog.Logger
	metrics *metrics.Metrics
}

// NewHub creates a hub persisting messages to st.
func NewHub(st store.MessageStore, opts Options) *Hub {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.QueuePolicy == "" {
		opts.QueuePolicy = DropNewest
	}

	hubLog := logger.With().Str("component", "hub").Logger()
	return &Hub{
		directory:      NewDirectory(),
		dispatcher:     NewDispatcher(&hubLog, opts.Metrics),
		store:          st,
		clock:          newClock(opts.Now),
		adminID:        opts.AdminID,
		historyLimit:   opts.HistoryLimit,
		queueSize:      opts.QueueSize,
		queuePolicy:    opts.QueuePolicy,
		persistTimeout: opts.PersistTimeout,
		log:            &hubLog,
		metrics:        opts.Metrics,
	}
}

// Directory exposes the presence directory.
func (h *Hub) Directory() *Directory {
	return h.directory
}

// Dispatcher exposes the dispatch layer.
func (h *Hub) Dispatcher() *Dispatcher {
	return h.dispatcher
}

// Online reports whether id has a registered connection.
func (h *Hub) Online(id string) bool {
	_, ok := h.directory.Resolve(id)
	return ok
}

// Open activates a session for an identity that already passed admission:
// it registers presence, announces the user online and replays history.
func (h *Hub) Open(ctx context.Context, identity Identity) (*Session, error) {
	if !ValidID(identity.ID) {
		return nil, fmt.Errorf("%w: malformed identity %q", ErrValidation, identity.ID)
	}

	conn := NewConn(identity, h.queueSize, h.queuePolicy)
	sessLog := h.log.With().
		Str("conn_id", conn.ID).
		Str("user_id", identity.ID).
		Logger()
	s := &Session{
		hub:  h,
		conn: conn,
		log:  sessLog,
	}
	s.state.Store(int32(StateAuthenticated))

	if !h.dispatcher.Attach(conn) {
		conn.Close()
		return nil, ErrHubClosed
	}
	h.metrics.ConnectionOpened()

	if prev := h.directory.Register(identity.ID, conn); prev != nil {
		h.metrics.Takeover()
		sessLog.Info().Str("previous_conn_id", prev.ID).Msg("presence taken over by new connection")
	}
	h.metrics.SetOnlineUsers(h.directory.Len())

	h.dispatcher.Broadcast(&Event{
		Kind:   EventUserStatus,
		UserID: identity.ID,
		Status: StatusOnline,
	})

	s.replayHistory(ctx)
	s.state.Store(int32(StateActive))

	sessLog.Info().Str("email", identity.Email).Msg("session active")
	return s, nil
}

// Close disconnects every connection and clears presence.
func (h *Hub) Close() {
	h.dispatcher.CloseAll()
	h.directory.Reset()
	h.metrics.SetOnlineUsers(0)
	h.log.Info().Msg("hub closed")
}
