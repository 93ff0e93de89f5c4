package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/dmrelay/internal/metrics"
	"github.com/vovakirdan/dmrelay/internal/store"
)

// State is a session's position in its lifecycle.
type State int32

const (
	// StateConnecting covers the handshake, which the transport runs before a
	// Session exists; Hub.Open starts sessions at StateAuthenticated.
	StateConnecting State = iota
	StateAuthenticated
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session controls one authenticated connection.
// Handle calls are serialized so a connection's events are processed in arrival order.
type Session struct {
	hub  *Hub
	conn *Conn
	log  zerolog.Logger

	mu        sync.Mutex
	state     atomic.Int32
	closeOnce sync.Once
}

// Conn returns the session's connection handle.
func (s *Session) Conn() *Conn {
	return s.conn
}

// Identity returns the identity the session was admitted with.
func (s *Session) Identity() Identity {
	return s.conn.Identity
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Handle processes one inbound command.
// Returned errors are for logging only; nothing is reported back to the client.
func (s *Session) Handle(ctx context.Context, cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != StateActive {
		s.hub.metrics.EventDropped(metrics.ReasonClosed)
		return ErrSessionClosed
	}

	switch cmd.Kind {
	case CommandSendMessage:
		return s.sendMessage(ctx, cmd)
	case CommandTypingStart:
		s.notifyTyping(EventTyping, cmd.RecipientID)
		return nil
	case CommandTypingStop:
		s.notifyTyping(EventStopTyping, cmd.RecipientID)
		return nil
	default:
		s.hub.metrics.EventDropped(metrics.ReasonValidation)
		return fmt.Errorf("%w: unknown command kind %d", ErrValidation, cmd.Kind)
	}
}

// Close deregisters presence and announces the user offline if this connection
// still owned the presence entry. A connection superseded by a newer one for the
// same user closes without an offline notice, since that user is still online.
// It waits for an in-flight Handle to finish.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.state.Store(int32(StateClosed))
		id := s.conn.Identity.ID

		owned := s.hub.directory.Unregister(id, s.conn)
		s.hub.dispatcher.Detach(s.conn)
		s.conn.Close()
		s.hub.metrics.ConnectionClosed()
		s.hub.metrics.SetOnlineUsers(s.hub.directory.Len())

		if !owned {
			s.log.Info().Msg("superseded connection closed, presence kept")
			return
		}

		s.hub.dispatcher.Broadcast(&Event{
			Kind:   EventUserStatus,
			UserID: id,
			Status: StatusOffline,
		})
	})
}

func (s *Session) sendMessage(ctx context.Context, cmd Command) error {
	if err := validatePrivateMessage(cmd); err != nil {
		s.hub.metrics.EventDropped(metrics.ReasonValidation)
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	msg := Message{
		SenderID:    s.conn.Identity.ID,
		RecipientID: cmd.RecipientID,
		SenderEmail: s.conn.Identity.Email,
		Text:        cmd.Text,
		Timestamp:   s.hub.clock.Now(),
	}

	// An accepted message is written even if the connection goes away meanwhile.
	persistCtx := context.WithoutCancel(ctx)
	if s.hub.persistTimeout > 0 {
		var cancel context.CancelFunc
		persistCtx, cancel = context.WithTimeout(persistCtx, s.hub.persistTimeout)
		defer cancel()
	}

	saved, err := s.hub.store.CreateMessage(persistCtx, msg.toStore())
	if err != nil {
		s.hub.metrics.EventDropped(metrics.ReasonPersistence)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.hub.metrics.MessagePersisted()

	out := messageFromStore(saved)
	out.ClientID = cmd.ClientID
	ev := &Event{Kind: EventPrivateMessage, Message: out}

	if recipient, ok := s.hub.directory.Resolve(cmd.RecipientID); ok && recipient != s.conn {
		s.hub.dispatcher.SendTo(recipient, ev)
	}
	s.hub.dispatcher.SendTo(s.conn, ev)
	return nil
}

func (s *Session) notifyTyping(kind EventKind, recipientID string) {
	recipient, ok := s.hub.directory.Resolve(recipientID)
	if !ok {
		return
	}
	s.hub.dispatcher.SendTo(recipient, &Event{
		Kind:     kind,
		SenderID: s.conn.Identity.ID,
	})
}

func (s *Session) replayHistory(ctx context.Context) {
	admin := s.hub.adminID
	if admin == "" || s.conn.Identity.ID == admin {
		return
	}

	history, err := s.hub.store.FindConversation(ctx, s.conn.Identity.ID, admin, s.hub.historyLimit)
	if err != nil {
		s.log.Error().Err(err).Msg("chat history")
		return
	}

	s.hub.dispatcher.SendTo(s.conn, &Event{
		Kind: EventHistory,
		Messages: lo.Map(history, func(m *store.Message, _ int) Message {
			return messageFromStore(m)
		}),
	})
}
