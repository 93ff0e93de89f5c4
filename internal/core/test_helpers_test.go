package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/dmrelay/internal/store/sqlite"
)

const (
	adminID = "6940e8fb7e042f29dcf61df0"
	userA   = "aaaaaaaaaaaaaaaaaaaaaaaa"
	userB   = "bbbbbbbbbbbbbbbbbbbbbbbb"
	userC   = "cccccccccccccccccccccccc"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("events channel closed while waiting for %v", kind)
			}
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// noEvent fails if an event of kind shows up on ch within a short window.
func noEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	timer := time.NewTimer(100 * time.Millisecond)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected %v event: %+v", kind, ev)
			}
		case <-timer.C:
			return
		}
	}
}

func newSQLiteHub(t *testing.T, opts Options) (*Hub, *sqlite.SQLiteStore) {
	t.Helper()

	st, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	if opts.AdminID == "" {
		opts.AdminID = adminID
	}
	hub := NewHub(st, opts)
	t.Cleanup(hub.Close)
	return hub, st
}

func mustOpen(t *testing.T, hub *Hub, id, email string) *Session {
	t.Helper()

	s, err := hub.Open(context.Background(), Identity{ID: id, Email: email})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}
