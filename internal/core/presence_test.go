package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDirectoryRegisterResolveUnregister(t *testing.T) {
	d := NewDirectory()
	conn := NewConn(Identity{ID: userA}, 1, DropNewest)

	_, ok := d.Resolve(userA)
	require.False(t, ok)

	require.Nil(t, d.Register(userA, conn))
	got, ok := d.Resolve(userA)
	require.True(t, ok)
	require.Same(t, conn, got)
	require.Equal(t, 1, d.Len())

	require.True(t, d.Unregister(userA, conn))
	_, ok = d.Resolve(userA)
	require.False(t, ok)
	require.False(t, d.Unregister(userA, conn))
}

func TestDirectoryTakeoverKeepsNewerEntry(t *testing.T) {
	d := NewDirectory()
	older := NewConn(Identity{ID: userA}, 1, DropNewest)
	newer := NewConn(Identity{ID: userA}, 1, DropNewest)

	d.Register(userA, older)
	require.Same(t, older, d.Register(userA, newer))

	// The older connection disconnecting late must not evict the newer entry.
	require.False(t, d.Unregister(userA, older))
	got, ok := d.Resolve(userA)
	require.True(t, ok)
	require.Same(t, newer, got)
}

func TestDirectoryConcurrentAccess(t *testing.T) {
	d := NewDirectory()

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("%024x", i)
			conn := NewConn(Identity{ID: id}, 1, DropNewest)
			for range 100 {
				d.Register(id, conn)
				if _, ok := d.Resolve(id); !ok {
					t.Errorf("entry for %s vanished", id)
				}
				d.Unregister(id, conn)
			}
			d.Register(id, conn)
		}(i)
	}
	wg.Wait()

	require.Equal(t, 32, d.Len())
}

// Resolve returns a handle iff the identity's most recent connection is still open.
func TestDirectoryPresenceProperty(t *testing.T) {
	ids := []string{userA, userB, userC}

	rapid.Check(t, func(t *rapid.T) {
		d := NewDirectory()
		var open []*Conn
		latest := map[string]*Conn{}

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for range steps {
			if len(open) == 0 || rapid.Bool().Draw(t, "connect") {
				id := rapid.SampledFrom(ids).Draw(t, "id")
				conn := NewConn(Identity{ID: id}, 1, DropNewest)
				d.Register(id, conn)
				open = append(open, conn)
				latest[id] = conn
			} else {
				i := rapid.IntRange(0, len(open)-1).Draw(t, "disconnect")
				conn := open[i]
				open = append(open[:i], open[i+1:]...)
				d.Unregister(conn.Identity.ID, conn)
				if latest[conn.Identity.ID] == conn {
					delete(latest, conn.Identity.ID)
				}
			}

			for _, id := range ids {
				got, ok := d.Resolve(id)
				want, online := latest[id]
				if ok != online {
					t.Fatalf("resolve(%s) online=%v, want %v", id, ok, online)
				}
				if ok && got != want {
					t.Fatalf("resolve(%s) returned %s, want %s", id, got.ID, want.ID)
				}
			}
		}
	})
}
