package core

import "sync"

// Directory maps an identity to its currently registered connection.
// Absence of an entry means the identity is offline.
type Directory struct {
	mu      sync.RWMutex
	entries map[string]*Conn
}

// NewDirectory creates an empty presence directory.
func NewDirectory() *Directory {
	return &Directory{entries: make(map[string]*Conn)}
}

// Register inserts or overwrites the entry for id and returns the connection it replaced, if any.
func (d *Directory) Register(id string, conn *Conn) *Conn {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev := d.entries[id]
	d.entries[id] = conn
	if prev == conn {
		return nil
	}
	return prev
}

// Resolve returns the live connection for id.
func (d *Directory) Resolve(id string) (*Conn, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	conn, ok := d.entries[id]
	return conn, ok
}

// Unregister removes the entry for id only if it still points to conn.
// It reports whether an entry was removed.
func (d *Directory) Unregister(id string, conn *Conn) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cur, ok := d.entries[id]; !ok || cur != conn {
		return false
	}
	delete(d.entries, id)
	return true
}

// Len returns the number of online identities.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Reset drops every entry.
func (d *Directory) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.entries)
}
