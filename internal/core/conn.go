package core

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// QueuePolicy decides what a full outbound queue gives up.
type QueuePolicy string

const (
	// DropNewest discards the event being enqueued.
	DropNewest QueuePolicy = "drop_newest"
	// DropOldest discards the oldest queued event to make room.
	DropOldest QueuePolicy = "drop_oldest"
)

// DefaultQueueSize is the outbound buffer used when none is configured.
const DefaultQueueSize = 64

// ParseQueuePolicy converts a config value into a QueuePolicy.
func ParseQueuePolicy(s string) (QueuePolicy, error) {
	switch QueuePolicy(s) {
	case "", DropNewest:
		return DropNewest, nil
	case DropOldest:
		return DropOldest, nil
	default:
		return "", fmt.Errorf("unknown outbound policy %q", s)
	}
}

type enqueueResult int

const (
	enqueued enqueueResult = iota
	enqueuedDroppedOldest
	droppedNewest
	connClosed
)

// Conn is the handle of one live connection, tagged with a single identity for its lifetime.
type Conn struct {
	ID       string
	Identity Identity

	policy QueuePolicy

	mu     sync.Mutex
	events chan *Event
	closed bool
}

// NewConn constructs a connection handle with a bounded outbound queue.
func NewConn(identity Identity, queueSize int, policy QueuePolicy) *Conn {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if policy == "" {
		policy = DropNewest
	}
	return &Conn{
		ID:       uuid.NewString(),
		Identity: identity,
		policy:   policy,
		events:   make(chan *Event, queueSize),
	}
}

// Events is drained by the transport write loop. It is closed when the connection closes.
func (c *Conn) Events() <-chan *Event {
	return c.events
}

// Policy returns the queue saturation policy.
func (c *Conn) Policy() QueuePolicy {
	return c.policy
}

// Close stops accepting events and closes the Events channel. Safe to call repeatedly.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}

func (c *Conn) enqueue(ev *Event) enqueueResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return connClosed
	}

	select {
	case c.events <- ev:
		return enqueued
	default:
	}

	if c.policy == DropNewest {
		return droppedNewest
	}

	// Only enqueue sends, under mu, so one receive always frees a slot.
	select {
	case <-c.events:
	default:
	}
	c.events <- ev
	return enqueuedDroppedOldest
}
