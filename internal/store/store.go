//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a queried record does not exist.
var ErrNotFound = errors.New("not found")

// Message represents a persisted direct message.
type Message struct {
	ID          string
	SenderID    string
	RecipientID string // empty when stored without a recipient
	SenderEmail string
	Text        string
	Timestamp   time.Time
}

// MessageStore handles message persistence.
type MessageStore interface {
	// CreateMessage persists a message and returns the stored copy with its ID assigned.
	CreateMessage(ctx context.Context, msg *Message) (*Message, error)

	// FindConversation returns up to limit of the most recent messages exchanged
	// between userA and userB in either direction, ordered by timestamp ascending.
	FindConversation(ctx context.Context, userA, userB string, limit int) ([]*Message, error)
}

// Store is a MessageStore backed by a closable resource.
type Store interface {
	MessageStore

	// Close releases the underlying database.
	Close() error
}

// ConversationKey returns an order-independent key for the pair of users.
func ConversationKey(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}
