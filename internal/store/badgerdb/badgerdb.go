package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/vovakirdan/dmrelay/internal/store"
)

// BadgerStore implements store.Store on an embedded Badger database.
//
// Keys are laid out as "dm:{lowID}:{highID}:{unixnano, 19 digits}:{id}" so that a prefix
// scan over one conversation yields its messages in chronological order.
type BadgerStore struct {
	db *badger.DB
}

type record struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id,omitempty"`
	SenderEmail string    `json:"sender_email"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
}

// New opens a Badger database in dir. An empty dir opens an in-memory database.
func New(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func conversationPrefix(userA, userB string) []byte {
	return []byte("dm:" + store.ConversationKey(userA, userB) + ":")
}

func messageKey(msg *store.Message) []byte {
	return fmt.Appendf(conversationPrefix(msg.SenderID, msg.RecipientID), "%019d:%s",
		msg.Timestamp.UnixNano(),
		msg.ID,
	)
}

// CreateMessage persists a message under its conversation prefix.
func (s *BadgerStore) CreateMessage(ctx context.Context, msg *store.Message) (*store.Message, error) {
	if msg == nil {
		return nil, errors.New("nil message")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	saved := *msg
	if saved.ID == "" {
		saved.ID = store.NewID()
	}
	if saved.Timestamp.IsZero() {
		saved.Timestamp = time.Now()
	}
	saved.Timestamp = saved.Timestamp.UTC()

	value, err := json.Marshal(record(saved))
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(&saved), value)
	}); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}
	return &saved, nil
}

// FindConversation walks the conversation prefix backwards to collect the newest
// messages, then returns them oldest first.
func (s *BadgerStore) FindConversation(ctx context.Context, userA, userB string, limit int) ([]*store.Message, error) {
	if limit <= 0 {
		return []*store.Message{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := conversationPrefix(userA, userB)
	messages := make([]*store.Message, 0, limit)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(messages) < limit; it.Next() {
			var rec record
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &rec)
			}); err != nil {
				return fmt.Errorf("decode message %q: %w", it.Item().Key(), err)
			}
			msg := store.Message(rec)
			messages = append(messages, &msg)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}

	slices.Reverse(messages)
	return messages, nil
}
