package core

import (
	"context"

	"github.com/vovakirdan/dmrelay/internal/store"
)

// benchStore accepts every write and has no history.
type benchStore struct{}

func (benchStore) CreateMessage(_ context.Context, msg *store.Message) (*store.Message, error) {
	saved := *msg
	saved.ID = store.NewID()
	return &saved, nil
}

func (benchStore) FindConversation(context.Context, string, string, int) ([]*store.Message, error) {
	return nil, nil
}
