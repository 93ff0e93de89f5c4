package core

import (
	"time"

	"github.com/vovakirdan/dmrelay/internal/store"
)

// Message is the domain model for a direct message.
type Message struct {
	ID          string
	SenderID    string
	RecipientID string
	SenderEmail string
	Text        string
	Timestamp   time.Time
	// ClientID is the sender's correlation id. It rides along on delivered copies only.
	ClientID string
}

func messageFromStore(m *store.Message) Message {
	return Message{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		SenderEmail: m.SenderEmail,
		Text:        m.Text,
		Timestamp:   m.Timestamp,
	}
}

func (m Message) toStore() *store.Message {
	return &store.Message{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		SenderEmail: m.SenderEmail,
		Text:        m.Text,
		Timestamp:   m.Timestamp,
	}
}
