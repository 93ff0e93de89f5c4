package proto

import (
	"encoding/json"
	"time"
)

// Event names carried in the envelope's "event" field.
const (
	EventPrivateMessage = "privateMessage"
	EventTyping         = "typing"
	EventStopTyping     = "stopTyping"
	EventChatHistory    = "chatHistory"
	EventUserStatus     = "userStatus"
)

// Inbound is the envelope for frames coming from the client.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// PrivateMessageData is a direct message sent by the client.
type PrivateMessageData struct {
	RecipientID string `json:"recipientId"`
	Text        string `json:"text"`
	ClientID    string `json:"clientId,omitempty"`
}

// TypingData addresses a typing or stopTyping indicator.
type TypingData struct {
	RecipientID string `json:"recipientId"`
}

// Outbound is the envelope for frames sent to the client.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Message is a direct message as seen by clients, both live and in chatHistory.
type Message struct {
	ID          string    `json:"_id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	SenderEmail string    `json:"senderEmail"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
	ClientID    string    `json:"clientId,omitempty"`
}

// TypingEvent tells the recipient who is typing.
type TypingEvent struct {
	SenderID string `json:"senderId"`
}

// UserStatusEvent announces a presence change.
type UserStatusEvent struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// Health is the body of the liveness endpoint.
type Health struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// Error is the body of a refused handshake.
type Error struct {
	Error string `json:"error"`
}
