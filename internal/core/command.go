package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSendMessage persists and routes a direct message.
	CommandSendMessage CommandKind = iota
	// CommandTypingStart forwards a typing indicator to the recipient.
	CommandTypingStart
	// CommandTypingStop forwards the end of a typing indicator to the recipient.
	CommandTypingStop
)

// Command represents an inbound event from a connection.
type Command struct {
	Kind        CommandKind
	RecipientID string
	Text        string
	ClientID    string
}
