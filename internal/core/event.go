package core

// EventKind is a notification the core emits to connections.
type EventKind int

const (
	// EventHistory delivers the conversation replay right after activation.
	EventHistory EventKind = iota
	// EventPrivateMessage delivers a direct message to its recipient or echoes it to the sender.
	EventPrivateMessage
	// EventTyping tells a recipient that the sender started typing.
	EventTyping
	// EventStopTyping tells a recipient that the sender stopped typing.
	EventStopTyping
	// EventUserStatus announces a presence change to every connection.
	EventUserStatus
)

func (k EventKind) String() string {
	switch k {
	case EventHistory:
		return "chatHistory"
	case EventPrivateMessage:
		return "privateMessage"
	case EventTyping:
		return "typing"
	case EventStopTyping:
		return "stopTyping"
	case EventUserStatus:
		return "userStatus"
	default:
		return "unknown"
	}
}

// PresenceStatus is the online state carried by EventUserStatus.
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
)

// Event is sent to connections to describe what happened in the system.
// Events are shared between recipients and must not be mutated after dispatch.
type Event struct {
	Kind     EventKind
	Message  Message   // EventPrivateMessage
	Messages []Message // EventHistory
	SenderID string    // EventTyping, EventStopTyping
	UserID   string    // EventUserStatus
	Status   PresenceStatus
}
