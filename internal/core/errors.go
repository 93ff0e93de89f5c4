package core

import "errors"

var (
	// ErrValidation marks an inbound event that was dropped because it is malformed.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence marks a message that could not be written to the store.
	ErrPersistence = errors.New("persistence failed")
	// ErrSessionClosed is returned when an event arrives after the session closed.
	ErrSessionClosed = errors.New("session closed")
	// ErrHubClosed is returned by Open once the hub has shut down.
	ErrHubClosed = errors.New("hub closed")
)
