package core

import (
	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered
// generation. Falls back to v4 if v7 is not available.
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// SessionID identifies one review session in the UI store.
type SessionID ID

// NewSessionID creates a session identifier.
func NewSessionID() SessionID { return SessionID(NewID()) }

// String returns the string representation
func (id SessionID) String() string { return ID(id).String() }
