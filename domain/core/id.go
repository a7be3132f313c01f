package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
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

// Domain-specific ID types
type (
	// StreamID identifies one input stream feeding a layer pipeline
	StreamID ID
	// PassID identifies a single pipeline pass over one input event
	PassID ID
	// FieldName names one input field of a multi-field record
	FieldName ID
)

// String conversions for domain IDs
func (id StreamID) String() string { return ID(id).String() }
func (id PassID) String() string   { return ID(id).String() }
func (f FieldName) String() string { return ID(f).String() }

// NewStreamID creates a new unique stream identifier
func NewStreamID() StreamID { return StreamID(NewID()) }

// NewPassID creates a new unique pass identifier
func NewPassID() PassID { return PassID(NewID()) }

// ParseStreamID validates and parses a stream ID from a string
func ParseStreamID(s string) (StreamID, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("stream ID cannot be empty")
	}
	return StreamID(trimmed), nil
}

// ParseFieldName validates and parses a field name from a string
func ParseFieldName(s string) (FieldName, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("field name cannot be empty")
	}
	return FieldName(trimmed), nil
}
