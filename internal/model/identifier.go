package model

import (
	"fmt"
	"strings"
)

// Identifier names an activity within a module. It is comparable and is the
// key used to route UI commands and IPC notifications.
type Identifier struct {
	Module   string
	Activity string
}

// NewIdentifier creates an Identifier.
func NewIdentifier(module, activity string) Identifier {
	return Identifier{Module: module, Activity: activity}
}

// String renders the identifier as "activity@module".
func (id Identifier) String() string {
	return id.Activity + "@" + id.Module
}

// IsZero reports whether both components are empty.
func (id Identifier) IsZero() bool {
	return id.Module == "" && id.Activity == ""
}

// ParseIdentifier parses an "activity@module" string.
// Exactly two non-empty components are required.
func ParseIdentifier(s string) (Identifier, error) {
	parts := strings.Split(s, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Identifier{}, fmt.Errorf("%w: %q (expected activity@module)", ErrInvalidIdentifier, s)
	}
	return Identifier{Module: parts[1], Activity: parts[0]}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identifier) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentifier(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
