// Package model defines the core data structures shared by isle components:
// activity identifiers, type-erased property values and update messages.
package model

import "errors"

// Error taxonomy. Callers match with errors.Is; producers wrap these with
// fmt.Errorf("%w: ...") to add the offending name.
var (
	// ErrNotFound is returned when an activity or property lookup misses.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned on duplicate activity or property registration.
	ErrAlreadyExists = errors.New("already exists")
	// ErrWrongType is returned when a property is set with a value whose type
	// differs from the type the property was created with.
	ErrWrongType = errors.New("wrong type")
	// ErrChannelClosed is returned when the UI consumer is gone.
	ErrChannelClosed = errors.New("channel closed")
	// ErrInvalidHandle is returned when a plugin-boundary handle is null,
	// stale, or refers to an object of an unexpected type.
	ErrInvalidHandle = errors.New("invalid handle")
	// ErrConfigParse is returned when a plugin configuration blob is malformed.
	ErrConfigParse = errors.New("config parse error")
	// ErrInvalidIdentifier is returned for identifiers not in activity@module form.
	ErrInvalidIdentifier = errors.New("invalid activity identifier")
	// ErrInvalidMode is returned for mode values outside the known range.
	ErrInvalidMode = errors.New("invalid mode")
)
