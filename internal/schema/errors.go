package schema

import "errors"

var (
	// ErrInvalidName is returned for empty names and entity/relationship name clashes.
	ErrInvalidName = errors.New("invalid type name")
	// ErrUnknownParent is returned when an entity type names a parent that is not an entity type.
	ErrUnknownParent = errors.New("unknown parent type")
	// ErrUnknownEntityType is returned when a relationship endpoint is not an entity type.
	ErrUnknownEntityType = errors.New("unknown entity type")
	// ErrCycle is returned when a parent assignment would make a type its own ancestor.
	ErrCycle = errors.New("type hierarchy cycle")
)
