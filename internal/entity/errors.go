package entity

import "errors"

// Sentinel errors for entity operations.
var (
	// ErrReadOnly indicates the entity kind does not accept commands.
	ErrReadOnly = errors.New("entity: read-only entity")

	// ErrInvalidValue indicates a command input could not be converted.
	ErrInvalidValue = errors.New("entity: invalid value")

	// ErrInvalidOption indicates a select option is not offered by the entity.
	ErrInvalidOption = errors.New("entity: unknown option")
)
