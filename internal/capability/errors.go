package capability

import "errors"

// Sentinel errors returned by Resolve.
var (
	// ErrIncomplete indicates the descriptor lacks a type or an access mode.
	ErrIncomplete = errors.New("capability: missing type or access")

	// ErrUnknownAccess indicates the access mode is not one of the known values.
	ErrUnknownAccess = errors.New("capability: unknown access mode")

	// ErrUnknownType indicates the value type is not one of the known values.
	ErrUnknownType = errors.New("capability: unknown value type")

	// ErrNoRule indicates no resolution rule matched the descriptor.
	ErrNoRule = errors.New("capability: no entity kind for descriptor")
)
