package appliance

import "errors"

// Domain errors for appliance state.
var (
	// ErrUnknownAppliance is returned when no state exists for an appliance id.
	ErrUnknownAppliance = errors.New("appliance: unknown appliance")

	// ErrUnknownEntity is returned when an appliance has no entity with the
	// requested unique id or key.
	ErrUnknownEntity = errors.New("appliance: unknown entity")
)
