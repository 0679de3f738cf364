package reconciler

import "errors"

// Domain errors for the reconciler.
var (
	// ErrNoAppliances is returned by Setup when the account lists none.
	ErrNoAppliances = errors.New("reconciler: no appliances on account")

	// ErrStopped is returned for operations after Stop.
	ErrStopped = errors.New("reconciler: stopped")
)
