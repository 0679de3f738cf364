package cloud

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors for cloud access.
var (
	// ErrUnauthorized is returned when the cloud rejects the credentials.
	ErrUnauthorized = errors.New("cloud: unauthorized")

	// ErrNotFound is returned for unknown appliances.
	ErrNotFound = errors.New("cloud: not found")

	// ErrNoCapabilities is returned when the cloud reports no capability
	// definition for an appliance.
	ErrNoCapabilities = errors.New("cloud: no capabilities reported")

	// ErrMissingCredentials is returned when the client is built without an
	// API key or access token.
	ErrMissingCredentials = errors.New("cloud: api key and access token required")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("cloud: status %d", e.Status)
	}
	return fmt.Sprintf("cloud: status %d: %s", e.Status, e.Body)
}

// Unwrap maps auth and not-found statuses to sentinel errors.
func (e *StatusError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}
