package electrolux

import (
	"errors"

	"github.com/nerrad567/gray-logic-electrolux/internal/appliance"
	"github.com/nerrad567/gray-logic-electrolux/internal/cloud"
	"github.com/nerrad567/gray-logic-electrolux/internal/entity"
)

// Domain errors for the Electrolux MQTT bridge.
var (
	// ErrInvalidCommand is returned when a command message cannot be parsed
	// or names no entity.
	ErrInvalidCommand = errors.New("electrolux: invalid command message")

	// ErrStopped is returned by Start after Stop.
	ErrStopped = errors.New("electrolux: bridge stopped")
)

// Error codes carried in failed acknowledgements.
const (
	ErrCodeInvalidCommand   = "INVALID_COMMAND"
	ErrCodeUnknownAppliance = "UNKNOWN_APPLIANCE"
	ErrCodeUnknownEntity    = "UNKNOWN_ENTITY"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeCloudError       = "CLOUD_ERROR"
)

// ErrorCode maps a command error to its acknowledgement code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCommand),
		errors.Is(err, entity.ErrReadOnly),
		errors.Is(err, entity.ErrInvalidValue),
		errors.Is(err, entity.ErrInvalidOption):
		return ErrCodeInvalidCommand
	case errors.Is(err, appliance.ErrUnknownAppliance):
		return ErrCodeUnknownAppliance
	case errors.Is(err, appliance.ErrUnknownEntity):
		return ErrCodeUnknownEntity
	case errors.Is(err, cloud.ErrUnauthorized):
		return ErrCodeUnauthorized
	default:
		return ErrCodeCloudError
	}
}
