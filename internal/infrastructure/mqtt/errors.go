package mqtt

import "errors"

// Sentinel errors. Operation failures wrap one of the *Failed errors, and a
// timed-out operation additionally wraps ErrTimeout.
var (
	ErrNotConnected      = errors.New("mqtt: client not connected")
	ErrConnectionFailed  = errors.New("mqtt: connection failed")
	ErrPublishFailed     = errors.New("mqtt: publish failed")
	ErrSubscribeFailed   = errors.New("mqtt: subscribe failed")
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")
	ErrTimeout           = errors.New("mqtt: operation timed out")

	// ErrInvalidQoS rejects levels other than 0, 1 and 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic rejects empty topics.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")

	// ErrPayloadTooLarge rejects payloads over maxPayloadSize. It is
	// returned wrapped in ErrPublishFailed.
	ErrPayloadTooLarge = errors.New("mqtt: payload too large")
)
