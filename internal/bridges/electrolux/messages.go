package electrolux

import (
	"time"

	"github.com/google/uuid"
)

// CommandMessage asks the bridge to send a command to one appliance entity.
// Topic: {prefix}/{appliance_id}/command
type CommandMessage struct {
	// ID correlates the command with its acknowledgement. Generated when
	// empty.
	ID string `json:"id,omitempty"`

	// Timestamp is when the command was issued.
	Timestamp time.Time `json:"timestamp,omitempty"`

	// Entity is the entity key or unique id, e.g. "cavityLight" or
	// "executeCommand_start".
	Entity string `json:"entity"`

	// Value is the user input. Its shape depends on the entity kind:
	// a bool or "ON"/"OFF" for switches, a number for numbers, an option
	// label for selects. Buttons ignore it.
	Value any `json:"value,omitempty"`

	// Source indicates where the command originated, e.g. "mqtt" or "api".
	Source string `json:"source,omitempty"`

	// UserID is the user who triggered the command, if known.
	UserID string `json:"user_id,omitempty"`
}

// AckStatus is the outcome of a command.
type AckStatus string

const (
	// AckAccepted indicates the cloud accepted the command.
	AckAccepted AckStatus = "accepted"

	// AckFailed indicates the command was rejected locally or by the cloud.
	AckFailed AckStatus = "failed"
)

// AckMessage reports the outcome of a command.
// Topic: {prefix}/{appliance_id}/ack
type AckMessage struct {
	CommandID   string    `json:"command_id"`
	Timestamp   time.Time `json:"timestamp"`
	ApplianceID string    `json:"appliance_id"`
	Entity      string    `json:"entity"`
	Status      AckStatus `json:"status"`

	// Payload is the command body sent to the cloud.
	Payload map[string]any `json:"payload,omitempty"`

	Error *AckError `json:"error,omitempty"`
}

// AckError contains error details for failed commands.
type AckError struct {
	// Code is one of the ErrCode* constants.
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StateMessage carries every entity value of an appliance.
// Topic: {prefix}/{appliance_id}/state
// QoS: configured, Retained: Yes
type StateMessage struct {
	ApplianceID string    `json:"appliance_id"`
	Timestamp   time.Time `json:"timestamp"`

	// Origin is the batch origin that produced this state.
	Origin string `json:"origin,omitempty"`

	// Connection is the cloud-reported connection state.
	Connection string `json:"connection,omitempty"`

	// Values maps entity keys to current values. Buttons are omitted.
	Values map[string]any `json:"values"`
}

// AlertMessage is published once per newly raised notification.
// Topic: {prefix}/{appliance_id}/alert
type AlertMessage struct {
	ID          string    `json:"id"`
	ApplianceID string    `json:"appliance_id"`
	Timestamp   time.Time `json:"timestamp"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
}

// Availability payloads.
const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// NewAckMessage creates a successful acknowledgement for cmd.
func NewAckMessage(applianceID string, cmd CommandMessage, payload map[string]any) AckMessage {
	return AckMessage{
		CommandID:   cmd.ID,
		Timestamp:   time.Now().UTC(),
		ApplianceID: applianceID,
		Entity:      cmd.Entity,
		Status:      AckAccepted,
		Payload:     payload,
	}
}

// NewAckError creates a failed acknowledgement for cmd.
func NewAckError(applianceID string, cmd CommandMessage, err error) AckMessage {
	return AckMessage{
		CommandID:   cmd.ID,
		Timestamp:   time.Now().UTC(),
		ApplianceID: applianceID,
		Entity:      cmd.Entity,
		Status:      AckFailed,
		Error: &AckError{
			Code:    ErrorCode(err),
			Message: err.Error(),
		},
	}
}

// ensureID fills in a command id and timestamp when the sender omitted them.
func (c *CommandMessage) ensureID() {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}
}
