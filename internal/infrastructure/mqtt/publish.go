package mqtt

import (
	"encoding/json"
	"fmt"
)

// maxPayloadSize caps outgoing payloads at 1MB.
const maxPayloadSize = 1 << 20

// Publish sends a message to topic.
//
// Parameters:
//   - topic: Destination topic (e.g. Topics.ApplianceState(id))
//   - payload: Message body, at most 1MB
//   - qos: 0, 1 or 2
//   - retained: Broker keeps the last message for new subscribers; use for
//     state, availability and discovery, never for acks or alerts
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrNotConnected or a wrapped ErrPublishFailed
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := checkTopic(topic, qos); err != nil {
		return err
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: %w: %d bytes exceeds %d", ErrPublishFailed, ErrPayloadTooLarge, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return waitToken(c.client.Publish(topic, qos, retained, payload), ErrPublishFailed)
}

// PublishRetained publishes a retained message with the configured QoS.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, c.QoS(), true)
}

// PublishJSON marshals v and publishes it with the configured QoS.
func (c *Client) PublishJSON(topic string, v any, retained bool) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: marshal payload: %w", ErrPublishFailed, err)
	}
	return c.Publish(topic, data, c.QoS(), retained)
}
