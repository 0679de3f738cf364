package mqtt

import (
	"fmt"
	"strings"
)

// Default topic roots.
const (
	DefaultPrefix          = "graylogic/electrolux"
	DefaultDiscoveryPrefix = "homeassistant"
)

// Topics builds the bridge's MQTT topic hierarchy:
//
//	{prefix}/status                              bridge online/offline (retained, LWT)
//	{prefix}/{appliance}/state                   entity values (retained)
//	{prefix}/{appliance}/availability            online/offline (retained)
//	{prefix}/{appliance}/command                 inbound commands
//	{prefix}/{appliance}/ack                     command acknowledgements
//	{prefix}/{appliance}/alert                   alert notifications
//	{discovery}/{component}/{object}/config      Home Assistant discovery (retained)
//
// The zero value uses the default roots.
type Topics struct {
	Prefix          string
	DiscoveryPrefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultPrefix
	}
	return strings.TrimSuffix(t.Prefix, "/")
}

// Status returns the bridge status topic.
func (t Topics) Status() string {
	return t.prefix() + "/status"
}

// ApplianceState returns the retained state topic for an appliance.
//
// Example: graylogic/electrolux/916098431_00:31862190-443E07363DAB/state
func (t Topics) ApplianceState(applianceID string) string {
	return fmt.Sprintf("%s/%s/state", t.prefix(), applianceID)
}

// ApplianceAvailability returns the availability topic for an appliance.
func (t Topics) ApplianceAvailability(applianceID string) string {
	return fmt.Sprintf("%s/%s/availability", t.prefix(), applianceID)
}

// ApplianceCommand returns the inbound command topic for an appliance.
func (t Topics) ApplianceCommand(applianceID string) string {
	return fmt.Sprintf("%s/%s/command", t.prefix(), applianceID)
}

// ApplianceAck returns the command acknowledgement topic for an appliance.
func (t Topics) ApplianceAck(applianceID string) string {
	return fmt.Sprintf("%s/%s/ack", t.prefix(), applianceID)
}

// ApplianceAlert returns the alert notification topic for an appliance.
func (t Topics) ApplianceAlert(applianceID string) string {
	return fmt.Sprintf("%s/%s/alert", t.prefix(), applianceID)
}

// AllCommands returns a wildcard matching every appliance command topic.
func (t Topics) AllCommands() string {
	return t.prefix() + "/+/command"
}

// Discovery returns the Home Assistant discovery config topic for an
// entity. It returns "" when discovery is disabled (empty DiscoveryPrefix).
//
// Example: homeassistant/sensor/916098431_00_timeToEnd/config
func (t Topics) Discovery(component, objectID string) string {
	if t.DiscoveryPrefix == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s/config", strings.TrimSuffix(t.DiscoveryPrefix, "/"), component, SanitizeObjectID(objectID))
}

// ApplianceFromTopic extracts the appliance id from an appliance topic,
// or "" if the topic is not under the prefix.
func (t Topics) ApplianceFromTopic(topic string) string {
	rest, ok := strings.CutPrefix(topic, t.prefix()+"/")
	if !ok {
		return ""
	}
	id, _, ok := strings.Cut(rest, "/")
	if !ok {
		return ""
	}
	return id
}

// SanitizeObjectID replaces characters that are not valid in a discovery
// object id with underscores.
func SanitizeObjectID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
