package electrolux

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nerrad567/gray-logic-electrolux/internal/appliance"
	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
	"github.com/nerrad567/gray-logic-electrolux/internal/entity"
	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/mqtt"
)

// manufacturer is reported when the appliance has no brand.
const manufacturer = "Electrolux"

// DeviceInfo groups all entities of one appliance under a single device.
type DeviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model,omitempty"`
}

// Availability is one availability source of a discovered entity.
type Availability struct {
	Topic         string `json:"topic"`
	ValueTemplate string `json:"value_template,omitempty"`
}

// DiscoveryConfig is a Home Assistant MQTT discovery payload for one
// entity. Fields not used by a platform are omitted.
type DiscoveryConfig struct {
	Name              string         `json:"name"`
	UniqueID          string         `json:"unique_id"`
	ObjectID          string         `json:"object_id"`
	Device            DeviceInfo     `json:"device"`
	Availability      []Availability `json:"availability"`
	AvailabilityMode  string         `json:"availability_mode"`
	Icon              string         `json:"icon,omitempty"`
	DeviceClass       string         `json:"device_class,omitempty"`
	EntityCategory    string         `json:"entity_category,omitempty"`
	EnabledByDefault  *bool          `json:"enabled_by_default,omitempty"`
	UnitOfMeasurement string         `json:"unit_of_measurement,omitempty"`

	StateTopic    string `json:"state_topic,omitempty"`
	ValueTemplate string `json:"value_template,omitempty"`

	CommandTopic    string `json:"command_topic,omitempty"`
	CommandTemplate string `json:"command_template,omitempty"`

	// switch and binary_sensor
	PayloadOn  string `json:"payload_on,omitempty"`
	PayloadOff string `json:"payload_off,omitempty"`
	StateOn    string `json:"state_on,omitempty"`
	StateOff   string `json:"state_off,omitempty"`

	// button
	PayloadPress string `json:"payload_press,omitempty"`

	// number
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step *float64 `json:"step,omitempty"`
	Mode string   `json:"mode,omitempty"`

	// select
	Options []string `json:"options,omitempty"`
}

// Device describes the appliance owning a set of entities.
func Device(st *appliance.State) DeviceInfo {
	brand := st.Brand
	if brand == "" {
		brand = manufacturer
	}
	name := st.Name
	if name == "" {
		name = st.ID
	}
	return DeviceInfo{
		Identifiers:  []string{"electrolux_" + st.ID},
		Name:         name,
		Manufacturer: brand,
		Model:        st.Model,
	}
}

// BuildDiscovery returns the discovery topic and payload for one entity
// reading. The topic is "" when discovery is disabled.
//
// Parameters:
//   - topics: topic layout of the bridge
//   - applianceID: owning appliance
//   - device: device block shared by the appliance's entities
//   - r: current reading of the entity
//
// Returns:
//   - string: retained config topic
//   - DiscoveryConfig: payload for the entity's platform
func BuildDiscovery(topics mqtt.Topics, applianceID string, device DeviceInfo, r entity.Reading) (string, DiscoveryConfig) {
	cfg := DiscoveryConfig{
		Name:     r.Name,
		UniqueID: r.UniqueID,
		ObjectID: mqtt.SanitizeObjectID(r.UniqueID),
		Device:   device,
		Availability: []Availability{
			{Topic: topics.Status(), ValueTemplate: "{{ value_json.status }}"},
			{Topic: topics.ApplianceAvailability(applianceID)},
		},
		AvailabilityMode: "all",
		Icon:             r.Icon,
		DeviceClass:      deviceClassName(r.DeviceClass),
		EntityCategory:   string(r.Category),
	}
	if !r.Enabled {
		disabled := false
		cfg.EnabledByDefault = &disabled
	}

	stateTopic := topics.ApplianceState(applianceID)
	commandTopic := topics.ApplianceCommand(applianceID)
	value := fmt.Sprintf("value_json['values'][%q]", r.Key)

	switch r.Kind {
	case capability.KindSensor:
		cfg.StateTopic = stateTopic
		cfg.ValueTemplate = "{{ " + value + " }}"
		cfg.UnitOfMeasurement = r.Unit

	case capability.KindBinarySensor:
		cfg.StateTopic = stateTopic
		cfg.ValueTemplate = onOffTemplate(value)
		cfg.PayloadOn = "ON"
		cfg.PayloadOff = "OFF"

	case capability.KindSwitch:
		cfg.StateTopic = stateTopic
		cfg.ValueTemplate = onOffTemplate(value)
		cfg.StateOn = "ON"
		cfg.StateOff = "OFF"
		cfg.PayloadOn = "ON"
		cfg.PayloadOff = "OFF"
		cfg.CommandTopic = commandTopic
		cfg.CommandTemplate = fmt.Sprintf(`{"entity":%q,"value":"{{ value }}"}`, r.Key)

	case capability.KindNumber:
		cfg.StateTopic = stateTopic
		cfg.ValueTemplate = "{{ " + value + " }}"
		cfg.UnitOfMeasurement = r.Unit
		cfg.CommandTopic = commandTopic
		cfg.CommandTemplate = fmt.Sprintf(`{"entity":%q,"value":{{ value }}}`, r.Key)
		cfg.Mode = "box"
		cfg.Min = floatAttr(r.Attributes, "min")
		cfg.Max = floatAttr(r.Attributes, "max")
		cfg.Step = floatAttr(r.Attributes, "step")

	case capability.KindSelect:
		cfg.StateTopic = stateTopic
		cfg.ValueTemplate = "{{ " + value + " }}"
		cfg.CommandTopic = commandTopic
		cfg.CommandTemplate = fmt.Sprintf(`{"entity":%q,"value":"{{ value }}"}`, r.Key)
		cfg.Options = stringsAttr(r.Attributes, "options")

	case capability.KindButton:
		cfg.CommandTopic = commandTopic
		cfg.PayloadPress = fmt.Sprintf(`{"entity":%q}`, r.Key)
	}

	return topics.Discovery(string(r.Kind), r.UniqueID), cfg
}

func onOffTemplate(value string) string {
	return "{{ 'ON' if " + value + " else 'OFF' }}"
}

// deviceClassName strips the platform from a "platform.name" device class.
func deviceClassName(dc string) string {
	if _, name, ok := strings.Cut(dc, "."); ok {
		return name
	}
	return dc
}

func floatAttr(attrs map[string]any, key string) *float64 {
	switch v := attrs[key].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	}
	return nil
}

func stringsAttr(attrs map[string]any, key string) []string {
	switch v := attrs[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, o := range v {
			if s, ok := o.(string); ok {
				out = append(out, s)
			}
		}
		sort.Strings(out)
		return out
	}
	return nil
}
