package capability

import (
	"fmt"
	"strings"
)

// Access is the access mode declared by a capability.
type Access string

// Access constants.
const (
	AccessRead      Access = "read"
	AccessReadWrite Access = "readwrite"
	AccessWrite     Access = "write"
	AccessConstant  Access = "constant"
)

// Valid reports whether a is a known access mode.
func (a Access) Valid() bool {
	switch a {
	case AccessRead, AccessReadWrite, AccessWrite, AccessConstant:
		return true
	}
	return false
}

// ValueType is the value type declared by a capability.
type ValueType string

// ValueType constants.
const (
	TypeBoolean     ValueType = "boolean"
	TypeString      ValueType = "string"
	TypeNumber      ValueType = "number"
	TypeInt         ValueType = "int"
	TypeTemperature ValueType = "temperature"
	TypeAlert       ValueType = "alert"
)

// Valid reports whether t is a known value type.
func (t ValueType) Valid() bool {
	switch t {
	case TypeBoolean, TypeString, TypeNumber, TypeInt, TypeTemperature, TypeAlert:
		return true
	}
	return false
}

// Kind is the entity kind a capability is rendered as.
type Kind string

// Kind constants.
const (
	KindSensor       Kind = "sensor"
	KindBinarySensor Kind = "binary_sensor"
	KindNumber       Kind = "number"
	KindSelect       Kind = "select"
	KindSwitch       Kind = "switch"
	KindButton       Kind = "button"
)

// AllKinds returns every entity kind, in platform order.
func AllKinds() []Kind {
	return []Kind{
		KindBinarySensor, KindButton, KindNumber,
		KindSelect, KindSensor, KindSwitch,
	}
}

// Valid reports whether k is one of the supported entity kinds.
func (k Kind) Valid() bool {
	for _, known := range AllKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Writable reports whether entities of this kind accept commands.
func (k Kind) Writable() bool {
	switch k {
	case KindNumber, KindSelect, KindSwitch, KindButton:
		return true
	}
	return false
}

// EntityCategory groups entities that are not primary controls.
type EntityCategory string

// EntityCategory constants.
const (
	EntityCategoryNone       EntityCategory = ""
	EntityCategoryDiagnostic EntityCategory = "diagnostic"
	EntityCategoryConfig     EntityCategory = "config"
)

// DeviceClass is a device class hint scoped to the platform that defines it.
// A device class belonging to a platform implies that platform's entity kind.
//
// The text form is "platform.name", e.g. "binary_sensor.door".
type DeviceClass struct {
	Platform Kind
	Name     string
}

// Common device classes.
var (
	SensorTemperature = DeviceClass{Platform: KindSensor, Name: "temperature"}
	SensorEnergy      = DeviceClass{Platform: KindSensor, Name: "energy"}
	NumberTemperature = DeviceClass{Platform: KindNumber, Name: "temperature"}
	BinaryLock        = DeviceClass{Platform: KindBinarySensor, Name: "lock"}
	BinaryDoor        = DeviceClass{Platform: KindBinarySensor, Name: "door"}
	SwitchSwitch      = DeviceClass{Platform: KindSwitch, Name: "switch"}
)

// IsZero reports whether no device class is set.
func (c DeviceClass) IsZero() bool {
	return c.Platform == "" && c.Name == ""
}

// String returns the "platform.name" form, or "" for the zero value.
func (c DeviceClass) String() string {
	if c.IsZero() {
		return ""
	}
	return string(c.Platform) + "." + c.Name
}

// MarshalText implements encoding.TextMarshaler.
func (c DeviceClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *DeviceClass) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		*c = DeviceClass{}
		return nil
	}
	platform, name, ok := strings.Cut(s, ".")
	if !ok || name == "" || !Kind(platform).Valid() {
		return fmt.Errorf("invalid device class %q: want platform.name", s)
	}
	*c = DeviceClass{Platform: Kind(platform), Name: name}
	return nil
}

// Units understood by the value formatters.
const (
	UnitCelsius    = "°C"
	UnitFahrenheit = "°F"
	UnitSeconds    = "s"
	UnitMinutes    = "min"
	UnitHours      = "h"
	UnitWatt       = "W"
	UnitLiters     = "L"
	UnitPercent    = "%"
)

// IsTemperatureUnit reports whether unit is a temperature unit.
func IsTemperatureUnit(unit string) bool {
	return unit == UnitCelsius || unit == UnitFahrenheit
}

// IsTimeUnit reports whether unit is a duration unit.
func IsTimeUnit(unit string) bool {
	return unit == UnitSeconds || unit == UnitMinutes || unit == UnitHours
}
