package catalog

import (
	"maps"
	"math"

	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
)

// Entry is the curated metadata for one attribute.
type Entry struct {
	// Attribute is the leaf attribute key, e.g. "analogSpinSpeed".
	Attribute string `yaml:"attribute" json:"attribute"`

	// Category is the state-tree category the attribute lives under, if any.
	Category string `yaml:"category,omitempty" json:"category,omitempty"`

	// Capability supplies a descriptor when the cloud omits one, and its
	// enumerated values when the cloud's descriptor has none.
	Capability *capability.Descriptor `yaml:"capability,omitempty" json:"capability,omitempty"`

	DeviceClass    capability.DeviceClass    `yaml:"device_class,omitempty" json:"device_class,omitempty"`
	Unit           string                    `yaml:"unit,omitempty" json:"unit,omitempty"`
	EntityCategory capability.EntityCategory `yaml:"entity_category,omitempty" json:"entity_category,omitempty"`
	Icon           string                    `yaml:"icon,omitempty" json:"icon,omitempty"`

	// FriendlyName replaces the derived display name.
	FriendlyName string `yaml:"friendly_name,omitempty" json:"friendly_name,omitempty"`

	// StateInvert flips binary sensor readings.
	StateInvert bool `yaml:"state_invert,omitempty" json:"state_invert,omitempty"`

	// ValueMapping maps integer codes the cloud reports to display labels.
	ValueMapping map[int]string `yaml:"value_mapping,omitempty" json:"value_mapping,omitempty"`

	// StateMapping is a path to another attribute whose value is used when
	// this attribute reports nothing.
	StateMapping string `yaml:"state_mapping,omitempty" json:"state_mapping,omitempty"`

	// DisabledByDefault hides the entity until enabled by the user.
	DisabledByDefault bool `yaml:"disabled_by_default,omitempty" json:"disabled_by_default,omitempty"`

	// Platform forces the entity kind, overriding every other rule.
	Platform capability.Kind `yaml:"platform,omitempty" json:"platform,omitempty"`

	// ValueIcons maps command tokens to icons for button entities.
	ValueIcons map[string]string `yaml:"value_icons,omitempty" json:"value_icons,omitempty"`

	// ValueNamed names each command entity after its token alone.
	ValueNamed bool `yaml:"value_named,omitempty" json:"value_named,omitempty"`
}

// Path returns the capability path of the entry.
func (e Entry) Path() string {
	return capability.Join(e.Category, e.Attribute)
}

// Descriptor returns a copy of the entry's descriptor and whether it has one.
func (e Entry) Descriptor() (capability.Descriptor, bool) {
	if e.Capability == nil {
		return capability.Descriptor{}, false
	}
	return e.Capability.Clone(), true
}

// MapValue translates an integer code through ValueMapping.
// Non-integer values and unmapped codes are returned unchanged with false.
func (e Entry) MapValue(v any) (any, bool) {
	if len(e.ValueMapping) == 0 {
		return v, false
	}
	var code int
	switch n := v.(type) {
	case int:
		code = n
	case int64:
		code = int(n)
	case float64:
		if n != math.Trunc(n) {
			return v, false
		}
		code = int(n)
	default:
		return v, false
	}
	label, ok := e.ValueMapping[code]
	if !ok {
		return v, false
	}
	return label, true
}

// Clone returns a copy that shares no maps or pointers with e.
func (e Entry) Clone() Entry {
	cpy := e
	if e.Capability != nil {
		d := e.Capability.Clone()
		cpy.Capability = &d
	}
	cpy.ValueMapping = maps.Clone(e.ValueMapping)
	cpy.ValueIcons = maps.Clone(e.ValueIcons)
	return cpy
}
