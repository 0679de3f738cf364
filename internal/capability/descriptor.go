package capability

import (
	"maps"
	"slices"
)

// ValueInfo is the metadata attached to one enumerated value.
type ValueInfo struct {
	Disabled bool `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// Descriptor is the typed form of one capability.
//
// A nil Values map means the capability declares no enumeration; an empty
// non-nil map means the key was present but empty. The two are treated
// differently by the resolver.
type Descriptor struct {
	Access  Access               `yaml:"access" json:"access"`
	Type    ValueType            `yaml:"type" json:"type"`
	Values  map[string]ValueInfo `yaml:"values,omitempty" json:"values,omitempty"`
	Min     *float64             `yaml:"min,omitempty" json:"min,omitempty"`
	Max     *float64             `yaml:"max,omitempty" json:"max,omitempty"`
	Step    *float64             `yaml:"step,omitempty" json:"step,omitempty"`
	Default any                  `yaml:"default,omitempty" json:"default,omitempty"`
}

// IsZero reports whether the descriptor carries no information at all.
func (d Descriptor) IsZero() bool {
	return d.Access == "" && d.Type == "" && d.Values == nil &&
		d.Min == nil && d.Max == nil && d.Step == nil && d.Default == nil
}

// Complete reports whether both type and access are declared.
func (d Descriptor) Complete() bool {
	return d.Access != "" && d.Type != ""
}

// HasValues reports whether the descriptor declares an enumeration key.
func (d Descriptor) HasValues() bool {
	return d.Values != nil
}

// ValueTokens returns the enumerated value tokens in sorted order.
func (d Descriptor) ValueTokens() []string {
	return slices.Sorted(maps.Keys(d.Values))
}

// EnabledValueTokens returns the enumerated tokens not marked disabled, sorted.
func (d Descriptor) EnabledValueTokens() []string {
	var out []string
	for _, token := range d.ValueTokens() {
		if !d.Values[token].Disabled {
			out = append(out, token)
		}
	}
	return out
}

// Clone returns a copy that shares no maps or pointers with d.
func (d Descriptor) Clone() Descriptor {
	cpy := d
	if d.Values != nil {
		cpy.Values = maps.Clone(d.Values)
	}
	cpy.Min = clonePtr(d.Min)
	cpy.Max = clonePtr(d.Max)
	cpy.Step = clonePtr(d.Step)
	return cpy
}

// MinOr returns Min, or def when it is not set.
func (d Descriptor) MinOr(def float64) float64 { return deref(d.Min, def) }

// MaxOr returns Max, or def when it is not set.
func (d Descriptor) MaxOr(def float64) float64 { return deref(d.Max, def) }

// StepOr returns Step, or def when it is not set.
func (d Descriptor) StepOr(def float64) float64 { return deref(d.Step, def) }

// IsDescriptorMap reports whether a raw JSON object looks like a capability
// descriptor, i.e. declares both "access" and "type" keys.
func IsDescriptorMap(m map[string]any) bool {
	if m == nil {
		return false
	}
	_, hasAccess := m["access"]
	_, hasType := m["type"]
	return hasAccess && hasType
}

// ParseDescriptor converts a raw JSON object into a Descriptor.
// Unknown keys are ignored and malformed fields are left unset.
func ParseDescriptor(m map[string]any) Descriptor {
	var d Descriptor
	if m == nil {
		return d
	}
	if s, ok := m["access"].(string); ok {
		d.Access = Access(s)
	}
	if s, ok := m["type"].(string); ok {
		d.Type = ValueType(s)
	}
	if raw, ok := m["values"].(map[string]any); ok {
		d.Values = make(map[string]ValueInfo, len(raw))
		for token, meta := range raw {
			info := ValueInfo{}
			if mm, ok := meta.(map[string]any); ok {
				_, info.Disabled = mm["disabled"]
			}
			d.Values[token] = info
		}
	}
	d.Min = numberPtr(m["min"])
	d.Max = numberPtr(m["max"])
	d.Step = numberPtr(m["step"])
	d.Default = m["default"]
	return d
}

// Map converts the descriptor back into its raw JSON object form.
func (d Descriptor) Map() map[string]any {
	m := make(map[string]any, 7)
	if d.Access != "" {
		m["access"] = string(d.Access)
	}
	if d.Type != "" {
		m["type"] = string(d.Type)
	}
	if d.Values != nil {
		values := make(map[string]any, len(d.Values))
		for token, info := range d.Values {
			meta := map[string]any{}
			if info.Disabled {
				meta["disabled"] = true
			}
			values[token] = meta
		}
		m["values"] = values
	}
	if d.Min != nil {
		m["min"] = *d.Min
	}
	if d.Max != nil {
		m["max"] = *d.Max
	}
	if d.Step != nil {
		m["step"] = *d.Step
	}
	if d.Default != nil {
		m["default"] = d.Default
	}
	return m
}

// Float returns a pointer to v, for building descriptors in literals.
func Float(v float64) *float64 { return &v }

func numberPtr(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case float32:
		f := float64(n)
		return &f
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	}
	return nil
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func deref(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
