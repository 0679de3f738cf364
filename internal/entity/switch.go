package entity

import "github.com/nerrad567/gray-logic-electrolux/internal/capability"

type toggle struct {
	d      *Descriptor
	cached any
}

func (t *toggle) Kind() capability.Kind { return capability.KindSwitch }

func (t *toggle) Read(src StateReader) any {
	v := t.d.value(src)
	if v == nil {
		v = t.d.mapped(src)
	}
	if s, ok := v.(string); ok {
		v = StringToBoolean(s, false)
	}
	if v == nil {
		return t.cached
	}
	t.cached = v
	return v
}

func (t *toggle) DisplayUnit() string        { return "" }
func (t *toggle) Attributes() map[string]any { return nil }

// Command sends "ON"/"OFF" when the capability enumerates values, since the
// cloud rejects booleans for those attributes.
func (t *toggle) Command(input any) (any, error) {
	on, err := ToBool(input)
	if err != nil {
		return nil, err
	}
	if t.d.Capability.HasValues() {
		if on {
			return "ON", nil
		}
		return "OFF", nil
	}
	return on, nil
}
