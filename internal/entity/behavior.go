package entity

import "github.com/nerrad567/gray-logic-electrolux/internal/capability"

// Behavior is the kind-specific read/format/write logic of an entity.
//
// Behaviors keep the last good value and fall back to it when the live state
// has no value. They are not safe for concurrent use; the owning appliance
// state serialises access.
type Behavior interface {
	// Kind returns the entity kind this behavior implements.
	Kind() capability.Kind

	// Read returns the current display value.
	Read(src StateReader) any

	// DisplayUnit returns the unit the value is expressed in after Read.
	DisplayUnit() string

	// Attributes returns kind-specific metadata such as options or range.
	Attributes() map[string]any

	// Command converts user input into the value sent to the appliance.
	Command(input any) (any, error)
}

func newBehavior(d *Descriptor) Behavior {
	switch d.Kind {
	case capability.KindSensor:
		return &sensor{d: d}
	case capability.KindBinarySensor:
		return &binarySensor{d: d}
	case capability.KindNumber:
		return &number{d: d}
	case capability.KindSelect:
		return newSelect(d)
	case capability.KindSwitch:
		return &toggle{d: d}
	case capability.KindButton:
		return &button{d: d}
	}
	return nil
}

// value reads the entity's own attribute from the live state.
func (d *Descriptor) value(src StateReader) any {
	v, ok := src.ExtractValue(d.Source, d.Attribute)
	if !ok {
		return nil
	}
	return v
}

// mapped reads the attribute named by the catalog state mapping.
func (d *Descriptor) mapped(src StateReader) any {
	if d.Catalog == nil || d.Catalog.StateMapping == "" {
		return nil
	}
	v, ok := src.StateAttr(d.Catalog.StateMapping)
	if !ok {
		return nil
	}
	return v
}

func (d *Descriptor) mapValue(v any) any {
	if d.Catalog == nil {
		return v
	}
	mapped, _ := d.Catalog.MapValue(v)
	return mapped
}
