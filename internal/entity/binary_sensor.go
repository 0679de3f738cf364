package entity

import "github.com/nerrad567/gray-logic-electrolux/internal/capability"

type binarySensor struct {
	d      *Descriptor
	cached any
}

func (b *binarySensor) Kind() capability.Kind { return capability.KindBinarySensor }

func (b *binarySensor) Read(src StateReader) any {
	v := b.d.value(src)
	if s, ok := v.(string); ok {
		v = StringToBoolean(s, true)
	}
	if v == nil {
		v = b.d.mapped(src)
	}
	if v != nil {
		b.cached = v
	}
	if b.d.Catalog != nil && b.d.Catalog.StateInvert {
		return !truthy(b.cached)
	}
	return b.cached
}

func (b *binarySensor) DisplayUnit() string        { return "" }
func (b *binarySensor) Attributes() map[string]any { return nil }
func (b *binarySensor) Command(any) (any, error)   { return nil, ErrReadOnly }
