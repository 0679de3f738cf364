package entity

import "github.com/nerrad567/gray-logic-electrolux/internal/capability"

type button struct {
	d *Descriptor
}

func (b *button) Kind() capability.Kind      { return capability.KindButton }
func (b *button) Read(StateReader) any       { return nil }
func (b *button) DisplayUnit() string        { return "" }
func (b *button) Attributes() map[string]any { return map[string]any{"command": b.d.Command} }
func (b *button) Command(any) (any, error)   { return b.d.Command, nil }
