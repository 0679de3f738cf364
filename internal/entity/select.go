package entity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
)

type option struct {
	label string
	value any
}

type pickList struct {
	d       *Descriptor
	options []option
	cached  any
}

func newSelect(d *Descriptor) *pickList {
	p := &pickList{d: d}
	for _, token := range d.Capability.EnabledValueTokens() {
		p.options = append(p.options, option{label: p.label(token), value: token})
	}
	return p
}

func (p *pickList) Kind() capability.Kind { return capability.KindSelect }

// label formats a value for display: "40_CELSIUS" becomes "40 Celsius",
// with the temperature unit appended when one is set.
func (p *pickList) label(v any) string {
	s := fmt.Sprint(v)
	if str, ok := v.(string); ok {
		s = Title(strings.ReplaceAll(str, "_", " "))
	}
	switch p.d.Unit {
	case capability.UnitCelsius:
		s += " °C"
	case capability.UnitFahrenheit:
		s += " °F"
	}
	return s
}

func sameValue(a, b any) bool {
	if a == b {
		return true
	}
	fa, okA := ToFloat(a)
	fb, okB := ToFloat(b)
	return okA && okB && fa == fb
}

func (p *pickList) Read(src StateReader) any {
	v := p.d.value(src)
	if v == nil {
		return p.cached
	}
	v = p.d.mapValue(v)

	for _, o := range p.options {
		if sameValue(o.value, v) {
			p.cached = o.label
			return o.label
		}
	}

	// values the capability did not declare become options
	label := p.label(v)
	p.options = append(p.options, option{label: label, value: v})
	p.cached = label
	return label
}

func (p *pickList) DisplayUnit() string { return p.d.Unit }

// Options returns the option labels in display order.
func (p *pickList) Options() []string {
	labels := make([]string, len(p.options))
	for i, o := range p.options {
		labels[i] = o.label
	}
	return labels
}

func (p *pickList) Attributes() map[string]any {
	return map[string]any{"options": p.Options()}
}

func (p *pickList) numeric() bool {
	return capability.IsTemperatureUnit(p.d.Unit) ||
		strings.HasPrefix(p.d.Attribute, "targetTemperature") ||
		strings.HasPrefix(p.d.EntityName, "targetTemperature")
}

// Command accepts an option label, or a raw option value.
func (p *pickList) Command(input any) (any, error) {
	label := fmt.Sprint(input)

	var (
		value any
		found bool
	)
	for _, o := range p.options {
		if o.label == label || sameValue(o.value, input) {
			value, found = o.value, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOption, label)
	}

	if s, ok := value.(string); ok && p.numeric() {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		}
	}
	return value, nil
}
