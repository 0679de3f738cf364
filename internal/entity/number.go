package entity

import (
	"fmt"
	"math"

	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
)

// invalidTime is the default the cloud reports for unset timers.
const invalidTime = "INVALID_OR_NOT_SET_TIME"

type number struct {
	d      *Descriptor
	cached any
}

func (n *number) Kind() capability.Kind { return capability.KindNumber }

func (n *number) seconds() bool { return n.d.Unit == capability.UnitSeconds }

func (n *number) Read(src StateReader) any {
	v := n.d.value(src)
	if n.seconds() && v != nil {
		if f, ok := ToFloat(v); ok {
			v = SecondsToMinutes(f)
		}
	}

	if !truthy(v) {
		v = n.d.Capability.Default
		if v == invalidTime {
			v = nil
			if n.d.Capability.Min != nil {
				v = *n.d.Capability.Min
			}
		}
	}
	if !truthy(v) {
		return n.cached
	}

	if f, ok := ToFloat(v); ok {
		switch {
		case capability.IsTemperatureUnit(n.d.Unit):
			v = round(f, 2)
		case capability.IsTimeUnit(n.d.Unit):
			v = math.Max(f, 0)
		}
	}
	n.cached = v
	return v
}

func (n *number) DisplayUnit() string {
	if n.seconds() {
		return capability.UnitMinutes
	}
	return n.d.Unit
}

func (n *number) bound(v float64) float64 {
	if n.seconds() {
		return SecondsToMinutes(v)
	}
	return v
}

func (n *number) Attributes() map[string]any {
	c := n.d.Capability
	return map[string]any{
		"min":  n.bound(c.MinOr(0)),
		"max":  n.bound(c.MaxOr(100)),
		"step": n.bound(c.StepOr(1)),
	}
}

func (n *number) Command(input any) (any, error) {
	f, ok := ToFloat(input)
	if !ok {
		return nil, fmt.Errorf("%w: %v is not a number", ErrInvalidValue, input)
	}
	if n.seconds() {
		f = MinutesToSeconds(f)
	}
	if f == math.Trunc(f) {
		return int64(f), nil
	}
	return f, nil
}
