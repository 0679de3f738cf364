package entity

import (
	"math"
	"strings"

	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
)

type sensor struct {
	d      *Descriptor
	cached any
}

func (s *sensor) Kind() capability.Kind { return capability.KindSensor }

func (s *sensor) Read(src StateReader) any {
	v := s.d.value(src)
	if v != nil && capability.IsTimeUnit(s.d.Unit) {
		// negative timers mean "disabled"
		if f, ok := ToFloat(v); ok {
			v = math.Max(f, 0)
		}
	}
	v = s.d.mapValue(v)
	if str, ok := v.(string); ok {
		v = Title(strings.ReplaceAll(str, "_", " "))
	}
	if v == nil {
		return s.cached
	}
	s.cached = v
	return v
}

func (s *sensor) DisplayUnit() string { return s.d.Unit }

func (s *sensor) Attributes() map[string]any {
	attrs := map[string]any{}
	if s.d.Unit == capability.UnitSeconds {
		attrs["suggested_unit"] = capability.UnitMinutes
	}
	if p, ok := displayPrecision(s.d.Unit); ok {
		attrs["precision"] = p
	}
	return attrs
}

func (s *sensor) Command(any) (any, error) { return nil, ErrReadOnly }

func displayPrecision(unit string) (int, bool) {
	switch unit {
	case capability.UnitCelsius, capability.UnitFahrenheit:
		return 2, true
	case capability.UnitLiters, capability.UnitSeconds:
		return 0, true
	}
	return 0, false
}
