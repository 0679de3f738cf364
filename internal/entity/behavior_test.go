package entity

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
	"github.com/nerrad567/gray-logic-electrolux/internal/catalog"
)

func TestSensor_Read(t *testing.T) {
	f := newTestFactory(t)
	c := catalog.Base()

	timer := buildOne(t, f, "timeToEnd", nil, c)
	if got := timer.Behavior().Read(fakeState{"timeToEnd": float64(-5)}); got != float64(0) {
		t.Errorf("negative timer = %v, want 0", got)
	}
	if got := timer.Behavior().Read(fakeState{"timeToEnd": float64(120)}); got != float64(120) {
		t.Errorf("timer = %v, want 120", got)
	}
	if got := timer.Behavior().Read(fakeState{}); got != float64(120) {
		t.Errorf("missing value = %v, want cached 120", got)
	}
	if timer.Behavior().Attributes()["suggested_unit"] != capability.UnitMinutes {
		t.Error("seconds sensor should suggest minutes")
	}

	phase := buildOne(t, f, "cyclePhase", nil, c)
	if got := phase.Behavior().Read(fakeState{"cyclePhase": "MAIN_WASH"}); got != "Main Wash" {
		t.Errorf("string sensor = %v, want Main Wash", got)
	}

	mapped := buildOne(t, f, "level", nil, catalog.Catalog{"level": {
		Attribute:    "level",
		Capability:   &capability.Descriptor{Access: capability.AccessRead, Type: capability.TypeNumber},
		ValueMapping: map[int]string{2: "ECO_MODE"},
	}})
	if got := mapped.Behavior().Read(fakeState{"level": float64(2)}); got != "Eco Mode" {
		t.Errorf("mapped sensor = %v, want Eco Mode", got)
	}
}

func TestNumber_SecondsAsMinutes(t *testing.T) {
	f := newTestFactory(t)
	e := buildOne(t, f, "startTime", nil, catalog.Base())

	if e.Kind != capability.KindNumber {
		t.Fatalf("Kind = %q, want number", e.Kind)
	}
	b := e.Behavior()
	if got := b.Read(fakeState{"startTime": float64(1810)}); got != float64(31) {
		t.Errorf("Read() = %v, want 31 minutes", got)
	}
	if b.DisplayUnit() != capability.UnitMinutes {
		t.Errorf("DisplayUnit() = %q", b.DisplayUnit())
	}
	attrs := b.Attributes()
	if attrs["min"] != float64(0) || attrs["max"] != float64(1200) || attrs["step"] != float64(30) {
		t.Errorf("range = %v", attrs)
	}

	payload, err := e.BuildCommand(float64(30))
	if err != nil {
		t.Fatalf("BuildCommand() error = %v", err)
	}
	if !reflect.DeepEqual(payload, map[string]any{"startTime": int64(1800)}) {
		t.Errorf("payload = %v", payload)
	}

	if _, err := e.BuildCommand("soon"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("BuildCommand(soon) error = %v, want ErrInvalidValue", err)
	}
}

func TestNumber_Defaults(t *testing.T) {
	f := newTestFactory(t)
	remote := &capability.Descriptor{
		Access:  capability.AccessReadWrite,
		Type:    capability.TypeNumber,
		Min:     capability.Float(5),
		Default: "INVALID_OR_NOT_SET_TIME",
	}
	e := buildOne(t, f, "delay", remote, catalog.Catalog{})
	if got := e.Behavior().Read(fakeState{"delay": float64(0)}); got != float64(5) {
		t.Errorf("Read(0) = %v, want min 5", got)
	}

	temp := buildOne(t, f, "targetTemperatureC", nil, catalog.Catalog{"targetTemperatureC": {
		Attribute:  "targetTemperatureC",
		Capability: &capability.Descriptor{Access: capability.AccessReadWrite, Type: capability.TypeNumber},
		Unit:       capability.UnitCelsius,
	}})
	if temp.Kind != capability.KindNumber {
		t.Fatalf("Kind = %q, want number", temp.Kind)
	}
	if got := temp.Behavior().Read(fakeState{"targetTemperatureC": 180.456}); got != 180.46 {
		t.Errorf("temperature = %v, want 180.46", got)
	}
	if got := temp.Behavior().Read(fakeState{"targetTemperatureC": float64(0)}); got != 180.46 {
		t.Errorf("zero temperature = %v, want cached 180.46", got)
	}
}

func TestSwitch(t *testing.T) {
	f := newTestFactory(t)
	withValues := &capability.Descriptor{
		Access: capability.AccessReadWrite,
		Type:   capability.TypeBoolean,
		Values: map[string]capability.ValueInfo{"ON": {}, "OFF": {}},
	}
	e := buildOne(t, f, "uiLockMode", withValues, catalog.Catalog{})

	if got := e.Behavior().Read(fakeState{"uiLockMode": "ON"}); got != true {
		t.Errorf("Read(ON) = %v, want true", got)
	}
	if got := e.Behavior().Read(fakeState{"uiLockMode": "weird"}); got != false {
		t.Errorf("Read(weird) = %v, want false", got)
	}
	payload, err := e.BuildCommand(true)
	if err != nil {
		t.Fatalf("BuildCommand() error = %v", err)
	}
	if !reflect.DeepEqual(payload, map[string]any{"uiLockMode": "ON"}) {
		t.Errorf("payload = %v", payload)
	}

	plain := buildOne(t, f, "fridge/ecoMode", &capability.Descriptor{
		Access: capability.AccessReadWrite, Type: capability.TypeBoolean,
	}, catalog.Catalog{})
	payload, err = plain.BuildCommand("off")
	if err != nil {
		t.Fatalf("BuildCommand() error = %v", err)
	}
	if !reflect.DeepEqual(payload, map[string]any{"fridge": map[string]any{"ecoMode": false}}) {
		t.Errorf("payload = %v", payload)
	}
	if _, err := plain.BuildCommand("banana"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("BuildCommand(banana) error = %v", err)
	}
}

func TestSwitch_StateMapping(t *testing.T) {
	f := newTestFactory(t)
	c := catalog.Catalog{"lightSwitch": {
		Attribute:    "lightSwitch",
		Capability:   &capability.Descriptor{Access: capability.AccessReadWrite, Type: capability.TypeBoolean},
		StateMapping: "cavity/lightState",
	}}
	e := buildOne(t, f, "lightSwitch", nil, c)

	state := fakeState{"cavity": map[string]any{"lightState": "ON"}}
	if got := e.Behavior().Read(state); got != true {
		t.Errorf("Read() = %v, want true via state mapping", got)
	}
}

func TestBinarySensor(t *testing.T) {
	f := newTestFactory(t)
	door := buildOne(t, f, "doorState", nil, catalog.Base())

	if got := door.Behavior().Read(fakeState{"doorState": "OPEN"}); got != true {
		t.Errorf("Read(OPEN) = %v", got)
	}
	if got := door.Behavior().Read(fakeState{"doorState": "CLOSED"}); got != false {
		t.Errorf("Read(CLOSED) = %v", got)
	}
	if got := door.Behavior().Read(fakeState{"doorState": "AJAR"}); got != "AJAR" {
		t.Errorf("Read(AJAR) = %v, want raw fallback", got)
	}
	if _, err := door.BuildCommand(true); !errors.Is(err, ErrReadOnly) {
		t.Errorf("BuildCommand() error = %v, want ErrReadOnly", err)
	}

	inverted := buildOne(t, f, "filterOk", nil, catalog.Catalog{"filterOk": {
		Attribute:   "filterOk",
		Capability:  &capability.Descriptor{Access: capability.AccessRead, Type: capability.TypeBoolean},
		StateInvert: true,
	}})
	if got := inverted.Behavior().Read(fakeState{"filterOk": true}); got != false {
		t.Errorf("inverted Read(true) = %v", got)
	}
	if got := inverted.Behavior().Read(fakeState{}); got != false {
		t.Errorf("inverted cached Read() = %v", got)
	}
}

func TestSelect_UnknownValueBecomesOption(t *testing.T) {
	f := newTestFactory(t)
	e := buildOne(t, f, "userSelections/analogSpinSpeed", nil, catalog.Base())
	b := e.Behavior()

	if got := b.Read(fakeState{"userSelections": map[string]any{"analogSpinSpeed": "1800_RPM"}}); got != "1800 Rpm" {
		t.Errorf("Read() = %v, want 1800 Rpm", got)
	}
	opts := b.Attributes()["options"].([]string)
	if opts[len(opts)-1] != "1800 Rpm" {
		t.Errorf("options = %v, want 1800 Rpm appended", opts)
	}
	for _, o := range opts {
		if o == "Disabled" {
			t.Error("disabled value offered as option")
		}
	}
	if got := b.Read(fakeState{}); got != "1800 Rpm" {
		t.Errorf("cached Read() = %v", got)
	}
}

func TestSelect_TemperatureUnits(t *testing.T) {
	f := newTestFactory(t)
	remote := &capability.Descriptor{
		Access: capability.AccessReadWrite,
		Type:   capability.TypeTemperature,
		Values: map[string]capability.ValueInfo{"160": {}, "180": {}},
	}
	c := catalog.Catalog{"targetTemperature": {Attribute: "targetTemperature", Platform: capability.KindSelect}}
	e := buildOne(t, f, "targetTemperature", remote, c)

	if e.Unit != capability.UnitCelsius {
		t.Fatalf("Unit = %q", e.Unit)
	}
	opts := e.Behavior().Attributes()["options"].([]string)
	if !reflect.DeepEqual(opts, []string{"160 °C", "180 °C"}) {
		t.Errorf("options = %v", opts)
	}
	payload, err := e.BuildCommand("180 °C")
	if err != nil {
		t.Fatalf("BuildCommand() error = %v", err)
	}
	if !reflect.DeepEqual(payload, map[string]any{"targetTemperature": float64(180)}) {
		t.Errorf("payload = %v", payload)
	}
}

func TestConversions(t *testing.T) {
	if got := SecondsToMinutes(61); got != 2 {
		t.Errorf("SecondsToMinutes(61) = %v", got)
	}
	if got := SecondsToMinutes(-1); got != -1 {
		t.Errorf("SecondsToMinutes(-1) = %v", got)
	}
	if got := MinutesToSeconds(2.7); got != 120 {
		t.Errorf("MinutesToSeconds(2.7) = %v", got)
	}
	if got := Title("0 RPM"); got != "0 Rpm" {
		t.Errorf("Title() = %q", got)
	}
	if got := Title("1600rpm"); got != "1600Rpm" {
		t.Errorf("Title() = %q", got)
	}
	if got := StringToBoolean("  Not_Running ", true); got != false {
		t.Errorf("StringToBoolean(not running) = %v", got)
	}
	if got := StringToBoolean("Update_Available", false); got != true {
		t.Errorf("StringToBoolean(update available) = %v", got)
	}
	if got := StringToBoolean("maybe", false); got != false {
		t.Errorf("StringToBoolean(maybe, false) = %v", got)
	}
}
