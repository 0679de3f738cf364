package appliance

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
	"github.com/nerrad567/gray-logic-electrolux/internal/catalog"
	"github.com/nerrad567/gray-logic-electrolux/internal/entity"
	"github.com/nerrad567/gray-logic-electrolux/internal/naming"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	return NewState(Options{
		ID:      "pnc1",
		Name:    "Washer",
		Brand:   "AEG",
		Model:   "L9WBA61BC",
		Catalog: catalog.Base(),
		Factory: entity.NewFactory(naming.MustDefault()),
	})
}

func testCapabilities() capability.Registry {
	return capability.Registry{
		"userSelections": map[string]any{
			"analogSpinSpeed": map[string]any{
				"access": "readwrite",
				"type":   "string",
				"values": map[string]any{"0_RPM": map[string]any{}, "800_RPM": map[string]any{}},
			},
		},
		"timeToEnd": map[string]any{"access": "read", "type": "number"},
		"executeCommand": map[string]any{
			"access": "write",
			"type":   "string",
			"values": map[string]any{"START": map[string]any{}, "STOPRESET": map[string]any{}},
		},
		"connectivityState": map[string]any{"access": "read", "type": "string"},
	}
}

func testDocument() map[string]any {
	return map[string]any{
		"connectionState": "connected",
		"properties": map[string]any{
			"reported": map[string]any{
				"connectivityState": "connected",
				"timeToEnd":         float64(300),
				"userSelections":    map[string]any{"analogSpinSpeed": "800_RPM"},
			},
		},
	}
}

func uniqueIDs(ds []*entity.Descriptor) []string {
	ids := make([]string, len(ds))
	for i, d := range ds {
		ids[i] = d.UniqueID()
	}
	return ids
}

func TestSetup_MaterialisesEntities(t *testing.T) {
	s := newTestState(t)
	got := s.Setup(testCapabilities(), testDocument())

	want := []string{
		"pnc1-connectivityState-root",
		"pnc1-START-executeCommand-root",
		"pnc1-STOPRESET-executeCommand-root",
		"pnc1-timeToEnd-root",
		"pnc1-analogSpinSpeed-userSelections",
	}
	if !reflect.DeepEqual(uniqueIDs(got), want) {
		t.Errorf("Setup() = %v, want %v", uniqueIDs(got), want)
	}
	if s.OwnCapabilities() {
		t.Error("OwnCapabilities() = true with a cloud registry")
	}
	if s.ConnectionState() != "connected" {
		t.Errorf("ConnectionState() = %q", s.ConnectionState())
	}
}

func TestSetup_StaticAttributeRegistered(t *testing.T) {
	s := newTestState(t)
	caps := testCapabilities()
	delete(caps, "connectivityState")

	doc := testDocument()
	doc["properties"].(map[string]any)["reported"].(map[string]any)["networkInterface"] = map[string]any{
		"linkQualityIndicator": "GOOD",
	}
	s.Setup(caps, doc)

	for _, path := range []string{"connectivityState", "networkInterface/linkQualityIndicator"} {
		if _, ok := s.Capabilities().Lookup(path); !ok {
			t.Errorf("registry has no entry for static attribute %q", path)
		}
	}
	if _, err := s.Entity("pnc1-linkQualityIndicator-networkInterface"); err != nil {
		t.Errorf("link quality entity missing: %v", err)
	}
	// applianceMode is not reported, so it is not materialised
	if _, err := s.Entity("applianceMode"); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("Entity(applianceMode) error = %v, want ErrUnknownEntity", err)
	}
}

func TestSetup_Resets(t *testing.T) {
	s := newTestState(t)
	s.Setup(testCapabilities(), testDocument())
	got := s.Setup(capability.Registry{}, testDocument())

	// only the static attribute survives an empty registry
	if !reflect.DeepEqual(uniqueIDs(got), []string{"pnc1-connectivityState-root"}) {
		t.Errorf("Setup() = %v", uniqueIDs(got))
	}
	if _, err := s.Entity("pnc1-timeToEnd-root"); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("stale entity still indexed: %v", err)
	}
}

func TestUpdateMissingEntities_Idempotent(t *testing.T) {
	s := newTestState(t)
	doc := map[string]any{
		"properties": map[string]any{
			"reported": map[string]any{"connectivityState": "connected"},
		},
	}
	initial := s.Setup(nil, doc)
	if !s.OwnCapabilities() {
		t.Fatal("OwnCapabilities() = false with nil registry")
	}
	if len(initial) != 1 {
		t.Fatalf("Setup() created %d entities, want 1", len(initial))
	}

	added := s.ApplyReported(map[string]any{
		"timeToEnd": float64(120),
		"doorState": "OPEN",
	})
	want := []string{"pnc1-doorState-root", "pnc1-timeToEnd-root"}
	if !reflect.DeepEqual(uniqueIDs(added), want) {
		t.Errorf("ApplyReported() added %v, want %v", uniqueIDs(added), want)
	}
	if _, ok := s.Capabilities().Lookup("doorState"); !ok {
		t.Error("discovered attribute not written to registry")
	}

	if again := s.UpdateMissingEntities(); len(again) != 0 {
		t.Errorf("second UpdateMissingEntities() added %v", uniqueIDs(again))
	}
	if again := s.ApplyReported(map[string]any{"timeToEnd": float64(60)}); len(again) != 0 {
		t.Errorf("repeat ApplyReported() added %v", uniqueIDs(again))
	}
	if n := len(s.Entities()); n != 3 {
		t.Errorf("len(Entities()) = %d, want 3", n)
	}
}

func TestSetup_DiscoversFromInitialDocument(t *testing.T) {
	s := newTestState(t)
	got := s.Setup(nil, map[string]any{
		"properties": map[string]any{
			"reported": map[string]any{
				"connectivityState": "connected",
				"timeToEnd":         float64(600),
				"doorState":         "OPEN",
			},
		},
	})

	want := []string{
		"pnc1-connectivityState-root",
		"pnc1-doorState-root",
		"pnc1-timeToEnd-root",
	}
	if !reflect.DeepEqual(uniqueIDs(got), want) {
		t.Errorf("Setup() = %v, want %v", uniqueIDs(got), want)
	}
	if _, err := s.Read("pnc1-timeToEnd-root"); err != nil {
		t.Errorf("Read(timeToEnd) error = %v", err)
	}
	if again := s.UpdateMissingEntities(); len(again) != 0 {
		t.Errorf("UpdateMissingEntities() after Setup added %v", uniqueIDs(again))
	}
}

func TestUpdateMissingEntities_OnlyWithOwnCapabilities(t *testing.T) {
	s := newTestState(t)
	s.Setup(testCapabilities(), testDocument())

	if added := s.ApplyReported(map[string]any{"doorState": "OPEN"}); len(added) != 0 {
		t.Errorf("ApplyReported() added %v with a cloud registry", uniqueIDs(added))
	}
}

func TestDiscover(t *testing.T) {
	c := catalog.Catalog{
		"timeToEnd":       {Attribute: "timeToEnd"},
		"doorState":       {Attribute: "doorState"},
		"analogSpinSpeed": {Attribute: "analogSpinSpeed", Category: "userSelections"},
		"cyclePhase":      {Attribute: "cyclePhase"},
	}
	reported := map[string]any{
		"timeToEnd":      float64(0),
		"doorState":      "OPEN",
		"userSelections": map[string]any{"analogSpinSpeed": "800_RPM"},
	}
	covered := func(source, attr string) bool { return attr == "doorState" }

	got := Discover(c, reported, covered)
	want := []string{"userSelections/analogSpinSpeed"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}
}

func TestGetState(t *testing.T) {
	s := newTestState(t)
	s.Setup(testCapabilities(), testDocument())

	tests := []struct {
		path string
		want any
		ok   bool
	}{
		{"timeToEnd", float64(300), true},
		{"userSelections/analogSpinSpeed", "800_RPM", true},
		{"userSelections/missing", nil, false},
		{"missing/analogSpinSpeed", nil, false},
		{"timeToEnd/deeper", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := s.GetState(tt.path)
			if ok != tt.ok || !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GetState(%q) = %v, %v; want %v, %v", tt.path, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestExtractValue_DocumentShapes(t *testing.T) {
	s := newTestState(t)
	s.Setup(testCapabilities(), testDocument())

	if v, _ := s.ExtractValue("userSelections", "analogSpinSpeed"); v != "800_RPM" {
		t.Errorf("nested ExtractValue() = %v", v)
	}
	if v, _ := s.ExtractValue("", "timeToEnd"); v != float64(300) {
		t.Errorf("nested root ExtractValue() = %v", v)
	}

	s.Replace(map[string]any{
		"userSelections": map[string]any{"analogSpinSpeed": "0_RPM"},
		"timeToEnd":      float64(30),
	})
	if v, _ := s.ExtractValue("userSelections", "analogSpinSpeed"); v != "0_RPM" {
		t.Errorf("flat ExtractValue() = %v", v)
	}
	if v, _ := s.ExtractValue("", "timeToEnd"); v != float64(30) {
		t.Errorf("flat root ExtractValue() = %v", v)
	}
	if _, ok := s.ExtractValue("", "doorState"); ok {
		t.Error("ExtractValue() found a missing attribute")
	}
}

func TestStateAttr(t *testing.T) {
	s := newTestState(t)
	doc := testDocument()
	reported := doc["properties"].(map[string]any)["reported"].(map[string]any)
	reported["cavity/light"] = "ON"
	reported["cavity"] = map[string]any{"light": "OFF", "lamp": "ON"}
	s.Setup(testCapabilities(), doc)

	if v, _ := s.StateAttr("cavity/light"); v != "ON" {
		t.Errorf("StateAttr(literal) = %v, want ON", v)
	}
	if v, _ := s.StateAttr("cavity/lamp"); v != "ON" {
		t.Errorf("StateAttr(nested) = %v, want ON", v)
	}
	if v, _ := s.StateAttr("timeToEnd"); v != float64(300) {
		t.Errorf("StateAttr(root) = %v", v)
	}
}

func TestApplyReported_ShallowMerge(t *testing.T) {
	s := newTestState(t)
	s.Setup(testCapabilities(), testDocument())

	s.ApplyReported(map[string]any{"userSelections": map[string]any{"programUID": "COTTON"}})

	if _, ok := s.GetState("userSelections/analogSpinSpeed"); ok {
		t.Error("nested keys were deep-merged; want top-level replacement")
	}
	if v, _ := s.GetState("userSelections/programUID"); v != "COTTON" {
		t.Errorf("GetState(programUID) = %v", v)
	}
	if v, _ := s.GetState("timeToEnd"); v != float64(300) {
		t.Errorf("untouched key changed: %v", v)
	}
}

func TestReadAndBuildCommand(t *testing.T) {
	s := newTestState(t)
	s.Setup(testCapabilities(), testDocument())

	r, err := s.Read("pnc1-analogSpinSpeed-userSelections")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if r.Value != "800 Rpm" || r.Kind != capability.KindSelect {
		t.Errorf("Read() = %+v", r)
	}

	payload, err := s.BuildCommand("userSelections_analogSpinSpeed", "0 Rpm")
	if err != nil {
		t.Fatalf("BuildCommand() error = %v", err)
	}
	want := map[string]any{"userSelections": map[string]any{"analogSpinSpeed": "0_RPM"}}
	if !reflect.DeepEqual(payload, want) {
		t.Errorf("BuildCommand() = %v, want %v", payload, want)
	}
	if v, _ := s.GetState("userSelections/analogSpinSpeed"); v != "800_RPM" {
		t.Error("BuildCommand() mutated local state")
	}

	payload, err = s.BuildCommand("pnc1-START-executeCommand-root", nil)
	if err != nil {
		t.Fatalf("BuildCommand(button) error = %v", err)
	}
	if !reflect.DeepEqual(payload, map[string]any{"executeCommand": "START"}) {
		t.Errorf("button payload = %v", payload)
	}

	if _, err := s.BuildCommand("timeToEnd", 5); !errors.Is(err, entity.ErrReadOnly) {
		t.Errorf("BuildCommand(sensor) error = %v, want ErrReadOnly", err)
	}
	if _, err := s.Read("nope"); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("Read(nope) error = %v, want ErrUnknownEntity", err)
	}
}

func TestReadAll_CachedValues(t *testing.T) {
	s := newTestState(t)
	s.Setup(testCapabilities(), testDocument())
	s.ReadAll()

	s.ApplyReported(map[string]any{"timeToEnd": nil})
	r, err := s.Read("pnc1-timeToEnd-root")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if r.Value != float64(300) {
		t.Errorf("Read() = %v, want cached 300", r.Value)
	}
}
