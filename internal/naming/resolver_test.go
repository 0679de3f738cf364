package naming

import (
	"slices"
	"testing"

	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
)

func TestSensorName(t *testing.T) {
	r := MustDefault()

	tests := []struct {
		in   string
		want string
	}{
		{"detergentExtradosage", "detergent extradosage"},
		{"targetTemperatureC", "target temperature c"},
		{"timeToEnd", "time to end"},
		{"EWX1493A_detergentExtradosage", "ewx1493a detergent extradosage"},
		{"userSelections/EWX1493A_detergentExtradosage", "detergent extradosage"},
		{"userSelections/analogSpinSpeed", "user selections analog spin speed"},
		{"networkInterface/linkQualityIndicator", "network interface link quality indicator"},
		{"applianceUIState", "appliance uistate"},
		{"fCTotalWashCyclesCount", "fctotal wash cycles count"},
		{"ui2LockMode", "ui 2lock mode"},
		{"ewx1493a detergent extradosage", "ewx1493a detergent extradosage"},
		{"timer2", "timer2"},
		{"x", "x"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := r.SensorName(tt.in); got != tt.want {
				t.Errorf("SensorName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSensorName_Idempotent(t *testing.T) {
	r := MustDefault()
	for _, in := range []string{
		"detergentExtradosage",
		"timeToEnd",
		"applianceTotalWorkingTime",
		"cyclePhase",
		"EWX1493A_detergentExtradosage",
		"ui2LockMode",
		"applianceCareAndMaintenance0/filterState",
	} {
		once := r.SensorName(in)
		if twice := r.SensorName(once); twice != once {
			t.Errorf("SensorName(SensorName(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestEntityName(t *testing.T) {
	r := MustDefault()

	tests := []struct {
		in   string
		want string
	}{
		{"fCMiscellaneousState/EWX1493A_detergentExtradosage", "detergentExtradosage"},
		{"userSelections/EWX1493A_analogTemperature", "analogTemperature"},
		{"userSelections/analogTemperature", "analogTemperature"},
		{"executeCommand", "executeCommand"},
	}
	for _, tt := range tests {
		if got := r.EntityName(tt.in); got != tt.want {
			t.Errorf("EntityName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEntityName_RenameMatchesAnywhere(t *testing.T) {
	r, err := New(Rules{Rename: []string{`[A-Z0-9]+_`}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := r.EntityName("userSelections/EWX1493A_analogTemperature"); got != "analogTemperature" {
		t.Errorf("EntityName() = %q, want analogTemperature", got)
	}
	if got := r.SensorName("fCMiscellaneousState/EWX1493A_detergentExtradosage"); got != "fcmiscellaneous state detergent extradosage" {
		t.Errorf("SensorName() = %q", got)
	}

	// blacklist patterns stay anchored
	r, err = New(Rules{Blacklist: []string{`coolingValveState`}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !r.Keep("fridge/coolingValveState") {
		t.Error("Keep() rejected a path matching the blacklist only mid-string")
	}
	if r.Keep("coolingValveState") {
		t.Error("Keep() accepted a blacklisted path")
	}
}

func TestKeep(t *testing.T) {
	r := MustDefault()

	tests := []struct {
		path string
		want bool
	}{
		{"timeToEnd", true},
		{"applianceCareAndMaintenance1", false},
		{"applianceCareAndMaintenance0/filterState", true},
		{"networkInterface", false},
		{"networkInterface/linkQualityIndicator", true},
		{"networkInterface/otherThing", false},
		{"fCMiscellaneousState", false},
		{"myfCMiscellaneousState", true},
	}
	for _, tt := range tests {
		if got := r.Keep(tt.path); got != tt.want {
			t.Errorf("Keep(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestSources(t *testing.T) {
	r := MustDefault()
	reg := capability.Registry{
		"timeToEnd": map[string]any{"access": "read", "type": "number"},
		"userSelections": map[string]any{
			"analogSpinSpeed":   map[string]any{"access": "readwrite", "type": "string"},
			"analogTemperature": map[string]any{"access": "readwrite", "type": "string"},
			"notADescriptor":    map[string]any{"foo": "bar"},
			"scalar":            "x",
		},
		"networkInterface": map[string]any{
			"linkQualityIndicator": map[string]any{"access": "read", "type": "string"},
		},
		"applianceCareAndMaintenance0": map[string]any{
			"filterState": map[string]any{"access": "read", "type": "string"},
		},
	}

	got := r.Sources(reg)
	want := []string{
		"timeToEnd",
		"userSelections",
		"userSelections/analogSpinSpeed",
		"userSelections/analogTemperature",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Sources() = %v, want %v", got, want)
	}

	if r.Sources(nil) != nil {
		t.Error("Sources(nil) should be nil")
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	if _, err := New(Rules{Blacklist: []string{"("}}); err == nil {
		t.Error("New() accepted an invalid pattern")
	}
}
