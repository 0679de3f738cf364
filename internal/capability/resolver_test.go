package capability

import (
	"errors"
	"testing"
)

func TestResolve_Rules(t *testing.T) {
	onOff := map[string]ValueInfo{"OFF": {}, "ON": {}}

	tests := []struct {
		name string
		attr string
		d    Descriptor
		want Kind
	}{
		{"boolean read", "doorState", Descriptor{Access: AccessRead, Type: TypeBoolean}, KindBinarySensor},
		{"boolean readwrite", "uiLockMode", Descriptor{Access: AccessReadWrite, Type: TypeBoolean}, KindSwitch},
		{"boolean readwrite with values", "uiLockMode", Descriptor{Access: AccessReadWrite, Type: TypeBoolean, Values: onOff}, KindSwitch},
		{"boolean readwrite with empty values", "uiLockMode", Descriptor{Access: AccessReadWrite, Type: TypeBoolean, Values: map[string]ValueInfo{}}, KindSwitch},
		{"string enum readwrite", "analogSpinSpeed", Descriptor{Access: AccessReadWrite, Type: TypeString, Values: onOff}, KindSelect},
		{"number enum without min", "targetDuration", Descriptor{Access: AccessReadWrite, Type: TypeNumber, Values: onOff}, KindSelect},
		{"number enum with min", "targetDuration", Descriptor{Access: AccessReadWrite, Type: TypeNumber, Values: onOff, Min: Float(0)}, KindNumber},
		{"int enum with min is still select", "level", Descriptor{Access: AccessReadWrite, Type: TypeInt, Values: onOff, Min: Float(0)}, KindSelect},
		{"temperature enum with min", "targetTemperatureC", Descriptor{Access: AccessReadWrite, Type: TypeTemperature, Values: onOff, Min: Float(30)}, KindNumber},
		{"temperature read", "sensorTemperature", Descriptor{Access: AccessRead, Type: TypeTemperature}, KindSensor},
		{"temperature readwrite", "targetTemperature", Descriptor{Access: AccessReadWrite, Type: TypeTemperature}, KindNumber},
		{"alert", "alerts", Descriptor{Access: AccessRead, Type: TypeAlert}, KindSensor},
		{"alert write", "alerts", Descriptor{Access: AccessWrite, Type: TypeAlert}, KindSensor},
		{"execute command marked read", "executeCommand", Descriptor{Access: AccessRead, Type: TypeString}, KindButton},
		{"write string", "executeCommand", Descriptor{Access: AccessWrite, Type: TypeString}, KindButton},
		{"constant", "model", Descriptor{Access: AccessConstant, Type: TypeString}, KindSensor},
		{"read number", "timeToEnd", Descriptor{Access: AccessRead, Type: TypeNumber}, KindSensor},
		{"read int", "totalCycleCounter", Descriptor{Access: AccessRead, Type: TypeInt}, KindSensor},
		{"readwrite number", "startTime", Descriptor{Access: AccessReadWrite, Type: TypeNumber}, KindNumber},
		{"readwrite int", "level", Descriptor{Access: AccessReadWrite, Type: TypeInt}, KindNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.attr, tt.d)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolve_Unresolved(t *testing.T) {
	tests := []struct {
		name    string
		d       Descriptor
		wantErr error
	}{
		{"missing access", Descriptor{Type: TypeString}, ErrIncomplete},
		{"missing type", Descriptor{Access: AccessRead}, ErrIncomplete},
		{"empty", Descriptor{}, ErrIncomplete},
		{"unknown access", Descriptor{Access: "sometimes", Type: TypeString}, ErrUnknownAccess},
		{"unknown type", Descriptor{Access: AccessRead, Type: "complex"}, ErrUnknownType},
		{"readwrite string without values", Descriptor{Access: AccessReadWrite, Type: TypeString}, ErrNoRule},
		{"write boolean", Descriptor{Access: AccessWrite, Type: TypeBoolean}, ErrNoRule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := Resolve("attr", tt.d)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
			}
			if kind != "" {
				t.Errorf("Resolve() kind = %q, want empty", kind)
			}
		})
	}
}

func TestResolve_SpinSpeedScenario(t *testing.T) {
	reg := Registry{
		"userSelections": map[string]any{
			"analogSpinSpeed": map[string]any{
				"access": "readwrite",
				"type":   "string",
				"values": map[string]any{"0_RPM": map[string]any{}, "800_RPM": map[string]any{}},
			},
		},
	}

	d, ok := reg.Lookup("userSelections/analogSpinSpeed")
	if !ok {
		t.Fatal("Lookup() did not find nested descriptor")
	}
	kind, err := Resolve(Attribute("userSelections/analogSpinSpeed"), d)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if kind != KindSelect {
		t.Errorf("Resolve() = %q, want %q", kind, KindSelect)
	}
	tokens := d.ValueTokens()
	if len(tokens) != 2 || tokens[0] != "0_RPM" || tokens[1] != "800_RPM" {
		t.Errorf("ValueTokens() = %v, want [0_RPM 800_RPM]", tokens)
	}
}

func TestUnitAndDeviceClass(t *testing.T) {
	read := Descriptor{Access: AccessRead, Type: TypeTemperature}
	write := Descriptor{Access: AccessReadWrite, Type: TypeTemperature}
	plain := Descriptor{Access: AccessRead, Type: TypeNumber}

	if got := Unit(read); got != UnitCelsius {
		t.Errorf("Unit(temperature) = %q, want %q", got, UnitCelsius)
	}
	if got := Unit(plain); got != "" {
		t.Errorf("Unit(number) = %q, want empty", got)
	}
	if got := DeviceClassOf(read); got != SensorTemperature {
		t.Errorf("DeviceClassOf(read temperature) = %v, want %v", got, SensorTemperature)
	}
	if got := DeviceClassOf(write); got != NumberTemperature {
		t.Errorf("DeviceClassOf(readwrite temperature) = %v, want %v", got, NumberTemperature)
	}
	if got := DeviceClassOf(plain); !got.IsZero() {
		t.Errorf("DeviceClassOf(number) = %v, want zero", got)
	}
}
