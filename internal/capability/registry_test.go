package capability

import "testing"

func TestPathRoundTrip(t *testing.T) {
	paths := []string{
		"timeToEnd",
		"userSelections/analogTemperature",
		"networkInterface/linkQualityIndicator",
		"a/b/c",
		"trailing/",
	}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			cat, attr := Category(p), Attribute(p)
			if cat != "" {
				if got := cat + "/" + attr; got != p {
					t.Errorf("Category/Attribute(%q) rebuilt %q", p, got)
				}
			} else if attr != p {
				t.Errorf("Attribute(%q) = %q, want the whole path", p, attr)
			}
			if got := Join(cat, attr); got != p {
				t.Errorf("Join() = %q, want %q", got, p)
			}
		})
	}
}

func TestRegistry_LookupPrefersLiteralKey(t *testing.T) {
	reg := Registry{
		"userSelections/programUID": map[string]any{"access": "read", "type": "string"},
		"userSelections": map[string]any{
			"programUID": map[string]any{"access": "readwrite", "type": "string"},
		},
	}

	d, ok := reg.Lookup("userSelections/programUID")
	if !ok {
		t.Fatal("Lookup() not found")
	}
	if d.Access != AccessRead {
		t.Errorf("Access = %q, want literal key's %q", d.Access, AccessRead)
	}
}

func TestRegistry_LookupMissing(t *testing.T) {
	reg := Registry{"a": map[string]any{"b": "scalar"}}

	for _, path := range []string{"missing", "a/missing", "a/b/c", "a/b"} {
		if _, ok := reg.Lookup(path); ok {
			t.Errorf("Lookup(%q) found a descriptor, want none", path)
		}
	}

	var nilReg Registry
	if _, ok := nilReg.Lookup("a"); ok {
		t.Error("Lookup() on nil registry found a descriptor")
	}
}

func TestRegistry_SetCreatesCategories(t *testing.T) {
	reg := Registry{}
	reg.Set("networkInterface/linkQualityIndicator", Descriptor{Access: AccessRead, Type: TypeString})

	d, ok := reg.Lookup("networkInterface/linkQualityIndicator")
	if !ok {
		t.Fatal("Lookup() after Set() not found")
	}
	if d.Type != TypeString {
		t.Errorf("Type = %q, want %q", d.Type, TypeString)
	}
}

func TestParseDescriptor(t *testing.T) {
	raw := map[string]any{
		"access": "readwrite",
		"type":   "number",
		"min":    float64(0),
		"max":    float64(72000),
		"step":   1800,
		"values": map[string]any{
			"ON":       map[string]any{},
			"DISABLED": map[string]any{"disabled": true},
		},
		"default": "INVALID_OR_NOT_SET_TIME",
	}

	d := ParseDescriptor(raw)
	if d.MinOr(-1) != 0 || d.MaxOr(-1) != 72000 || d.StepOr(-1) != 1800 {
		t.Errorf("range = %v/%v/%v", d.MinOr(-1), d.MaxOr(-1), d.StepOr(-1))
	}
	if !d.Values["DISABLED"].Disabled {
		t.Error("DISABLED value not marked disabled")
	}
	if got := d.EnabledValueTokens(); len(got) != 1 || got[0] != "ON" {
		t.Errorf("EnabledValueTokens() = %v, want [ON]", got)
	}

	back := ParseDescriptor(d.Map())
	if back.Access != d.Access || back.Type != d.Type || len(back.Values) != 2 || back.Default != d.Default {
		t.Errorf("ParseDescriptor(Map()) = %+v, want %+v", back, d)
	}
}

func TestDescriptor_CloneIsIndependent(t *testing.T) {
	d := Descriptor{Access: AccessRead, Type: TypeString, Values: map[string]ValueInfo{"A": {}}, Min: Float(1)}
	cpy := d.Clone()
	cpy.Values["B"] = ValueInfo{}
	*cpy.Min = 5

	if len(d.Values) != 1 || *d.Min != 1 {
		t.Error("Clone() shares state with the original")
	}
}

func TestDeviceClass_Text(t *testing.T) {
	var c DeviceClass
	if err := c.UnmarshalText([]byte("binary_sensor.door")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if c != BinaryDoor {
		t.Errorf("UnmarshalText() = %v, want %v", c, BinaryDoor)
	}
	if err := c.UnmarshalText([]byte("lamp.door")); err == nil {
		t.Error("UnmarshalText() accepted an unknown platform")
	}
	if err := c.UnmarshalText([]byte("")); err != nil || !c.IsZero() {
		t.Errorf("UnmarshalText(\"\") = %v, %v", c, err)
	}
}
