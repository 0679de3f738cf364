package capability

import "fmt"

// ExecuteCommand is the attribute name of the appliance command surface.
// The cloud sometimes reports it as read-only; it is always a button.
const ExecuteCommand = "executeCommand"

// Resolve decides which entity kind represents a capability.
//
// The rules are applied in order and the first match wins:
//  1. Missing or unknown type/access: unresolved.
//  2. boolean + readwrite + values declared: Switch (the cloud reports some
//     toggles as enumerated booleans).
//  3. Non-empty values + readwrite, unless a numeric type with a min: Select.
//  4. A switch on the value type (see resolveByType).
//
// Parameters:
//   - name: the entity name (attribute after rename rules)
//   - d: the effective descriptor
//
// Returns:
//   - Kind: the resolved entity kind
//   - error: ErrIncomplete, ErrUnknownAccess, ErrUnknownType or ErrNoRule
func Resolve(name string, d Descriptor) (Kind, error) {
	if !d.Complete() {
		return "", ErrIncomplete
	}
	if !d.Access.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAccess, d.Access)
	}
	if !d.Type.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, d.Type)
	}

	if d.Type == TypeBoolean && d.Access == AccessReadWrite && d.HasValues() {
		return KindSwitch, nil
	}

	if len(d.Values) > 0 && d.Access == AccessReadWrite {
		numeric := d.Type == TypeNumber || d.Type == TypeTemperature
		if !numeric || d.Min == nil {
			return KindSelect, nil
		}
	}

	if kind, ok := resolveByType(name, d); ok {
		return kind, nil
	}
	return "", fmt.Errorf("%w: type=%s access=%s", ErrNoRule, d.Type, d.Access)
}

func resolveByType(name string, d Descriptor) (Kind, bool) {
	switch d.Type {
	case TypeBoolean:
		switch d.Access {
		case AccessRead:
			return KindBinarySensor, true
		case AccessReadWrite:
			return KindSwitch, true
		}
	case TypeTemperature:
		switch d.Access {
		case AccessRead:
			return KindSensor, true
		case AccessReadWrite:
			return KindNumber, true
		}
	case TypeAlert:
		return KindSensor, true
	default:
		if name == ExecuteCommand && d.Access == AccessRead {
			return KindButton, true
		}
		switch d.Access {
		case AccessWrite:
			return KindButton, true
		case AccessConstant:
			return KindSensor, true
		case AccessRead:
			// string, number and int reach this branch
			return KindSensor, true
		}
		if d.Type == TypeInt || d.Type == TypeNumber {
			return KindNumber, true
		}
	}
	return "", false
}

// Unit returns the unit implied by the descriptor's type, or "".
func Unit(d Descriptor) string {
	if d.Type == TypeTemperature {
		return UnitCelsius
	}
	return ""
}

// DeviceClassOf returns the device class implied by the descriptor's type.
// Writable temperatures are number temperatures; others are sensor ones.
func DeviceClassOf(d Descriptor) DeviceClass {
	if d.Type != TypeTemperature {
		return DeviceClass{}
	}
	if d.Access == AccessReadWrite {
		return NumberTemperature
	}
	return SensorTemperature
}
