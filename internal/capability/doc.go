// Package capability models the capability descriptors reported by the
// Electrolux appliance cloud and resolves them to entity kinds.
//
// A capability describes one appliance attribute: its value type, its access
// mode, an optional set of enumerated values and an optional numeric range.
// Capabilities arrive as a loosely typed JSON tree keyed by capability path
// ("attribute" or "category/attribute"). This package turns that tree into
// typed Descriptor values and applies the ordered resolution rules that pick
// the entity kind used to represent each capability.
//
// # Key Types
//
//   - Descriptor: typed view of one capability (access, type, values, range)
//   - Registry: the nested capability tree as returned by the cloud
//   - Kind: the closed set of entity kinds (sensor, switch, number, ...)
//   - DeviceClass: a platform-scoped device class hint (e.g. binary_sensor.door)
//
// # Resolution
//
//	d, ok := reg.Lookup("userSelections/analogSpinSpeed")
//	if !ok {
//	    return
//	}
//	kind, err := capability.Resolve("analogSpinSpeed", d)
//	if err != nil {
//	    // unresolvable capabilities are skipped by callers
//	}
//
// Resolution is a pure function; nothing in this package performs I/O.
package capability
