// Package entity turns capability paths into typed, ready-to-render entities.
//
// A Descriptor is the immutable description of one entity: its kind, the
// capability path it is bound to, display metadata and, for command
// buttons, the command token it sends. Each descriptor carries a Behavior
// chosen once at construction from the closed set of kinds:
//
//	sensor         read-only value, formatted for display
//	binary_sensor  read-only on/off, optionally inverted
//	number         numeric setpoint with range; seconds shown as minutes
//	select         pick-list built from enumerated values
//	switch         on/off toggle
//	button         sends a fixed command token
//
// Behaviors never copy live state. They pull values on demand through a
// StateReader, so a read always reflects the latest merged state.
//
// The Factory applies catalog augmentation, resolves the kind and builds
// zero, one or many descriptors for a capability path (one per command token
// for command capabilities).
package entity
