// Package catalog holds curated metadata for well-known appliance attributes.
//
// The cloud's capability registry is often incomplete or inconsistent: it may
// omit attributes that are reported in live state, declare toggles as
// enumerations, or lack icons and units entirely. A catalog Entry patches
// these gaps: it can supply a capability descriptor, a device class, unit,
// icon, entity category, friendly name, value and state mappings, and can
// force the entity kind.
//
// The base catalog applies to every appliance. Per-model catalogs override
// base entries for specific appliance models, and an optional YAML overrides
// file can add or replace entries at deploy time.
package catalog
