package catalog

import (
	"maps"
	"slices"
	"sync"

	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
)

// Catalog maps attribute keys to entries. Keys are bare attribute names or
// full capability paths.
type Catalog map[string]Entry

// Lookup returns the entry for a capability path. The full path is tried
// first, then the bare attribute.
func (c Catalog) Lookup(path string) (Entry, bool) {
	if e, ok := c[path]; ok {
		return e, true
	}
	if attr := capability.Attribute(path); attr != path {
		if e, ok := c[attr]; ok {
			return e, true
		}
	}
	return Entry{}, false
}

// Keys returns the catalog keys in sorted order.
func (c Catalog) Keys() []string {
	return slices.Sorted(maps.Keys(c))
}

// Clone returns a deep copy of the catalog.
func (c Catalog) Clone() Catalog {
	cpy := make(Catalog, len(c))
	for k, e := range c {
		cpy[k] = e.Clone()
	}
	return cpy
}

// Merge returns a copy of c with every entry of other added or replaced.
func (c Catalog) Merge(other Catalog) Catalog {
	merged := c.Clone()
	for k, e := range other {
		if e.Attribute == "" {
			e.Attribute = capability.Attribute(k)
		}
		merged[k] = e.Clone()
	}
	return merged
}

// Source provides the catalog that applies to a given appliance model.
// It is safe for concurrent use.
type Source struct {
	mu     sync.RWMutex
	base   Catalog
	models map[string]Catalog
}

// NewSource creates a Source from the built-in base and model catalogs.
func NewSource() *Source {
	return &Source{
		base:   Base(),
		models: Models(),
	}
}

// ForModel returns the base catalog merged with the model's overrides.
// The returned catalog is a copy owned by the caller.
func (s *Source) ForModel(model string) Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if extra, ok := s.models[model]; ok {
		return s.base.Merge(extra)
	}
	return s.base.Clone()
}

// Apply merges overrides into the base and model catalogs.
func (s *Source) Apply(o Overrides) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(o.Entries) > 0 {
		s.base = s.base.Merge(o.Entries)
	}
	for model, entries := range o.Models {
		existing, ok := s.models[model]
		if !ok {
			existing = Catalog{}
		}
		s.models[model] = existing.Merge(entries)
	}
}

// ModelNames returns the models that have dedicated catalogs, sorted.
func (s *Source) ModelNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.models))
}
