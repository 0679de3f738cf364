package appliance

import "github.com/nerrad567/gray-logic-electrolux/internal/catalog"

// Discover returns the paths of catalog entries that have a value in the
// reported state but no covering entity, in catalog key order.
//
// It does not modify its inputs.
func Discover(c catalog.Catalog, reported map[string]any, covered func(source, attr string) bool) []string {
	var missing []string
	for _, key := range c.Keys() {
		entry := c[key]
		if !reportedHas(reported, entry.Category, entry.Attribute) {
			continue
		}
		if covered(entry.Category, entry.Attribute) {
			continue
		}
		missing = append(missing, entry.Path())
	}
	return missing
}

func reportedHas(reported map[string]any, source, attr string) bool {
	if source == "" {
		return present(reported[attr])
	}
	category, ok := reported[source].(map[string]any)
	if !ok || len(category) == 0 {
		return false
	}
	return present(category[attr])
}
