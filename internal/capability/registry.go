package capability

import "strings"

// Registry is the capability tree reported for one appliance.
//
// Leaves are descriptor objects; intermediate objects group attributes by
// category. Some cloud responses store nested capabilities under literal
// "category/attribute" keys, so lookups try the literal key first.
type Registry map[string]any

// Raw returns the raw descriptor object stored at path.
func (r Registry) Raw(path string) (map[string]any, bool) {
	if r == nil {
		return nil, false
	}
	if m, ok := r[path].(map[string]any); ok && len(m) > 0 {
		return m, true
	}

	var node any = map[string]any(r)
	for _, key := range strings.Split(path, "/") {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[key]
		if !ok || node == nil {
			return nil, false
		}
	}
	m, ok := node.(map[string]any)
	return m, ok
}

// Lookup returns the descriptor stored at path.
func (r Registry) Lookup(path string) (Descriptor, bool) {
	m, ok := r.Raw(path)
	if !ok {
		return Descriptor{}, false
	}
	return ParseDescriptor(m), true
}

// Set stores d at path, creating intermediate category objects as needed.
// An existing non-object value on the way is replaced.
func (r Registry) Set(path string, d Descriptor) {
	keys := strings.Split(path, "/")
	node := map[string]any(r)
	for _, key := range keys[:len(keys)-1] {
		next, ok := node[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[key] = next
		}
		node = next
	}
	node[keys[len(keys)-1]] = d.Map()
}

// Clone returns a deep copy of the registry.
func (r Registry) Clone() Registry {
	if r == nil {
		return nil
	}
	return Registry(cloneMap(r))
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = cloneValue(v)
	}
	return cpy
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = cloneValue(elem)
		}
		return cpy
	default:
		return v
	}
}

// CloneTree deep-copies a JSON object tree.
func CloneTree(m map[string]any) map[string]any {
	return cloneMap(m)
}
