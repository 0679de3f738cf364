package appliance

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Registry indexes appliance states by id. All methods are thread-safe.
type Registry struct {
	mu     sync.RWMutex
	states map[string]*State
	logger Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		states: make(map[string]*State),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Add registers a state, replacing any previous state with the same id.
func (r *Registry) Add(s *State) {
	r.mu.Lock()
	_, replaced := r.states[s.ID]
	r.states[s.ID] = s
	r.mu.Unlock()

	r.logger.Debug("appliance registered", "appliance_id", s.ID, "replaced", replaced)
}

// Get returns the state for an appliance id.
// Returns ErrUnknownAppliance if none is registered.
func (r *Registry) Get(id string) (*State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.states[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAppliance, id)
	}
	return s, nil
}

// Remove unregisters an appliance. It reports whether one was registered.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.states[id]
	delete(r.states, id)
	return ok
}

// IDs returns the registered appliance ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.states))
}

// All returns the registered states ordered by id.
func (r *Registry) All() []*State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*State, 0, len(r.states))
	for _, id := range slices.Sorted(maps.Keys(r.states)) {
		out = append(out, r.states[id])
	}
	return out
}

// Len returns the number of registered appliances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.states)
}
