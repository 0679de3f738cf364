package appliance

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
	"github.com/nerrad567/gray-logic-electrolux/internal/catalog"
	"github.com/nerrad567/gray-logic-electrolux/internal/entity"
)

// Logger defines the logging interface used by State and Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// DefaultStaticAttributes are attributes the capability endpoint omits but
// the live state reliably reports.
var DefaultStaticAttributes = []string{
	"connectivityState",
	"networkInterface/linkQualityIndicator",
	"applianceMode",
}

// Document keys of the cloud state payload.
const (
	keyProperties      = "properties"
	keyReported        = "reported"
	keyConnectionState = "connectionState"
)

// Options configures a new State.
type Options struct {
	ID    string
	Name  string
	Brand string
	Model string

	// Catalog is the catalog for the appliance model.
	Catalog catalog.Catalog

	// Factory builds entities. Required.
	Factory *entity.Factory

	// StaticAttributes overrides DefaultStaticAttributes when non-nil.
	StaticAttributes []string

	Logger Logger
}

// State is the live model of one appliance.
//
// Identity fields are fixed at construction. Everything else is guarded by
// a mutex; all methods are safe for concurrent use.
type State struct {
	ID    string
	Name  string
	Brand string
	Model string

	mu              sync.Mutex
	caps            capability.Registry
	ownCapabilities bool
	doc             map[string]any
	entities        []*entity.Descriptor
	byRef           map[string]*entity.Descriptor // unique id and key

	catalog catalog.Catalog
	factory *entity.Factory
	static  []string
	logger  Logger
}

// NewState creates an appliance state. Call Setup before reading entities.
func NewState(opts Options) *State {
	static := opts.StaticAttributes
	if static == nil {
		static = DefaultStaticAttributes
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	c := opts.Catalog
	if c == nil {
		c = catalog.Catalog{}
	}
	return &State{
		ID:      opts.ID,
		Name:    opts.Name,
		Brand:   opts.Brand,
		Model:   opts.Model,
		caps:    capability.Registry{},
		doc:     map[string]any{},
		byRef:   map[string]*entity.Descriptor{},
		catalog: c,
		factory: opts.Factory,
		static:  static,
		logger:  logger,
	}
}

// Setup materialises the appliance's entities from a capability registry
// and a full state document. Any previous entities are discarded.
//
// A nil registry means the cloud did not return capabilities; the state
// then infers them from the catalog as attributes appear in live data.
//
// Parameters:
//   - caps: the capability registry, or nil when unavailable
//   - doc: the full state document as returned by the cloud
//
// Returns:
//   - []*entity.Descriptor: the materialised entities
func (s *State) Setup(caps capability.Registry, doc map[string]any) []*entity.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()

	sources := s.factory.Names().Sources(caps)

	s.ownCapabilities = caps == nil
	s.caps = caps.Clone()
	if s.caps == nil {
		s.caps = capability.Registry{}
		s.logger.Warn("cloud returned no capability definition", "appliance_id", s.ID)
	}
	s.doc = capability.CloneTree(doc)
	if s.doc == nil {
		s.doc = map[string]any{}
	}
	s.entities = nil
	s.byRef = map[string]*entity.Descriptor{}

	for _, path := range s.static {
		if _, ok := s.getState(path); !ok {
			continue
		}
		entry, ok := s.catalog.Lookup(path)
		if !ok {
			continue
		}
		built := s.build(path)
		if len(built) == 0 {
			s.logger.Debug("static attribute could not be mapped", "appliance_id", s.ID, "path", path)
			continue
		}
		if d, ok := entry.Descriptor(); ok {
			s.caps.Set(path, d)
		}
		s.add(built)
	}

	for _, path := range sources {
		if built := s.build(path); len(built) > 0 {
			s.add(built)
		}
	}

	// Without cloud capabilities the setup document is the first refresh.
	s.updateMissing()

	s.logger.Debug("appliance entities materialised",
		"appliance_id", s.ID,
		"entities", len(s.entities),
		"own_capabilities", s.ownCapabilities,
	)
	return s.snapshot()
}

// build runs the factory for one path using the current registry entry.
func (s *State) build(path string) []*entity.Descriptor {
	req := entity.Request{
		ApplianceID:   s.ID,
		ApplianceName: s.Name,
		Path:          path,
		Catalog:       s.catalog,
	}
	if d, ok := s.caps.Lookup(path); ok {
		req.Capability = &d
	}
	return s.factory.Build(req)
}

// add appends entities whose unique id is not yet taken and returns the
// ones added.
func (s *State) add(built []*entity.Descriptor) []*entity.Descriptor {
	var added []*entity.Descriptor
	for _, d := range built {
		id := d.UniqueID()
		if _, dup := s.byRef[id]; dup {
			continue
		}
		s.entities = append(s.entities, d)
		s.byRef[id] = d
		s.byRef[d.Key()] = d
		added = append(added, d)
	}
	return added
}

func (s *State) covers(source, attr string) bool {
	for _, d := range s.entities {
		if d.Covers(source, attr) {
			return true
		}
	}
	return false
}

// UpdateMissingEntities adds entities for catalog attributes that appear in
// the reported state without a covering entity. It only acts when the
// state infers its own capabilities. Calling it again without new reported
// attributes adds nothing.
func (s *State) UpdateMissingEntities() []*entity.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateMissing()
}

func (s *State) updateMissing() []*entity.Descriptor {
	if !s.ownCapabilities {
		return nil
	}
	reported := s.reported()
	if len(reported) == 0 {
		return nil
	}

	var added []*entity.Descriptor
	for _, path := range Discover(s.catalog, reported, s.covers) {
		entry, _ := s.catalog.Lookup(path)
		if d, ok := entry.Descriptor(); ok {
			s.caps.Set(path, d)
		}
		built := s.build(path)
		if len(built) == 0 {
			continue
		}
		s.logger.Debug("discovered entity from reported state", "appliance_id", s.ID, "path", path)
		added = append(added, s.add(built)...)
	}
	return added
}

// ApplyReported merges a partial update into the reported state. Top-level
// keys are replaced wholesale. It returns any entities discovered as a
// result.
func (s *State) ApplyReported(partial map[string]any) []*entity.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()

	reported := s.ensureReported()
	for k, v := range partial {
		reported[k] = v
	}
	return s.updateMissing()
}

// Replace swaps in a full state document, as fetched from the cloud. It
// returns any entities discovered as a result.
func (s *State) Replace(doc map[string]any) []*entity.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = capability.CloneTree(doc)
	if s.doc == nil {
		s.doc = map[string]any{}
	}
	return s.updateMissing()
}

// reported returns the properties.reported object, or nil.
func (s *State) reported() map[string]any {
	props, _ := s.doc[keyProperties].(map[string]any)
	reported, _ := props[keyReported].(map[string]any)
	return reported
}

func (s *State) ensureReported() map[string]any {
	props, ok := s.doc[keyProperties].(map[string]any)
	if !ok {
		props = map[string]any{}
		s.doc[keyProperties] = props
	}
	reported, ok := props[keyReported].(map[string]any)
	if !ok {
		reported = map[string]any{}
		props[keyReported] = reported
	}
	return reported
}

// GetState returns the reported value at a "/"-separated path. A missing
// segment yields no value.
func (s *State) GetState(path string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getState(path)
}

func (s *State) getState(path string) (any, bool) {
	var node any = s.reported()
	for _, key := range strings.Split(path, "/") {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node = m[key]
		if node == nil {
			return nil, false
		}
	}
	return node, true
}

// ExtractValue returns the live value of an attribute.
//
// Documents fetched from the cloud nest attributes under
// properties.reported; pushed documents carry them at the root. The shape
// is detected per read: when the category (or the attribute itself) is
// present at the root the root is used.
func (s *State) ExtractValue(source, attr string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extractValue(source, attr)
}

func (s *State) extractValue(source, attr string) (any, bool) {
	root := s.doc
	atRoot := (source != "" && root[source] != nil) || present(root[attr])
	if !atRoot {
		root = s.reported()
	}
	if root == nil {
		return nil, false
	}

	var v any
	if source != "" {
		category, _ := root[source].(map[string]any)
		if len(category) == 0 {
			return nil, false
		}
		v = category[attr]
	} else {
		v = root[attr]
	}
	return v, v != nil
}

// StateAttr returns the reported value used for state mappings. A literal
// "source/attr" key is tried before the nested lookup.
func (s *State) StateAttr(path string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateAttr(path)
}

func (s *State) stateAttr(path string) (any, bool) {
	reported := s.reported()
	if strings.Contains(path, "/") {
		if v := reported[path]; present(v) {
			return v, true
		}
		category, _ := reported[capability.Category(path)].(map[string]any)
		v := category[capability.Attribute(path)]
		return v, v != nil
	}
	v := reported[path]
	return v, v != nil
}

// view gives entity behaviors lock-free access to the state while the
// caller holds s.mu.
type view struct{ s *State }

func (v view) ExtractValue(source, attr string) (any, bool) { return v.s.extractValue(source, attr) }
func (v view) StateAttr(path string) (any, bool)            { return v.s.stateAttr(path) }

// Entities returns the materialised entities in creation order.
func (s *State) Entities() []*entity.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *State) snapshot() []*entity.Descriptor {
	out := make([]*entity.Descriptor, len(s.entities))
	copy(out, s.entities)
	return out
}

// Entity returns the entity with the given unique id or key.
func (s *State) Entity(ref string) (*entity.Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(ref)
}

func (s *State) lookup(ref string) (*entity.Descriptor, error) {
	d, ok := s.byRef[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownEntity, s.ID, ref)
	}
	return d, nil
}

// Read returns the current reading of an entity, addressed by unique id or
// key.
func (s *State) Read(ref string) (entity.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.lookup(ref)
	if err != nil {
		return entity.Reading{}, err
	}
	return d.Read(view{s}), nil
}

// ReadAll returns readings for every entity in creation order.
func (s *State) ReadAll() []entity.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entity.Reading, 0, len(s.entities))
	for _, d := range s.entities {
		out = append(out, d.Read(view{s}))
	}
	return out
}

// BuildCommand converts user input for an entity into a command payload.
// The state is not modified; the new value arrives with the next update.
func (s *State) BuildCommand(ref string, input any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.lookup(ref)
	if err != nil {
		return nil, err
	}
	payload, err := d.BuildCommand(input)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", d.UniqueID(), err)
	}
	return payload, nil
}

// OwnCapabilities reports whether capabilities are inferred from the
// catalog rather than reported by the cloud.
func (s *State) OwnCapabilities() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ownCapabilities
}

// Capabilities returns a copy of the capability registry.
func (s *State) Capabilities() capability.Registry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caps.Clone()
}

// Document returns a copy of the full state document.
func (s *State) Document() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return capability.CloneTree(s.doc)
}

// ConnectionState returns the cloud-reported connection state, e.g.
// "connected" or "disconnected".
func (s *State) ConnectionState() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.doc[keyConnectionState].(string); ok {
		return v
	}
	v, _ := s.reported()[keyConnectionState].(string)
	return v
}

// SetConnectionState records a connection state reported outside the state
// document, e.g. in the appliance list.
func (s *State) SetConnectionState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc[keyConnectionState] = state
}

// present reports whether a value counts as set: nil, false, zero, "" and
// empty collections do not.
func present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case map[string]any:
		return len(val) > 0
	case []any:
		return len(val) > 0
	}
	return true
}
