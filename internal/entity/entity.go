package entity

import (
	"strings"

	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
	"github.com/nerrad567/gray-logic-electrolux/internal/catalog"
)

// Logger defines the logging interface used by the Factory.
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

// StateReader gives behaviors access to an appliance's live state.
type StateReader interface {
	// ExtractValue returns the live value of source/attr.
	ExtractValue(source, attr string) (any, bool)

	// StateAttr returns the live value at a path, used for state mappings.
	StateAttr(path string) (any, bool)
}

// Descriptor describes one entity. Kind and path never change after
// construction.
type Descriptor struct {
	Kind        capability.Kind
	ApplianceID string

	// Source is the category segment of the capability path ("" at root).
	Source string
	// Attribute is the raw leaf key of the capability path.
	Attribute string
	// EntityName is the attribute after rename rules.
	EntityName string

	Name             string
	Icon             string
	Unit             string
	DeviceClass      capability.DeviceClass
	Category         capability.EntityCategory
	EnabledByDefault bool

	// Command is the token a button sends. Empty for other kinds.
	Command string

	// Capability is the effective descriptor after catalog augmentation.
	Capability capability.Descriptor

	// Catalog is the matching catalog entry, if any.
	Catalog *catalog.Entry

	behavior Behavior
}

// Path returns the capability path the entity is bound to.
func (d *Descriptor) Path() string {
	return capability.Join(d.Source, d.Attribute)
}

func (d *Descriptor) sourceOrRoot() string {
	if d.Source == "" {
		return "root"
	}
	return d.Source
}

// UniqueID returns an identifier that is stable across restarts.
func (d *Descriptor) UniqueID() string {
	if d.Kind == capability.KindButton {
		return d.ApplianceID + "-" + d.Command + "-" + d.Attribute + "-" + d.sourceOrRoot()
	}
	return d.ApplianceID + "-" + d.Attribute + "-" + d.sourceOrRoot()
}

// Key returns a short identifier unique within the appliance, suitable for
// topic segments and URLs.
func (d *Descriptor) Key() string {
	key := strings.ReplaceAll(d.Path(), "/", "_")
	if d.Kind == capability.KindButton && d.Command != "" {
		key += "_" + strings.ToLower(d.Command)
	}
	return key
}

// Covers reports whether the entity is bound to the given category and
// attribute.
func (d *Descriptor) Covers(source, attr string) bool {
	return d.Source == source && d.Attribute == attr
}

// Behavior returns the kind-specific behavior bound at construction.
func (d *Descriptor) Behavior() Behavior {
	return d.behavior
}

// Reading is a snapshot of an entity's current value and display metadata.
type Reading struct {
	UniqueID    string                    `json:"unique_id"`
	Key         string                    `json:"key"`
	Kind        capability.Kind           `json:"kind"`
	Name        string                    `json:"name"`
	Path        string                    `json:"path"`
	Value       any                       `json:"value"`
	Unit        string                    `json:"unit,omitempty"`
	Icon        string                    `json:"icon,omitempty"`
	DeviceClass string                    `json:"device_class,omitempty"`
	Category    capability.EntityCategory `json:"entity_category,omitempty"`
	Enabled     bool                      `json:"enabled_by_default"`
	Attributes  map[string]any            `json:"attributes,omitempty"`
}

// Read reads the current value through the entity's behavior.
func (d *Descriptor) Read(src StateReader) Reading {
	b := d.behavior
	return Reading{
		UniqueID:    d.UniqueID(),
		Key:         d.Key(),
		Kind:        d.Kind,
		Name:        d.Name,
		Path:        d.Path(),
		Value:       b.Read(src),
		Unit:        b.DisplayUnit(),
		Icon:        d.Icon,
		DeviceClass: d.DeviceClass.String(),
		Category:    d.Category,
		Enabled:     d.EnabledByDefault,
		Attributes:  b.Attributes(),
	}
}

// BuildCommand converts a user input into the command payload for the
// appliance. The payload is {source: {attribute: value}}, or
// {attribute: value} at root.
func (d *Descriptor) BuildCommand(input any) (map[string]any, error) {
	value, err := d.behavior.Command(input)
	if err != nil {
		return nil, err
	}
	return BuildPayload(d.Source, d.Attribute, value), nil
}

// BuildPayload builds a command payload for a capability path.
func BuildPayload(source, attr string, value any) map[string]any {
	if source != "" {
		return map[string]any{source: map[string]any{attr: value}}
	}
	return map[string]any{attr: value}
}
