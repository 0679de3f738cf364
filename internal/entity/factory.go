package entity

import (
	"strings"

	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
	"github.com/nerrad567/gray-logic-electrolux/internal/catalog"
	"github.com/nerrad567/gray-logic-electrolux/internal/naming"
)

// Factory builds entity descriptors for capability paths.
type Factory struct {
	names  *naming.Resolver
	logger Logger
}

// NewFactory creates a Factory using the given name resolver.
func NewFactory(names *naming.Resolver) *Factory {
	return &Factory{names: names, logger: noopLogger{}}
}

// SetLogger sets the logger for the factory.
func (f *Factory) SetLogger(logger Logger) {
	f.logger = logger
}

// Names returns the name resolver used by the factory.
func (f *Factory) Names() *naming.Resolver {
	return f.names
}

// Request describes one capability path to build entities for.
type Request struct {
	ApplianceID   string
	ApplianceName string
	Path          string

	// Capability is the cloud-reported descriptor, nil when the registry has
	// no entry for Path.
	Capability *capability.Descriptor

	// Catalog is the catalog applying to the appliance.
	Catalog catalog.Catalog
}

// Build returns the entities for a capability path: none when the path
// cannot be resolved, one per command token for command buttons, and one
// otherwise. Build never fails; unresolvable paths are logged and skipped.
func (f *Factory) Build(req Request) []*Descriptor {
	path := req.Path
	entityName := f.names.EntityName(path)

	var d capability.Descriptor
	if req.Capability != nil {
		d = req.Capability.Clone()
	}

	entry, hasEntry := req.Catalog.Lookup(path)
	if hasEntry {
		if cd, ok := entry.Descriptor(); ok {
			switch {
			case req.Capability == nil:
				d = cd
			case !d.HasValues() && cd.HasValues():
				d.Values = cd.Values
			}
		}
	}

	kind, err := capability.Resolve(entityName, d)
	if err != nil {
		kind = ""
	}
	unit := capability.Unit(d)
	deviceClass := capability.DeviceClassOf(d)
	var (
		category capability.EntityCategory
		icon     string
	)

	// catalog metadata wins where it is set; derived values fill the rest
	if hasEntry {
		if !entry.DeviceClass.IsZero() {
			deviceClass = entry.DeviceClass
		}
		if entry.Unit != "" {
			unit = entry.Unit
		}
		category = entry.EntityCategory
		icon = entry.Icon
	}
	if !deviceClass.IsZero() {
		kind = deviceClass.Platform
	}
	if entityName == capability.ExecuteCommand && len(d.Values) > 0 {
		kind = capability.KindButton
	}
	if hasEntry && entry.Platform != "" {
		kind = entry.Platform
	}

	if kind == "" || !kind.Valid() {
		f.logger.Debug("capability not mapped to an entity",
			"appliance_id", req.ApplianceID,
			"path", path,
			"type", d.Type,
			"access", d.Access,
			"error", err,
		)
		return nil
	}

	base := &Descriptor{
		Kind:             kind,
		ApplianceID:      req.ApplianceID,
		Source:           capability.Category(path),
		Attribute:        capability.Attribute(path),
		EntityName:       entityName,
		Name:             f.displayName(req.ApplianceName, path, entry, hasEntry),
		Icon:             icon,
		Unit:             unit,
		DeviceClass:      deviceClass,
		Category:         category,
		EnabledByDefault: !(hasEntry && entry.DisabledByDefault),
		Capability:       d,
	}
	if hasEntry {
		e := entry.Clone()
		base.Catalog = &e
	}

	if kind != capability.KindButton {
		base.behavior = newBehavior(base)
		return []*Descriptor{base}
	}

	tokens := d.ValueTokens()
	if len(tokens) == 0 {
		f.logger.Debug("command capability declares no commands",
			"appliance_id", req.ApplianceID, "path", path)
		return nil
	}

	out := make([]*Descriptor, 0, len(tokens))
	for _, token := range tokens {
		b := *base
		b.Command = token
		b.Name = buttonName(base.Name, token)
		if hasEntry && entry.ValueNamed {
			b.Name = token
		}
		b.Icon = buttonIcon(token, entry, icon)
		b.behavior = newBehavior(&b)
		out = append(out, &b)
	}
	return out
}

func (f *Factory) displayName(appliance, path string, entry catalog.Entry, hasEntry bool) string {
	if hasEntry && entry.FriendlyName != "" {
		return appliance + " " + strings.ToLower(entry.FriendlyName)
	}
	return appliance + " " + f.names.SensorName(path)
}

// buttonName appends the command token to the base name unless the base
// name already ends with it, avoiding names like "Air filter reset reset".
func buttonName(base, token string) string {
	words := strings.Fields(base)
	if len(words) > 0 && strings.EqualFold(words[len(words)-1], token) {
		return base
	}
	return base + " " + token
}

func buttonIcon(token string, entry catalog.Entry, static string) string {
	if icon := entry.ValueIcons[token]; icon != "" {
		return icon
	}
	if static != "" {
		return static
	}
	if icon := catalog.CommandIcons[token]; icon != "" {
		return icon
	}
	return catalog.DefaultButtonIcon
}
