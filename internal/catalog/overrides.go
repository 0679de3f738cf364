package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Overrides is the on-disk form of deploy-time catalog additions.
//
//	entries:
//	  fanSpeed:
//	    capability: {access: readwrite, type: string, values: {LOW: {}, HIGH: {}}}
//	    icon: mdi:fan
//	models:
//	  EHE6899SA:
//	    ui2LockMode:
//	      friendly_name: Child Lock External
type Overrides struct {
	Entries Catalog            `yaml:"entries"`
	Models  map[string]Catalog `yaml:"models"`
}

// LoadOverrides reads an overrides file.
//
// Parameters:
//   - path: Path to the YAML overrides file
//
// Returns:
//   - Overrides: Parsed overrides
//   - error: If the file cannot be read or parsed
func LoadOverrides(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, fmt.Errorf("reading catalog overrides: %w", err)
	}
	return ParseOverrides(data)
}

// ParseOverrides parses overrides from YAML.
func ParseOverrides(data []byte) (Overrides, error) {
	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Overrides{}, fmt.Errorf("parsing catalog overrides: %w", err)
	}
	for key, e := range o.Entries {
		if e.Platform != "" && !e.Platform.Valid() {
			return Overrides{}, fmt.Errorf("catalog entry %q: unknown platform %q", key, e.Platform)
		}
	}
	for model, entries := range o.Models {
		for key, e := range entries {
			if e.Platform != "" && !e.Platform.Valid() {
				return Overrides{}, fmt.Errorf("catalog entry %s/%q: unknown platform %q", model, key, e.Platform)
			}
		}
	}
	return o, nil
}
