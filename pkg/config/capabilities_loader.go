package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CapabilityManifest is the on-disk declaration of the PEP capabilities this
// deployment advertises to the PDP, plus the resource types it knows how to
// scope. It is optional: an Enforcer can be built with an in-code capability
// list instead. Kept as a YAML file (rather than code) because operators
// commonly need to change advertised capabilities per-environment without a
// rebuild.
type CapabilityManifest struct {
	Capabilities []string          `yaml:"capabilities" json:"capabilities"`
	Resources    []ResourceProfile `yaml:"resources" json:"resources"`
}

// ResourceProfile names a resource type and the properties it whitelists.
// It mirrors pep.ResourceType but stays decoupled from that package so
// config has no dependency on the domain packages.
type ResourceProfile struct {
	Name                string   `yaml:"name" json:"name"`
	SupportedProperties []string `yaml:"supported_properties" json:"supported_properties"`
}

// LoadCapabilityManifest reads and parses a capability manifest from path.
func LoadCapabilityManifest(path string) (*CapabilityManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load capability manifest %q: %w", path, err)
	}

	var manifest CapabilityManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse capability manifest %q: %w", path, err)
	}

	if err := manifest.validate(); err != nil {
		return nil, fmt.Errorf("invalid capability manifest %q: %w", path, err)
	}

	return &manifest, nil
}

func (m *CapabilityManifest) validate() error {
	seen := make(map[string]bool, len(m.Resources))
	for _, r := range m.Resources {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return fmt.Errorf("resource profile with empty name")
		}
		if seen[name] {
			return fmt.Errorf("duplicate resource profile %q", name)
		}
		seen[name] = true
	}
	return nil
}
