package simulation

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Parameter types.
const (
	TypeInteger  = "integer"
	TypeFloat    = "float"
	TypeString   = "string"
	TypeDuration = "duration"
	TypeBoolean  = "boolean"
	TypeList     = "list"
)

// SimulationConfig represents the configuration structure for a simulation
// loaded from simulation.yaml
type SimulationConfig struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Version     string      `yaml:"version"`
	Category    string      `yaml:"category"`
	Parameters  []Parameter `yaml:"parameters"`
}

// Parameter defines a configurable parameter for a simulation
type Parameter struct {
	Name        string      `yaml:"name"`
	Type        string      `yaml:"type"` // integer, float, string, duration, boolean, list
	Description string      `yaml:"description"`
	Default     interface{} `yaml:"default"`
	Required    bool        `yaml:"required"`
	Min         interface{} `yaml:"min,omitempty"`
	Max         interface{} `yaml:"max,omitempty"`
	Options     []string    `yaml:"options,omitempty"` // string enums and list choices
}

// Parameter returns the named parameter.
func (c SimulationConfig) Parameter(name string) (Parameter, bool) {
	for _, p := range c.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// ParseManifest decodes and validates a simulation.yaml document.
func ParseManifest(data []byte) (SimulationConfig, error) {
	var cfg SimulationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SimulationConfig{}, fmt.Errorf("failed to parse simulation config: %w", err)
	}

	if cfg.Name == "" {
		return SimulationConfig{}, fmt.Errorf("simulation name is required")
	}

	seen := make(map[string]bool, len(cfg.Parameters))
	for _, p := range cfg.Parameters {
		if p.Name == "" {
			return SimulationConfig{}, fmt.Errorf("parameter without a name")
		}
		if seen[p.Name] {
			return SimulationConfig{}, fmt.Errorf("duplicate parameter %s", p.Name)
		}
		seen[p.Name] = true

		switch p.Type {
		case TypeInteger, TypeFloat, TypeString, TypeDuration, TypeBoolean, TypeList:
		default:
			return SimulationConfig{}, fmt.Errorf("parameter %s: unsupported type %q", p.Name, p.Type)
		}
	}

	return cfg, nil
}
