package utils

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/picogrid/expedition-sim/pkg/simulation"
)

// SimulationInfo contains information about a registered simulation
type SimulationInfo struct {
	Name   string
	Config simulation.SimulationConfig
}

// DiscoverSimulations lists every simulation in the registry with its
// manifest.
func DiscoverSimulations(reg *simulation.Registry) []SimulationInfo {
	manifests := reg.Manifests()
	infos := make([]SimulationInfo, 0, len(manifests))
	for _, m := range manifests {
		infos = append(infos, SimulationInfo{Name: m.Name, Config: m})
	}
	return infos
}

// FindSimulation returns the manifest registered under name.
func FindSimulation(reg *simulation.Registry, name string) (*simulation.SimulationConfig, error) {
	for _, info := range DiscoverSimulations(reg) {
		if info.Name == name {
			cfg := info.Config
			return &cfg, nil
		}
	}
	return nil, fmt.Errorf("simulation configuration not found for %s", name)
}

// LoadParams reads a YAML parameters file and converts each value to the type
// its manifest declares. Keys the manifest does not know are rejected.
func LoadParams(path string, manifest simulation.SimulationConfig) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameters file: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse parameters file: %w", err)
	}

	params := make(map[string]interface{}, len(raw))
	for key, value := range raw {
		param, ok := manifest.Parameter(key)
		if !ok {
			return nil, fmt.Errorf("unknown parameter %s for simulation %s", key, manifest.Name)
		}
		v, err := CoerceValue(value, param)
		if err != nil {
			return nil, err
		}
		params[key] = v
	}
	return params, nil
}
