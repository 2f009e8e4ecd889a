package simulation

import (
	"context"
)

// Simulation defines the interface that all simulations must implement
type Simulation interface {
	// Name returns the name of the simulation
	Name() string

	// Description returns a brief description of what the simulation does
	Description() string

	// Manifest describes the simulation and the parameters it accepts
	Manifest() SimulationConfig

	// Configure sets up the simulation with the provided parameters
	Configure(params map[string]interface{}) error

	// Run executes the simulation until it finishes or ctx is cancelled
	Run(ctx context.Context) error

	// Stop gracefully shuts down the simulation
	Stop() error
}

// FileConfigurable is implemented by simulations that read an engine
// configuration file in addition to their parameters.
type FileConfigurable interface {
	SetConfigFile(path string)
}
