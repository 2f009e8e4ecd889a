package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/picogrid/expedition-sim/pkg/logger"
	"github.com/picogrid/expedition-sim/pkg/simulation"
	"github.com/picogrid/expedition-sim/pkg/utils"

	// Import simulations to register them
	_ "github.com/picogrid/expedition-sim/cmd/expedition"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation",
	Long: `Run a simulation interactively or with specified parameters.

Parameters missing from the params file are prompted for. Set
EXPEDITION_SKIP_PROMPTS=true (or pipe stdin) to take defaults and
EXPEDITION_<PARAM> values instead.`,
	RunE: runSimulation,
}

func init() {
	runCmd.Flags().StringP("simulation", "s", "", "simulation name to run")
	runCmd.Flags().StringP("params", "p", "", "parameters file (YAML)")
	runCmd.Flags().String("engine-config", "", "engine configuration file (default is ./expedition.yaml)")
	_ = viper.BindPFlag("engine_config", runCmd.Flags().Lookup("engine-config"))
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	simName, err := selectSimulation(cmd)
	if err != nil {
		return fmt.Errorf("failed to select simulation: %w", err)
	}

	sim, err := simulation.DefaultRegistry.Get(simName)
	if err != nil {
		return fmt.Errorf("failed to get simulation: %w", err)
	}

	manifest, err := utils.FindSimulation(simulation.DefaultRegistry, simName)
	if err != nil {
		return err
	}

	var preset map[string]interface{}
	if path, _ := cmd.Flags().GetString("params"); path != "" {
		preset, err = utils.LoadParams(path, *manifest)
		if err != nil {
			return fmt.Errorf("failed to load parameters: %w", err)
		}
	}

	params, err := utils.PromptForParameters(manifest.Parameters, preset)
	if err != nil {
		return fmt.Errorf("failed to get parameters: %w", err)
	}

	if fc, ok := sim.(simulation.FileConfigurable); ok {
		if path := viper.GetString("engine_config"); path != "" {
			fc.SetConfigFile(path)
		}
	}

	if err := sim.Configure(params); err != nil {
		return fmt.Errorf("failed to configure simulation: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
		case <-ctx.Done():
			return
		}
		logger.Warn("\nReceived interrupt signal, stopping simulation...")
		if err := sim.Stop(); err != nil {
			logger.Errorf("Failed to stop simulation: %v", err)
			cancel()
		}
	}()

	logger.LogSection(fmt.Sprintf("Starting %s", sim.Name()))
	if err := sim.Run(ctx); err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	logger.Success("Simulation finished")
	return nil
}

func selectSimulation(cmd *cobra.Command) (string, error) {
	// Check if simulation is specified via flag
	simName, _ := cmd.Flags().GetString("simulation")
	if simName != "" {
		return simName, nil
	}

	simInfos := utils.DiscoverSimulations(simulation.DefaultRegistry)
	if len(simInfos) == 0 {
		return "", fmt.Errorf("no simulations found")
	}
	if len(simInfos) == 1 || utils.SkipPrompts() {
		return simInfos[0].Name, nil
	}

	// Build options for selection
	options := make([]string, len(simInfos))
	descriptions := make(map[string]string)

	for i, info := range simInfos {
		options[i] = info.Name
		descriptions[info.Name] = info.Config.Description
	}

	// Interactive selection
	var selected string
	prompt := &survey.Select{
		Message: "Select simulation:",
		Options: options,
		Description: func(value string, index int) string {
			return descriptions[value]
		},
	}

	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}

	return selected, nil
}
