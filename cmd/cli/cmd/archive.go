package cmd

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/picogrid/expedition-sim/pkg/archive"
	"github.com/picogrid/expedition-sim/pkg/catalog"
	"github.com/picogrid/expedition-sim/pkg/logger"
	"github.com/picogrid/expedition-sim/pkg/utils"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage saved mission profiles",
}

var archiveSaveCmd = &cobra.Command{
	Use:   "save NAME",
	Short: "Analyse a route and save it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, _ := cmd.Flags().GetStringSlice("waypoints")
		gear, _ := cmd.Flags().GetStringSlice("gear")
		distance, _ := cmd.Flags().GetFloat64("distance")

		route, err := catalog.Default().Route(names...)
		if err != nil {
			return err
		}

		return withArchive(func(a *archive.Archive) error {
			s, err := a.Save(args[0], route, gear, distance)
			if err != nil {
				return err
			}
			printScenario(s)
			return nil
		})
	},
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved mission profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withArchive(func(a *archive.Archive) error {
			scenarios, err := a.List()
			if err != nil {
				return err
			}
			if len(scenarios) == 0 {
				logger.Info("No saved scenarios")
				return nil
			}

			table := logger.NewTable("ID", "NAME", "CREATED", "DISTANCE", "RISK")
			for _, s := range scenarios {
				table.AddRow(
					s.ID,
					s.Name,
					s.CreatedAt.Format("2006-01-02 15:04"),
					fmt.Sprintf("%.1f km", s.Analysis.DistanceKm),
					fmt.Sprintf("%d %s", s.Analysis.RiskScore, s.Analysis.RiskLabel),
				)
			}
			table.Print()
			return nil
		})
	},
}

var archiveShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a saved mission profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(func(a *archive.Archive) error {
			s, err := a.Get(args[0])
			if err != nil {
				return err
			}
			printScenario(s)
			return nil
		})
	},
}

var archiveDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a saved mission profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !utils.SkipPrompts() {
			confirm := false
			prompt := &survey.Confirm{
				Message: fmt.Sprintf("Delete scenario %s?", args[0]),
				Default: false,
			}
			if err := survey.AskOne(prompt, &confirm); err != nil {
				return err
			}
			if !confirm {
				return nil
			}
		}

		return withArchive(func(a *archive.Archive) error {
			if err := a.Delete(args[0]); err != nil {
				return err
			}
			logger.Successf("Deleted scenario %s", args[0])
			return nil
		})
	},
}

func init() {
	archiveSaveCmd.Flags().StringSlice("waypoints", nil, "waypoints in visiting order (comma separated)")
	archiveSaveCmd.Flags().StringSlice("gear", nil, "equipped gear (comma separated)")
	archiveSaveCmd.Flags().Float64("distance", 0, "planned distance in km (default is the straight-line length)")
	_ = archiveSaveCmd.MarkFlagRequired("waypoints")

	archiveDeleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	archiveCmd.AddCommand(archiveSaveCmd, archiveListCmd, archiveShowCmd, archiveDeleteCmd)
}

func withArchive(fn func(*archive.Archive) error) error {
	ac := archiveConfig()
	a, err := archive.Open(archive.Config{Driver: ac.Driver, Path: ac.Path, DSN: ac.DSN}, nil)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printScenario(s *archive.Scenario) {
	logger.LogSection(s.Name)
	logger.LogKeyValue("ID", s.ID)
	logger.LogKeyValue("Created", s.CreatedAt.Format("2006-01-02 15:04:05"))

	if route, err := s.Route(); err == nil {
		logger.LogKeyValue("Route", strings.Join(route.Names(), " -> "))
	}
	if gear, err := s.GearList(); err == nil && len(gear) > 0 {
		logger.LogKeyValue("Gear", strings.Join(gear, ", "))
	}

	an := s.Analysis
	logger.LogKeyValue("Distance", fmt.Sprintf("%.1f km", an.DistanceKm))
	logger.LogKeyValue("Duration", fmt.Sprintf("%.1f h", an.DurationHours))
	logger.LogKeyValue("Risk", fmt.Sprintf("%d (%s)", an.RiskScore, an.RiskLabel))
	logger.LogKeyValue("Predicted Cost", fmt.Sprintf("supplies %.1f%%, fatigue %.1f%%, integrity %.1f%%",
		an.PredictedSupplies, an.PredictedFatigue, an.PredictedIntegrity))
}
