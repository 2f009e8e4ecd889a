package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/picogrid/expedition-sim/pkg/catalog"
	"github.com/picogrid/expedition-sim/pkg/logger"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List catalog waypoints",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat := catalog.Default()
		if path, _ := cmd.Flags().GetString("file"); path != "" {
			var err error
			if cat, err = catalog.LoadFile(path); err != nil {
				return err
			}
		}

		table := logger.NewTable("NAME", "KIND", "TERRAIN", "RISK", "ACCESS", "GEAR")
		for _, wp := range cat.All() {
			table.AddRow(
				wp.Name,
				wp.Kind,
				string(wp.Terrain),
				fmt.Sprintf("%d", wp.RiskLevel),
				fmt.Sprintf("%d", wp.AccessComplexity),
				strings.Join(wp.RequiredGear, ", "),
			)
		}
		table.Print()
		return nil
	},
}

func init() {
	catalogCmd.Flags().String("file", "", "catalog YAML file (default is the built-in Belize catalog)")
}
