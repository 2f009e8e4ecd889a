package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/picogrid/expedition-sim/pkg/catalog"
	"github.com/picogrid/expedition-sim/pkg/config"
	"github.com/picogrid/expedition-sim/pkg/geo"
	"github.com/picogrid/expedition-sim/pkg/logger"
	"github.com/picogrid/expedition-sim/pkg/logistics"
	"github.com/picogrid/expedition-sim/pkg/models"
	"github.com/picogrid/expedition-sim/pkg/pathfinding"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a route without running it",
	Long: `Plan a route through catalog waypoints and print the distance, ETA,
risk, loadout check and predicted resource cost. The planned path can be
written as GeoJSON.`,
	Example: `  expedition-sim plan --waypoints "Xunantunich,Caracol,Cockscomb Basin" --gear hiking_boots
  expedition-sim plan --waypoints "ATM Cave,Caracol" --geojson route.json --mercator`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringSlice("waypoints", nil, "waypoints in visiting order (comma separated)")
	planCmd.Flags().StringSlice("gear", nil, "equipped gear (comma separated)")
	planCmd.Flags().Int("weather", 0, "weather severity 1-3 (0 for the engine config value)")
	planCmd.Flags().Bool("direct", false, "plan straight legs, ignoring risk zones")
	planCmd.Flags().String("geojson", "", "write the planned path to this GeoJSON file")
	planCmd.Flags().Bool("mercator", false, "project GeoJSON output to EPSG:3857")
	planCmd.Flags().String("engine-config", "", "engine configuration file")
	_ = planCmd.MarkFlagRequired("waypoints")
}

// routePlan is the offline assessment of a route.
type routePlan struct {
	Route      models.Route
	Plot       pathfinding.Plot
	DistanceKm float64
	ETA        string
	Risk       logistics.RiskAssessment
	Loadout    logistics.Loadout
	Cost       logistics.Drain
	Weather    int
}

func runPlan(cmd *cobra.Command, _ []string) error {
	names, _ := cmd.Flags().GetStringSlice("waypoints")
	gear, _ := cmd.Flags().GetStringSlice("gear")
	weather, _ := cmd.Flags().GetInt("weather")
	direct, _ := cmd.Flags().GetBool("direct")
	out, _ := cmd.Flags().GetString("geojson")
	mercator, _ := cmd.Flags().GetBool("mercator")

	enginePath, _ := cmd.Flags().GetString("engine-config")
	if enginePath == "" {
		enginePath = viper.GetString("engine_config")
	}
	cfg, err := config.LoadOrDefault(enginePath)
	if err != nil {
		return err
	}
	if weather != 0 {
		config.MergeWithOverrides(cfg, map[string]interface{}{"weather": weather})
	}
	if direct {
		cfg.Pathfinding.RiskAware = false
	}

	route, err := catalog.Default().Route(names...)
	if err != nil {
		return err
	}

	var plan *routePlan
	err = logger.WithSpinner("Plotting course", func() error {
		var err error
		plan, err = buildPlan(cfg, route, gear)
		return err
	})
	if err != nil {
		return err
	}
	printPlan(plan)

	if out != "" {
		if err := writeGeoJSON(out, plan, mercator); err != nil {
			return err
		}
		logger.Successf("Route written to %s", out)
	}
	return nil
}

// buildPlan plots route with the configured planner and assesses it.
func buildPlan(cfg *config.Config, route models.Route, gear []string) (*routePlan, error) {
	if len(route) < 2 {
		return nil, fmt.Errorf("at least 2 waypoints are required")
	}

	var planner pathfinding.Planner = pathfinding.Direct{}
	if cfg.Pathfinding.RiskAware {
		pf := pathfinding.New(
			pathfinding.WithResolution(cfg.Pathfinding.Resolution),
			pathfinding.WithMaxExpansions(cfg.Pathfinding.MaxExpansions),
		)
		for _, z := range cfg.Pathfinding.StaticZones {
			pf.AddRiskZone(models.RiskZone{
				Center:   geo.Coordinate{Lat: z.Latitude, Lng: z.Longitude},
				RadiusKm: z.RadiusKm,
				Weight:   z.Weight,
			})
		}
		planner = pf
	}

	coords := route.Coordinates()
	plot := pathfinding.PlotCourse(planner, coords[0], coords[1:])
	distance := geo.PathLength(plot.Path)

	var opts []logistics.Option
	if cfg.Logistics.Weather > 0 {
		opts = append(opts, logistics.WithWeather(cfg.Logistics.Weather))
	}
	if cfg.Logistics.Seed != 0 {
		opts = append(opts, logistics.WithSeed(cfg.Logistics.Seed))
	}
	model := logistics.New(opts...)

	return &routePlan{
		Route:      route,
		Plot:       plot,
		DistanceKm: distance,
		ETA:        model.ETA(route, distance),
		Risk:       model.AssessRisk(route),
		Loadout:    logistics.ValidateLoadout(route, gear),
		Cost:       model.EstimateMissionCost(route, distance),
		Weather:    model.Weather(),
	}, nil
}

func printPlan(p *routePlan) {
	logger.LogSection(fmt.Sprintf("Route Plan: %s", strings.Join(p.Route.Names(), " -> ")))

	table := logger.NewTable("#", "WAYPOINT", "TERRAIN", "RISK", "LAT", "LNG")
	for i, wp := range p.Route {
		table.AddRow(
			fmt.Sprintf("%d", i+1),
			wp.Name,
			string(wp.Terrain),
			fmt.Sprintf("%d", wp.RiskLevel),
			fmt.Sprintf("%.4f", wp.Coordinate.Lat),
			fmt.Sprintf("%.4f", wp.Coordinate.Lng),
		)
	}
	table.Print()

	logger.LogKeyValue("Distance", fmt.Sprintf("%.1f km (%d path points)", p.DistanceKm, len(p.Plot.Path)))
	logger.LogKeyValue("ETA", p.ETA)
	logger.LogKeyValue("Weather", p.Weather)
	logger.LogKeyValue("Risk", fmt.Sprintf("%d (%s)", p.Risk.Score, p.Risk.Label))
	logger.LogKeyValue("Supplies", fmt.Sprintf("-%.1f%%", p.Cost.Supplies))
	logger.LogKeyValue("Fatigue", fmt.Sprintf("+%.1f%%", p.Cost.Fatigue))
	logger.LogKeyValue("Integrity", fmt.Sprintf("-%.1f%%", p.Cost.Integrity))

	if len(p.Plot.Exhausted) > 0 {
		logger.Warnf("%d leg(s) fell back to a straight line", len(p.Plot.Exhausted))
	}
	if p.Loadout.Valid {
		logger.Success("Loadout complete")
	} else {
		logger.LogList("Missing gear", p.Loadout.Missing)
	}
}

// planGeoJSON renders the path and waypoints as a feature collection.
func planGeoJSON(p *routePlan, mercator bool) (geom.GeoJSONFeatureCollection, error) {
	line, point := geo.LineString, geo.Point
	if mercator {
		line, point = geo.MercatorLineString, geo.MercatorPoint
	}

	path, err := line(p.Plot.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid path geometry: %w", err)
	}
	features := []geom.GeoJSONFeature{
		geo.Feature(path.AsGeometry(), map[string]interface{}{
			"kind":        "path",
			"distance_km": p.DistanceKm,
			"risk":        string(p.Risk.Label),
		}),
	}
	for i, wp := range p.Route {
		pt, err := point(wp.Coordinate)
		if err != nil {
			return nil, fmt.Errorf("invalid geometry for %s: %w", wp.Name, err)
		}
		features = append(features, geo.Feature(pt.AsGeometry(), map[string]interface{}{
			"kind":    "waypoint",
			"order":   i + 1,
			"name":    wp.Name,
			"terrain": string(wp.Terrain),
		}))
	}
	return geo.FeatureCollection(features...), nil
}

func writeGeoJSON(path string, p *routePlan, mercator bool) error {
	fc, err := planGeoJSON(p, mercator)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write GeoJSON: %w", err)
	}
	return nil
}
