// Package expedition runs a single expedition: it plans the route, drives the
// mission clock, feeds simulated threat reports to overwatch, reroutes around
// them, and writes a debrief when the mission ends.
package expedition

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/picogrid/expedition-sim/cmd/expedition/reporting"
	"github.com/picogrid/expedition-sim/pkg/archive"
	"github.com/picogrid/expedition-sim/pkg/catalog"
	"github.com/picogrid/expedition-sim/pkg/config"
	"github.com/picogrid/expedition-sim/pkg/geo"
	"github.com/picogrid/expedition-sim/pkg/logger"
	"github.com/picogrid/expedition-sim/pkg/logistics"
	"github.com/picogrid/expedition-sim/pkg/metrics"
	"github.com/picogrid/expedition-sim/pkg/mission"
	"github.com/picogrid/expedition-sim/pkg/models"
	"github.com/picogrid/expedition-sim/pkg/overwatch"
	"github.com/picogrid/expedition-sim/pkg/pathfinding"
	"github.com/picogrid/expedition-sim/pkg/simulation"
	"github.com/picogrid/expedition-sim/pkg/stream"
	"github.com/picogrid/expedition-sim/pkg/telemetry"
)

//go:embed simulation.yaml
var manifestYAML []byte

// Name is the registry name of the simulation.
const Name = "Expedition"

const shutdownTimeout = 2 * time.Second

// ExpeditionSimulation implements simulation.Simulation.
type ExpeditionSimulation struct {
	catalog    *catalog.Catalog
	configFile string
	params     *Config
	engine     *config.Config
	route      models.Route
	out        io.Writer

	stopOnce sync.Once
	stopChan chan struct{}

	// Set by Run.
	mu      sync.Mutex
	summary *reporting.MissionSummary
	debrief string
}

// NewExpeditionSimulation creates a new instance of the expedition simulation
func NewExpeditionSimulation() simulation.Simulation {
	return newExpedition(catalog.Default())
}

func newExpedition(cat *catalog.Catalog) *ExpeditionSimulation {
	return &ExpeditionSimulation{
		catalog:  cat,
		out:      os.Stdout,
		stopChan: make(chan struct{}),
	}
}

// Name returns the simulation name
func (s *ExpeditionSimulation) Name() string {
	return Name
}

// Description returns the simulation description
func (s *ExpeditionSimulation) Description() string {
	return s.Manifest().Description
}

// Manifest returns the embedded simulation.yaml with waypoint and gear
// choices filled in from the catalog.
func (s *ExpeditionSimulation) Manifest() simulation.SimulationConfig {
	m, err := simulation.ParseManifest(manifestYAML)
	if err != nil {
		panic(fmt.Sprintf("expedition: embedded manifest is invalid: %v", err))
	}

	gear := make(map[string]bool)
	for _, wp := range s.catalog.All() {
		for _, item := range wp.RequiredGear {
			gear[item] = true
		}
	}
	gearOptions := make([]string, 0, len(gear))
	for item := range gear {
		gearOptions = append(gearOptions, item)
	}
	sort.Strings(gearOptions)

	for i := range m.Parameters {
		switch m.Parameters[i].Name {
		case "waypoints":
			m.Parameters[i].Options = s.catalog.Names()
		case "gear":
			m.Parameters[i].Options = gearOptions
		}
	}
	return m
}

// SetConfigFile sets the engine configuration file read by Configure.
func (s *ExpeditionSimulation) SetConfigFile(path string) {
	s.configFile = path
}

// Configure sets up the simulation with provided parameters
func (s *ExpeditionSimulation) Configure(params map[string]interface{}) error {
	p, err := ValidateAndParse(params)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	route, err := s.catalog.Route(p.Waypoints...)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	engine, err := config.LoadWithOverrides(s.configFile, p.Overrides)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger.SetLevel(logger.ParseLevel(engine.Logging.ConsoleLevel))

	s.params = p
	s.route = route
	s.engine = engine

	logger.Debugf("Engine configuration:\n%s", engine)
	return nil
}

// Run executes the mission and blocks until it ends, Stop is called or ctx
// is cancelled.
func (s *ExpeditionSimulation) Run(ctx context.Context) error {
	if s.engine == nil {
		return fmt.Errorf("simulation not configured")
	}
	cfg := s.engine
	missionID := uuid.NewString()

	model := s.newModel()
	s.brief(model)

	planner, riskMap := s.newPlanner()

	missionLog := reporting.NewMissionLogger(missionID, reporting.WithOutput(s.out))
	collector := metrics.NewCollector()
	collector.SetRouteLength(len(s.route))

	loop := mission.NewLoop()
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	ctrl := &rerouteController{
		loop:    loop,
		auto:    cfg.Overwatch.AutoReroute,
		reroute: cfg.Overwatch.RerouteDelay,
		resume:  cfg.Overwatch.ResumeDelay,
		report:  missionLog,
		metrics: collector,
		log:     logger.WithPrefix("reroute"),
		after:   time.AfterFunc,
	}
	defer ctrl.Stop()

	var hub *stream.Hub
	if cfg.Server.Enabled {
		hub = stream.NewHub(stream.WithSender(cfg.Simulation.Name), stream.WithCommandHandler(ctrl.handleCommand))
		ctrl.hub = hub
		go hub.Run(runCtx)
	}

	finished := make(chan bool, 1)
	observers := mission.Observers{missionLog, collector}
	if hub != nil {
		observers = append(observers, hub)
	}
	observers = append(observers, mission.ObserverFuncs{Complete: func(ok bool) {
		select {
		case finished <- ok:
		default:
		}
	}})

	sim := mission.NewSimulator(model,
		mission.WithPlanner(planner),
		mission.WithScheduler(loop),
		mission.WithObserver(observers),
		mission.WithTickDuration(cfg.Simulation.TickDuration),
		mission.WithPlaybackInterval(cfg.Simulation.PlaybackInterval),
		mission.WithGroundSpeed(cfg.Simulation.GroundSpeedKph),
		mission.WithStrictClamp(cfg.Simulation.StrictClamp),
	)
	ctrl.sim = sim

	monitor := overwatch.NewMonitor(sim, riskMap,
		overwatch.WithListener(ctrl.onReroute),
		overwatch.WithThreatHook(func(t models.Threat) {
			missionLog.LogThreat(t)
			collector.ObserveThreat(t)
			if hub != nil {
				hub.PublishThreat(t)
			}
		}),
	)
	ctrl.monitor = monitor

	if cfg.Server.Enabled {
		srv, err := s.serve(hub, collector)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	go func() { _ = loop.Run(runCtx, sim.Tick) }()

	var startErr error
	if err := loop.Do(ctx, func() {
		startErr = sim.Start(s.route)
		if startErr == nil && cfg.Overwatch.Enabled {
			monitor.Engage()
		}
	}); err != nil {
		return err
	}
	if startErr != nil {
		return fmt.Errorf("failed to start mission: %w", startErr)
	}

	var feed *telemetry.Stream
	if cfg.Telemetry.Enabled {
		feed = s.newFeed()
		unsubscribe := feed.Subscribe(func(t models.Threat) {
			loop.Post(func() { monitor.ProcessIntel(t) })
		})
		defer unsubscribe()
		feed.Connect(runCtx)
	}

	var runErr error
	select {
	case <-finished:
	case <-s.stopChan:
		logger.Info("Simulation stopped by user")
		s.abort(loop, sim)
	case <-ctx.Done():
		logger.Info("Simulation cancelled by context")
		s.abort(loop, sim)
		runErr = ctx.Err()
	}

	// Stand down: no more intel, no pending reroutes, then stop the clock.
	_ = loop.Do(context.Background(), monitor.Disengage)
	if feed != nil {
		feed.Disconnect()
	}
	ctrl.Stop()
	cancelRun()
	<-loop.Done()

	missionLog.PrintSummary()
	summary := missionLog.GetSummary()
	s.mu.Lock()
	s.summary = &summary
	s.mu.Unlock()

	if cfg.Logging.EnableDebrief {
		if err := s.writeDebrief(missionLog, sim); err != nil {
			logger.Errorf("Failed to write debrief: %v", err)
		}
	}

	if cfg.Archive.Enabled {
		if err := s.archiveRun(model, missionID, sim); err != nil {
			logger.Errorf("Failed to archive mission: %v", err)
		}
	}

	return runErr
}

// Stop gracefully shuts down the simulation
func (s *ExpeditionSimulation) Stop() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	return nil
}

// Summary returns the summary of the last run, if any.
func (s *ExpeditionSimulation) Summary() (reporting.MissionSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return reporting.MissionSummary{}, false
	}
	return *s.summary, true
}

// DebriefPath returns the file the last debrief was written to.
func (s *ExpeditionSimulation) DebriefPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debrief
}

func (s *ExpeditionSimulation) abort(loop *mission.Loop, sim *mission.Simulator) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := loop.Do(ctx, func() {
		if !sim.Status().Terminal() {
			_ = sim.Abort()
		}
	})
	if err != nil {
		logger.Warnf("Abort did not complete: %v", err)
	}
}

func (s *ExpeditionSimulation) newModel() *logistics.Model {
	var opts []logistics.Option
	if s.engine.Logistics.Weather > 0 {
		opts = append(opts, logistics.WithWeather(s.engine.Logistics.Weather))
	}
	if s.engine.Logistics.Seed != 0 {
		opts = append(opts, logistics.WithSeed(s.engine.Logistics.Seed))
	}
	return logistics.New(opts...)
}

// newPlanner returns the route planner and, when it can take threat zones,
// the same planner as a risk map.
func (s *ExpeditionSimulation) newPlanner() (pathfinding.Planner, overwatch.RiskMap) {
	pc := s.engine.Pathfinding
	if !pc.RiskAware {
		return pathfinding.Direct{}, nil
	}

	pf := pathfinding.New(
		pathfinding.WithResolution(pc.Resolution),
		pathfinding.WithMaxExpansions(pc.MaxExpansions),
	)
	for _, z := range pc.StaticZones {
		pf.AddRiskZone(models.RiskZone{
			Center:   geo.Coordinate{Lat: z.Latitude, Lng: z.Longitude},
			RadiusKm: z.RadiusKm,
			Weight:   z.Weight,
		})
	}
	return pf, pf
}

func (s *ExpeditionSimulation) newFeed() *telemetry.Stream {
	tc := s.engine.Telemetry
	opts := []telemetry.Option{
		telemetry.WithInterval(tc.MinInterval, tc.MaxInterval),
		telemetry.WithBounds(telemetry.Bounds{
			MinLat: tc.Bounds.MinLat,
			MaxLat: tc.Bounds.MaxLat,
			MinLng: tc.Bounds.MinLng,
			MaxLng: tc.Bounds.MaxLng,
		}),
	}
	if tc.Seed != 0 {
		opts = append(opts, telemetry.WithSeed(tc.Seed))
	}
	return telemetry.NewStream(opts...)
}

// brief prints the pre-mission assessment.
func (s *ExpeditionSimulation) brief(model *logistics.Model) {
	distance := logistics.RouteDistance(s.route)
	risk := model.AssessRisk(s.route)
	cost := model.EstimateMissionCost(s.route, distance)

	logger.LogSection(fmt.Sprintf("Mission Briefing: %s", strings.Join(s.route.Names(), " -> ")))
	logger.LogKeyValue("Distance", fmt.Sprintf("%.1f km", distance))
	logger.LogKeyValue("ETA", model.ETA(s.route, distance))
	logger.LogKeyValue("Weather", model.Weather())
	logger.LogKeyValue("Risk", fmt.Sprintf("%d (%s)", risk.Score, risk.Label))
	logger.LogKeyValue("Predicted Cost", fmt.Sprintf("supplies %.1f%%, fatigue %.1f%%, integrity %.1f%%",
		cost.Supplies, cost.Fatigue, cost.Integrity))

	loadout := logistics.ValidateLoadout(s.route, s.params.Gear)
	if !loadout.Valid {
		logger.Warnf("Missing gear: %s", strings.Join(loadout.Missing, ", "))
	}
}

// serve starts the live feed and metrics endpoint.
func (s *ExpeditionSimulation) serve(hub *stream.Hub, collector *metrics.Collector) (*http.Server, error) {
	sc := s.engine.Server
	mux := http.NewServeMux()
	mux.Handle(sc.WebSocketPath, hub)
	mux.Handle(sc.MetricsPath, collector.Handler())

	ln, err := net.Listen("tcp", sc.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", sc.Addr, err)
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("HTTP server: %v", err)
		}
	}()

	logger.Infof("Live feed on ws://%s%s, metrics on http://%s%s", ln.Addr(), sc.WebSocketPath, ln.Addr(), sc.MetricsPath)
	return srv, nil
}

func (s *ExpeditionSimulation) writeDebrief(ml *reporting.MissionLogger, sim *mission.Simulator) error {
	planner := "direct"
	if s.engine.Pathfinding.RiskAware {
		planner = "risk-aware"
	}

	gen := reporting.NewDebriefGenerator(ml, reporting.DebriefConfig{
		OutputDir:  s.engine.Logging.DebriefOutputPath,
		Format:     s.engine.Logging.DebriefFormat,
		Route:      s.route.Names(),
		DistanceKm: geo.PathLength(sim.Path()),
		Weather:    sim.Model().Weather(),
		Planner:    planner,
	})

	path, err := gen.Save(gen.Generate())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.debrief = path
	s.mu.Unlock()
	return nil
}

func (s *ExpeditionSimulation) archiveRun(model *logistics.Model, missionID string, sim *mission.Simulator) error {
	ac := s.engine.Archive
	a, err := archive.Open(archive.Config{Driver: ac.Driver, Path: ac.Path, DSN: ac.DSN}, model)
	if err != nil {
		return err
	}
	defer a.Close()

	name := fmt.Sprintf("%s %s", s.engine.Simulation.Name, missionID[:8])
	scenario, err := a.Save(name, s.route, s.params.Gear, geo.PathLength(sim.Path()))
	if err != nil {
		return err
	}
	logger.Successf("Mission profile archived as %s", scenario.ID)
	return nil
}

func init() {
	if err := simulation.DefaultRegistry.Register(Name, NewExpeditionSimulation); err != nil {
		panic(fmt.Sprintf("Failed to register expedition simulation: %v", err))
	}
}
