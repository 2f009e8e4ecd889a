// Package mission runs a time-stepped expedition along a planned route. A
// Simulator is driven one Tick at a time; a Scheduler decides when the next
// tick happens, so simulated time (TickDuration per tick) is independent of
// how fast the mission plays back.
package mission

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/picogrid/expedition-sim/pkg/geo"
	"github.com/picogrid/expedition-sim/pkg/logger"
	"github.com/picogrid/expedition-sim/pkg/logistics"
	"github.com/picogrid/expedition-sim/pkg/models"
	"github.com/picogrid/expedition-sim/pkg/pathfinding"
)

// Defaults used when the matching option is not given.
const (
	DefaultTickDuration     = 15 * time.Minute
	DefaultPlaybackInterval = 100 * time.Millisecond
	DefaultGroundSpeedKph   = logistics.BaseSpeedKph

	// minSegmentKm is the length below which a path segment is skipped.
	minSegmentKm = 0.001
)

// Errors returned by Simulator operations.
var (
	ErrRouteTooShort = errors.New("route must contain at least two waypoints")
	ErrTerminal      = errors.New("mission has already ended")
	ErrNotActive     = errors.New("mission is not active")
	ErrNotRunning    = errors.New("mission is not running")
	ErrNotPaused     = errors.New("mission is not paused")
	ErrInvalidPath   = errors.New("invalid path")
)

// Simulator is not safe for concurrent use. Drive it from a single goroutine,
// normally through a Loop.
type Simulator struct {
	model     *logistics.Model
	planner   pathfinding.Planner
	scheduler Scheduler
	observer  Observer
	clock     func() time.Time
	log       logger.Logger

	tickDuration     time.Duration
	playbackInterval time.Duration
	speedKph         float64
	strictClamp      bool

	state        State
	route        models.Route
	path         []geo.Coordinate
	routeIndices []int
	completed    bool
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithPlanner sets the planner used to build the path in Start.
func WithPlanner(p pathfinding.Planner) Option {
	return func(s *Simulator) {
		if p != nil {
			s.planner = p
		}
	}
}

// WithScheduler sets what times ticks. The default is a ManualScheduler.
func WithScheduler(sch Scheduler) Option {
	return func(s *Simulator) {
		if sch != nil {
			s.scheduler = sch
		}
	}
}

// WithObserver sets the observer. Use Observers to attach several.
func WithObserver(o Observer) Option {
	return func(s *Simulator) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithClock sets the source of the mission start time.
func WithClock(clock func() time.Time) Option {
	return func(s *Simulator) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithTickDuration sets how much simulated time passes per tick.
func WithTickDuration(d time.Duration) Option {
	return func(s *Simulator) {
		if d > 0 {
			s.tickDuration = d
		}
	}
}

// WithPlaybackInterval sets the delay requested from the scheduler between
// ticks.
func WithPlaybackInterval(d time.Duration) Option {
	return func(s *Simulator) {
		if d >= 0 {
			s.playbackInterval = d
		}
	}
}

// WithGroundSpeed sets travel speed in km/h. Non-positive values are ignored.
func WithGroundSpeed(kph float64) Option {
	return func(s *Simulator) {
		if kph > 0 {
			s.speedKph = kph
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l logger.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStrictClamp keeps incident damage from pushing supplies or integrity
// below zero or fatigue above 100.
func WithStrictClamp(strict bool) Option {
	return func(s *Simulator) {
		s.strictClamp = strict
	}
}

// NewSimulator creates an idle simulator. A nil model gets a fresh
// logistics.Model with random weather.
func NewSimulator(model *logistics.Model, opts ...Option) *Simulator {
	if model == nil {
		model = logistics.New()
	}
	s := &Simulator{
		model:            model,
		planner:          pathfinding.Direct{},
		scheduler:        &ManualScheduler{},
		observer:         Observers(nil),
		clock:            time.Now,
		log:              logger.WithPrefix("mission"),
		tickDuration:     DefaultTickDuration,
		playbackInterval: DefaultPlaybackInterval,
		speedKph:         DefaultGroundSpeedKph,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = State{Status: StatusIdle, Supplies: 100, Integrity: 100}
	return s
}

// Start plans a path through route and begins the mission. A mission still
// running or paused is first ended as failed, so its observers get their
// completion before the new mission begins.
func (s *Simulator) Start(route models.Route) error {
	if len(route) < 2 {
		return fmt.Errorf("start mission: %w", ErrRouteTooShort)
	}

	if st := s.state.Status; st == StatusRunning || st == StatusPaused {
		s.state.Status = StatusFailed
		s.emit("Mission Superseded by New Plan.", SeverityWarning)
		s.complete(false)
	}

	s.scheduler.Cancel()
	s.route = route.Clone()

	coords := s.route.Coordinates()
	plot := pathfinding.PlotCourse(s.planner, coords[0], coords[1:])
	s.path = plot.Path
	s.routeIndices = append([]int{0}, plot.Arrivals...)
	s.completed = false

	s.state = State{
		Status:        StatusRunning,
		SimulatedTime: s.clock(),
		Position:      s.path[0],
		Supplies:      100,
		Fatigue:       0,
		Integrity:     100,
	}

	for _, leg := range plot.Exhausted {
		s.emit(fmt.Sprintf("Pathfinding to %s exceeded its search budget; using direct course.",
			s.route[leg+1].Name), SeverityWarning)
	}

	s.log.WithFields(map[string]interface{}{
		"waypoints": len(s.route),
		"points":    len(s.path),
	}).Debug("Mission started")

	s.emit(fmt.Sprintf("Route plotted: %d objectives, %.1f km.",
		len(s.route)-1, geo.PathLength(s.path)), SeverityInfo)
	s.emit("Mission Simulation Initialized. Systems Nominal.", SeverityInfo)
	s.scheduler.Schedule(s.playbackInterval)
	return nil
}

// Tick advances the mission by one tick of simulated time. It does nothing
// unless the mission is running.
func (s *Simulator) Tick() {
	if s.state.Status != StatusRunning {
		return
	}

	s.state.SimulatedTime = s.state.SimulatedTime.Add(s.tickDuration)
	s.move()
	s.drain()
	s.incident()

	s.observer.OnUpdate(s.state)

	switch {
	case s.state.PathIndex >= len(s.path)-1:
		s.state.Status = StatusCompleted
		s.emit("Mission Accomplished.", SeveritySuccess)
		s.complete(true)
	case s.state.Supplies <= 0 || s.state.Integrity <= 0:
		s.state.Status = StatusFailed
		s.emit("Mission Failed: Critical Resource Depletion.", SeverityCritical)
		s.complete(false)
	default:
		s.scheduler.Schedule(s.playbackInterval)
	}
}

func (s *Simulator) move() {
	last := len(s.path) - 1
	budget := s.speedKph * s.tickDuration.Hours()

	if s.state.PathIndex < last {
		seg := geo.Distance(s.path[s.state.PathIndex], s.path[s.state.PathIndex+1])
		if seg <= minSegmentKm {
			s.advance()
		} else {
			s.state.Progress += budget / seg
			if s.state.Progress >= 1 {
				overshoot := (s.state.Progress - 1) * seg
				s.advance()
				if s.state.PathIndex < last {
					next := geo.Distance(s.path[s.state.PathIndex], s.path[s.state.PathIndex+1])
					if next > minSegmentKm {
						s.state.Progress = math.Min(overshoot/next, 1)
					}
				}
			}
		}
	}

	if s.state.PathIndex >= last {
		s.state.Position = s.path[last]
		return
	}
	s.state.Position = geo.Interpolate(s.path[s.state.PathIndex], s.path[s.state.PathIndex+1], s.state.Progress)
}

// advance moves onto the next path point and announces every objective the
// new index reaches. Indices of -1 mark waypoints already passed.
func (s *Simulator) advance() {
	s.state.PathIndex++
	s.state.Progress = 0

	for s.state.RouteIndex+1 < len(s.routeIndices) {
		target := s.routeIndices[s.state.RouteIndex+1]
		if target < 0 || s.state.PathIndex < target {
			break
		}
		s.state.RouteIndex++
		s.emit("Reached Objective: "+s.route[s.state.RouteIndex].Name, SeveritySuccess)
	}
}

func (s *Simulator) drain() {
	wp := s.route[s.state.RouteIndex]
	d := s.model.ResourceDrain(wp.Terrain, s.tickDuration.Hours())
	s.state.Supplies = math.Max(0, s.state.Supplies-d.Supplies)
	s.state.Fatigue = math.Min(100, s.state.Fatigue+d.Fatigue)
	s.state.Integrity = math.Max(0, s.state.Integrity-d.Integrity)
}

func (s *Simulator) incident() {
	wp := s.route[s.state.RouteIndex]
	risk := s.model.DynamicRisk(wp, s.state.SimulatedTime)
	if !s.model.ShouldTriggerEvent(risk) {
		return
	}

	inc := s.model.RandomIncident()
	s.state.Supplies -= inc.Supplies
	s.state.Fatigue += inc.Fatigue
	s.state.Integrity -= inc.Integrity
	if s.strictClamp {
		s.state.Supplies = math.Max(0, s.state.Supplies)
		s.state.Fatigue = math.Min(100, s.state.Fatigue)
		s.state.Integrity = math.Max(0, s.state.Integrity)
	}
	s.emit(inc.Message, Severity(inc.Severity))
}

func (s *Simulator) complete(success bool) {
	s.scheduler.Cancel()
	if s.completed {
		return
	}
	s.completed = true
	s.observer.OnComplete(success)
}

func (s *Simulator) emit(message string, severity Severity) {
	s.observer.OnEvent(Event{
		Time:     s.state.SimulatedTime,
		Message:  message,
		Severity: severity,
	})
}

// Pause stops ticking until Resume.
func (s *Simulator) Pause() error {
	if s.state.Status != StatusRunning {
		return ErrNotRunning
	}
	s.scheduler.Cancel()
	s.state.Status = StatusPaused
	s.emit("Simulation Paused.", SeverityInfo)
	return nil
}

// Resume continues a paused mission and schedules the next tick.
func (s *Simulator) Resume() error {
	if s.state.Status != StatusPaused {
		return ErrNotPaused
	}
	s.state.Status = StatusRunning
	s.emit("Simulation Resumed.", SeverityInfo)
	s.scheduler.Schedule(s.playbackInterval)
	return nil
}

// TogglePause pauses a running mission or resumes a paused one.
func (s *Simulator) TogglePause() error {
	switch s.state.Status {
	case StatusRunning:
		return s.Pause()
	case StatusPaused:
		return s.Resume()
	default:
		return ErrNotActive
	}
}

// Abort fails the mission from any non-terminal status.
func (s *Simulator) Abort() error {
	if s.state.Status.Terminal() {
		return ErrTerminal
	}
	s.state.Status = StatusFailed
	s.emit("Mission Aborted by User.", SeverityCritical)
	s.complete(false)
	return nil
}

// UpdatePath replaces the path from the current position onward. indices
// holds the path index of every route waypoint, -1 for those already passed.
// Resources, route progress and status are kept.
func (s *Simulator) UpdatePath(path []geo.Coordinate, indices []int) error {
	if s.state.Status == StatusIdle || s.state.Status.Terminal() {
		return ErrNotActive
	}
	if len(path) == 0 {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if len(indices) != len(s.route) {
		return fmt.Errorf("%w: %d indices for %d waypoints", ErrInvalidPath, len(indices), len(s.route))
	}

	s.path = append([]geo.Coordinate(nil), path...)
	s.routeIndices = append([]int(nil), indices...)
	s.state.PathIndex = 0
	s.state.Progress = 0
	s.state.Position = s.path[0]
	s.emit("Course Correction Applied.", SeverityWarning)
	return nil
}

// Report emits an event on behalf of a collaborator.
func (s *Simulator) Report(message string, severity Severity) {
	s.emit(message, severity)
}

// State returns a snapshot.
func (s *Simulator) State() State { return s.state }

// Status is the current mission status.
func (s *Simulator) Status() Status { return s.state.Status }

// Route returns a copy of the frozen route.
func (s *Simulator) Route() models.Route { return s.route.Clone() }

// Path returns a copy of the planned path.
func (s *Simulator) Path() []geo.Coordinate {
	return append([]geo.Coordinate(nil), s.path...)
}

// RouteIndices returns, for each route waypoint, its index in Path or -1 once
// passed by a reroute.
func (s *Simulator) RouteIndices() []int {
	return append([]int(nil), s.routeIndices...)
}

// RemainingPath is the path from the current segment onward.
func (s *Simulator) RemainingPath() []geo.Coordinate {
	if s.state.PathIndex >= len(s.path) {
		return nil
	}
	return append([]geo.Coordinate(nil), s.path[s.state.PathIndex:]...)
}

// RemainingRouteTargets is the route from the last reached waypoint onward.
func (s *Simulator) RemainingRouteTargets() models.Route {
	if s.state.RouteIndex >= len(s.route) {
		return nil
	}
	return s.route[s.state.RouteIndex:].Clone()
}

// Model exposes the logistics model the mission runs on.
func (s *Simulator) Model() *logistics.Model { return s.model }

// Planner is the planner used for new courses.
func (s *Simulator) Planner() pathfinding.Planner { return s.planner }
