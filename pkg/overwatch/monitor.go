// Package overwatch watches live threat intel against an active mission and
// replans the remaining route around threats that cut across it.
package overwatch

import (
	"errors"
	"fmt"

	"github.com/picogrid/expedition-sim/pkg/geo"
	"github.com/picogrid/expedition-sim/pkg/logger"
	"github.com/picogrid/expedition-sim/pkg/mission"
	"github.com/picogrid/expedition-sim/pkg/models"
	"github.com/picogrid/expedition-sim/pkg/pathfinding"
)

var (
	ErrNoRemainingObjectives = errors.New("no remaining objectives to reroute to")
	ErrNotReroutable         = errors.New("mission is not active")
)

// Action tells the operator what a threat requires.
type Action string

const ActionRerouteRequired Action = "REROUTE_REQUIRED"

// RerouteRequest is raised when a threat intersects the remaining path.
type RerouteRequest struct {
	Threat models.Threat `json:"threat"`
	Action Action        `json:"action"`
}

// RerouteListener receives reroute requests. It is called on the goroutine
// that called ProcessIntel and must not call back into the Monitor
// synchronously.
type RerouteListener func(RerouteRequest)

// RiskMap is a planner that accepts new risk zones. The Monitor shares it
// with the simulator so reroutes see every registered threat.
type RiskMap interface {
	pathfinding.Planner
	AddRiskZone(zone models.RiskZone)
}

// Monitor is not safe for concurrent use; run it on the same goroutine as
// the simulator it watches.
type Monitor struct {
	sim        *mission.Simulator
	riskMap    RiskMap
	listener   RerouteListener
	onThreat   func(models.Threat)
	log        logger.Logger
	engaged    bool
	threats    []models.Threat
	registered int // threats[:registered] are on the risk map
}

type Option func(*Monitor)

// WithListener sets the reroute listener.
func WithListener(l RerouteListener) Option {
	return func(m *Monitor) { m.listener = l }
}

// WithThreatHook is called for every threat accepted by ProcessIntel.
func WithThreatHook(fn func(models.Threat)) Option {
	return func(m *Monitor) { m.onThreat = fn }
}

func WithLogger(l logger.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.log = l
		}
	}
}

// NewMonitor creates a disengaged monitor for sim.
func NewMonitor(sim *mission.Simulator, riskMap RiskMap, opts ...Option) *Monitor {
	m := &Monitor{
		sim:     sim,
		riskMap: riskMap,
		log:     logger.WithPrefix("overwatch"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Monitor) Engage() {
	m.engaged = true
	m.log.Debug("Overwatch engaged")
}

func (m *Monitor) Disengage() {
	m.engaged = false
	m.log.Debug("Overwatch standing by")
}

func (m *Monitor) Engaged() bool { return m.engaged }

// Threats returns every threat accepted so far.
func (m *Monitor) Threats() []models.Threat {
	return append([]models.Threat(nil), m.threats...)
}

// ProcessIntel takes in a threat report. Reports are ignored unless the
// monitor is engaged and the mission is running. It returns true when the
// threat intersects the remaining path, in which case the mission has been
// paused and a RerouteRequest sent to the listener.
func (m *Monitor) ProcessIntel(threat models.Threat) bool {
	if !m.engaged || m.sim.Status() != mission.StatusRunning {
		return false
	}

	m.threats = append(m.threats, threat)
	m.registerPending()
	if m.onThreat != nil {
		m.onThreat(threat)
	}

	if !m.impacts(threat) {
		m.log.WithField("threat", threat.ID).Debugf("%s clear of route", threat.Category)
		return false
	}

	m.log.WithField("threat", threat.ID).Warnf("%s intersects route", threat.Message)
	m.sim.Report(fmt.Sprintf("OVERWATCH: %s intersects planned route. Rerouting required.", threat.Message),
		mission.SeverityCritical)
	_ = m.sim.Pause()

	if m.listener != nil {
		m.listener(RerouteRequest{Threat: threat, Action: ActionRerouteRequired})
	}
	return true
}

// impacts reports whether any remaining path point lies strictly inside the
// threat radius.
func (m *Monitor) impacts(threat models.Threat) bool {
	zone := threat.Zone()
	for _, p := range m.sim.RemainingPath() {
		if zone.Contains(p) {
			return true
		}
	}
	return false
}

// registerPending adds every stored threat not yet on the risk map. Threats
// are tracked by position, so reports sharing an ID are still registered.
func (m *Monitor) registerPending() {
	if m.riskMap == nil {
		return
	}
	for _, t := range m.threats[m.registered:] {
		m.riskMap.AddRiskZone(t.Zone())
	}
	m.registered = len(m.threats)
}

// ExecuteReroute replans from the current position through every waypoint
// not yet reached, around all known threats, and installs the new path. The
// mission is left paused.
func (m *Monitor) ExecuteReroute() error {
	status := m.sim.Status()
	if status == mission.StatusIdle || status.Terminal() {
		return ErrNotReroutable
	}

	m.registerPending()

	remaining := m.sim.RemainingRouteTargets()
	if len(remaining) < 2 {
		m.sim.Report("Reroute skipped: no remaining objectives.", mission.SeverityInfo)
		return ErrNoRemainingObjectives
	}

	var planner pathfinding.Planner = m.riskMap
	if m.riskMap == nil {
		planner = m.sim.Planner()
	}

	state := m.sim.State()
	targets := make([]geo.Coordinate, 0, len(remaining)-1)
	for _, wp := range remaining[1:] {
		targets = append(targets, wp.Coordinate)
	}
	plot := pathfinding.PlotCourse(planner, state.Position, targets)

	indices := make([]int, len(m.sim.Route()))
	for i := range indices {
		indices[i] = -1
	}
	for i, at := range plot.Arrivals {
		indices[state.RouteIndex+1+i] = at
	}

	if err := m.sim.UpdatePath(plot.Path, indices); err != nil {
		return fmt.Errorf("install reroute: %w", err)
	}
	if m.sim.Status() == mission.StatusRunning {
		_ = m.sim.Pause()
	}

	m.log.WithFields(map[string]interface{}{
		"points":  len(plot.Path),
		"threats": len(m.threats),
	}).Info("New trajectory locked")
	return nil
}
