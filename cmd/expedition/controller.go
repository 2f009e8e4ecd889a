package expedition

import (
	"errors"
	"sync"
	"time"

	"github.com/picogrid/expedition-sim/cmd/expedition/reporting"
	"github.com/picogrid/expedition-sim/pkg/logger"
	"github.com/picogrid/expedition-sim/pkg/metrics"
	"github.com/picogrid/expedition-sim/pkg/mission"
	"github.com/picogrid/expedition-sim/pkg/overwatch"
	"github.com/picogrid/expedition-sim/pkg/stream"
)

// rerouteController answers overwatch reroute requests and operator commands.
// Everything that touches the simulator or monitor is posted to the loop.
type rerouteController struct {
	loop    *mission.Loop
	sim     *mission.Simulator
	monitor *overwatch.Monitor
	auto    bool
	reroute time.Duration
	resume  time.Duration
	report  *reporting.MissionLogger
	metrics *metrics.Collector
	hub     *stream.Hub
	log     logger.Logger
	after   func(time.Duration, func()) *time.Timer

	mu      sync.Mutex
	timers  []*time.Timer
	stopped bool
}

// onReroute is the overwatch listener. It runs on the loop goroutine.
func (c *rerouteController) onReroute(req overwatch.RerouteRequest) {
	c.report.LogReroute(req)
	if c.hub != nil {
		c.hub.Publish(stream.TypeReroute, req)
	}

	if !c.auto {
		c.log.Warn("Automatic rerouting disabled; awaiting operator")
		return
	}

	c.schedule(c.reroute, c.executeReroute)
}

// executeReroute replans and, when that succeeds, schedules the resume. It
// runs on the loop goroutine.
func (c *rerouteController) executeReroute() {
	err := c.monitor.ExecuteReroute()
	switch {
	case err == nil:
		c.metrics.ObserveReroute()
	case errors.Is(err, overwatch.ErrNoRemainingObjectives):
	default:
		c.report.LogError("Reroute failed", err)
		return
	}
	c.schedule(c.resume, c.resumeMission)
}

func (c *rerouteController) resumeMission() {
	if c.sim.Status() != mission.StatusPaused {
		return
	}
	if err := c.sim.Resume(); err != nil {
		c.report.LogError("Resume failed", err)
	}
}

// handleCommand applies an operator command from the live feed.
func (c *rerouteController) handleCommand(cmd stream.Command) {
	c.loop.Post(func() {
		var err error
		switch cmd.Type {
		case "pause":
			err = c.sim.Pause()
		case "resume":
			err = c.sim.Resume()
		case "toggle":
			err = c.sim.TogglePause()
		case "abort":
			err = c.sim.Abort()
		case "reroute":
			c.executeReroute()
		default:
			c.log.Warnf("Unknown command %q", cmd.Type)
			return
		}
		if err != nil {
			c.log.Warnf("Command %s rejected: %v", cmd.Type, err)
		}
	})
}

// schedule runs fn on the loop after d.
func (c *rerouteController) schedule(d time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	t := c.after(d, func() { c.loop.Post(fn) })
	c.timers = append(c.timers, t)
}

// Stop cancels pending reroutes and resumes.
func (c *rerouteController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
}
