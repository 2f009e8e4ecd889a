package expedition

import (
	"bytes"
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picogrid/expedition-sim/cmd/expedition/reporting"
	"github.com/picogrid/expedition-sim/pkg/geo"
	"github.com/picogrid/expedition-sim/pkg/logger"
	"github.com/picogrid/expedition-sim/pkg/logistics"
	"github.com/picogrid/expedition-sim/pkg/metrics"
	"github.com/picogrid/expedition-sim/pkg/mission"
	"github.com/picogrid/expedition-sim/pkg/models"
	"github.com/picogrid/expedition-sim/pkg/overwatch"
	"github.com/picogrid/expedition-sim/pkg/pathfinding"
	"github.com/picogrid/expedition-sim/pkg/stream"
)

// calm never triggers incidents.
type calm struct{}

func (calm) Int63() int64 { return 1 << 62 }
func (calm) Seed(int64)   {}

// fakeTimers records scheduled callbacks instead of running them.
type fakeTimers struct {
	delays []time.Duration
	fns    []func()
}

func (f *fakeTimers) after(d time.Duration, fn func()) *time.Timer {
	f.delays = append(f.delays, d)
	f.fns = append(f.fns, fn)
	return time.NewTimer(time.Hour)
}

func (f *fakeTimers) fire(i int) { f.fns[i]() }

type controllerFixture struct {
	ctrl   *rerouteController
	loop   *mission.Loop
	sim    *mission.Simulator
	timers *fakeTimers
	out    *bytes.Buffer
}

func newControllerFixture(t *testing.T, auto bool) *controllerFixture {
	t.Helper()

	model := logistics.New(logistics.WithWeather(1), logistics.WithRand(rand.New(calm{})))
	pf := pathfinding.New(pathfinding.WithResolution(0.05))
	loop := mission.NewLoop()
	out := &bytes.Buffer{}
	report := reporting.NewMissionLogger("controller-test", reporting.WithOutput(out))

	sim := mission.NewSimulator(model,
		mission.WithPlanner(pf),
		mission.WithScheduler(loop),
		mission.WithObserver(report),
		mission.WithPlaybackInterval(time.Hour),
	)

	timers := &fakeTimers{}
	ctrl := &rerouteController{
		loop:    loop,
		sim:     sim,
		auto:    auto,
		reroute: 1500 * time.Millisecond,
		resume:  time.Second,
		report:  report,
		metrics: metrics.NewCollector(),
		log:     logger.Discard(),
		after:   timers.after,
	}
	ctrl.monitor = overwatch.NewMonitor(sim, pf, overwatch.WithListener(ctrl.onReroute))

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx, sim.Tick) }()
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})

	route := models.Route{
		{Name: "A", Coordinate: geo.Coordinate{Lat: 17.0, Lng: -88.5}, Terrain: models.TerrainNature},
		{Name: "B", Coordinate: geo.Coordinate{Lat: 17.5, Lng: -88.5}, Terrain: models.TerrainNature},
	}
	var err error
	require.NoError(t, loop.Do(context.Background(), func() {
		err = sim.Start(route)
		ctrl.monitor.Engage()
	}))
	require.NoError(t, err)

	return &controllerFixture{ctrl: ctrl, loop: loop, sim: sim, timers: timers, out: out}
}

// sync waits until everything posted so far has run.
func (f *controllerFixture) sync(t *testing.T) {
	t.Helper()
	require.NoError(t, f.loop.Do(context.Background(), func() {}))
}

func (f *controllerFixture) status(t *testing.T) mission.Status {
	t.Helper()
	var s mission.Status
	require.NoError(t, f.loop.Do(context.Background(), func() { s = f.sim.Status() }))
	return s
}

func onRoute() models.Threat {
	return models.Threat{
		ID:         "flood-1",
		Category:   "WEATHER",
		Severity:   models.ThreatCritical,
		Message:    "Flash Flood Warning",
		Location:   geo.Coordinate{Lat: 17.25, Lng: -88.5},
		RadiusKm:   5,
		RiskWeight: 50,
	}
}

func TestControllerAutoReroute(t *testing.T) {
	f := newControllerFixture(t, true)

	var impacted bool
	require.NoError(t, f.loop.Do(context.Background(), func() {
		impacted = f.ctrl.monitor.ProcessIntel(onRoute())
	}))
	require.True(t, impacted)
	assert.Equal(t, mission.StatusPaused, f.status(t))
	require.Len(t, f.timers.delays, 1)
	assert.Equal(t, 1500*time.Millisecond, f.timers.delays[0])

	f.timers.fire(0)
	f.sync(t)
	require.Len(t, f.timers.delays, 2)
	assert.Equal(t, time.Second, f.timers.delays[1])
	assert.Equal(t, mission.StatusPaused, f.status(t))

	f.timers.fire(1)
	f.sync(t)
	assert.Equal(t, mission.StatusRunning, f.status(t))
	assert.Equal(t, 1, f.ctrl.report.GetSummary().Reroutes)
}

func TestControllerManualReroute(t *testing.T) {
	f := newControllerFixture(t, false)

	require.NoError(t, f.loop.Do(context.Background(), func() {
		f.ctrl.monitor.ProcessIntel(onRoute())
	}))
	assert.Empty(t, f.timers.delays)
	assert.Equal(t, mission.StatusPaused, f.status(t))

	f.ctrl.handleCommand(stream.Command{Type: "reroute"})
	f.sync(t)
	require.Len(t, f.timers.delays, 1)

	f.timers.fire(0)
	f.sync(t)
	assert.Equal(t, mission.StatusRunning, f.status(t))
}

func TestControllerCommands(t *testing.T) {
	f := newControllerFixture(t, true)

	f.ctrl.handleCommand(stream.Command{Type: "pause"})
	assert.Equal(t, mission.StatusPaused, f.status(t))

	f.ctrl.handleCommand(stream.Command{Type: "toggle"})
	assert.Equal(t, mission.StatusRunning, f.status(t))

	f.ctrl.handleCommand(stream.Command{Type: "dance"})
	assert.Equal(t, mission.StatusRunning, f.status(t))

	f.ctrl.handleCommand(stream.Command{Type: "abort"})
	assert.Equal(t, mission.StatusFailed, f.status(t))
	assert.Equal(t, reporting.OutcomeFailure, f.ctrl.report.GetSummary().Outcome)
}

func TestControllerStopDropsSchedules(t *testing.T) {
	f := newControllerFixture(t, true)

	f.ctrl.Stop()
	require.NoError(t, f.loop.Do(context.Background(), func() {
		f.ctrl.monitor.ProcessIntel(onRoute())
	}))
	assert.Empty(t, f.timers.delays)
}
