package overwatch

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picogrid/expedition-sim/pkg/geo"
	"github.com/picogrid/expedition-sim/pkg/logger"
	"github.com/picogrid/expedition-sim/pkg/logistics"
	"github.com/picogrid/expedition-sim/pkg/mission"
	"github.com/picogrid/expedition-sim/pkg/models"
	"github.com/picogrid/expedition-sim/pkg/pathfinding"
)

// calm never triggers incidents (Float64 is always 0.5).
type calm struct{}

func (calm) Int63() int64 { return 1 << 62 }
func (calm) Seed(int64)   {}

type fixture struct {
	sim      *mission.Simulator
	sched    *mission.ManualScheduler
	rec      *mission.Recorder
	pf       *pathfinding.Pathfinder
	mon      *Monitor
	requests []RerouteRequest
	hooked   []models.Threat
}

func waypoint(name string, lat float64) models.Waypoint {
	return models.Waypoint{Name: name, Coordinate: geo.Coordinate{Lat: lat, Lng: -88.0}, Terrain: models.TerrainOther}
}

func route() models.Route {
	return models.Route{waypoint("alpha", 17.0), waypoint("bravo", 17.2), waypoint("charlie", 17.4)}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sched: &mission.ManualScheduler{},
		rec:   &mission.Recorder{},
		pf:    pathfinding.New(pathfinding.WithResolution(0.02), pathfinding.WithLogger(logger.Discard())),
	}
	model := logistics.New(logistics.WithWeather(1), logistics.WithRand(rand.New(calm{})))
	f.sim = mission.NewSimulator(model,
		mission.WithPlanner(f.pf),
		mission.WithScheduler(f.sched),
		mission.WithObserver(f.rec),
		mission.WithClock(func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }),
		mission.WithLogger(logger.Discard()),
	)
	f.mon = NewMonitor(f.sim, f.pf,
		WithListener(func(r RerouteRequest) { f.requests = append(f.requests, r) }),
		WithThreatHook(func(th models.Threat) { f.hooked = append(f.hooked, th) }),
		WithLogger(logger.Discard()),
	)
	return f
}

func threat(id string, lat, lng, radius float64) models.Threat {
	return models.Threat{
		ID:         id,
		Category:   "WEATHER",
		Severity:   models.ThreatWarning,
		Message:    "Flash Flood Warning",
		Location:   geo.Coordinate{Lat: lat, Lng: lng},
		RadiusKm:   radius,
		RiskWeight: 50,
	}
}

func TestProcessIntelIgnoredWhenDisengaged(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sim.Start(route()))

	assert.False(t, f.mon.Engaged())
	assert.False(t, f.mon.ProcessIntel(threat("t1", 17.1, -88.0, 5)))
	assert.Empty(t, f.mon.Threats())
	assert.Empty(t, f.pf.Zones())
	assert.Equal(t, mission.StatusRunning, f.sim.Status())
}

func TestProcessIntelIgnoredUnlessRunning(t *testing.T) {
	f := newFixture(t)
	f.mon.Engage()

	assert.False(t, f.mon.ProcessIntel(threat("t1", 17.1, -88.0, 5)), "idle")

	require.NoError(t, f.sim.Start(route()))
	require.NoError(t, f.sim.Pause())
	assert.False(t, f.mon.ProcessIntel(threat("t2", 17.1, -88.0, 5)), "paused")
	assert.Empty(t, f.mon.Threats())
}

func TestProcessIntelClearOfRoute(t *testing.T) {
	f := newFixture(t)
	f.mon.Engage()
	require.NoError(t, f.sim.Start(route()))

	far := threat("far", 16.2, -88.9, 10)
	assert.False(t, f.mon.ProcessIntel(far))
	assert.False(t, f.mon.ProcessIntel(far))

	assert.Equal(t, mission.StatusRunning, f.sim.Status())
	assert.Len(t, f.mon.Threats(), 2)
	assert.Len(t, f.pf.Zones(), 1, "a threat is registered once")
	assert.Len(t, f.hooked, 2)
	assert.Empty(t, f.requests)
}

func TestProcessIntelOnRoute(t *testing.T) {
	f := newFixture(t)
	f.mon.Engage()
	require.NoError(t, f.sim.Start(route()))

	th := threat("flood", 17.1, -88.0, 5)
	assert.True(t, f.mon.ProcessIntel(th))

	assert.Equal(t, mission.StatusPaused, f.sim.Status())
	require.Len(t, f.requests, 1)
	assert.Equal(t, ActionRerouteRequired, f.requests[0].Action)
	assert.Equal(t, "flood", f.requests[0].Threat.ID)

	var critical []string
	for _, e := range f.rec.Events() {
		if e.Severity == mission.SeverityCritical {
			critical = append(critical, e.Message)
		}
	}
	require.Len(t, critical, 1)
	assert.Contains(t, critical[0], "Flash Flood Warning")
}

func TestExecuteReroute(t *testing.T) {
	f := newFixture(t)
	f.mon.Engage()
	require.NoError(t, f.sim.Start(route()))

	center := geo.Coordinate{Lat: 17.1, Lng: -88.0}
	require.True(t, f.mon.ProcessIntel(threat("flood", center.Lat, center.Lng, 5)))
	require.NoError(t, f.mon.ExecuteReroute())

	assert.Equal(t, mission.StatusPaused, f.sim.Status())
	assert.Contains(t, f.rec.Messages(), "Course Correction Applied.")

	path := f.sim.Path()
	indices := f.sim.RouteIndices()
	require.Len(t, indices, 3)
	assert.Equal(t, -1, indices[0])
	assert.Equal(t, len(path)-1, indices[2])
	assert.Equal(t, route()[1].Coordinate, path[indices[1]])
	assert.Equal(t, route()[2].Coordinate, path[len(path)-1])
	assert.Equal(t, f.sim.State().Position, path[0])

	for _, p := range path {
		assert.Greater(t, geo.Distance(p, center), 2.0, "reroute stays clear of the threat core")
	}

	require.NoError(t, f.sim.Resume())
	f.sched.RunPending(f.sim.Tick, 200)
	assert.Equal(t, mission.StatusCompleted, f.sim.Status())
	assert.Contains(t, f.rec.Messages(), "Reached Objective: bravo")
	assert.Contains(t, f.rec.Messages(), "Reached Objective: charlie")
	assert.Equal(t, []bool{true}, f.rec.Completions())
}

func TestExecuteRerouteAfterProgress(t *testing.T) {
	f := newFixture(t)
	f.mon.Engage()
	require.NoError(t, f.sim.Start(route()))

	for i := 0; i < 50 && f.sim.State().RouteIndex < 1; i++ {
		f.sched.Fire(f.sim.Tick)
	}
	require.Equal(t, 1, f.sim.State().RouteIndex)
	require.Equal(t, mission.StatusRunning, f.sim.Status())

	require.True(t, f.mon.ProcessIntel(threat("quake", 17.3, -88.0, 4)))
	require.NoError(t, f.mon.ExecuteReroute())

	indices := f.sim.RouteIndices()
	assert.Equal(t, []int{-1, -1, len(f.sim.Path()) - 1}, indices)
}

func TestExecuteRerouteRejected(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.mon.ExecuteReroute(), ErrNotReroutable, "idle")

	require.NoError(t, f.sim.Start(route()))
	require.NoError(t, f.sim.Abort())
	assert.ErrorIs(t, f.mon.ExecuteReroute(), ErrNotReroutable, "aborted")
}

func TestDisengage(t *testing.T) {
	f := newFixture(t)
	f.mon.Engage()
	assert.True(t, f.mon.Engaged())
	f.mon.Disengage()
	assert.False(t, f.mon.Engaged())
}

func TestThreatsWithoutIDsAreAllRegistered(t *testing.T) {
	f := newFixture(t)
	f.mon.Engage()
	require.NoError(t, f.sim.Start(route()))

	assert.False(t, f.mon.ProcessIntel(threat("", 17.1, -87.0, 5)))
	assert.False(t, f.mon.ProcessIntel(threat("", 17.3, -86.5, 5)))
	assert.Len(t, f.mon.Threats(), 2)
	assert.Len(t, f.pf.Zones(), 2)

	require.NoError(t, f.sim.Pause())
	require.NoError(t, f.mon.ExecuteReroute())
	assert.Len(t, f.pf.Zones(), 2, "reroute does not register threats twice")
}

func TestRepeatedThreatIDsAreAllRegistered(t *testing.T) {
	f := newFixture(t)
	f.mon.Engage()
	require.NoError(t, f.sim.Start(route()))

	f.mon.ProcessIntel(threat("dup", 17.1, -87.0, 5))
	f.mon.ProcessIntel(threat("dup", 17.3, -86.5, 5))

	zones := f.pf.Zones()
	require.Len(t, zones, 2)
	assert.NotEqual(t, zones[0].Center, zones[1].Center)
}
