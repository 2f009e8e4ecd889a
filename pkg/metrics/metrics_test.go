package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picogrid/expedition-sim/pkg/geo"
	"github.com/picogrid/expedition-sim/pkg/mission"
	"github.com/picogrid/expedition-sim/pkg/models"
)

func TestCollectorState(t *testing.T) {
	c := NewCollector()
	c.SetRouteLength(3)

	c.OnUpdate(mission.State{
		Status:     mission.StatusRunning,
		Supplies:   80.5,
		Fatigue:    12,
		Integrity:  95,
		RouteIndex: 1,
		Position:   geo.Coordinate{Lat: 17.1, Lng: -88.2},
	})
	c.OnUpdate(mission.State{Status: mission.StatusRunning, Supplies: 79, RouteIndex: 1})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ticks))
	assert.Equal(t, 79.0, testutil.ToFloat64(c.supplies))
	assert.Equal(t, 0.5, testutil.ToFloat64(c.progress))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.status.WithLabelValues("RUNNING")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.status.WithLabelValues("PAUSED")))
}

func TestCollectorEventsAndOutcomes(t *testing.T) {
	c := NewCollector()

	c.OnEvent(mission.Event{Severity: mission.SeverityWarning})
	c.OnEvent(mission.Event{Severity: mission.SeverityWarning})
	c.OnEvent(mission.Event{Severity: mission.SeverityCritical})
	c.ObserveThreat(models.Threat{Category: "WEATHER", Severity: models.ThreatWarning})
	c.ObserveReroute()
	c.OnComplete(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.events.WithLabelValues("warning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.events.WithLabelValues("critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.threats.WithLabelValues("WEATHER", "WARNING")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.reroutes))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.completions.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.progress))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.status.WithLabelValues("COMPLETED")))
}

func TestHandler(t *testing.T) {
	c := NewCollector()
	c.OnUpdate(mission.State{Status: mission.StatusRunning, Supplies: 42})

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "expedition_supplies_percent 42")
	assert.Contains(t, string(body), "expedition_ticks_total 1")
}
