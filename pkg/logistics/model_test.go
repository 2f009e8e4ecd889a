package logistics

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/picogrid/expedition-sim/pkg/geo"
	"github.com/picogrid/expedition-sim/pkg/models"
)

func wp(terrain models.Terrain, risk int, gear ...string) models.Waypoint {
	return models.Waypoint{Name: string(terrain), Terrain: terrain, RiskLevel: risk, RequiredGear: gear}
}

func TestResourceDrain(t *testing.T) {
	m := New(WithWeather(1))

	tests := []struct {
		terrain models.Terrain
		hours   float64
		want    Drain
	}{
		{models.TerrainNature, 1, Drain{Supplies: 3.0, Fatigue: 2.25, Integrity: 1.13}},
		{models.TerrainMarine, 1, Drain{Supplies: 2.4, Fatigue: 1.8, Integrity: 0.6}},
		{models.TerrainRuins, 2, Drain{Supplies: 4.4, Fatigue: 3.3, Integrity: 1.65}},
		{models.TerrainOther, 1, Drain{Supplies: 2.0, Fatigue: 1.5, Integrity: 0.5}},
		{models.Terrain("swamp"), 1, Drain{Supplies: 2.0, Fatigue: 1.5, Integrity: 0.5}},
		{models.TerrainNature, 0, Drain{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.terrain), func(t *testing.T) {
			got := m.ResourceDrain(tt.terrain, tt.hours)
			assert.InDelta(t, tt.want.Supplies, got.Supplies, 1e-9)
			assert.InDelta(t, tt.want.Fatigue, got.Fatigue, 1e-9)
			assert.InDelta(t, tt.want.Integrity, got.Integrity, 1e-9)
		})
	}
}

func TestResourceDrainScalesLinearly(t *testing.T) {
	m := New(WithWeather(2))
	one := m.ResourceDrain(models.TerrainMarine, 1)
	four := m.ResourceDrain(models.TerrainMarine, 4)
	assert.InDelta(t, one.Supplies*4, four.Supplies, 1e-9)
	assert.InDelta(t, one.Fatigue*4, four.Fatigue, 1e-9)
	assert.InDelta(t, one.Integrity*4, four.Integrity, 1e-9)
}

func TestDynamicRisk(t *testing.T) {
	noon := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	night := time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)
	dusk := time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)
	late := time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)

	assert.Equal(t, 22.0, New(WithWeather(1)).DynamicRisk(wp(models.TerrainRuins, 2), noon))
	assert.Equal(t, 22.0, New(WithWeather(1)).DynamicRisk(wp(models.TerrainRuins, 2), night), "ruins ignore night")
	assert.Equal(t, 54.0, New(WithWeather(2)).DynamicRisk(wp(models.TerrainNature, 3), night))
	assert.Equal(t, 36.0, New(WithWeather(2)).DynamicRisk(wp(models.TerrainNature, 3), dusk), "hour 18 counts as day")
	assert.Equal(t, 54.0, New(WithWeather(2)).DynamicRisk(wp(models.TerrainMarine, 3), late))
	assert.Equal(t, 98.0, New(WithWeather(3)).DynamicRisk(wp(models.TerrainNature, 5), night))
	assert.Equal(t, 100.0, New(WithWeather(3)).DynamicRisk(wp(models.TerrainNature, 10), night))
}

func TestShouldTriggerEvent(t *testing.T) {
	m := New(WithWeather(1), WithSeed(7))
	for i := 0; i < 100; i++ {
		assert.True(t, m.ShouldTriggerEvent(990))
		assert.False(t, m.ShouldTriggerEvent(-10))
	}
	assert.InDelta(t, 0.06, EventProbability(50), 1e-12)
}

func TestWeatherIsInjectable(t *testing.T) {
	assert.Equal(t, 2, New(WithWeather(2)).Weather())
	assert.Equal(t, MaxWeather, New(WithWeather(9)).Weather())
	assert.Equal(t, MinWeather, New(WithWeather(-1)).Weather())

	a := New(WithRand(rand.New(rand.NewSource(42))))
	b := New(WithRand(rand.New(rand.NewSource(42))))
	assert.Equal(t, a.Weather(), b.Weather())
	for i := 0; i < 20; i++ {
		w := New(WithSeed(int64(i))).Weather()
		assert.GreaterOrEqual(t, w, MinWeather)
		assert.LessOrEqual(t, w, MaxWeather)
	}
}

func TestDurationHours(t *testing.T) {
	m := New(WithWeather(1))
	other := wp(models.TerrainOther, 1)

	assert.Equal(t, 2.0, m.DurationHours(models.Route{other, other}, 100))
	assert.Equal(t, 4.0, m.DurationHours(models.Route{
		wp(models.TerrainMarine, 1), wp(models.TerrainNature, 1), other,
	}, 100))
	assert.Zero(t, m.DurationHours(models.Route{other}, 100))
	assert.Zero(t, m.DurationHours(nil, 100))
}

func TestETA(t *testing.T) {
	m := New(WithWeather(1))
	other := wp(models.TerrainOther, 1)

	assert.Equal(t, "2h 30m", m.ETA(models.Route{other, other}, 125))
	assert.Equal(t, "2h 0m", m.ETA(models.Route{other, other}, 100))
	assert.Equal(t, "N/A", m.ETA(models.Route{other}, 100))
}

func TestEstimateMissionCost(t *testing.T) {
	m := New(WithWeather(1))
	other := wp(models.TerrainOther, 1)

	got := m.EstimateMissionCost(models.Route{other, other}, 100)
	assert.Equal(t, Drain{Supplies: 4, Fatigue: 3, Integrity: 1}, got)

	assert.Equal(t, Drain{}, m.EstimateMissionCost(models.Route{other}, 100))
}

func TestAssessRisk(t *testing.T) {
	assert.Equal(t, RiskAssessment{Score: 0, Label: RiskLow, Color: ColorLow}, New(WithWeather(2)).AssessRisk(nil))

	for w := MinWeather; w <= MaxWeather; w++ {
		got := New(WithWeather(w)).AssessRisk(models.Route{wp(models.TerrainOther, 5), wp(models.TerrainOther, 5)})
		assert.Equal(t, RiskCritical, got.Label)
		assert.Equal(t, 100, got.Score)
		assert.Equal(t, ColorCritical, got.Color)
	}

	low := New(WithWeather(1)).AssessRisk(models.Route{wp(models.TerrainOther, 1), wp(models.TerrainOther, 1)})
	assert.Equal(t, RiskAssessment{Score: 22, Label: RiskLow, Color: ColorLow}, low)

	caution := New(WithWeather(1)).AssessRisk(models.Route{wp(models.TerrainOther, 3), wp(models.TerrainOther, 3)})
	assert.Equal(t, RiskAssessment{Score: 66, Label: RiskCaution, Color: ColorCaution}, caution)

	critical := New(WithWeather(3)).AssessRisk(models.Route{wp(models.TerrainOther, 3), wp(models.TerrainOther, 3)})
	assert.Equal(t, 78, critical.Score)
	assert.Equal(t, RiskCritical, critical.Label)
}

func TestValidateLoadout(t *testing.T) {
	got := ValidateLoadout(models.Route{wp(models.TerrainOther, 1, "rope", "water")}, []string{"rope"})
	assert.Equal(t, Loadout{Valid: false, Missing: []string{"water"}}, got)

	route := models.Route{
		wp(models.TerrainMarine, 1, "scuba_kit", "boat_transport"),
		wp(models.TerrainMarine, 1, "boat_transport", "first_aid"),
	}
	got = ValidateLoadout(route, nil)
	assert.Equal(t, []string{"scuba_kit", "boat_transport", "first_aid"}, got.Missing)

	got = ValidateLoadout(route, []string{"first_aid", "scuba_kit", "boat_transport", "extra"})
	assert.True(t, got.Valid)
	assert.Empty(t, got.Missing)
}

func TestRequiredGear(t *testing.T) {
	route := models.Route{wp(models.TerrainRuins, 2, "a", "b"), wp(models.TerrainRuins, 2, "b", "c")}
	assert.Equal(t, []string{"a", "b", "c"}, RequiredGear(route))
	assert.Nil(t, RequiredGear(nil))
}

func TestRandomIncident(t *testing.T) {
	m := New(WithWeather(1), WithSeed(3))
	for i := 0; i < 20; i++ {
		assert.Contains(t, Incidents, m.RandomIncident())
	}
}

func TestRouteDistance(t *testing.T) {
	assert.Equal(t, 0.0, RouteDistance(nil))

	a := models.Waypoint{Coordinate: geo.Coordinate{Lat: 17.0, Lng: -88.0}}
	b := models.Waypoint{Coordinate: geo.Coordinate{Lat: 17.1, Lng: -88.0}}
	c := models.Waypoint{Coordinate: geo.Coordinate{Lat: 17.2, Lng: -88.0}}
	leg := geo.Distance(a.Coordinate, b.Coordinate)
	assert.InDelta(t, 2*leg, RouteDistance(models.Route{a, b, c}), 1e-6)
}
