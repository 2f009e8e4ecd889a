package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/picogrid/expedition-sim/pkg/geo"
)

func TestParseTerrain(t *testing.T) {
	assert.Equal(t, TerrainMarine, ParseTerrain("Marine"))
	assert.Equal(t, TerrainNature, ParseTerrain(" nature "))
	assert.Equal(t, TerrainRuins, ParseTerrain("ruins"))
	assert.Equal(t, TerrainOther, ParseTerrain("urban"))
	assert.Equal(t, TerrainOther, ParseTerrain(""))
}

func TestRouteCloneIsDeep(t *testing.T) {
	r := Route{{Name: "A", RequiredGear: []string{"rope"}}, {Name: "B"}}
	c := r.Clone()
	c[0].RequiredGear[0] = "water"
	c[1].Name = "C"

	assert.Equal(t, "rope", r[0].RequiredGear[0])
	assert.Equal(t, "B", r[1].Name)
	assert.Nil(t, Route(nil).Clone())
}

func TestRouteDistance(t *testing.T) {
	r := Route{
		{Coordinate: geo.Coordinate{Lat: 0, Lng: 0}},
		{Coordinate: geo.Coordinate{Lat: 0, Lng: 1}},
	}
	assert.InDelta(t, 111.19, r.Distance(), 0.01)
	assert.Equal(t, []string{"", ""}, r.Names())
}

func TestRiskZoneContainsIsStrict(t *testing.T) {
	center := geo.Coordinate{Lat: 0, Lng: 0}
	edge := geo.Coordinate{Lat: 0, Lng: 1}
	z := RiskZone{Center: center, RadiusKm: geo.Distance(center, edge), Weight: 3}

	assert.True(t, z.Contains(center))
	assert.False(t, z.Contains(edge))
}

func TestThreatZone(t *testing.T) {
	th := Threat{Location: geo.Coordinate{Lat: 17, Lng: -88}, RadiusKm: 12, RiskWeight: 40}
	assert.Equal(t, RiskZone{Center: th.Location, RadiusKm: 12, Weight: 40}, th.Zone())
}
