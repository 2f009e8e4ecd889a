package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picogrid/expedition-sim/pkg/models"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.Equal(t, 15, c.Len())

	hole, ok := c.Lookup("great blue hole")
	require.True(t, ok)
	assert.Equal(t, "Great Blue Hole", hole.Name)
	assert.Equal(t, models.TerrainMarine, hole.Terrain)
	assert.Equal(t, 5, hole.RiskLevel)
	assert.InDelta(t, 17.316, hole.Coordinate.Lat, 1e-9)
	assert.InDelta(t, -87.535, hole.Coordinate.Lng, 1e-9)
	assert.Equal(t, []string{"scuba_kit", "boat_transport", "first_aid"}, hole.RequiredGear)

	names := c.Names()
	assert.True(t, sortedStrings(names))
	assert.Contains(t, names, "Caye Caulker")
}

func TestLookupReturnsCopy(t *testing.T) {
	c := Default()
	wp, _ := c.Lookup("Caracol")
	wp.RequiredGear[0] = "sandals"

	again, _ := c.Lookup("Caracol")
	assert.Equal(t, "hiking_boots", again.RequiredGear[0])
}

func TestRoute(t *testing.T) {
	c := Default()

	route, err := c.Route("Xunantunich", " ATM Cave ", "Caracol")
	require.NoError(t, err)
	assert.Equal(t, []string{"Xunantunich", "ATM Cave", "Caracol"}, route.Names())

	_, err = c.Route("Xunantunich", "Atlantis")
	assert.ErrorIs(t, err, ErrUnknownWaypoint)
	assert.Contains(t, err.Error(), "Atlantis")
}

func TestLoad(t *testing.T) {
	c, err := Load(strings.NewReader(`
waypoints:
  - name: Camp
    terrain: Nature
    coordinate: {lat: 17.0, lng: -88.0}
    risk_level: 2
  - name: Ridge
    terrain: volcanic
    coordinate: {lat: 17.1, lng: -88.1}
`))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	camp, _ := c.Lookup("camp")
	assert.Equal(t, models.TerrainNature, camp.Terrain)
	ridge, _ := c.Lookup("ridge")
	assert.Equal(t, models.TerrainOther, ridge.Terrain)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "waypoints: [:"},
		{"missing name", "waypoints:\n  - coordinate: {lat: 1, lng: 1}\n"},
		{"duplicate", "waypoints:\n  - name: A\n  - name: a\n"},
		{"bad coordinate", "waypoints:\n  - name: A\n    coordinate: {lat: 95, lng: 0}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	require.NoError(t, os.WriteFile(path, defaultSites, 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Len(), c.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}
