package geo

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	oneDegree := EarthRadiusKm * math.Pi / 180

	assert.InDelta(t, oneDegree, Distance(Coordinate{0, 0}, Coordinate{1, 0}), 1e-9)
	assert.InDelta(t, oneDegree, Distance(Coordinate{0, 0}, Coordinate{0, 1}), 1e-9)
	assert.Zero(t, Distance(Coordinate{17.3, -88.5}, Coordinate{17.3, -88.5}))

	a := Coordinate{17.316, -87.535}
	b := Coordinate{16.76, -88.58}
	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
}

func TestPathLength(t *testing.T) {
	path := []Coordinate{{0, 0}, {0, 1}, {0, 2}}
	assert.InDelta(t, 2*Distance(Coordinate{0, 0}, Coordinate{0, 1}), PathLength(path), 1e-9)
	assert.Zero(t, PathLength(path[:1]))
}

func TestInterpolate(t *testing.T) {
	a := Coordinate{10, 20}
	b := Coordinate{12, 16}

	assert.Equal(t, a, Interpolate(a, b, 0))
	assert.Equal(t, b, Interpolate(a, b, 1))
	mid := Interpolate(a, b, 0.5)
	assert.InDelta(t, 11.0, mid.Lat, 1e-12)
	assert.InDelta(t, 18.0, mid.Lng, 1e-12)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "17.3160,-87.5350", Key(Coordinate{17.316, -87.535}, 4))
	assert.Equal(t, Key(Coordinate{17.30000000001, -88.1}, 4), Key(Coordinate{17.29999999999, -88.1}, 4))
	assert.Equal(t, "0.0000,0.0000", Key(Coordinate{-0.00001, 0.00001}, 4))
}

func TestParseCoordinate(t *testing.T) {
	c, err := ParseCoordinate("17.25, -88.75")
	require.NoError(t, err)
	assert.Equal(t, Coordinate{17.25, -88.75}, c)

	for _, bad := range []string{"", "17.25", "a,b", "95,10", "10,200", "1,2,3"} {
		_, err := ParseCoordinate(bad)
		assert.ErrorIs(t, err, ErrInvalidCoordinates, bad)
	}
}

func TestWebMercator(t *testing.T) {
	x, y := WebMercator(Coordinate{0, 0})
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)

	x, _ = WebMercator(Coordinate{0, 180})
	assert.InDelta(t, 20037508.34, x, 1)
}

func TestLineString(t *testing.T) {
	path := []Coordinate{{17.0, -88.0}, {17.1, -88.1}, {17.2, -88.1}}
	ls, err := LineString(path)
	require.NoError(t, err)
	assert.Equal(t, 3, ls.Coordinates().Length())

	raw, err := json.Marshal(ls)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "LineString")

	short, err := LineString(path[:1])
	require.NoError(t, err)
	assert.True(t, short.IsEmpty())
}

func TestMercatorGeometry(t *testing.T) {
	path := []Coordinate{{0, 0}, {0, 180}}
	ls, err := MercatorLineString(path)
	require.NoError(t, err)
	assert.Equal(t, 2, ls.Coordinates().Length())

	pt, err := MercatorPoint(path[1])
	require.NoError(t, err)
	xy, ok := pt.XY()
	require.True(t, ok)
	assert.InDelta(t, 20037508.34, xy.X, 1)
}

func TestPointRejectsNonFinite(t *testing.T) {
	_, err := Point(Coordinate{Lat: math.NaN(), Lng: -88})
	assert.Error(t, err)
}

func TestFeatureCollection(t *testing.T) {
	a, b := Coordinate{17.0, -88.0}, Coordinate{17.1, -88.1}
	ls, err := LineString([]Coordinate{a, b})
	require.NoError(t, err)
	pt, err := Point(a)
	require.NoError(t, err)

	fc := FeatureCollection(
		Feature(ls.AsGeometry(), map[string]interface{}{"kind": "path"}),
		Feature(pt.AsGeometry(), map[string]interface{}{"kind": "waypoint"}),
	)

	raw, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"FeatureCollection"`)
	assert.Contains(t, string(raw), `"waypoint"`)
	assert.Len(t, fc, 2)
}
