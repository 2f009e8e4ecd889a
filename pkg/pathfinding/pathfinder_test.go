package pathfinding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picogrid/expedition-sim/pkg/geo"
	"github.com/picogrid/expedition-sim/pkg/models"
)

func stepKm(res float64) float64 {
	return geo.Distance(geo.Coordinate{}, geo.Coordinate{Lat: res})
}

func TestCostShape(t *testing.T) {
	center := geo.Coordinate{Lat: 17.0, Lng: -88.5}
	p := New()
	p.AddRiskZone(models.RiskZone{Center: center, RadiusKm: 10, Weight: 40})

	assert.InDelta(t, 41.0, p.Cost(center), 1e-9)

	far := geo.Coordinate{Lat: 17.2, Lng: -88.5}
	require.Greater(t, geo.Distance(center, far), 10.0)
	assert.Equal(t, 1.0, p.Cost(far))

	prev := p.Cost(center)
	for i := 1; i <= 8; i++ {
		c := geo.Coordinate{Lat: center.Lat + float64(i)*0.01, Lng: center.Lng}
		cost := p.Cost(c)
		assert.Less(t, cost, prev, "cost must fall with distance (step %d)", i)
		prev = cost
	}
}

func TestCostAtRadiusIsBaseline(t *testing.T) {
	center := geo.Coordinate{Lat: 0, Lng: 0}
	edge := geo.Coordinate{Lat: 0.05, Lng: 0}
	p := New()
	p.AddRiskZone(models.RiskZone{Center: center, RadiusKm: geo.Distance(center, edge), Weight: 10})

	assert.Equal(t, 1.0, p.Cost(edge))
}

func TestCostOverlappingZonesSum(t *testing.T) {
	c := geo.Coordinate{Lat: 16.5, Lng: -88.2}
	p := New()
	p.AddRiskZone(models.RiskZone{Center: c, RadiusKm: 5, Weight: 3})
	p.AddRiskZone(models.RiskZone{Center: c, RadiusKm: 8, Weight: 4})
	p.AddRiskZone(models.RiskZone{Center: c, RadiusKm: 0, Weight: 100})

	assert.InDelta(t, 8.0, p.Cost(c), 1e-9)
	assert.Len(t, p.Zones(), 3)
}

func TestFindPathWithoutZones(t *testing.T) {
	start := geo.Coordinate{Lat: 17.0, Lng: -88.0}
	end := geo.Coordinate{Lat: 17.0537, Lng: -88.0461}

	res := New().Search(start, end)
	require.False(t, res.Exhausted)
	require.GreaterOrEqual(t, len(res.Path), 2)

	step := stepKm(DefaultResolution)
	first, last := res.Path[0], res.Path[len(res.Path)-1]
	assert.LessOrEqual(t, geo.Distance(first, start), step)
	assert.LessOrEqual(t, geo.Distance(last, end), step)
	assert.Equal(t, start, first)
	assert.Equal(t, end, last)

	for i := 1; i < len(res.Path); i++ {
		assert.LessOrEqual(t, geo.Distance(res.Path[i-1], res.Path[i]), step*math.Sqrt2+1e-6)
	}

	direct := geo.Distance(start, end)
	assert.InDelta(t, direct, geo.PathLength(res.Path), direct*0.1)
}

func TestFindPathAvoidsZone(t *testing.T) {
	start := geo.Coordinate{Lat: 0, Lng: 0}
	end := geo.Coordinate{Lat: 0, Lng: 0.2}
	center := geo.Coordinate{Lat: 0, Lng: 0.1}

	p := New()
	p.AddRiskZone(models.RiskZone{Center: center, RadiusKm: 5, Weight: 50})

	res := p.Search(start, end)
	require.False(t, res.Exhausted)

	for _, c := range res.Path {
		assert.Greater(t, geo.Distance(c, center), 2.5, "path point %s too close to zone centre", c)
	}
	assert.Greater(t, geo.PathLength(res.Path), geo.Distance(start, end))
}

func TestFindPathIsDeterministic(t *testing.T) {
	start := geo.Coordinate{Lat: 17.1, Lng: -88.9}
	end := geo.Coordinate{Lat: 17.2, Lng: -88.7}
	zone := models.RiskZone{Center: geo.Coordinate{Lat: 17.15, Lng: -88.8}, RadiusKm: 4, Weight: 30}

	a := New()
	a.AddRiskZone(zone)
	b := New()
	b.AddRiskZone(zone)

	assert.Equal(t, a.FindPath(start, end), b.FindPath(start, end))
}

func TestSearchExhaustionFallsBack(t *testing.T) {
	start := geo.Coordinate{Lat: 16.0, Lng: -89.0}
	end := geo.Coordinate{Lat: 18.0, Lng: -87.5}

	res := New(WithMaxExpansions(3)).Search(start, end)
	assert.True(t, res.Exhausted)
	assert.Equal(t, 3, res.Expanded)
	assert.Equal(t, []geo.Coordinate{start, end}, res.Path)
}

func TestSearchSamePoint(t *testing.T) {
	c := geo.Coordinate{Lat: 17.5, Lng: -88.2}
	res := New().Search(c, c)
	assert.False(t, res.Exhausted)
	assert.Equal(t, []geo.Coordinate{c, c}, res.Path)
}

func TestCoarseResolution(t *testing.T) {
	p := New(WithResolution(0.05))
	assert.Equal(t, 0.05, p.Resolution())

	start := geo.Coordinate{Lat: 17.0, Lng: -88.0}
	end := geo.Coordinate{Lat: 17.3, Lng: -88.4}
	path := p.FindPath(start, end)
	assert.Equal(t, start, path[0])
	assert.Equal(t, end, path[len(path)-1])
}

func TestDirect(t *testing.T) {
	a := geo.Coordinate{Lat: 1, Lng: 2}
	b := geo.Coordinate{Lat: 3, Lng: 4}

	var planner Planner = Direct{}
	assert.Equal(t, Result{Path: []geo.Coordinate{a, b}}, planner.Search(a, b))

	planner = New()
	assert.NotNil(t, planner)
}
