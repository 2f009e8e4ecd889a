package pathfinding

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/picogrid/expedition-sim/pkg/geo"
)

type exhaustingPlanner struct{}

func (exhaustingPlanner) Search(start, end geo.Coordinate) Result {
	return Result{Path: []geo.Coordinate{start, end}, Exhausted: true}
}

func TestPlotCourseDirect(t *testing.T) {
	a := geo.Coordinate{Lat: 17, Lng: -88}
	b := geo.Coordinate{Lat: 17.1, Lng: -88.1}
	c := geo.Coordinate{Lat: 17.2, Lng: -88.0}

	plot := PlotCourse(nil, a, []geo.Coordinate{b, c})
	assert.Equal(t, []geo.Coordinate{a, b, c}, plot.Path)
	assert.Equal(t, []int{1, 2}, plot.Arrivals)
	assert.Empty(t, plot.Exhausted)
}

func TestPlotCourseRiskAware(t *testing.T) {
	a := geo.Coordinate{Lat: 17.0, Lng: -88.0}
	b := geo.Coordinate{Lat: 17.03, Lng: -88.02}
	c := geo.Coordinate{Lat: 17.05, Lng: -87.99}

	plot := PlotCourse(New(), a, []geo.Coordinate{b, c})
	assert.Equal(t, a, plot.Path[0])
	assert.Equal(t, b, plot.Path[plot.Arrivals[0]])
	assert.Equal(t, c, plot.Path[plot.Arrivals[1]])
	assert.Less(t, plot.Arrivals[0], plot.Arrivals[1])
	assert.Equal(t, len(plot.Path)-1, plot.Arrivals[1])
}

func TestPlotCourseRecordsExhaustedLegs(t *testing.T) {
	a := geo.Coordinate{Lat: 1, Lng: 1}
	plot := PlotCourse(exhaustingPlanner{}, a, []geo.Coordinate{{Lat: 2, Lng: 2}, {Lat: 3, Lng: 3}})
	assert.Equal(t, []int{0, 1}, plot.Exhausted)
	assert.Len(t, plot.Path, 3)
}
