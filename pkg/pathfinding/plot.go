package pathfinding

import "github.com/picogrid/expedition-sim/pkg/geo"

// Plot is a path through a sequence of targets.
type Plot struct {
	// Path starts at the origin and ends at the last target.
	Path []geo.Coordinate
	// Arrivals[i] is the index in Path at which targets[i] is reached.
	Arrivals []int
	// Exhausted lists the legs (by target index) that fell back to a
	// straight segment.
	Exhausted []int
}

// PlotCourse searches origin→targets[0]→targets[1]→... and concatenates the
// legs, dropping the duplicated first point of each leg.
func PlotCourse(planner Planner, origin geo.Coordinate, targets []geo.Coordinate) Plot {
	if planner == nil {
		planner = Direct{}
	}
	plot := Plot{
		Path:     []geo.Coordinate{origin},
		Arrivals: make([]int, 0, len(targets)),
	}

	from := origin
	for i, to := range targets {
		res := planner.Search(from, to)
		if res.Exhausted {
			plot.Exhausted = append(plot.Exhausted, i)
		}
		if len(res.Path) > 1 {
			plot.Path = append(plot.Path, res.Path[1:]...)
		} else {
			plot.Path = append(plot.Path, to)
		}
		plot.Arrivals = append(plot.Arrivals, len(plot.Path)-1)
		from = to
	}
	return plot
}
