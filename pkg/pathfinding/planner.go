package pathfinding

import "github.com/picogrid/expedition-sim/pkg/geo"

// Result is the outcome of a search.
type Result struct {
	Path []geo.Coordinate
	// Exhausted is set when the expansion cap was hit and Path is the
	// straight fallback [start, end].
	Exhausted bool
	Expanded  int
}

// Planner produces a path between two coordinates.
type Planner interface {
	Search(start, end geo.Coordinate) Result
}

// Direct is the planner used when no risk-aware planner is configured. It
// returns the straight segment between the two points.
type Direct struct{}

// Search implements Planner.
func (Direct) Search(start, end geo.Coordinate) Result {
	return Result{Path: []geo.Coordinate{start, end}}
}
