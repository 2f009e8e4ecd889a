// Package pathfinding finds risk-weighted routes on an implicit lat/lng grid.
package pathfinding

import (
	"math"

	"github.com/picogrid/expedition-sim/pkg/geo"
	"github.com/picogrid/expedition-sim/pkg/logger"
	"github.com/picogrid/expedition-sim/pkg/models"
)

const (
	// DefaultResolution is the grid step in decimal degrees.
	DefaultResolution = 0.01
	// DefaultMaxExpansions bounds the work done by a single search.
	DefaultMaxExpansions = 5000
	// KeyPrecision is the number of decimals grid nodes are keyed on.
	KeyPrecision = 4
)

var neighbourOffsets = [8][2]float64{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// Pathfinder is an A* planner over an 8-connected grid whose edge weights
// grow inside registered risk zones. Zones are only ever added. A Pathfinder
// is not safe for concurrent use.
type Pathfinder struct {
	resolution    float64
	maxExpansions int
	zones         []models.RiskZone
	log           logger.Logger
}

// Option configures a Pathfinder.
type Option func(*Pathfinder)

// WithResolution sets the grid step in degrees.
func WithResolution(deg float64) Option {
	return func(p *Pathfinder) {
		if deg > 0 {
			p.resolution = deg
		}
	}
}

// WithMaxExpansions sets the expansion cap.
func WithMaxExpansions(n int) Option {
	return func(p *Pathfinder) {
		if n > 0 {
			p.maxExpansions = n
		}
	}
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l logger.Logger) Option {
	return func(p *Pathfinder) {
		p.log = l
	}
}

// New creates a Pathfinder with no zones.
func New(opts ...Option) *Pathfinder {
	p := &Pathfinder{
		resolution:    DefaultResolution,
		maxExpansions: DefaultMaxExpansions,
		log:           logger.WithPrefix("pathfinder"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolution returns the grid step in degrees.
func (p *Pathfinder) Resolution() float64 {
	return p.resolution
}

// AddRiskZone registers a zone. Duplicates are kept.
func (p *Pathfinder) AddRiskZone(zone models.RiskZone) {
	p.zones = append(p.zones, zone)
}

// Zones returns a copy of the registered zones.
func (p *Pathfinder) Zones() []models.RiskZone {
	return append([]models.RiskZone(nil), p.zones...)
}

// Cost is the traversal multiplier at c: 1 plus the linearly decaying
// contribution of every zone that contains c.
func (p *Pathfinder) Cost(c geo.Coordinate) float64 {
	cost := 1.0
	for _, z := range p.zones {
		if z.RadiusKm <= 0 {
			continue
		}
		d := geo.Distance(z.Center, c)
		if d < z.RadiusKm {
			cost += z.Weight * (1 - d/z.RadiusKm)
		}
	}
	return cost
}

// FindPath returns the path from start to end. See Search.
func (p *Pathfinder) FindPath(start, end geo.Coordinate) []geo.Coordinate {
	return p.Search(start, end).Path
}

// Search runs A* from start to end. The returned path starts at start and
// ends at end. When the expansion cap is reached the result is the direct
// segment with Exhausted set; callers must accept that it ignores zones.
func (p *Pathfinder) Search(start, end geo.Coordinate) Result {
	step := geo.Distance(geo.Coordinate{}, geo.Coordinate{Lat: p.resolution})
	goalRadius := step / 2
	snapRadius := step * math.Sqrt2

	startKey := geo.Key(start, KeyPrecision)
	endKey := geo.Key(end, KeyPrecision)

	best := map[string]float64{startKey: 0}
	parent := make(map[string]string)
	coords := map[string]geo.Coordinate{startKey: start}
	closed := make(map[string]bool)

	open := &frontier{}
	open.push(&node{key: startKey, coord: start, h: geo.Distance(start, end)})

	expanded := 0
	for open.Len() > 0 {
		if expanded >= p.maxExpansions {
			break
		}

		cur := open.pop()
		if closed[cur.key] || cur.g > best[cur.key] {
			continue
		}
		closed[cur.key] = true
		expanded++

		if geo.Distance(cur.coord, end) < goalRadius {
			return Result{Path: p.reconstruct(parent, coords, cur.key, end), Expanded: expanded}
		}

		relax := func(key string, next geo.Coordinate) {
			if closed[key] {
				return
			}
			if known, ok := coords[key]; ok {
				next = known
			} else {
				coords[key] = next
			}
			g := cur.g + geo.Distance(cur.coord, next)*p.Cost(next)
			if old, ok := best[key]; ok && g >= old {
				return
			}
			best[key] = g
			parent[key] = cur.key
			open.push(&node{key: key, coord: next, g: g, h: geo.Distance(next, end)})
		}

		for _, off := range neighbourOffsets {
			next := geo.Coordinate{
				Lat: cur.coord.Lat + off[0]*p.resolution,
				Lng: cur.coord.Lng + off[1]*p.resolution,
			}
			relax(geo.Key(next, KeyPrecision), next)
		}
		// The grid is anchored on start, so end is usually off-grid. Offer it
		// as a neighbour once it is within one diagonal step.
		if geo.Distance(cur.coord, end) <= snapRadius {
			relax(endKey, end)
		}
	}

	p.log.Warnf("search exhausted after %d expansions, reverting to direct route %s -> %s", expanded, start, end)
	return Result{Path: []geo.Coordinate{start, end}, Exhausted: true, Expanded: expanded}
}

func (p *Pathfinder) reconstruct(parent map[string]string, coords map[string]geo.Coordinate, goal string, end geo.Coordinate) []geo.Coordinate {
	var rev []geo.Coordinate
	for key, ok := goal, true; ok; key, ok = parent[key] {
		rev = append(rev, coords[key])
	}

	path := make([]geo.Coordinate, 0, len(rev)+1)
	for i := len(rev) - 1; i >= 0; i-- {
		path = append(path, rev[i])
	}
	if len(path) == 1 || path[len(path)-1] != end {
		path = append(path, end)
	}
	return path
}
