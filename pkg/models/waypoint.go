package models

import (
	"strings"

	"github.com/picogrid/expedition-sim/pkg/geo"
)

// Terrain classifies the ground a waypoint sits on.
type Terrain string

const (
	TerrainMarine Terrain = "marine"
	TerrainNature Terrain = "nature"
	TerrainRuins  Terrain = "ruins"
	TerrainOther  Terrain = "other"
)

// ParseTerrain maps a free-form category onto a Terrain. Unknown values are
// treated as TerrainOther.
func ParseTerrain(s string) Terrain {
	switch Terrain(strings.ToLower(strings.TrimSpace(s))) {
	case TerrainMarine:
		return TerrainMarine
	case TerrainNature:
		return TerrainNature
	case TerrainRuins:
		return TerrainRuins
	default:
		return TerrainOther
	}
}

// Waypoint is an operator-chosen point of interest.
type Waypoint struct {
	Name             string         `json:"name" yaml:"name"`
	Kind             string         `json:"kind,omitempty" yaml:"kind,omitempty"`
	Coordinate       geo.Coordinate `json:"coordinate" yaml:"coordinate"`
	Terrain          Terrain        `json:"terrain" yaml:"terrain"`
	RiskLevel        int            `json:"risk_level" yaml:"risk_level"`
	AccessComplexity int            `json:"access_complexity,omitempty" yaml:"access_complexity,omitempty"`
	RequiredGear     []string       `json:"required_gear,omitempty" yaml:"required_gear,omitempty"`
	Description      string         `json:"description,omitempty" yaml:"description,omitempty"`
}

// Route is the ordered list of waypoints that defines a mission.
type Route []Waypoint

// Clone returns a deep copy of the route.
func (r Route) Clone() Route {
	if r == nil {
		return nil
	}
	out := make(Route, len(r))
	for i, wp := range r {
		out[i] = wp
		if wp.RequiredGear != nil {
			out[i].RequiredGear = append([]string(nil), wp.RequiredGear...)
		}
	}
	return out
}

// Coordinates returns the waypoint positions in traversal order.
func (r Route) Coordinates() []geo.Coordinate {
	coords := make([]geo.Coordinate, len(r))
	for i, wp := range r {
		coords[i] = wp.Coordinate
	}
	return coords
}

// Names returns the waypoint names in traversal order.
func (r Route) Names() []string {
	names := make([]string, len(r))
	for i, wp := range r {
		names[i] = wp.Name
	}
	return names
}

// Distance is the straight-line length of the route in kilometres.
func (r Route) Distance() float64 {
	return geo.PathLength(r.Coordinates())
}
