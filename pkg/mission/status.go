package mission

import (
	"time"

	"github.com/picogrid/expedition-sim/pkg/geo"
)

// Status is the lifecycle state of a mission.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusPaused
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusRunning:
		return "RUNNING"
	case StatusPaused:
		return "PAUSED"
	case StatusCompleted:
		return "COMPLETED"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the status name in JSON and YAML.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// State is a snapshot of a mission in progress.
type State struct {
	Status        Status         `json:"status"`
	SimulatedTime time.Time      `json:"simulated_time"`
	Position      geo.Coordinate `json:"position"`
	Supplies      float64        `json:"supplies"`
	Fatigue       float64        `json:"fatigue"`
	Integrity     float64        `json:"integrity"`
	PathIndex     int            `json:"path_index"`
	RouteIndex    int            `json:"route_index"`
	// Progress is the fraction of the current path segment covered.
	Progress float64 `json:"progress"`
}
