package models

import (
	"time"

	"github.com/picogrid/expedition-sim/pkg/geo"
)

// RiskZone is a circular region that raises traversal cost.
type RiskZone struct {
	Center   geo.Coordinate `json:"center"`
	RadiusKm float64        `json:"radius_km"`
	Weight   float64        `json:"weight"`
}

// Contains reports whether c lies strictly inside the zone.
func (z RiskZone) Contains(c geo.Coordinate) bool {
	return geo.Distance(z.Center, c) < z.RadiusKm
}

// ThreatSeverity is the severity label carried by a threat report.
type ThreatSeverity string

const (
	ThreatCaution  ThreatSeverity = "CAUTION"
	ThreatWarning  ThreatSeverity = "WARNING"
	ThreatCritical ThreatSeverity = "CRITICAL"
)

// Threat is an externally reported hazard.
type Threat struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Category   string         `json:"category"`
	Severity   ThreatSeverity `json:"severity"`
	Message    string         `json:"message"`
	Location   geo.Coordinate `json:"location"`
	RadiusKm   float64        `json:"radius_km"`
	RiskWeight float64        `json:"risk_weight"`
}

// Zone returns the risk zone a threat contributes to the planner.
func (t Threat) Zone() RiskZone {
	return RiskZone{Center: t.Location, RadiusKm: t.RadiusKm, Weight: t.RiskWeight}
}
