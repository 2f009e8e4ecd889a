package logistics

import (
	"fmt"
	"math"

	"github.com/picogrid/expedition-sim/pkg/models"
)

// RiskLabel buckets a composite risk score.
type RiskLabel string

const (
	RiskLow      RiskLabel = "LOW"
	RiskCaution  RiskLabel = "CAUTION"
	RiskCritical RiskLabel = "CRITICAL"
)

// Display colours for each label.
const (
	ColorLow      = "#7fffd4"
	ColorCaution  = "#ffd93d"
	ColorCritical = "#ff6b6b"
)

// RiskAssessment is the composite risk of a route.
type RiskAssessment struct {
	Score int       `json:"score"`
	Label RiskLabel `json:"label"`
	Color string    `json:"color"`
}

// Loadout is the result of checking equipped gear against a route.
type Loadout struct {
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing"`
}

// RouteDistance sums the great-circle length of every leg in kilometres.
func RouteDistance(route models.Route) float64 {
	return route.Distance()
}

// AssessRisk combines the worst and average waypoint risk with the weather.
func (m *Model) AssessRisk(route models.Route) RiskAssessment {
	if len(route) == 0 {
		return RiskAssessment{Score: 0, Label: RiskLow, Color: ColorLow}
	}

	var maxRisk, sum float64
	for _, wp := range route {
		r := float64(wp.RiskLevel)
		sum += r
		if r > maxRisk {
			maxRisk = r
		}
	}
	avg := sum / float64(len(route))

	raw := (maxRisk*1.5 + avg*0.5) * 10
	score := int(math.Min(math.Round(raw*m.weatherModifier()), 100))

	switch {
	case score > 75:
		return RiskAssessment{Score: score, Label: RiskCritical, Color: ColorCritical}
	case score > 45:
		return RiskAssessment{Score: score, Label: RiskCaution, Color: ColorCaution}
	default:
		return RiskAssessment{Score: score, Label: RiskLow, Color: ColorLow}
	}
}

// RequiredGear returns every item any waypoint requires, in first-seen order.
func RequiredGear(route models.Route) []string {
	seen := make(map[string]bool)
	var gear []string
	for _, wp := range route {
		for _, item := range wp.RequiredGear {
			if !seen[item] {
				seen[item] = true
				gear = append(gear, item)
			}
		}
	}
	return gear
}

// ValidateLoadout reports which required items are not in equipped.
func ValidateLoadout(route models.Route, equipped []string) Loadout {
	have := make(map[string]bool, len(equipped))
	for _, item := range equipped {
		have[item] = true
	}

	missing := []string{}
	for _, item := range RequiredGear(route) {
		if !have[item] {
			missing = append(missing, item)
		}
	}
	return Loadout{Valid: len(missing) == 0, Missing: missing}
}

// ETA formats DurationHours as "Xh Ym", or "N/A" for an empty estimate.
func (m *Model) ETA(route models.Route, distanceKm float64) string {
	total := m.DurationHours(route, distanceKm)
	if total == 0 {
		return "N/A"
	}
	h := math.Floor(total)
	mins := math.Round((total - h) * 60)
	if mins == 60 {
		h++
		mins = 0
	}
	return fmt.Sprintf("%dh %dm", int(h), int(mins))
}

// EstimateMissionCost predicts the total drain of a route without running
// it. Time is split evenly across legs and each leg is charged at its
// destination's terrain.
func (m *Model) EstimateMissionCost(route models.Route, distanceKm float64) Drain {
	if len(route) < 2 {
		return Drain{}
	}
	legs := len(route) - 1
	perLeg := m.DurationHours(route, distanceKm) / float64(legs)

	var total Drain
	for i := 1; i < len(route); i++ {
		d := m.ResourceDrain(route[i].Terrain, perLeg)
		total.Supplies += d.Supplies
		total.Fatigue += d.Fatigue
		total.Integrity += d.Integrity
	}
	return Drain{
		Supplies:  roundTo(total.Supplies, 1),
		Fatigue:   roundTo(total.Fatigue, 1),
		Integrity: roundTo(total.Integrity, 1),
	}
}
