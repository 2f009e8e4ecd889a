// Package logistics implements the resource, risk and duration calculations
// used to plan and simulate an expedition. A Model carries one weather factor
// for its whole life; every other method is a pure function of its inputs.
package logistics

import (
	"math"
	"math/rand"
	"time"

	"github.com/picogrid/expedition-sim/pkg/models"
)

// Weather factor bounds.
const (
	MinWeather = 1
	MaxWeather = 3
)

// Hourly base rates before terrain multipliers.
const (
	SuppliesPerHour  = 2.0
	FatiguePerHour   = 1.5
	IntegrityPerHour = 0.5
)

// BaseSpeedKph is the ground speed on unobstructed terrain.
const BaseSpeedKph = 50.0

// StopOverheadHours is added for every intermediate waypoint.
const StopOverheadHours = 1.5

var drainMultiplier = map[models.Terrain]float64{
	models.TerrainNature: 1.5,
	models.TerrainMarine: 1.2,
	models.TerrainRuins:  1.1,
	models.TerrainOther:  1.0,
}

var speedModifier = map[models.Terrain]float64{
	models.TerrainMarine: 0.6,
	models.TerrainNature: 0.8,
	models.TerrainRuins:  0.9,
	models.TerrainOther:  1.0,
}

// Model is the logistics calculator. It is not safe for concurrent use
// because event draws consume its random source.
type Model struct {
	weather int
	rng     *rand.Rand
}

// Option configures a Model.
type Option func(*Model)

// WithWeather fixes the weather factor. Values outside 1..3 are clamped.
func WithWeather(w int) Option {
	return func(m *Model) {
		m.weather = clampInt(w, MinWeather, MaxWeather)
	}
}

// WithRand sets the random source used for weather and event draws.
func WithRand(r *rand.Rand) Option {
	return func(m *Model) {
		m.rng = r
	}
}

// WithSeed is WithRand with a fresh source seeded from seed.
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// New builds a Model. Without WithWeather the factor is drawn once from the
// random source.
func New(opts ...Option) *Model {
	m := &Model{}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if m.weather == 0 {
		m.weather = MinWeather + m.rng.Intn(MaxWeather-MinWeather+1)
	}
	return m
}

// Weather returns the weather factor (1..3).
func (m *Model) Weather() int {
	return m.weather
}

func (m *Model) weatherModifier() float64 {
	return 1 + float64(m.weather)*0.1
}

// Drain is an amount of each tracked resource.
type Drain struct {
	Supplies  float64 `json:"supplies"`
	Fatigue   float64 `json:"fatigue"`
	Integrity float64 `json:"integrity"`
}

// ResourceDrain returns what hours spent on terrain costs, rounded to two
// decimals.
func (m *Model) ResourceDrain(terrain models.Terrain, hours float64) Drain {
	mult, ok := drainMultiplier[terrain]
	if !ok {
		mult = 1.0
	}

	integrity := IntegrityPerHour * mult * hours
	if terrain == models.TerrainNature || terrain == models.TerrainRuins {
		integrity *= 1.5
	}

	return Drain{
		Supplies:  roundTo(SuppliesPerHour*mult*hours, 2),
		Fatigue:   roundTo(FatiguePerHour*mult*hours, 2),
		Integrity: roundTo(integrity, 2),
	}
}

// DynamicRisk scores a waypoint at the given local time on a 0..100 scale.
func (m *Model) DynamicRisk(wp models.Waypoint, at time.Time) float64 {
	score := float64(wp.RiskLevel) * 10

	hour := at.Hour()
	night := hour < 6 || hour > 18
	if night && (wp.Terrain == models.TerrainNature || wp.Terrain == models.TerrainMarine) {
		score *= 1.5
	}

	score = math.Round(score * m.weatherModifier())
	return math.Min(score, 100)
}

// EventProbability is the per-tick chance of an incident at the given risk.
func EventProbability(riskScore float64) float64 {
	return 0.01 + riskScore/1000
}

// ShouldTriggerEvent draws against EventProbability.
func (m *Model) ShouldTriggerEvent(riskScore float64) bool {
	return m.rng.Float64() < EventProbability(riskScore)
}

// AverageSpeed is the mean terrain-adjusted speed across the route in km/h.
func AverageSpeed(route models.Route) float64 {
	if len(route) == 0 {
		return 0
	}
	var total float64
	for _, wp := range route {
		mod, ok := speedModifier[wp.Terrain]
		if !ok {
			mod = 1.0
		}
		total += BaseSpeedKph * mod
	}
	return total / float64(len(route))
}

// DurationHours estimates total mission time for a route of distanceKm.
func (m *Model) DurationHours(route models.Route, distanceKm float64) float64 {
	if len(route) < 2 {
		return 0
	}
	travel := distanceKm / AverageSpeed(route)
	stops := math.Max(0, float64(len(route)-2)) * StopOverheadHours
	return travel + stops
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
