// Package geo holds the coordinate type shared by the planner, the simulator
// and the threat monitor, plus great-circle helpers.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EarthRadiusKm is the mean earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// NewCoordinate returns a coordinate after range-checking it.
func NewCoordinate(lat, lng float64) (Coordinate, error) {
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Coordinate{}, ErrInvalidCoordinates
	}
	return Coordinate{Lat: lat, Lng: lng}, nil
}

// ParseCoordinate parses a "lat,lng" string.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinate{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinate{}, ErrInvalidCoordinates
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinate{}, ErrInvalidCoordinates
	}
	return NewCoordinate(lat, lng)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lng)
}

// Distance returns the haversine distance between a and b in kilometres.
func Distance(a, b Coordinate) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PathLength sums the leg distances of path.
func PathLength(path []Coordinate) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += Distance(path[i-1], path[i])
	}
	return total
}

// Interpolate returns the point a fraction t of the way from a to b. The
// interpolation is linear in degrees, which is adequate for the sub-degree
// segments the planner produces.
func Interpolate(a, b Coordinate, t float64) Coordinate {
	return Coordinate{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lng: a.Lng + (b.Lng-a.Lng)*t,
	}
}

// Key rounds c to precision decimals and renders it as "lat,lng". Positions
// that differ only by accumulated float error share a key.
func Key(c Coordinate, precision int) string {
	return strconv.FormatFloat(round(c.Lat, precision), 'f', precision, 64) + "," +
		strconv.FormatFloat(round(c.Lng, precision), 'f', precision, 64)
}

func round(v float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	r := math.Round(v*p) / p
	if r == 0 {
		// normalise -0
		return 0
	}
	return r
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
