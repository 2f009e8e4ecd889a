// Package catalog holds the named waypoints missions are planned from.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/picogrid/expedition-sim/pkg/geo"
	"github.com/picogrid/expedition-sim/pkg/models"
)

//go:embed sites.yaml
var defaultSites []byte

var ErrUnknownWaypoint = errors.New("unknown waypoint")

// Catalog is an ordered, name-indexed set of waypoints. Lookups ignore case.
type Catalog struct {
	waypoints []models.Waypoint
	byName    map[string]int
}

type file struct {
	Waypoints []models.Waypoint `yaml:"waypoints"`
}

// Default returns the built-in Belize catalog.
func Default() *Catalog {
	c, err := parse(defaultSites)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded sites are invalid: %v", err))
	}
	return c
}

// Load reads a catalog in the same YAML shape as the built-in one.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return parse(data)
}

// LoadFile reads a catalog from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{byName: make(map[string]int, len(f.Waypoints))}
	for i, wp := range f.Waypoints {
		name := strings.TrimSpace(wp.Name)
		if name == "" {
			return nil, fmt.Errorf("waypoint %d has no name", i)
		}
		key := strings.ToLower(name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("duplicate waypoint %q", name)
		}
		if _, err := geo.NewCoordinate(wp.Coordinate.Lat, wp.Coordinate.Lng); err != nil {
			return nil, fmt.Errorf("waypoint %q: %w", name, err)
		}
		wp.Name = name
		wp.Terrain = models.ParseTerrain(string(wp.Terrain))
		c.byName[key] = len(c.waypoints)
		c.waypoints = append(c.waypoints, wp)
	}
	return c, nil
}

// Len is the number of waypoints.
func (c *Catalog) Len() int { return len(c.waypoints) }

// All returns every waypoint in file order.
func (c *Catalog) All() []models.Waypoint {
	return models.Route(c.waypoints).Clone()
}

// Names returns the waypoint names sorted alphabetically.
func (c *Catalog) Names() []string {
	names := models.Route(c.waypoints).Names()
	sort.Strings(names)
	return names
}

// Lookup finds a waypoint by name.
func (c *Catalog) Lookup(name string) (models.Waypoint, bool) {
	i, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return models.Waypoint{}, false
	}
	return models.Route{c.waypoints[i]}.Clone()[0], true
}

// Route resolves names into a route in the given order.
func (c *Catalog) Route(names ...string) (models.Route, error) {
	route := make(models.Route, 0, len(names))
	for _, name := range names {
		wp, ok := c.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownWaypoint, name)
		}
		route = append(route, wp)
	}
	return route, nil
}
