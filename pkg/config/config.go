// Package config holds the expedition engine configuration: how the mission
// clock runs, how routes are planned, where threat reports come from, and
// which outer surfaces (archive, live feed, metrics, debrief) are enabled.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Archive drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Debrief formats.
const (
	DebriefJSON     = "json"
	DebriefMarkdown = "markdown"
)

var validLevels = []string{"debug", "info", "warn", "error"}

// Config is the complete engine configuration.
type Config struct {
	Simulation  SimulationSettings `yaml:"simulation"`
	Logistics   LogisticsConfig    `yaml:"logistics"`
	Pathfinding PathfindingConfig  `yaml:"pathfinding"`
	Telemetry   TelemetryConfig    `yaml:"telemetry"`
	Overwatch   OverwatchConfig    `yaml:"overwatch"`
	Archive     ArchiveConfig      `yaml:"archive"`
	Server      ServerConfig       `yaml:"server"`
	Logging     LoggingConfig      `yaml:"logging"`
}

// SimulationSettings controls the mission clock.
type SimulationSettings struct {
	Name             string        `yaml:"name"`
	Description      string        `yaml:"description"`
	TickDuration     time.Duration `yaml:"tick_duration"`     // simulated time per tick
	PlaybackInterval time.Duration `yaml:"playback_interval"` // wall time between ticks
	GroundSpeedKph   float64       `yaml:"ground_speed_kph"`
	StrictClamp      bool          `yaml:"strict_clamp"`
}

// LogisticsConfig fixes the weather and random source. Zero means draw at
// random.
type LogisticsConfig struct {
	Weather int   `yaml:"weather"`
	Seed    int64 `yaml:"seed"`
}

// Zone is a risk zone known before the mission starts.
type Zone struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	RadiusKm  float64 `yaml:"radius_km"`
	Weight    float64 `yaml:"weight"`
}

// PathfindingConfig selects and tunes the route planner.
type PathfindingConfig struct {
	RiskAware     bool    `yaml:"risk_aware"`
	Resolution    float64 `yaml:"resolution"` // degrees
	MaxExpansions int     `yaml:"max_expansions"`
	StaticZones   []Zone  `yaml:"static_zones,omitempty"`
}

// Bounds is the box simulated threat reports are placed in.
type Bounds struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLng float64 `yaml:"min_lng"`
	MaxLng float64 `yaml:"max_lng"`
}

// TelemetryConfig controls the simulated threat feed.
type TelemetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MinInterval time.Duration `yaml:"min_interval"`
	MaxInterval time.Duration `yaml:"max_interval"`
	Seed        int64         `yaml:"seed"`
	Bounds      Bounds        `yaml:"bounds"`
}

// OverwatchConfig controls threat monitoring and automatic rerouting.
type OverwatchConfig struct {
	Enabled      bool          `yaml:"enabled"`
	AutoReroute  bool          `yaml:"auto_reroute"`
	RerouteDelay time.Duration `yaml:"reroute_delay"`
	ResumeDelay  time.Duration `yaml:"resume_delay"`
}

// ArchiveConfig selects where saved mission profiles live.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Driver  string `yaml:"driver"`
	Path    string `yaml:"path,omitempty"` // sqlite file, empty for in-memory
	DSN     string `yaml:"dsn,omitempty"`  // postgres
}

// ServerConfig controls the live feed and metrics endpoint.
type ServerConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Addr          string `yaml:"addr"`
	WebSocketPath string `yaml:"websocket_path"`
	MetricsPath   string `yaml:"metrics_path"`
}

// LoggingConfig defines console and debrief settings.
type LoggingConfig struct {
	ConsoleLevel      string `yaml:"console_level"`
	EnableDebrief     bool   `yaml:"enable_debrief"`
	DebriefFormat     string `yaml:"debrief_format"`
	DebriefOutputPath string `yaml:"debrief_output_path"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Simulation.Name == "" {
		return fmt.Errorf("simulation name is required")
	}

	if c.Simulation.TickDuration <= 0 {
		return fmt.Errorf("tick duration must be positive")
	}

	if c.Simulation.PlaybackInterval <= 0 {
		return fmt.Errorf("playback interval must be positive")
	}

	if c.Simulation.GroundSpeedKph <= 0 {
		return fmt.Errorf("ground speed must be positive")
	}

	if c.Logistics.Weather < 0 || c.Logistics.Weather > 3 {
		return fmt.Errorf("weather must be between 1 and 3, or 0 for random")
	}

	if c.Pathfinding.Resolution <= 0 {
		return fmt.Errorf("pathfinding resolution must be positive")
	}

	if c.Pathfinding.MaxExpansions <= 0 {
		return fmt.Errorf("pathfinding max expansions must be positive")
	}

	for i, z := range c.Pathfinding.StaticZones {
		if z.Latitude < -90 || z.Latitude > 90 || z.Longitude < -180 || z.Longitude > 180 {
			return fmt.Errorf("static zone %d (%s): coordinates out of range", i, z.Name)
		}
		if z.RadiusKm <= 0 {
			return fmt.Errorf("static zone %d (%s): radius must be positive", i, z.Name)
		}
		if z.Weight < 0 {
			return fmt.Errorf("static zone %d (%s): weight must not be negative", i, z.Name)
		}
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.MinInterval <= 0 || c.Telemetry.MaxInterval < c.Telemetry.MinInterval {
			return fmt.Errorf("telemetry interval range is invalid")
		}
		b := c.Telemetry.Bounds
		if b.MinLat >= b.MaxLat || b.MinLng >= b.MaxLng {
			return fmt.Errorf("telemetry bounds min must be less than max")
		}
	}

	if c.Overwatch.RerouteDelay < 0 || c.Overwatch.ResumeDelay < 0 {
		return fmt.Errorf("overwatch delays must not be negative")
	}

	switch c.Archive.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Archive.Enabled && c.Archive.DSN == "" {
			return fmt.Errorf("postgres archive requires a dsn")
		}
	default:
		return fmt.Errorf("unknown archive driver %q", c.Archive.Driver)
	}

	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("server address is required")
	}

	if !validOption(c.Logging.ConsoleLevel, validLevels) {
		return fmt.Errorf("unknown console level %q", c.Logging.ConsoleLevel)
	}

	if !validOption(c.Logging.DebriefFormat, []string{DebriefJSON, DebriefMarkdown}) {
		return fmt.Errorf("unknown debrief format %q", c.Logging.DebriefFormat)
	}

	return nil
}

// String returns a human-readable representation of the configuration
func (c *Config) String() string {
	weather := "random"
	if c.Logistics.Weather > 0 {
		weather = fmt.Sprintf("%d", c.Logistics.Weather)
	}
	planner := "direct"
	if c.Pathfinding.RiskAware {
		planner = fmt.Sprintf("risk-aware (%.3f°, %d expansions)", c.Pathfinding.Resolution, c.Pathfinding.MaxExpansions)
	}

	return fmt.Sprintf(`Expedition Configuration:
  Name: %s
  Description: %s
  Tick Duration: %v
  Playback Interval: %v
  Ground Speed: %.1f kph

Logistics:
  Weather: %s
  Strict Clamp: %t

Pathfinding:
  Planner: %s
  Static Zones: %d

Telemetry:
  Enabled: %t
  Interval: %v-%v

Overwatch:
  Enabled: %t
  Auto Reroute: %t

Archive:
  Enabled: %t
  Driver: %s

Server:
  Enabled: %t
  Address: %s

Logging:
  Console Level: %s
  Debrief Enabled: %t
  Debrief Format: %s`,
		c.Simulation.Name,
		c.Simulation.Description,
		c.Simulation.TickDuration,
		c.Simulation.PlaybackInterval,
		c.Simulation.GroundSpeedKph,
		weather,
		c.Simulation.StrictClamp,
		planner,
		len(c.Pathfinding.StaticZones),
		c.Telemetry.Enabled,
		c.Telemetry.MinInterval,
		c.Telemetry.MaxInterval,
		c.Overwatch.Enabled,
		c.Overwatch.AutoReroute,
		c.Archive.Enabled,
		c.Archive.Driver,
		c.Server.Enabled,
		c.Server.Addr,
		c.Logging.ConsoleLevel,
		c.Logging.EnableDebrief,
		c.Logging.DebriefFormat,
	)
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Simulation: SimulationSettings{
			Name:             "expedition",
			Description:      "Belize expedition logistics and overwatch simulation",
			TickDuration:     15 * time.Minute,
			PlaybackInterval: 100 * time.Millisecond,
			GroundSpeedKph:   50,
		},

		Pathfinding: PathfindingConfig{
			RiskAware:     true,
			Resolution:    0.01,
			MaxExpansions: 5000,
		},

		Telemetry: TelemetryConfig{
			Enabled:     true,
			MinInterval: 10 * time.Second,
			MaxInterval: 30 * time.Second,
			Bounds: Bounds{
				MinLat: 16.0,
				MaxLat: 18.5,
				MinLng: -89.2,
				MaxLng: -87.4,
			},
		},

		Overwatch: OverwatchConfig{
			Enabled:      true,
			AutoReroute:  true,
			RerouteDelay: 1500 * time.Millisecond,
			ResumeDelay:  time.Second,
		},

		Archive: ArchiveConfig{
			Driver: DriverSQLite,
			Path:   "expedition.db",
		},

		Server: ServerConfig{
			Addr:          ":8090",
			WebSocketPath: "/ws",
			MetricsPath:   "/metrics",
		},

		Logging: LoggingConfig{
			ConsoleLevel:      "info",
			EnableDebrief:     true,
			DebriefFormat:     DebriefMarkdown,
			DebriefOutputPath: "./reports/",
		},
	}
}

func validOption(v string, options []string) bool {
	for _, o := range options {
		if strings.EqualFold(v, o) {
			return true
		}
	}
	return false
}
