package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/picogrid/expedition-sim/pkg/logger"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EXPEDITION_"

// Load loads configuration from a YAML file. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads config from path or a well-known location, falling
// back to Default. Environment overrides are always applied.
func LoadOrDefault(path string) (*Config, error) {
	var cfg *Config
	var err error

	if path != "" {
		cfg, err = Load(path)
		if err != nil {
			logger.Warnf("Could not load config from %s: %v", path, err)
			cfg = nil
		}
	}

	if cfg == nil {
		defaultPaths := []string{
			"expedition.yaml",
			"config.yaml",
			filepath.Join("cmd", "expedition", "config.yaml"),
		}

		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				cfg, err = Load(p)
				if err == nil {
					logger.Debugf("Loaded config from: %s", p)
					break
				}
			}
		}
	}

	if cfg == nil {
		logger.Debug("Using default configuration")
		cfg = Default()
	}

	MergeWithEnvironment(cfg)

	return cfg, nil
}

// Save validates cfg and writes it as YAML.
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// MergeWithOverrides applies parameter overrides, typically collected from
// CLI prompts, to cfg. Values of the wrong type or out of range are ignored.
func MergeWithOverrides(cfg *Config, overrides map[string]interface{}) {
	for key, value := range overrides {
		switch key {
		case "tick_duration":
			if d, ok := value.(time.Duration); ok && d > 0 {
				cfg.Simulation.TickDuration = d
			}
		case "playback_interval":
			if d, ok := value.(time.Duration); ok && d > 0 {
				cfg.Simulation.PlaybackInterval = d
			}
		case "ground_speed_kph":
			if v, ok := value.(float64); ok && v > 0 {
				cfg.Simulation.GroundSpeedKph = v
			}
		case "strict_clamp":
			if v, ok := value.(bool); ok {
				cfg.Simulation.StrictClamp = v
			}
		case "weather":
			if v, ok := value.(int); ok && v >= 0 && v <= 3 {
				cfg.Logistics.Weather = v
			}
		case "seed":
			switch v := value.(type) {
			case int:
				cfg.Logistics.Seed = int64(v)
			case int64:
				cfg.Logistics.Seed = v
			}
		case "risk_aware":
			if v, ok := value.(bool); ok {
				cfg.Pathfinding.RiskAware = v
			}
		case "telemetry":
			if v, ok := value.(bool); ok {
				cfg.Telemetry.Enabled = v
			}
		case "overwatch":
			if v, ok := value.(bool); ok {
				cfg.Overwatch.Enabled = v
			}
		case "auto_reroute":
			if v, ok := value.(bool); ok {
				cfg.Overwatch.AutoReroute = v
			}
		case "serve":
			if v, ok := value.(bool); ok {
				cfg.Server.Enabled = v
			}
		case "addr":
			if v, ok := value.(string); ok && v != "" {
				cfg.Server.Addr = v
			}
		case "enable_debrief":
			if v, ok := value.(bool); ok {
				cfg.Logging.EnableDebrief = v
			}
		case "debrief_format":
			if v, ok := value.(string); ok && validOption(v, []string{DebriefJSON, DebriefMarkdown}) {
				cfg.Logging.DebriefFormat = strings.ToLower(v)
			}
		case "log_level":
			if v, ok := value.(string); ok && validOption(v, validLevels) {
				cfg.Logging.ConsoleLevel = strings.ToLower(v)
			}
		}
	}
}

// LoadWithOverrides loads config and applies both environment and parameter
// overrides.
func LoadWithOverrides(path string, overrides map[string]interface{}) (*Config, error) {
	cfg, err := LoadOrDefault(path)
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		MergeWithOverrides(cfg, overrides)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed after overrides: %w", err)
	}

	return cfg, nil
}

// MergeWithEnvironment merges config with EXPEDITION_* environment variables.
func MergeWithEnvironment(cfg *Config) {
	if v := env("TICK_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Simulation.TickDuration = d
		}
	}

	if v := env("PLAYBACK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Simulation.PlaybackInterval = d
		}
	}

	if v := env("GROUND_SPEED_KPH"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Simulation.GroundSpeedKph = f
		}
	}

	if v := env("WEATHER"); v != "" {
		if w, err := strconv.Atoi(v); err == nil && w >= 0 && w <= 3 {
			cfg.Logistics.Weather = w
		}
	}

	if v := env("SEED"); v != "" {
		if s, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Logistics.Seed = s
		}
	}

	if v := env("RISK_AWARE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Pathfinding.RiskAware = b
		}
	}

	if v := env("TELEMETRY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Telemetry.Enabled = b
		}
	}

	if v := env("AUTO_REROUTE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Overwatch.AutoReroute = b
		}
	}

	if v := env("ARCHIVE_DRIVER"); v != "" {
		for _, valid := range []string{DriverSQLite, DriverPostgres} {
			if strings.ToLower(v) == valid {
				cfg.Archive.Driver = valid
				break
			}
		}
	}

	if v := env("ARCHIVE_PATH"); v != "" {
		cfg.Archive.Path = v
	}

	if v := env("ARCHIVE_DSN"); v != "" {
		cfg.Archive.DSN = v
	}

	if v := env("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	if v := env("LOG_LEVEL"); v != "" {
		for _, valid := range validLevels {
			if strings.ToLower(v) == valid {
				cfg.Logging.ConsoleLevel = valid
				break
			}
		}
	}

	if v := env("ENABLE_DEBRIEF"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Logging.EnableDebrief = b
		}
	}

	if v := env("DEBRIEF_OUTPUT_PATH"); v != "" {
		cfg.Logging.DebriefOutputPath = v
	}
}

func env(name string) string {
	return os.Getenv(EnvPrefix + name)
}
