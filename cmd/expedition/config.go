package expedition

import (
	"fmt"
	"time"
)

// Config holds the run parameters for the expedition simulation
type Config struct {
	Waypoints []string
	Gear      []string
	// Overrides are applied on top of the engine configuration.
	Overrides map[string]interface{}
}

// ValidateAndParse validates and parses the raw parameters into a Config
func ValidateAndParse(params map[string]interface{}) (*Config, error) {
	config := &Config{Overrides: make(map[string]interface{})}

	// Parse waypoints
	waypoints, err := stringList(params["waypoints"])
	if err != nil {
		return nil, fmt.Errorf("waypoints: %w", err)
	}
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("at least 2 waypoints are required")
	}
	config.Waypoints = waypoints

	// Parse gear
	if v, ok := params["gear"]; ok && v != nil {
		gear, err := stringList(v)
		if err != nil {
			return nil, fmt.Errorf("gear: %w", err)
		}
		config.Gear = gear
	}

	// Parse weather
	if v, ok := params["weather"]; ok && v != nil {
		w, err := integer(v)
		if err != nil {
			return nil, fmt.Errorf("weather must be an integer")
		}
		if w < 0 || w > 3 {
			return nil, fmt.Errorf("weather must be between 0 and 3")
		}
		config.Overrides["weather"] = w
	}

	// Parse seed
	if v, ok := params["seed"]; ok && v != nil {
		seed, err := integer(v)
		if err != nil {
			return nil, fmt.Errorf("seed must be an integer")
		}
		config.Overrides["seed"] = seed
	}

	// Parse durations
	for _, key := range []string{"tick_duration", "playback_interval"} {
		v, ok := params[key]
		if !ok || v == nil {
			continue
		}
		d, err := duration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("%s must be positive", key)
		}
		config.Overrides[key] = d
	}

	// Parse switches
	for _, key := range []string{"risk_aware", "telemetry", "auto_reroute", "serve"} {
		v, ok := params[key]
		if !ok || v == nil {
			continue
		}
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%s must be a boolean", key)
		}
		config.Overrides[key] = b
	}

	// Parse debrief_format
	if v, ok := params["debrief_format"]; ok && v != nil {
		format := fmt.Sprintf("%v", v)
		if format != "json" && format != "markdown" {
			return nil, fmt.Errorf("debrief_format must be one of: json, markdown")
		}
		config.Overrides["debrief_format"] = format
	}

	// Parse log_level
	if v, ok := params["log_level"]; ok && v != nil {
		config.Overrides["log_level"] = fmt.Sprintf("%v", v)
	}

	return config, nil
}

func stringList(v interface{}) ([]string, error) {
	switch val := v.(type) {
	case []string:
		return val, nil
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("required")
	default:
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
}

func integer(v interface{}) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func duration(v interface{}) (time.Duration, error) {
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		return time.ParseDuration(val)
	default:
		return time.ParseDuration(fmt.Sprintf("%v", v))
	}
}
