package expedition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAndParse(t *testing.T) {
	cfg, err := ValidateAndParse(map[string]interface{}{
		"waypoints":         []interface{}{"Xunantunich", "Barton Creek Cave"},
		"gear":              []string{"hiking_boots"},
		"weather":           2,
		"seed":              int64(11),
		"tick_duration":     "30m",
		"playback_interval": 5 * time.Millisecond,
		"telemetry":         false,
		"debrief_format":    "json",
		"log_level":         "warn",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Xunantunich", "Barton Creek Cave"}, cfg.Waypoints)
	assert.Equal(t, []string{"hiking_boots"}, cfg.Gear)
	assert.Equal(t, 2, cfg.Overrides["weather"])
	assert.Equal(t, 11, cfg.Overrides["seed"])
	assert.Equal(t, 30*time.Minute, cfg.Overrides["tick_duration"])
	assert.Equal(t, 5*time.Millisecond, cfg.Overrides["playback_interval"])
	assert.Equal(t, false, cfg.Overrides["telemetry"])
	assert.Equal(t, "json", cfg.Overrides["debrief_format"])
	assert.Equal(t, "warn", cfg.Overrides["log_level"])
	assert.NotContains(t, cfg.Overrides, "risk_aware")
}

func TestValidateAndParseErrors(t *testing.T) {
	two := []string{"Xunantunich", "Caracol"}
	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{"missing waypoints", map[string]interface{}{}},
		{"one waypoint", map[string]interface{}{"waypoints": []string{"Caracol"}}},
		{"waypoints not a list", map[string]interface{}{"waypoints": "Caracol"}},
		{"weather out of range", map[string]interface{}{"waypoints": two, "weather": 4}},
		{"weather not a number", map[string]interface{}{"waypoints": two, "weather": "storm"}},
		{"bad duration", map[string]interface{}{"waypoints": two, "tick_duration": "soon"}},
		{"zero duration", map[string]interface{}{"waypoints": two, "playback_interval": "0s"}},
		{"switch not a bool", map[string]interface{}{"waypoints": two, "serve": "yes"}},
		{"bad debrief format", map[string]interface{}{"waypoints": two, "debrief_format": "pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateAndParse(tt.params)
			assert.Error(t, err)
		})
	}
}
