package expedition

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picogrid/expedition-sim/cmd/expedition/reporting"
	"github.com/picogrid/expedition-sim/pkg/archive"
	"github.com/picogrid/expedition-sim/pkg/catalog"
	"github.com/picogrid/expedition-sim/pkg/simulation"
)

func newTestExpedition(t *testing.T) *ExpeditionSimulation {
	t.Helper()
	t.Setenv("EXPEDITION_DEBRIEF_OUTPUT_PATH", t.TempDir())
	s := newExpedition(catalog.Default())
	s.out = io.Discard
	return s
}

func fastParams() map[string]interface{} {
	return map[string]interface{}{
		"waypoints":         []string{"Xunantunich", "Barton Creek Cave"},
		"gear":              []string{"hiking_boots"},
		"weather":           1,
		"seed":              3,
		"playback_interval": "1ms",
		"telemetry":         false,
		"debrief_format":    "json",
		"log_level":         "error",
	}
}

func TestRegistered(t *testing.T) {
	sim, err := simulation.DefaultRegistry.Get(Name)
	require.NoError(t, err)
	assert.Equal(t, Name, sim.Name())

	_, ok := sim.(simulation.FileConfigurable)
	assert.True(t, ok)
}

func TestManifestOptions(t *testing.T) {
	s := newExpedition(catalog.Default())
	m := s.Manifest()

	waypoints, ok := m.Parameter("waypoints")
	require.True(t, ok)
	assert.Equal(t, catalog.Default().Names(), waypoints.Options)

	gear, ok := m.Parameter("gear")
	require.True(t, ok)
	assert.Contains(t, gear.Options, "hiking_boots")
	assert.Contains(t, gear.Options, "scuba_kit")
	assert.IsIncreasing(t, gear.Options)
}

func TestConfigureRejectsUnknownWaypoint(t *testing.T) {
	s := newTestExpedition(t)
	params := fastParams()
	params["waypoints"] = []string{"Xunantunich", "Atlantis"}

	err := s.Configure(params)
	assert.ErrorIs(t, err, catalog.ErrUnknownWaypoint)
}

func TestRunRequiresConfigure(t *testing.T) {
	s := newTestExpedition(t)
	assert.Error(t, s.Run(context.Background()))
}

func TestRunToCompletion(t *testing.T) {
	s := newTestExpedition(t)
	require.NoError(t, s.Configure(fastParams()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx))

	summary, ok := s.Summary()
	require.True(t, ok)
	assert.NotEqual(t, reporting.OutcomeInProgress, summary.Outcome)
	assert.Greater(t, summary.Ticks, 0)

	path := s.DebriefPath()
	require.NotEmpty(t, path)
	assert.True(t, strings.HasSuffix(path, ".json"))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestStopAbortsMission(t *testing.T) {
	s := newTestExpedition(t)
	params := fastParams()
	params["playback_interval"] = "1h"
	require.NoError(t, s.Configure(params))

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	summary, ok := s.Summary()
	require.True(t, ok)
	assert.Equal(t, reporting.OutcomeFailure, summary.Outcome)
}

func TestRunArchivesProfile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "archive.db")
	t.Setenv("EXPEDITION_ARCHIVE_PATH", dbPath)

	s := newTestExpedition(t)
	require.NoError(t, s.Configure(fastParams()))
	s.engine.Archive.Enabled = true

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx))

	a, err := archive.Open(archive.Config{Driver: archive.DriverSQLite, Path: dbPath}, nil)
	require.NoError(t, err)
	defer a.Close()

	scenarios, err := a.List()
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.True(t, strings.HasPrefix(scenarios[0].Name, "expedition "))
	assert.Greater(t, scenarios[0].Analysis.DistanceKm, 0.0)
}
