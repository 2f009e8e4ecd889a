package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/picogrid/expedition-sim/pkg/logger"
)

// Debrief formats.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// DebriefGenerator builds post-mission debriefs from a MissionLogger.
type DebriefGenerator struct {
	logger *MissionLogger
	config DebriefConfig
	clock  func() time.Time
}

// DebriefConfig configures debrief generation
type DebriefConfig struct {
	OutputDir  string
	Format     string // "json", "markdown"
	Route      []string
	DistanceKm float64
	Weather    int
	Planner    string
}

// Debrief is the post-mission report.
type Debrief struct {
	Metadata        DebriefMetadata  `json:"metadata"`
	Summary         ExecutiveSummary `json:"summary"`
	Route           RouteSummary     `json:"route"`
	Resources       ResourceAnalysis `json:"resources"`
	Threats         ThreatAnalysis   `json:"threats"`
	Timeline        []TimelineEntry  `json:"timeline"`
	Recommendations []Recommendation `json:"recommendations"`
}

// DebriefMetadata contains report metadata
type DebriefMetadata struct {
	MissionID         string    `json:"mission_id"`
	GeneratedAt       time.Time `json:"generated_at"`
	MissionStart      time.Time `json:"mission_start"`
	WallDuration      string    `json:"wall_duration"`
	SimulatedDuration string    `json:"simulated_duration"`
	Ticks             int       `json:"ticks"`
}

// ExecutiveSummary provides high-level overview
type ExecutiveSummary struct {
	Outcome     string   `json:"outcome"`
	TotalEvents int      `json:"total_events"`
	Warnings    int      `json:"warnings"`
	Critical    int      `json:"critical"`
	KeyEvents   []string `json:"key_events"`
}

// RouteSummary describes the planned route and how much of it was covered.
type RouteSummary struct {
	Waypoints  []string `json:"waypoints"`
	Reached    []string `json:"reached"`
	DistanceKm float64  `json:"distance_km"`
	Weather    int      `json:"weather"`
	Planner    string   `json:"planner"`
	Completion float64  `json:"completion"`
}

// ResourceAnalysis compares final and worst resource levels.
type ResourceAnalysis struct {
	Final Resources `json:"final"`
	Worst Resources `json:"worst"`
}

// ThreatAnalysis contains threat report statistics
type ThreatAnalysis struct {
	TotalReports      int            `json:"total_reports"`
	Reroutes          int            `json:"reroutes"`
	ReportsByCategory map[string]int `json:"reports_by_category"`
	ReportsBySeverity map[string]int `json:"reports_by_severity"`
	PeakSeverity      string         `json:"peak_severity"`
}

// TimelineEntry represents an event in the timeline
type TimelineEntry struct {
	ElapsedTime   string `json:"elapsed_time"`
	SimulatedTime string `json:"simulated_time,omitempty"`
	EventType     string `json:"event_type"`
	Severity      string `json:"severity"`
	Description   string `json:"description"`
}

// Recommendation is a follow-up action for the next expedition.
type Recommendation struct {
	Priority    string `json:"priority"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NewDebriefGenerator creates a new debrief generator
func NewDebriefGenerator(ml *MissionLogger, config DebriefConfig) *DebriefGenerator {
	return &DebriefGenerator{
		logger: ml,
		config: config,
		clock:  time.Now,
	}
}

// Generate creates a debrief from everything logged so far.
func (g *DebriefGenerator) Generate() *Debrief {
	summary := g.logger.GetSummary()
	events := g.logger.GetEvents()

	d := &Debrief{
		Metadata: DebriefMetadata{
			MissionID:         summary.MissionID,
			GeneratedAt:       g.clock(),
			MissionStart:      summary.StartTime,
			WallDuration:      summary.Duration.Round(time.Millisecond).String(),
			SimulatedDuration: summary.SimulatedDuration.String(),
			Ticks:             summary.Ticks,
		},
		Resources: ResourceAnalysis{Final: summary.Final, Worst: summary.Extremes},
	}

	d.Summary = g.executiveSummary(events, summary)
	d.Route = g.routeSummary(summary)
	d.Threats = g.analyzeThreats(summary)
	d.Timeline = g.buildTimeline(events, summary.StartTime)
	d.Recommendations = g.recommendations(d)

	return d
}

// Save writes d to the output directory and returns the file path.
func (g *DebriefGenerator) Save(d *Debrief) (string, error) {
	if err := os.MkdirAll(g.config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := d.Metadata.GeneratedAt.Format("20060102_150405")
	filename := fmt.Sprintf("DEBRIEF_%s_%s", shortID(d.Metadata.MissionID), timestamp)

	var (
		path string
		data []byte
		err  error
	)
	switch g.config.Format {
	case FormatJSON:
		path = filepath.Join(g.config.OutputDir, filename+".json")
		data, err = json.MarshalIndent(d, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal debrief: %w", err)
		}
	case FormatMarkdown:
		path = filepath.Join(g.config.OutputDir, filename+".md")
		data = []byte(RenderMarkdown(d))
	default:
		return "", fmt.Errorf("unsupported format: %s", g.config.Format)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write debrief: %w", err)
	}

	logger.Successf("Debrief saved to: %s", path)
	return path, nil
}

// RenderMarkdown renders d as a Markdown document.
func RenderMarkdown(d *Debrief) string {
	var sb strings.Builder

	sb.WriteString("# Mission Debrief\n\n")
	sb.WriteString(fmt.Sprintf("**Mission ID:** %s\n", d.Metadata.MissionID))
	sb.WriteString(fmt.Sprintf("**Generated:** %s\n", d.Metadata.GeneratedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("**Simulated Duration:** %s (%d ticks)\n\n", d.Metadata.SimulatedDuration, d.Metadata.Ticks))

	sb.WriteString("## Executive Summary\n\n")
	sb.WriteString(fmt.Sprintf("**Outcome:** %s\n\n", d.Summary.Outcome))
	sb.WriteString(fmt.Sprintf("**Events:** %d (%d warnings, %d critical)\n\n", d.Summary.TotalEvents, d.Summary.Warnings, d.Summary.Critical))

	if len(d.Summary.KeyEvents) > 0 {
		sb.WriteString("### Key Events\n")
		for _, event := range d.Summary.KeyEvents {
			sb.WriteString(fmt.Sprintf("- %s\n", event))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Route\n\n")
	sb.WriteString(fmt.Sprintf("- **Waypoints:** %s\n", strings.Join(d.Route.Waypoints, " -> ")))
	sb.WriteString(fmt.Sprintf("- **Reached:** %d/%d (%.0f%%)\n", len(d.Route.Reached), len(d.Route.Waypoints), d.Route.Completion*100))
	sb.WriteString(fmt.Sprintf("- **Distance:** %.1f km\n", d.Route.DistanceKm))
	sb.WriteString(fmt.Sprintf("- **Weather:** %d\n", d.Route.Weather))
	sb.WriteString(fmt.Sprintf("- **Planner:** %s\n\n", d.Route.Planner))

	sb.WriteString("## Resources\n\n")
	sb.WriteString("| Resource | Final | Worst |\n|---|---|---|\n")
	sb.WriteString(fmt.Sprintf("| Supplies | %.1f%% | %.1f%% |\n", d.Resources.Final.Supplies, d.Resources.Worst.Supplies))
	sb.WriteString(fmt.Sprintf("| Fatigue | %.1f%% | %.1f%% |\n", d.Resources.Final.Fatigue, d.Resources.Worst.Fatigue))
	sb.WriteString(fmt.Sprintf("| Integrity | %.1f%% | %.1f%% |\n\n", d.Resources.Final.Integrity, d.Resources.Worst.Integrity))

	sb.WriteString("## Threats\n\n")
	sb.WriteString(fmt.Sprintf("- **Reports:** %d\n", d.Threats.TotalReports))
	sb.WriteString(fmt.Sprintf("- **Reroutes:** %d\n", d.Threats.Reroutes))
	if d.Threats.PeakSeverity != "" {
		sb.WriteString(fmt.Sprintf("- **Peak Severity:** %s\n", d.Threats.PeakSeverity))
	}
	sb.WriteString("\n")

	if len(d.Timeline) > 0 {
		sb.WriteString("## Timeline\n\n")
		for _, entry := range d.Timeline {
			sb.WriteString(fmt.Sprintf("- `%s` %s **%s** %s\n", entry.ElapsedTime, entry.SimulatedTime, entry.Severity, entry.Description))
		}
		sb.WriteString("\n")
	}

	if len(d.Recommendations) > 0 {
		sb.WriteString("## Recommendations\n\n")
		for _, rec := range d.Recommendations {
			sb.WriteString(fmt.Sprintf("### %s (%s Priority)\n", rec.Title, rec.Priority))
			sb.WriteString(fmt.Sprintf("%s\n\n", rec.Description))
		}
	}

	return sb.String()
}

func (g *DebriefGenerator) executiveSummary(events []MissionEvent, summary MissionSummary) ExecutiveSummary {
	exec := ExecutiveSummary{
		Outcome:     summary.Outcome,
		TotalEvents: summary.TotalEvents,
		Warnings:    summary.SeverityCounts["warning"],
		Critical:    summary.SeverityCounts["critical"],
		KeyEvents:   make([]string, 0),
	}

	for _, event := range events {
		if event.Type == EventTypeObjective || event.Type == EventTypeReroute || event.Severity == "critical" {
			exec.KeyEvents = append(exec.KeyEvents, event.Message)
		}
	}

	return exec
}

func (g *DebriefGenerator) routeSummary(summary MissionSummary) RouteSummary {
	rs := RouteSummary{
		Waypoints:  g.config.Route,
		Reached:    summary.Objectives,
		DistanceKm: g.config.DistanceKm,
		Weather:    g.config.Weather,
		Planner:    g.config.Planner,
	}
	// The first waypoint is the start and is never "reached".
	if legs := len(g.config.Route) - 1; legs > 0 {
		rs.Completion = float64(len(summary.Objectives)) / float64(legs)
		if rs.Completion > 1 {
			rs.Completion = 1
		}
	}
	return rs
}

func (g *DebriefGenerator) analyzeThreats(summary MissionSummary) ThreatAnalysis {
	ta := ThreatAnalysis{
		TotalReports:      len(summary.Threats),
		Reroutes:          summary.Reroutes,
		ReportsByCategory: make(map[string]int),
		ReportsBySeverity: make(map[string]int),
	}

	levels := map[string]int{"CAUTION": 1, "WARNING": 2, "CRITICAL": 3}
	for _, t := range summary.Threats {
		ta.ReportsByCategory[t.Category]++
		ta.ReportsBySeverity[string(t.Severity)]++
		if levels[string(t.Severity)] > levels[ta.PeakSeverity] {
			ta.PeakSeverity = string(t.Severity)
		}
	}

	return ta
}

func (g *DebriefGenerator) buildTimeline(events []MissionEvent, startTime time.Time) []TimelineEntry {
	sorted := make([]MissionEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	timeline := make([]TimelineEntry, 0, len(sorted))
	for _, event := range sorted {
		entry := TimelineEntry{
			ElapsedTime: formatDuration(event.Timestamp.Sub(startTime)),
			EventType:   event.Type,
			Severity:    event.Severity,
			Description: event.Message,
		}
		if !event.SimulatedTime.IsZero() {
			entry.SimulatedTime = event.SimulatedTime.Format("Jan 2 15:04")
		}
		timeline = append(timeline, entry)
	}
	return timeline
}

func (g *DebriefGenerator) recommendations(d *Debrief) []Recommendation {
	recs := make([]Recommendation, 0)

	if d.Summary.Outcome == OutcomeFailure {
		recs = append(recs, Recommendation{
			Priority:    "High",
			Title:       "Review Mission Plan",
			Description: fmt.Sprintf("The mission ended after reaching %d of %d objectives. Shorten the route or add a resupply stop.", len(d.Route.Reached), max(len(d.Route.Waypoints)-1, 0)),
		})
	}

	if d.Resources.Worst.Integrity < 30 {
		recs = append(recs, Recommendation{
			Priority:    "High",
			Title:       "Vehicle Maintenance",
			Description: fmt.Sprintf("Vehicle integrity fell to %.1f%%. Carry repair kits and avoid rough terrain at night.", d.Resources.Worst.Integrity),
		})
	}

	if d.Resources.Worst.Supplies < 25 {
		recs = append(recs, Recommendation{
			Priority:    "Medium",
			Title:       "Increase Supplies",
			Description: fmt.Sprintf("Supplies dropped to %.1f%%. Plan a resupply point before the final leg.", d.Resources.Worst.Supplies),
		})
	}

	if d.Resources.Worst.Fatigue > 70 {
		recs = append(recs, Recommendation{
			Priority:    "Medium",
			Title:       "Crew Rest",
			Description: fmt.Sprintf("Crew fatigue peaked at %.1f%%. Schedule rest stops on long legs.", d.Resources.Worst.Fatigue),
		})
	}

	if d.Threats.Reroutes > 0 {
		recs = append(recs, Recommendation{
			Priority:    "Low",
			Title:       "Pre-plan Around Known Hazards",
			Description: fmt.Sprintf("Overwatch forced %d reroute(s). Register recurring hazards as static risk zones.", d.Threats.Reroutes),
		})
	}

	return recs
}

func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
