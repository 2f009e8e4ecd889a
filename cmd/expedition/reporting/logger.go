package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/picogrid/expedition-sim/pkg/logger"
	"github.com/picogrid/expedition-sim/pkg/mission"
	"github.com/picogrid/expedition-sim/pkg/models"
	"github.com/picogrid/expedition-sim/pkg/overwatch"
)

// MissionLogger records everything a mission emits and echoes it to the
// console. It implements mission.Observer.
type MissionLogger struct {
	missionID string
	startTime time.Time
	clock     func() time.Time
	out       io.Writer

	mu         sync.RWMutex
	events     []MissionEvent
	first      *mission.State
	last       *mission.State
	low        Resources
	ticks      int
	objectives []string
	threats    []models.Threat
	reroutes   int
	outcome    string
}

// MissionEvent represents a logged mission event
type MissionEvent struct {
	Timestamp     time.Time              `json:"timestamp"`
	SimulatedTime time.Time              `json:"simulated_time,omitempty"`
	Type          string                 `json:"type"`
	Severity      string                 `json:"severity"`
	Message       string                 `json:"message"`
	Details       map[string]interface{} `json:"details,omitempty"`
}

// Resources is a supplies/fatigue/integrity triple.
type Resources struct {
	Supplies  float64 `json:"supplies"`
	Fatigue   float64 `json:"fatigue"`
	Integrity float64 `json:"integrity"`
}

// EventType constants
const (
	EventTypeMission   = "mission"
	EventTypeObjective = "objective"
	EventTypeThreat    = "threat"
	EventTypeReroute   = "reroute"
	EventTypeSystem    = "system"
)

// Outcomes
const (
	OutcomeInProgress = "IN PROGRESS"
	OutcomeSuccess    = "MISSION ACCOMPLISHED"
	OutcomeFailure    = "MISSION FAILED"
)

const maxEvents = 10000

// Color definitions
var (
	colorInfo     = color.New(color.FgCyan)
	colorSuccess  = color.New(color.FgGreen)
	colorWarning  = color.New(color.FgYellow)
	colorCritical = color.New(color.FgRed, color.Bold)
	colorError    = color.New(color.FgRed)
)

// LoggerOption configures a MissionLogger.
type LoggerOption func(*MissionLogger)

// WithOutput sends console lines to w instead of stdout.
func WithOutput(w io.Writer) LoggerOption {
	return func(l *MissionLogger) { l.out = w }
}

// WithClock replaces the wall clock used to stamp events.
func WithClock(clock func() time.Time) LoggerOption {
	return func(l *MissionLogger) { l.clock = clock }
}

// NewMissionLogger creates a new mission logger
func NewMissionLogger(missionID string, opts ...LoggerOption) *MissionLogger {
	ml := &MissionLogger{
		missionID: missionID,
		clock:     time.Now,
		out:       os.Stdout,
		outcome:   OutcomeInProgress,
		events:    make([]MissionEvent, 0),
	}
	for _, opt := range opts {
		opt(ml)
	}
	ml.startTime = ml.clock()

	ml.logColoredMessage(string(mission.SeverityInfo), "Mission Started",
		fmt.Sprintf("ID: %s | Time: %s", missionID, ml.startTime.Format("15:04:05")))

	return ml
}

// MissionID returns the identifier the logger was created with.
func (ml *MissionLogger) MissionID() string { return ml.missionID }

// OnUpdate tracks resource levels.
func (ml *MissionLogger) OnUpdate(state mission.State) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	s := state
	if ml.first == nil {
		first := state
		ml.first = &first
		ml.low = Resources{Supplies: state.Supplies, Fatigue: state.Fatigue, Integrity: state.Integrity}
	}
	ml.last = &s
	ml.ticks++

	if state.Supplies < ml.low.Supplies {
		ml.low.Supplies = state.Supplies
	}
	if state.Integrity < ml.low.Integrity {
		ml.low.Integrity = state.Integrity
	}
	if state.Fatigue > ml.low.Fatigue {
		ml.low.Fatigue = state.Fatigue
	}
}

// OnEvent logs a mission event.
func (ml *MissionLogger) OnEvent(event mission.Event) {
	eventType := EventTypeMission
	if strings.HasPrefix(event.Message, "Reached Objective: ") {
		eventType = EventTypeObjective
		ml.mu.Lock()
		ml.objectives = append(ml.objectives, strings.TrimPrefix(event.Message, "Reached Objective: "))
		ml.mu.Unlock()
	}

	ml.logEvent(MissionEvent{
		Timestamp:     ml.clock(),
		SimulatedTime: event.Time,
		Type:          eventType,
		Severity:      string(event.Severity),
		Message:       event.Message,
	})

	simTime := ""
	if !event.Time.IsZero() {
		simTime = event.Time.Format("15:04") + " "
	}
	ml.logColoredMessage(string(event.Severity), eventType, simTime+event.Message)
}

// OnComplete records the outcome.
func (ml *MissionLogger) OnComplete(success bool) {
	ml.mu.Lock()
	if success {
		ml.outcome = OutcomeSuccess
	} else {
		ml.outcome = OutcomeFailure
	}
	outcome := ml.outcome
	ml.mu.Unlock()

	severity := mission.SeveritySuccess
	if !success {
		severity = mission.SeverityCritical
	}
	ml.logColoredMessage(string(severity), "Mission Complete", outcome)
}

// LogThreat logs an incoming threat report.
func (ml *MissionLogger) LogThreat(t models.Threat) {
	ml.mu.Lock()
	ml.threats = append(ml.threats, t)
	ml.mu.Unlock()

	ml.logEvent(MissionEvent{
		Timestamp: ml.clock(),
		Type:      EventTypeThreat,
		Severity:  threatSeverity(t.Severity),
		Message:   fmt.Sprintf("%s: %s", t.Category, t.Message),
		Details: map[string]interface{}{
			"id":        t.ID,
			"location":  t.Location.String(),
			"radius_km": t.RadiusKm,
			"weight":    t.RiskWeight,
		},
	})

	ml.logColoredMessage(threatSeverity(t.Severity), "Threat Report",
		fmt.Sprintf("%s | %s | %s r=%.0fkm", t.Category, t.Message, t.Location, t.RadiusKm))
}

// LogReroute logs a reroute request raised by overwatch.
func (ml *MissionLogger) LogReroute(req overwatch.RerouteRequest) {
	ml.mu.Lock()
	ml.reroutes++
	ml.mu.Unlock()

	ml.logEvent(MissionEvent{
		Timestamp: ml.clock(),
		Type:      EventTypeReroute,
		Severity:  string(mission.SeverityWarning),
		Message:   fmt.Sprintf("%s: %s", req.Action, req.Threat.Message),
		Details: map[string]interface{}{
			"threat_id": req.Threat.ID,
		},
	})

	ml.logColoredMessage(string(mission.SeverityWarning), "Reroute", string(req.Action))
}

// LogError logs an error event
func (ml *MissionLogger) LogError(message string, err error) {
	ml.logEvent(MissionEvent{
		Timestamp: ml.clock(),
		Type:      EventTypeSystem,
		Severity:  "error",
		Message:   message,
		Details: map[string]interface{}{
			"error": err.Error(),
		},
	})

	logger.Errorf("%s: %v", message, err)
}

// GetEvents returns all logged events
func (ml *MissionLogger) GetEvents() []MissionEvent {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	events := make([]MissionEvent, len(ml.events))
	copy(events, ml.events)
	return events
}

// MissionSummary represents a summary of the mission
type MissionSummary struct {
	MissionID         string
	StartTime         time.Time
	Duration          time.Duration
	SimulatedDuration time.Duration
	Ticks             int
	TotalEvents       int
	EventCounts       map[string]int
	SeverityCounts    map[string]int
	Outcome           string
	Final             Resources
	Extremes          Resources
	Objectives        []string
	Threats           []models.Threat
	Reroutes          int
}

// GetSummary returns a mission summary
func (ml *MissionLogger) GetSummary() MissionSummary {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	summary := MissionSummary{
		MissionID:      ml.missionID,
		StartTime:      ml.startTime,
		Duration:       ml.clock().Sub(ml.startTime),
		Ticks:          ml.ticks,
		TotalEvents:    len(ml.events),
		EventCounts:    make(map[string]int),
		SeverityCounts: make(map[string]int),
		Outcome:        ml.outcome,
		Extremes:       ml.low,
		Objectives:     append([]string(nil), ml.objectives...),
		Threats:        append([]models.Threat(nil), ml.threats...),
		Reroutes:       ml.reroutes,
	}

	for _, event := range ml.events {
		summary.EventCounts[event.Type]++
		summary.SeverityCounts[event.Severity]++
	}

	if ml.last != nil {
		summary.Final = Resources{Supplies: ml.last.Supplies, Fatigue: ml.last.Fatigue, Integrity: ml.last.Integrity}
	}
	if ml.first != nil && ml.last != nil {
		summary.SimulatedDuration = ml.last.SimulatedTime.Sub(ml.first.SimulatedTime)
	}

	return summary
}

// logEvent adds an event to the log
func (ml *MissionLogger) logEvent(event MissionEvent) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	ml.events = append(ml.events, event)

	if len(ml.events) > maxEvents {
		ml.events = ml.events[len(ml.events)-maxEvents:]
	}
}

// logColoredMessage logs a message with color based on severity
func (ml *MissionLogger) logColoredMessage(severity, eventType, message string) {
	timestamp := ml.clock().Format("15:04:05.000")

	_, _ = fmt.Fprintf(ml.out, "[%s] %s %s | %s\n",
		timestamp,
		severityColor(severity).Sprint(fmt.Sprintf("%-8s", severity)),
		eventType,
		message)
}

// PrintSummary prints a formatted summary
func (ml *MissionLogger) PrintSummary() {
	summary := ml.GetSummary()
	w := ml.out

	header := colorSuccess
	if summary.Outcome == OutcomeFailure {
		header = colorCritical
	}

	_, _ = header.Fprintln(w, "\n================================================================")
	_, _ = header.Fprintf(w, "  MISSION SUMMARY - %s - %s\n", shortID(summary.MissionID), summary.Outcome)
	_, _ = header.Fprintln(w, "================================================================")

	_, _ = fmt.Fprintf(w, "\nWall time: %v | Simulated: %v | Ticks: %d | Events: %d\n",
		summary.Duration.Round(time.Millisecond), summary.SimulatedDuration, summary.Ticks, summary.TotalEvents)

	_, _ = fmt.Fprintf(w, "\nResources (final / worst):\n")
	_, _ = fmt.Fprintf(w, "   %-12s %s %6.1f%% / %6.1f%%\n", "Supplies", logger.Gauge(summary.Final.Supplies, 100, 20), summary.Final.Supplies, summary.Extremes.Supplies)
	_, _ = fmt.Fprintf(w, "   %-12s %s %6.1f%% / %6.1f%%\n", "Fatigue", logger.Gauge(summary.Final.Fatigue, 100, 20), summary.Final.Fatigue, summary.Extremes.Fatigue)
	_, _ = fmt.Fprintf(w, "   %-12s %s %6.1f%% / %6.1f%%\n", "Integrity", logger.Gauge(summary.Final.Integrity, 100, 20), summary.Final.Integrity, summary.Extremes.Integrity)

	if len(summary.Objectives) > 0 {
		_, _ = fmt.Fprintf(w, "\nObjectives reached: %s\n", strings.Join(summary.Objectives, " -> "))
	}

	_, _ = fmt.Fprintf(w, "Threat reports: %d | Reroutes: %d\n", len(summary.Threats), summary.Reroutes)

	_, _ = header.Fprintln(w, "================================================================")
}

func severityColor(severity string) *color.Color {
	switch severity {
	case string(mission.SeveritySuccess):
		return colorSuccess
	case string(mission.SeverityWarning):
		return colorWarning
	case string(mission.SeverityCritical):
		return colorCritical
	case "error":
		return colorError
	default:
		return colorInfo
	}
}

func threatSeverity(s models.ThreatSeverity) string {
	switch s {
	case models.ThreatCritical:
		return string(mission.SeverityCritical)
	case models.ThreatWarning:
		return string(mission.SeverityWarning)
	default:
		return string(mission.SeverityInfo)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
