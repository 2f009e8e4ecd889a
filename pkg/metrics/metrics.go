// Package metrics exposes mission telemetry as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/picogrid/expedition-sim/pkg/mission"
	"github.com/picogrid/expedition-sim/pkg/models"
)

const namespace = "expedition"

// Collector is a mission.Observer that records every update into its own
// registry. Observer calls are cheap and never block.
type Collector struct {
	registry *prometheus.Registry

	supplies  prometheus.Gauge
	fatigue   prometheus.Gauge
	integrity prometheus.Gauge
	progress  prometheus.Gauge
	latitude  prometheus.Gauge
	longitude prometheus.Gauge
	status    *prometheus.GaugeVec

	ticks       prometheus.Counter
	events      *prometheus.CounterVec
	threats     *prometheus.CounterVec
	reroutes    prometheus.Counter
	completions *prometheus.CounterVec

	waypoints int
}

// NewCollector creates a collector with a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry:  prometheus.NewRegistry(),
		supplies:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "supplies_percent"}),
		fatigue:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "fatigue_percent"}),
		integrity: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "integrity_percent"}),
		progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "route_progress_ratio",
			Help:      "Fraction of route waypoints reached.",
		}),
		latitude:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "latitude"}),
		longitude: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "longitude"}),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "status",
			Help:      "1 for the current mission status, 0 otherwise.",
		}, []string{"status"}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "ticks_total"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
		}, []string{"severity"}),
		threats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threats_total",
		}, []string{"category", "severity"}),
		reroutes: prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "reroutes_total"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
		}, []string{"outcome"}),
	}

	c.registry.MustRegister(
		c.supplies, c.fatigue, c.integrity, c.progress,
		c.latitude, c.longitude, c.status,
		c.ticks, c.events, c.threats, c.reroutes, c.completions,
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// SetRouteLength sets the number of waypoints progress is measured against.
// Call it before the mission starts.
func (c *Collector) SetRouteLength(waypoints int) {
	c.waypoints = waypoints
}

// OnUpdate implements mission.Observer.
func (c *Collector) OnUpdate(state mission.State) {
	c.ticks.Inc()
	c.supplies.Set(state.Supplies)
	c.fatigue.Set(state.Fatigue)
	c.integrity.Set(state.Integrity)
	c.latitude.Set(state.Position.Lat)
	c.longitude.Set(state.Position.Lng)
	c.setStatus(state.Status)
	if c.waypoints > 1 {
		c.progress.Set(float64(state.RouteIndex) / float64(c.waypoints-1))
	}
}

func (c *Collector) OnEvent(event mission.Event) {
	c.events.WithLabelValues(string(event.Severity)).Inc()
}

func (c *Collector) OnComplete(success bool) {
	outcome := "failure"
	status := mission.StatusFailed
	if success {
		outcome = "success"
		status = mission.StatusCompleted
		c.progress.Set(1)
	}
	c.completions.WithLabelValues(outcome).Inc()
	c.setStatus(status)
}

// ObserveThreat counts an accepted threat report.
func (c *Collector) ObserveThreat(t models.Threat) {
	c.threats.WithLabelValues(t.Category, string(t.Severity)).Inc()
}

// ObserveReroute counts an installed reroute.
func (c *Collector) ObserveReroute() {
	c.reroutes.Inc()
}

func (c *Collector) setStatus(current mission.Status) {
	for _, s := range []mission.Status{
		mission.StatusIdle, mission.StatusRunning, mission.StatusPaused,
		mission.StatusCompleted, mission.StatusFailed,
	} {
		v := 0.0
		if s == current {
			v = 1
		}
		c.status.WithLabelValues(s.String()).Set(v)
	}
}
