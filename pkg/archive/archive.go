// Package archive stores analysed mission profiles so operators can compare
// plans across sessions.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/picogrid/expedition-sim/pkg/logger"
	"github.com/picogrid/expedition-sim/pkg/logistics"
	"github.com/picogrid/expedition-sim/pkg/models"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	ErrNotFound        = errors.New("scenario not found")
	ErrInvalidScenario = errors.New("invalid scenario")
)

// Config selects the database. An empty SQLite path keeps the archive in
// memory for the life of the process.
type Config struct {
	Driver string `yaml:"driver" json:"driver"`
	Path   string `yaml:"path" json:"path"`
	DSN    string `yaml:"dsn" json:"dsn"`
}

// Analysis is the decision-support summary computed when a scenario is saved.
type Analysis struct {
	DistanceKm         float64 `json:"distance_km"`
	DurationHours      float64 `json:"duration_hours"`
	RiskScore          int     `json:"risk_score"`
	RiskLabel          string  `json:"risk_label" gorm:"size:16"`
	RiskColor          string  `json:"risk_color" gorm:"size:16"`
	PredictedSupplies  float64 `json:"predicted_supplies"`
	PredictedFatigue   float64 `json:"predicted_fatigue"`
	PredictedIntegrity float64 `json:"predicted_integrity"`
}

// Scenario is a saved mission profile.
type Scenario struct {
	ID        string         `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
	Name      string         `json:"name" gorm:"size:255;not null"`
	Waypoints datatypes.JSON `json:"waypoints"`
	Gear      datatypes.JSON `json:"gear"`
	Analysis  Analysis       `json:"analysis" gorm:"embedded;embeddedPrefix:analysis_"`
}

// Route decodes the stored waypoints.
func (s Scenario) Route() (models.Route, error) {
	var route models.Route
	if err := json.Unmarshal(s.Waypoints, &route); err != nil {
		return nil, fmt.Errorf("decode waypoints: %w", err)
	}
	return route, nil
}

// GearList decodes the stored loadout.
func (s Scenario) GearList() ([]string, error) {
	gear := []string{}
	if len(s.Gear) == 0 {
		return gear, nil
	}
	if err := json.Unmarshal(s.Gear, &gear); err != nil {
		return nil, fmt.Errorf("decode gear: %w", err)
	}
	return gear, nil
}

// Archive is safe for concurrent use to the extent gorm is.
type Archive struct {
	db    *gorm.DB
	model *logistics.Model
	clock func() time.Time
	log   logger.Logger
}

type Option func(*Archive)

func WithClock(clock func() time.Time) Option {
	return func(a *Archive) {
		if clock != nil {
			a.clock = clock
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(a *Archive) {
		if l != nil {
			a.log = l
		}
	}
}

// Open connects to the configured database and migrates the schema. model
// supplies the weather factor used for analysis.
func Open(cfg Config, model *logistics.Model, opts ...Option) (*Archive, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	return New(db, model, opts...)
}

func openDB(cfg Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	}

	switch strings.ToLower(cfg.Driver) {
	case "", DriverSQLite:
		path := cfg.Path
		memory := path == "" || path == ":memory:"
		if memory {
			path = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
		}
		db, err := gorm.Open(sqlite.Open(path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite archive: %w", err)
		}
		if memory {
			// The in-memory database lives as long as one connection does.
			sqlDB, err := db.DB()
			if err != nil {
				return nil, fmt.Errorf("failed to access sql interface: %w", err)
			}
			sqlDB.SetMaxOpenConns(1)
		}
		return db, nil

	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres archive requires a dsn")
		}
		db, err := gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		}), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres archive: %w", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported archive driver %q", cfg.Driver)
	}
}

// New wraps an open database.
func New(db *gorm.DB, model *logistics.Model, opts ...Option) (*Archive, error) {
	if model == nil {
		model = logistics.New()
	}
	a := &Archive{
		db:    db,
		model: model,
		clock: time.Now,
		log:   logger.WithPrefix("archive"),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := db.AutoMigrate(&Scenario{}); err != nil {
		return nil, fmt.Errorf("failed to migrate archive schema: %w", err)
	}
	a.log.WithField("driver", db.Dialector.Name()).Debug("Archive ready")
	return a, nil
}

// Analyze computes the summary Save would store, without saving.
func (a *Archive) Analyze(route models.Route, distanceKm float64) Analysis {
	if distanceKm <= 0 {
		distanceKm = logistics.RouteDistance(route)
	}
	risk := a.model.AssessRisk(route)
	cost := a.model.EstimateMissionCost(route, distanceKm)
	return Analysis{
		DistanceKm:         distanceKm,
		DurationHours:      a.model.DurationHours(route, distanceKm),
		RiskScore:          risk.Score,
		RiskLabel:          string(risk.Label),
		RiskColor:          risk.Color,
		PredictedSupplies:  cost.Supplies,
		PredictedFatigue:   cost.Fatigue,
		PredictedIntegrity: cost.Integrity,
	}
}

// Save analyses and stores a mission profile. A non-positive distanceKm is
// replaced by the straight-line route length.
func (a *Archive) Save(name string, route models.Route, gear []string, distanceKm float64) (*Scenario, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidScenario)
	}
	if len(route) < 2 {
		return nil, fmt.Errorf("%w: at least two waypoints are required", ErrInvalidScenario)
	}

	waypoints, err := json.Marshal(route)
	if err != nil {
		return nil, fmt.Errorf("encode waypoints: %w", err)
	}
	if gear == nil {
		gear = []string{}
	}
	gearJSON, err := json.Marshal(gear)
	if err != nil {
		return nil, fmt.Errorf("encode gear: %w", err)
	}

	s := &Scenario{
		ID:        uuid.NewString(),
		CreatedAt: a.clock(),
		Name:      name,
		Waypoints: datatypes.JSON(waypoints),
		Gear:      datatypes.JSON(gearJSON),
		Analysis:  a.Analyze(route, distanceKm),
	}
	if err := a.db.Create(s).Error; err != nil {
		return nil, fmt.Errorf("failed to save scenario: %w", err)
	}

	a.log.WithFields(map[string]interface{}{
		"id":   s.ID,
		"risk": s.Analysis.RiskLabel,
	}).Infof("Saved scenario %q", s.Name)
	return s, nil
}

// List returns every scenario, newest first.
func (a *Archive) List() ([]Scenario, error) {
	var out []Scenario
	if err := a.db.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	return out, nil
}

// Get returns a scenario by ID.
func (a *Archive) Get(id string) (*Scenario, error) {
	var s Scenario
	err := a.db.Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario: %w", err)
	}
	return &s, nil
}

// Delete removes a scenario.
func (a *Archive) Delete(id string) error {
	res := a.db.Where("id = ?", id).Delete(&Scenario{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete scenario: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close releases the database connection.
func (a *Archive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
