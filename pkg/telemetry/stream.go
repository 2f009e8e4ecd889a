// Package telemetry simulates the tactical data link that feeds threat
// reports to the command post.
package telemetry

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/picogrid/expedition-sim/pkg/geo"
	"github.com/picogrid/expedition-sim/pkg/logger"
	"github.com/picogrid/expedition-sim/pkg/models"
)

const (
	DefaultMinInterval = 10 * time.Second
	DefaultMaxInterval = 30 * time.Second
)

// Bounds is the box threat locations are drawn from.
type Bounds struct {
	MinLat float64 `yaml:"min_lat" json:"min_lat"`
	MaxLat float64 `yaml:"max_lat" json:"max_lat"`
	MinLng float64 `yaml:"min_lng" json:"min_lng"`
	MaxLng float64 `yaml:"max_lng" json:"max_lng"`
}

// Belize covers the mainland and the barrier reef.
var Belize = Bounds{MinLat: 16.0, MaxLat: 18.5, MinLng: -89.2, MaxLng: -87.4}

// Template is a kind of report the link can produce.
type Template struct {
	Category string
	Severity models.ThreatSeverity
	Message  string
}

var Templates = []Template{
	{Category: "WEATHER", Severity: models.ThreatWarning, Message: "Flash Flood Warning"},
	{Category: "TRAFFIC", Severity: models.ThreatCaution, Message: "Road Obstruction"},
	{Category: "INTEL", Severity: models.ThreatCritical, Message: "High-Value Target Activity"},
	{Category: "ENV", Severity: models.ThreatWarning, Message: "Seismic Tremor Detected"},
}

// Stream emits a random threat every MinInterval..MaxInterval while
// connected. Subscribers are called on the stream's goroutine.
type Stream struct {
	mu          sync.Mutex
	rng         *rand.Rand
	bounds      Bounds
	minInterval time.Duration
	maxInterval time.Duration
	clock       func() time.Time
	log         logger.Logger

	subs   map[int]func(models.Threat)
	nextID int
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Stream)

func WithBounds(b Bounds) Option {
	return func(s *Stream) { s.bounds = b }
}

// WithInterval sets the range the delay between reports is drawn from.
func WithInterval(min, max time.Duration) Option {
	return func(s *Stream) {
		if min <= 0 || max < min {
			return
		}
		s.minInterval = min
		s.maxInterval = max
	}
}

// WithSeed makes reports, including their IDs, reproducible.
func WithSeed(seed int64) Option {
	return func(s *Stream) { s.rng = rand.New(rand.NewSource(seed)) }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Stream) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(s *Stream) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStream creates a disconnected stream.
func NewStream(opts ...Option) *Stream {
	s := &Stream{
		bounds:      Belize,
		minInterval: DefaultMinInterval,
		maxInterval: DefaultMaxInterval,
		clock:       time.Now,
		log:         logger.WithPrefix("telemetry"),
		subs:        make(map[int]func(models.Threat)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Subscribe registers fn and returns a function that removes it.
func (s *Stream) Subscribe(fn func(models.Threat)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Connected reports whether the link is up.
func (s *Stream) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Connect starts emitting reports until ctx is done or Disconnect is called.
// Connecting an already connected stream does nothing.
func (s *Stream) Connect(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)

	s.log.Info("Link established")
}

// Disconnect stops the stream and waits for its goroutine to exit.
func (s *Stream) Disconnect() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info("Link terminated")
}

func (s *Stream) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		timer := time.NewTimer(s.nextDelay())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.Emit(s.Generate())
		}
	}
}

func (s *Stream) nextDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	span := s.maxInterval - s.minInterval
	if span <= 0 {
		return s.minInterval
	}
	return s.minInterval + time.Duration(s.rng.Int63n(int64(span)))
}

// Generate draws a random report without emitting it.
func (s *Stream) Generate() models.Threat {
	s.mu.Lock()
	defer s.mu.Unlock()

	tpl := Templates[s.rng.Intn(len(Templates))]
	lat := s.bounds.MinLat + s.rng.Float64()*(s.bounds.MaxLat-s.bounds.MinLat)
	lng := s.bounds.MinLng + s.rng.Float64()*(s.bounds.MaxLng-s.bounds.MinLng)

	id, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		id = uuid.New()
	}

	return models.Threat{
		ID:         id.String(),
		Timestamp:  s.clock(),
		Category:   tpl.Category,
		Severity:   tpl.Severity,
		Message:    tpl.Message,
		Location:   geo.Coordinate{Lat: lat, Lng: lng},
		RadiusKm:   float64(5 + s.rng.Intn(15)),
		RiskWeight: float64(20 + s.rng.Intn(50)),
	}
}

// Emit delivers threat to every subscriber in subscription order.
func (s *Stream) Emit(threat models.Threat) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(models.Threat), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, s.subs[id])
	}
	s.mu.Unlock()

	s.log.WithFields(map[string]interface{}{
		"category": threat.Category,
		"severity": threat.Severity,
	}).Debug(threat.Message)

	for _, fn := range subs {
		fn(threat)
	}
}
