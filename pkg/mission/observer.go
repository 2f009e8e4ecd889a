package mission

import (
	"sync"
	"time"
)

// Severity grades mission events.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeveritySuccess  Severity = "success"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Event is a log-worthy occurrence during a mission.
type Event struct {
	// Time is simulated time.
	Time     time.Time `json:"time"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
}

// Observer receives everything a Simulator emits. Calls happen on the
// goroutine driving the simulator and must not block or call back into it.
type Observer interface {
	OnUpdate(state State)
	OnEvent(event Event)
	OnComplete(success bool)
}

// Observers fans out to several observers in order.
type Observers []Observer

func (o Observers) OnUpdate(state State) {
	for _, obs := range o {
		obs.OnUpdate(state)
	}
}

func (o Observers) OnEvent(event Event) {
	for _, obs := range o {
		obs.OnEvent(event)
	}
}

func (o Observers) OnComplete(success bool) {
	for _, obs := range o {
		obs.OnComplete(success)
	}
}

// ObserverFuncs adapts plain functions. Nil fields are skipped.
type ObserverFuncs struct {
	Update   func(State)
	Event    func(Event)
	Complete func(bool)
}

func (f ObserverFuncs) OnUpdate(state State) {
	if f.Update != nil {
		f.Update(state)
	}
}

func (f ObserverFuncs) OnEvent(event Event) {
	if f.Event != nil {
		f.Event(event)
	}
}

func (f ObserverFuncs) OnComplete(success bool) {
	if f.Complete != nil {
		f.Complete(success)
	}
}

// Recorder keeps every emission. It is safe to read from another goroutine.
type Recorder struct {
	mu          sync.Mutex
	updates     []State
	events      []Event
	completions []bool
}

func (r *Recorder) OnUpdate(state State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, state)
}

func (r *Recorder) OnEvent(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) OnComplete(success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completions = append(r.completions, success)
}

// Updates returns the recorded snapshots.
func (r *Recorder) Updates() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.updates...)
}

// Events returns the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Completions returns the recorded completion outcomes.
func (r *Recorder) Completions() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.completions...)
}

// Messages returns the recorded event messages.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := make([]string, len(r.events))
	for i, e := range r.events {
		msgs[i] = e.Message
	}
	return msgs
}
