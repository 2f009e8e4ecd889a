package mission

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLoopStopped is returned when work is submitted to a loop that has exited.
var ErrLoopStopped = errors.New("mission loop stopped")

// Scheduler arranges for the next tick. The simulator calls Schedule after
// every tick it wants followed, and Cancel when it pauses or ends. Whoever
// owns the scheduler is responsible for calling Tick when the delay elapses.
type Scheduler interface {
	Schedule(delay time.Duration)
	Cancel()
}

// ManualScheduler records scheduling requests without any timer. Tests use
// it to step a simulator synchronously.
type ManualScheduler struct {
	pending   bool
	delay     time.Duration
	scheduled int
	cancelled int
}

func (m *ManualScheduler) Schedule(delay time.Duration) {
	m.pending = true
	m.delay = delay
	m.scheduled++
}

func (m *ManualScheduler) Cancel() {
	if m.pending {
		m.cancelled++
	}
	m.pending = false
}

// Pending reports whether a tick is waiting.
func (m *ManualScheduler) Pending() bool { return m.pending }

// Delay is the delay of the most recent Schedule call.
func (m *ManualScheduler) Delay() time.Duration { return m.delay }

// Scheduled counts Schedule calls.
func (m *ManualScheduler) Scheduled() int { return m.scheduled }

// Fire runs tick if one is pending.
func (m *ManualScheduler) Fire(tick func()) bool {
	if !m.pending {
		return false
	}
	m.pending = false
	tick()
	return true
}

// RunPending fires ticks until none is pending or max ticks have run, and
// returns how many ran.
func (m *ManualScheduler) RunPending(tick func(), max int) int {
	n := 0
	for n < max && m.Fire(tick) {
		n++
	}
	return n
}

// Loop is a single-goroutine driver for a simulator. Timer expiry and
// submitted actions are handled one at a time on the goroutine running Run,
// so a tick never interleaves with intel processing or operator commands.
//
// Schedule and Cancel must only be called from that goroutine (which is
// where the simulator calls them), or before Run starts.
type Loop struct {
	actions chan func()
	timer   *time.Timer
	due     <-chan time.Time
	done    chan struct{}
	once    sync.Once
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{
		actions: make(chan func(), 64),
		done:    make(chan struct{}),
	}
}

func (l *Loop) Schedule(delay time.Duration) {
	l.Cancel()
	l.timer = time.NewTimer(delay)
	l.due = l.timer.C
}

func (l *Loop) Cancel() {
	if l.timer != nil {
		l.timer.Stop()
	}
	l.timer = nil
	l.due = nil
}

// Post queues fn without waiting for it to run. It returns false if the loop
// has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.actions <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it. It must not be called from the
// loop goroutine.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.actions <- wrapped:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Run processes timer expiries and actions until ctx is cancelled.
func (l *Loop) Run(ctx context.Context, tick func()) error {
	defer l.once.Do(func() { close(l.done) })

	for {
		select {
		case <-ctx.Done():
			l.Cancel()
			return ctx.Err()
		case fn := <-l.actions:
			fn()
		case <-l.due:
			l.timer = nil
			l.due = nil
			tick()
		}
	}
}
