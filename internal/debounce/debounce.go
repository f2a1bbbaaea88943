// Package debounce provides the trailing-edge debouncer that coalesces
// bursts of store change notifications into a single reconciliation pass.
//
// The debouncer is a two-state machine. A notification in Idle arms a
// timer for the quiet period and moves to Pending; any further
// notification while Pending cancels and re-arms the same timer. Only
// when the store stops moving for a full quiet period does the timer
// expire, invoke the callback exactly once, and return to Idle. There is
// deliberately no leading-edge firing.
//
// The clock is injectable so tests run without wall-clock delays.
package debounce

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is the delay after the last notification before the
// callback fires.
const DefaultQuietPeriod = 300 * time.Millisecond

// State is the debouncer's current state.
type State uint8

const (
	// StateIdle means no timer is armed.
	StateIdle State = iota

	// StatePending means a timer is armed and further notifications
	// re-arm it.
	StatePending
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	default:
		return "unknown"
	}
}

// Timer is an armed callback that can be stopped.
type Timer interface {
	// Stop cancels the timer. It reports whether the timer was stopped
	// before firing.
	Stop() bool
}

// Clock schedules callbacks. The standard implementation wraps
// time.AfterFunc; tests substitute a manual clock.
type Clock interface {
	// AfterFunc schedules f to run after d and returns the armed timer.
	AfterFunc(d time.Duration, f func()) Timer
}

// realClock is the wall-clock implementation of Clock.
type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{t: time.AfterFunc(d, f)}
}

type realTimer struct {
	t *time.Timer
}

func (rt realTimer) Stop() bool { return rt.t.Stop() }

// Debouncer coalesces notifications into a single trailing-edge callback.
type Debouncer struct {
	mu    sync.Mutex
	clock Clock
	quiet time.Duration
	state State
	timer Timer
	gen   uint64
	fn    func()
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithQuietPeriod sets the quiet period.
func WithQuietPeriod(d time.Duration) Option {
	return func(db *Debouncer) {
		if d > 0 {
			db.quiet = d
		}
	}
}

// WithClock sets the clock used to arm timers.
func WithClock(c Clock) Option {
	return func(db *Debouncer) {
		if c != nil {
			db.clock = c
		}
	}
}

// New creates a debouncer that invokes fn after each quiet period
// following a burst of notifications.
func New(fn func(), opts ...Option) *Debouncer {
	db := &Debouncer{
		clock: realClock{},
		quiet: DefaultQuietPeriod,
		fn:    fn,
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Notify signals that the store changed. In Idle it arms the timer and
// moves to Pending; in Pending it cancels and re-arms the timer so only
// the last notification in a burst triggers the callback.
func (db *Debouncer) Notify() {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.timer != nil {
		db.timer.Stop()
	}
	// The generation guards against a timer that already expired but has
	// not yet entered fire: Stop reports false for it, and without the
	// check the in-flight fire would run immediately and cut this
	// notification's quiet period short.
	db.gen++
	gen := db.gen
	db.state = StatePending
	db.timer = db.clock.AfterFunc(db.quiet, func() { db.fire(gen) })
}

// Cancel stops any armed timer and returns to Idle without firing. Call
// it on teardown so a late reconciliation pass cannot run against a
// disposed host.
func (db *Debouncer) Cancel() {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}
	db.state = StateIdle
}

// State returns the current state.
func (db *Debouncer) State() State {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state
}

// fire runs on timer expiry: transition to Idle, then invoke the
// callback outside the lock. Only the timer armed by the latest Notify
// may fire; stale timers carry an older generation and return.
func (db *Debouncer) fire(gen uint64) {
	db.mu.Lock()
	if db.state != StatePending || gen != db.gen {
		// Cancelled or superseded after the timer fired but before we
		// acquired the lock; the pass must not run.
		db.mu.Unlock()
		return
	}
	db.state = StateIdle
	db.timer = nil
	fn := db.fn
	db.mu.Unlock()

	if fn != nil {
		fn()
	}
}
