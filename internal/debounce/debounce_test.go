package debounce

import (
	"testing"
	"time"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateIdle, "idle"},
		{StatePending, "pending"},
		{State(9), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestDebouncer_FiresAfterQuietPeriod(t *testing.T) {
	clock := NewManualClock()
	fired := 0
	db := New(func() { fired++ }, WithClock(clock), WithQuietPeriod(300*time.Millisecond))

	db.Notify()
	if db.State() != StatePending {
		t.Fatalf("state after Notify = %v, want pending", db.State())
	}

	clock.Advance(299 * time.Millisecond)
	if fired != 0 {
		t.Fatal("fired before quiet period elapsed")
	}

	clock.Advance(1 * time.Millisecond)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	if db.State() != StateIdle {
		t.Errorf("state after firing = %v, want idle", db.State())
	}
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	clock := NewManualClock()
	fired := 0
	db := New(func() { fired++ }, WithClock(clock), WithQuietPeriod(300*time.Millisecond))

	// A burst of notifications inside the quiet period re-arms the timer
	// each time; only one firing results.
	for i := 0; i < 5; i++ {
		db.Notify()
		clock.Advance(100 * time.Millisecond)
	}
	if fired != 0 {
		t.Fatalf("fired during burst = %d, want 0", fired)
	}

	clock.Advance(200 * time.Millisecond)
	if fired != 1 {
		t.Fatalf("fired = %d, want exactly 1", fired)
	}
}

func TestDebouncer_TrailingEdgeOnly(t *testing.T) {
	clock := NewManualClock()
	fired := 0
	db := New(func() { fired++ }, WithClock(clock))

	db.Notify()
	// No leading-edge firing.
	if fired != 0 {
		t.Fatal("fired on leading edge")
	}

	clock.Advance(DefaultQuietPeriod)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
}

func TestDebouncer_RefiresAfterIdle(t *testing.T) {
	clock := NewManualClock()
	fired := 0
	db := New(func() { fired++ }, WithClock(clock), WithQuietPeriod(300*time.Millisecond))

	db.Notify()
	clock.Advance(300 * time.Millisecond)
	db.Notify()
	clock.Advance(300 * time.Millisecond)

	if fired != 2 {
		t.Fatalf("fired = %d, want 2 (one per quiet period)", fired)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	clock := NewManualClock()
	fired := 0
	db := New(func() { fired++ }, WithClock(clock), WithQuietPeriod(300*time.Millisecond))

	db.Notify()
	db.Cancel()

	if db.State() != StateIdle {
		t.Errorf("state after Cancel = %v, want idle", db.State())
	}

	clock.Advance(time.Second)
	if fired != 0 {
		t.Fatalf("fired after Cancel = %d, want 0", fired)
	}

	// Cancel when idle is a no-op.
	db.Cancel()
}

func TestDebouncer_NotifyAfterCancel(t *testing.T) {
	clock := NewManualClock()
	fired := 0
	db := New(func() { fired++ }, WithClock(clock), WithQuietPeriod(300*time.Millisecond))

	db.Notify()
	db.Cancel()
	db.Notify()
	clock.Advance(300 * time.Millisecond)

	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
}

// captureClock hands each armed callback to the test instead of
// scheduling it, so the test can interleave an expired timer's callback
// with later notifications.
type captureClock struct {
	fns []func()
}

func (c *captureClock) AfterFunc(_ time.Duration, f func()) Timer {
	c.fns = append(c.fns, f)
	return expiredTimer{}
}

// expiredTimer behaves like a timer that has already gone off: Stop
// reports false because the callback is in flight.
type expiredTimer struct{}

func (expiredTimer) Stop() bool { return false }

func TestDebouncer_ExpiredTimerDoesNotCutQuietPeriodShort(t *testing.T) {
	clock := &captureClock{}
	fired := 0
	db := New(func() { fired++ }, WithClock(clock))

	// First notification arms a timer which expires, but its callback
	// has not run yet when the second notification arrives and re-arms.
	db.Notify()
	db.Notify()
	if len(clock.fns) != 2 {
		t.Fatalf("armed timers = %d, want 2", len(clock.fns))
	}

	// The stale callback finally runs. The second notification's quiet
	// period is still open, so nothing may fire.
	clock.fns[0]()
	if fired != 0 {
		t.Fatalf("stale timer fired the callback %d times", fired)
	}
	if db.State() != StatePending {
		t.Fatalf("state after stale firing = %v, want pending", db.State())
	}

	// The current timer's callback fires exactly once.
	clock.fns[1]()
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	if db.State() != StateIdle {
		t.Errorf("state after firing = %v, want idle", db.State())
	}

	// And the stale callback running again later stays inert.
	clock.fns[0]()
	if fired != 1 {
		t.Fatalf("fired after late stale callback = %d, want 1", fired)
	}
}

func TestManualClock_StopPreventsFiring(t *testing.T) {
	clock := NewManualClock()
	fired := false
	timer := clock.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Error("Stop() = false for unfired timer")
	}
	clock.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
	if timer.Stop() {
		t.Error("second Stop() = true")
	}
}

func TestManualClock_FiresInDeadlineOrder(t *testing.T) {
	clock := NewManualClock()
	var order []int
	clock.AfterFunc(2*time.Second, func() { order = append(order, 2) })
	clock.AfterFunc(1*time.Second, func() { order = append(order, 1) })

	clock.Advance(3 * time.Second)

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("firing order = %v, want [1 2]", order)
	}
}
