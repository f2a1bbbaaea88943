package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// collectEvents drains events from a watcher into a slice.
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) handler(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *collector) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// waitFor polls until cond returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpWrite, "write"},
		{OpCreate, "create"},
		{OpRemove, "remove"},
		{Operation(9), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Operation(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestWatcher_DetectsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	w := New(WithInterval(10 * time.Millisecond))
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	var c collector
	w.OnChange(c.handler)
	w.Start()
	defer w.Stop()

	// Backdate then rewrite so the modtime definitely moves.
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		for _, e := range c.snapshot() {
			if e.Op == OpWrite && e.Path == path {
				return true
			}
		}
		return false
	})
}

func TestWatcher_DetectsCreateAndRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	w := New(WithInterval(10 * time.Millisecond))
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() on missing file error = %v", err)
	}

	var c collector
	w.OnChange(c.handler)
	w.Start()
	defer w.Stop()

	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		for _, e := range c.snapshot() {
			if e.Op == OpCreate {
				return true
			}
		}
		return false
	})

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		for _, e := range c.snapshot() {
			if e.Op == OpRemove {
				return true
			}
		}
		return false
	})
}

func TestWatcher_MarkClean(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	w := New(WithInterval(10 * time.Millisecond))
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}

	var c collector
	w.OnChange(c.handler)

	// A self-inflicted write followed by MarkClean must not be reported.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
	w.MarkClean(path)

	w.Start()
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	if events := c.snapshot(); len(events) != 0 {
		t.Errorf("received %d events after MarkClean, want 0", len(events))
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w := New(WithInterval(10 * time.Millisecond))

	if w.IsRunning() {
		t.Error("new watcher reports running")
	}
	w.Start()
	if !w.IsRunning() {
		t.Error("started watcher reports not running")
	}
	w.Start() // second Start is a no-op
	w.Stop()
	if w.IsRunning() {
		t.Error("stopped watcher reports running")
	}
	w.Stop() // second Stop is a no-op
}

func TestWatcher_Unwatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	w := New(WithInterval(10 * time.Millisecond))
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}
	if err := w.Unwatch(path); err != nil {
		t.Fatal(err)
	}

	var c collector
	w.OnChange(c.handler)
	w.Start()
	defer w.Stop()

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatal(err)
	}

	time.Sleep(100 * time.Millisecond)
	if events := c.snapshot(); len(events) != 0 {
		t.Errorf("received %d events for unwatched file, want 0", len(events))
	}
}

func TestWatcher_HandlerPanicRecovered(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	w := New(WithInterval(10 * time.Millisecond))
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}

	var c collector
	w.OnChange(func(Event) { panic("boom") })
	w.OnChange(c.handler)
	w.Start()
	defer w.Stop()

	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	// The panicking handler must not prevent later handlers or kill the
	// poll goroutine.
	waitFor(t, func() bool { return len(c.snapshot()) > 0 })
	if !w.IsRunning() {
		t.Error("watcher died after handler panic")
	}
}
