// Package reconcile implements the settings reconciliation engine.
//
// The engine keeps a control surface host synchronized with a
// configuration store that both the user and external writers mutate.
// User commits are recorded as pending intent and written to the store
// fire-and-forget; store change notifications are debounced, and each
// reconciliation pass compares the store snapshot against the pending
// ledger so stale echoes (writes that predate the user's latest intent)
// never reach the host and the displayed controls never jump backward.
//
// The pending ledger is owned exclusively by the engine. All entry
// points — user commits, bulk operations, debounce firings, teardown —
// serialize on one mutex, giving the single-logical-event-queue behavior
// the design requires even though notifications and timer callbacks
// arrive on other goroutines.
package reconcile

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/settler/internal/debounce"
	"github.com/dshills/settler/internal/descriptor"
	"github.com/dshills/settler/internal/ledger"
	"github.com/dshills/settler/internal/notify"
	"github.com/dshills/settler/internal/store"
	"github.com/dshills/settler/internal/value"
)

// ErrClosed indicates an operation on a closed engine.
var ErrClosed = errors.New("engine closed")

// Host is the control surface the engine pushes display values to.
// Pushes arrive from the debounce timer goroutine, so implementations
// must be safe for concurrent use; the terminal panel marshals them
// onto its event loop. Implementations must not call back into the
// engine from PushValue; a pushed value is not a user-intent event.
type Host interface {
	// PushValue sets a control's displayed value without generating a
	// user commit.
	PushValue(key string, display string)

	// ShowNotice surfaces a transient advisory message to the user.
	ShowNotice(message string)
}

// Engine reconciles store state with the control surface.
type Engine struct {
	mu     sync.Mutex
	table  *descriptor.Table
	ledger *ledger.Ledger
	store  store.Store
	host   Host
	deb    *debounce.Debouncer
	sub    *notify.Subscription
	closed bool

	// pushMu orders host pushes across passes. It is acquired while mu
	// is still held, so an older pass can never emit its snapshot after
	// a newer one. Always mu before pushMu, never the reverse.
	pushMu sync.Mutex
}

// Option configures an Engine.
type Option func(*config)

type config struct {
	quiet time.Duration
	clock debounce.Clock
}

// WithQuietPeriod sets the debounce quiet period.
func WithQuietPeriod(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.quiet = d
		}
	}
}

// WithClock sets the debounce clock. Tests inject a manual clock.
func WithClock(clock debounce.Clock) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New creates an engine over the given descriptor table, store, and
// host. Call Start to subscribe to store changes and populate the host.
func New(table *descriptor.Table, st store.Store, host Host, opts ...Option) *Engine {
	cfg := config{quiet: debounce.DefaultQuietPeriod}
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Engine{
		table:  table,
		ledger: ledger.New(),
		store:  st,
		host:   host,
	}

	debOpts := []debounce.Option{debounce.WithQuietPeriod(cfg.quiet)}
	if cfg.clock != nil {
		debOpts = append(debOpts, debounce.WithClock(cfg.clock))
	}
	e.deb = debounce.New(e.reconcileNow, debOpts...)

	return e
}

// Start subscribes to store changes for the tracked namespaces and runs
// one immediate reconciliation pass so every control shows its current
// value.
func (e *Engine) Start() {
	e.sub = e.store.OnChange(e.table.Namespaces(), func(notify.Change) {
		// Any relevant change, regardless of which key it names, pokes
		// the debouncer; the pass re-reads all tracked keys.
		e.deb.Notify()
	})
	e.reconcileNow()
}

// Close cancels the debounce timer and unsubscribes from the store. A
// pass that would fire after Close never reaches the host. Close is
// idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.deb.Cancel()
	e.sub.Unsubscribe()
}

// OnUserCommit handles a finalized user change from the host (control
// release, blur, or selection — not intermediate drag ticks). The raw
// value is coerced per the descriptor, recorded as pending intent, and
// written to the store fire-and-forget. A rejected write leaves the
// pending entry in place so a manual re-commit can retry; there is no
// automatic retry.
func (e *Engine) OnUserCommit(key string, raw any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	d, ok := e.table.Describe(key)
	if !ok {
		return fmt.Errorf("%w: %s", descriptor.ErrNotFound, key)
	}

	v, err := value.Coerce(raw, d.Kind)
	if err != nil {
		e.host.ShowNotice(fmt.Sprintf("Invalid value for %s", d.Label))
		return err
	}
	if err := d.Validate(v); err != nil {
		e.host.ShowNotice(fmt.Sprintf("Invalid value for %s", d.Label))
		return err
	}

	e.ledger.RecordIntent(key, v)

	if err := e.store.Update(key, v.Interface()); err != nil {
		// Pending entry stays; the store may accept a re-commit later.
		e.host.ShowNotice(fmt.Sprintf("Failed to update %s", d.Label))
		return err
	}
	return nil
}

// PendingCount returns the number of unresolved pending entries.
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Len()
}

// reconcileNow takes a fresh snapshot of every tracked key and runs one
// reconciliation pass. It is the debouncer's callback and also runs once
// on Start.
func (e *Engine) reconcileNow() {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()
		return
	}

	type push struct {
		key     string
		display string
	}
	var pushes []push

	for _, key := range e.table.Keys() {
		d, ok := e.table.Describe(key)
		if !ok {
			continue
		}

		raw, _ := e.store.Get(key)
		v, err := value.Coerce(raw, d.Kind)
		if err != nil {
			// Malformed store value: skip for this pass only. The store
			// is the authority on validity; nothing is written back.
			continue
		}

		if e.ledger.IsStale(key, v) {
			// The store has not caught up to the user's latest intent;
			// pushing this value would make the control jump backward.
			continue
		}

		e.ledger.Resolve(key, v)
		pushes = append(pushes, push{key: key, display: d.Display(v)})
	}

	// Taking pushMu before releasing mu pins emission order to snapshot
	// order; host updates still happen outside the state lock.
	e.pushMu.Lock()
	e.mu.Unlock()

	for _, p := range pushes {
		e.host.PushValue(p.key, p.display)
	}
	e.pushMu.Unlock()
}
