// Package ledger tracks pending user intent per setting key.
//
// When the user commits a change, the committed value is recorded here
// until the store echoes a deep-equal value back. A store notification
// carrying any other value for that key is stale (it reflects a write that
// predates the user's latest intent) and must be suppressed rather than
// displayed, otherwise a rapid drag-then-release on a slider can make the
// control jump backward to an intermediate value.
//
// The ledger is owned exclusively by the reconciliation engine, which
// serializes all access; it performs no locking of its own.
package ledger

import (
	"time"

	"github.com/dshills/settler/internal/value"
)

// Entry records a committed value the store has not yet echoed back.
type Entry struct {
	// Value is the committed value. Absent means "clear the override".
	Value value.Value

	// At is when the intent was recorded.
	At time.Time
}

// Ledger holds at most one pending entry per key. A newer commit for the
// same key overwrites the older one; only the most recent intent matters.
type Ledger struct {
	entries map[string]Entry
	now     func() time.Time
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// RecordIntent records a committed value for a key, overwriting any
// existing pending entry.
func (l *Ledger) RecordIntent(key string, v value.Value) {
	l.entries[key] = Entry{Value: v, At: l.now()}
}

// IsStale reports whether an incoming store value for a key should be
// suppressed: a pending entry exists and the incoming value is not
// structurally equal to the committed value, meaning the store has not
// yet caught up to the user's latest intent.
func (l *Ledger) IsStale(key string, incoming value.Value) bool {
	e, ok := l.entries[key]
	if !ok {
		return false
	}
	return !e.Value.Equal(incoming)
}

// Resolve deletes the pending entry for a key if the incoming value
// matches the committed value (intent fulfilled). A non-matching incoming
// value leaves the entry in place.
func (l *Ledger) Resolve(key string, incoming value.Value) {
	e, ok := l.entries[key]
	if !ok {
		return
	}
	if e.Value.Equal(incoming) {
		delete(l.entries, key)
	}
}

// Pending returns the pending entry for a key, if one exists.
func (l *Ledger) Pending(key string) (Entry, bool) {
	e, ok := l.entries[key]
	return e, ok
}

// Drop removes the pending entry for a key unconditionally.
func (l *Ledger) Drop(key string) {
	delete(l.entries, key)
}

// Len returns the number of pending entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}
