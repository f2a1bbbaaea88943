package reconcile

import (
	"fmt"

	"github.com/dshills/settler/internal/preset"
	"github.com/dshills/settler/internal/value"
)

// ApplyPreset writes every pair of a preset through the normal commit
// path, in order. Each write records a pending entry so the resulting
// store echoes reconcile exactly like manual edits. Applying the same
// preset twice yields the same store contents as applying it once.
//
// Write failures do not stop the remaining pairs; at most one advisory
// notice is shown for the whole operation and the first error is
// returned.
func (e *Engine) ApplyPreset(p preset.Preset) error {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}

	var firstErr error
	for _, pair := range p.Pairs {
		if _, ok := e.table.Describe(pair.Key); !ok {
			// Presets are validated at load time, but a stale file may
			// still name a key this panel no longer manages.
			continue
		}

		e.ledger.RecordIntent(pair.Key, pair.Value)
		if err := e.store.Update(pair.Key, pair.Value.Interface()); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("applying preset %q: %w", p.Name, err)
		}
	}

	e.mu.Unlock()

	if firstErr != nil {
		e.host.ShowNotice(fmt.Sprintf("Failed to apply preset %q", p.Name))
	}
	return firstErr
}

// Reset clears the override for every managed key, recording a pending
// entry with value = absent for each so reconciliation detects
// resolution once the store reports the key as unset. Reset after Reset
// is a no-op from the store's perspective.
func (e *Engine) Reset() error {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}

	var firstErr error
	for _, key := range e.table.Keys() {
		e.ledger.RecordIntent(key, value.Absent)
		if err := e.store.Update(key, nil); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("resetting %s: %w", key, err)
		}
	}

	e.mu.Unlock()

	if firstErr != nil {
		e.host.ShowNotice("Failed to reset settings")
	}
	return firstErr
}
