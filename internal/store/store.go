// Package store defines the configuration store contract consumed by the
// reconciliation engine, plus an in-memory implementation.
//
// A store is an external, shared resource: other processes and direct
// file edits may write to it at any time. The engine never assumes
// exclusive ownership. Writes are fire-and-forget from the caller's
// perspective; completion is observed through the store's change
// notification stream, never through a response handle.
package store

import (
	"sync"

	"github.com/dshills/settler/internal/notify"
)

// Source labels for change notifications.
const (
	// SourcePanel marks writes issued through the settings panel.
	SourcePanel = "panel"

	// SourceExternal marks writes observed from outside the process.
	SourceExternal = "external"
)

// Store is the configuration store contract.
type Store interface {
	// Get returns the raw stored value for a key. The second return is
	// false when the key has no override (absent). Raw values are
	// loosely typed; callers coerce them per their descriptors.
	Get(key string) (any, bool)

	// Update writes a raw value for a key; a nil value clears the
	// override. The write is acknowledged only through the change
	// stream. An error means the write was rejected outright.
	Update(key string, raw any) error

	// OnChange registers an observer scoped to the given top-level
	// namespaces. An empty slice receives every change.
	OnChange(namespaces []string, observer notify.Observer) *notify.Subscription

	// Close releases store resources and stops change delivery.
	Close() error
}

// Memory is an in-memory Store. It backs tests and serves as the default
// store when no settings file is configured.
type Memory struct {
	mu       sync.RWMutex
	values   map[string]any
	notifier *notify.Notifier
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		values:   make(map[string]any),
		notifier: notify.New(),
	}
}

// Get returns the raw value for a key.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.values[key]
	return raw, ok
}

// Update writes a value on behalf of the panel. A nil value clears the
// override.
func (m *Memory) Update(key string, raw any) error {
	m.write(key, raw, SourcePanel)
	return nil
}

// UpdateFrom writes a value with an explicit change source. Tests use it
// to simulate out-of-band writes by another process.
func (m *Memory) UpdateFrom(key string, raw any, source string) {
	m.write(key, raw, source)
}

func (m *Memory) write(key string, raw any, source string) {
	m.mu.Lock()
	t := notify.ChangeSet
	if raw == nil {
		delete(m.values, key)
		t = notify.ChangeClear
	} else {
		m.values[key] = raw
	}
	m.mu.Unlock()

	m.notifier.NotifyKey(key, t, source)
}

// OnChange registers a namespace-scoped observer.
func (m *Memory) OnChange(namespaces []string, observer notify.Observer) *notify.Subscription {
	if len(namespaces) == 0 {
		return m.notifier.Subscribe(observer)
	}
	return m.notifier.SubscribeNamespaces(namespaces, observer)
}

// Close stops change delivery.
func (m *Memory) Close() error {
	m.notifier.Close()
	return nil
}

// Len returns the number of stored overrides.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
