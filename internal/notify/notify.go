// Package notify provides change notification for configuration stores.
//
// Stores publish coarse-grained change events: each event names the
// top-level namespace that changed, not the precise key diff. Subscribers
// scope themselves to the namespaces they track and re-read their keys on
// any relevant event. This matches what real settings backends guarantee;
// per-key notification granularity is never assumed.
package notify

import (
	"strings"
	"sync"
)

// ChangeType represents the type of store change.
type ChangeType int

const (
	// ChangeSet indicates a value was written or updated.
	ChangeSet ChangeType = iota

	// ChangeClear indicates an override was removed.
	ChangeClear

	// ChangeReload indicates the whole store was reloaded out-of-band;
	// every namespace may have changed.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeClear:
		return "clear"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change represents a store change event.
type Change struct {
	// Namespace is the top-level namespace that changed. Empty for
	// reload events, which cover every namespace.
	Namespace string

	// Key is the changed key when the store knows it. Subscribers must
	// not rely on it being populated.
	Key string

	// Type is the type of change.
	Type ChangeType

	// Source identifies where the change came from (e.g. "panel",
	// "external", a file path).
	Source string
}

// Observer is called when a store change occurs.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription. It is safe to call on a nil
// subscription and safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// subscriber pairs an observer with its namespace scope. An empty scope
// receives every change.
type subscriber struct {
	observer   Observer
	namespaces map[string]bool
}

// Notifier manages store change subscriptions.
type Notifier struct {
	mu          sync.RWMutex
	subscribers map[uint64]subscriber
	nextID      uint64
	closed      bool
}

// New creates a new Notifier.
func New() *Notifier {
	return &Notifier{
		subscribers: make(map[uint64]subscriber),
	}
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	return n.add(subscriber{observer: observer})
}

// SubscribeNamespaces registers an observer scoped to the given top-level
// namespaces. The observer also receives reload events, since a reload
// may have touched any namespace.
func (n *Notifier) SubscribeNamespaces(namespaces []string, observer Observer) *Subscription {
	scope := make(map[string]bool, len(namespaces))
	for _, ns := range namespaces {
		scope[ns] = true
	}
	return n.add(subscriber{observer: observer, namespaces: scope})
}

func (n *Notifier) add(sub subscriber) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.subscribers[id] = sub

	return &Subscription{id: id, notifier: n}
}

// Notify delivers a change to all matching observers. Observers run
// synchronously on the calling goroutine, outside the notifier lock.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}

	var observers []Observer
	for _, sub := range n.subscribers {
		if sub.matches(change) {
			observers = append(observers, sub.observer)
		}
	}
	n.mu.RUnlock()

	for _, obs := range observers {
		obs(change)
	}
}

// NotifyKey is a convenience for key-level changes; the namespace is
// derived from the key's prefix before the first dot.
func (n *Notifier) NotifyKey(key string, t ChangeType, source string) {
	n.Notify(Change{
		Namespace: keyNamespace(key),
		Key:       key,
		Type:      t,
		Source:    source,
	})
}

// NotifyReload is a convenience for whole-store reload events.
func (n *Notifier) NotifyReload(source string) {
	n.Notify(Change{Type: ChangeReload, Source: source})
}

// Close shuts down the notifier; further Notify calls are dropped. It is
// safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
}

// unsubscribe removes an observer by ID.
func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subscribers, id)
}

// matches reports whether a change falls inside the subscriber's scope.
func (s subscriber) matches(change Change) bool {
	if len(s.namespaces) == 0 {
		return true
	}
	if change.Type == ChangeReload {
		return true
	}
	return s.namespaces[change.Namespace]
}

// keyNamespace returns the top-level namespace of a dotted key.
func keyNamespace(key string) string {
	if i := strings.IndexByte(key, '.'); i >= 0 {
		return key[:i]
	}
	return key
}
