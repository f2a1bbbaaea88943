// Package jsonfile provides a Store backed by a settings.json file.
//
// Keys map to nested JSON objects through their dotted paths, so
// "preview.fontSize" lives at {"preview": {"fontSize": ...}}. Reads and
// writes go through gjson/sjson over an in-memory copy of the document;
// writes persist with an atomic replace. A polling watcher detects
// out-of-band edits (another process, a direct file edit) and publishes
// the top-level namespaces whose content actually changed.
package jsonfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/settler/internal/notify"
	"github.com/dshills/settler/internal/store"
	"github.com/dshills/settler/internal/store/watcher"
)

// emptyDoc is the document used when the settings file is missing or
// unreadable.
var emptyDoc = []byte("{}")

// Store is a JSON-file-backed configuration store.
type Store struct {
	mu       sync.RWMutex
	path     string
	data     []byte
	notifier *notify.Notifier
	watcher  *watcher.Watcher
}

// Option configures a Store.
type Option func(*options)

type options struct {
	pollInterval time.Duration
	watch        bool
}

// WithPollInterval sets the external-edit polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithWatch enables or disables external-edit watching.
func WithWatch(enable bool) Option {
	return func(o *options) {
		o.watch = enable
	}
}

// Open opens (or prepares to create) the settings file at path. A missing
// file is not an error; it is created on the first write.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{
		pollInterval: watcher.DefaultInterval,
		watch:        true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	s := &Store{
		path:     absPath,
		data:     emptyDoc,
		notifier: notify.New(),
	}

	raw, err := os.ReadFile(absPath)
	switch {
	case err == nil:
		if gjson.ValidBytes(raw) {
			s.data = raw
		} else {
			return nil, fmt.Errorf("settings file %s: invalid JSON", absPath)
		}
	case os.IsNotExist(err):
		// Created lazily on first write.
	default:
		return nil, err
	}

	if o.watch {
		s.watcher = watcher.New(watcher.WithInterval(o.pollInterval))
		if err := s.watcher.Watch(absPath); err != nil {
			return nil, err
		}
		s.watcher.OnChange(s.handleFileEvent)
		s.watcher.Start()
	}

	return s, nil
}

// Path returns the absolute path of the settings file.
func (s *Store) Path() string {
	return s.path
}

// Get returns the raw value at a dotted key. JSON numbers surface as
// float64, matching what callers' coercion expects.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := gjson.GetBytes(s.data, key)
	if !res.Exists() {
		return nil, false
	}
	return res.Value(), true
}

// Update writes a raw value at a dotted key; nil clears the override.
// The document is persisted with an atomic replace, and the store's own
// watcher is told about the write so it is not reported as external.
func (s *Store) Update(key string, raw any) error {
	s.mu.Lock()

	var (
		next []byte
		err  error
		t    notify.ChangeType
	)
	if raw == nil {
		next, err = sjson.DeleteBytes(s.data, key)
		t = notify.ChangeClear
	} else {
		next, err = sjson.SetBytes(s.data, key, raw)
		t = notify.ChangeSet
	}
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("update %s: %w", key, err)
	}

	if bytes.Equal(next, s.data) {
		// Clearing an absent key, or rewriting an identical value:
		// nothing changed from the store's perspective.
		s.mu.Unlock()
		return nil
	}

	if err := s.persist(next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("update %s: %w", key, err)
	}
	s.data = next
	s.mu.Unlock()

	// Observers run outside the lock; they may immediately re-read.
	s.notifier.NotifyKey(key, t, store.SourcePanel)
	return nil
}

// OnChange registers a namespace-scoped observer.
func (s *Store) OnChange(namespaces []string, observer notify.Observer) *notify.Subscription {
	if len(namespaces) == 0 {
		return s.notifier.Subscribe(observer)
	}
	return s.notifier.SubscribeNamespaces(namespaces, observer)
}

// Close stops the watcher and change delivery.
func (s *Store) Close() error {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.notifier.Close()
	return nil
}

// persist writes the document atomically: temp file in the same
// directory, then rename over the target.
func (s *Store) persist(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}

	if s.watcher != nil {
		s.watcher.MarkClean(s.path)
	}
	return nil
}

// handleFileEvent reloads the document after an out-of-band change and
// publishes the namespaces that differ.
func (s *Store) handleFileEvent(event watcher.Event) {
	next := emptyDoc
	if event.Op != watcher.OpRemove {
		raw, err := os.ReadFile(event.Path)
		if err != nil || !gjson.ValidBytes(raw) {
			// Mid-write or malformed content: keep the current document
			// and wait for the next event.
			return
		}
		next = raw
	}

	s.mu.Lock()
	prev := s.data
	s.data = next
	s.mu.Unlock()

	for _, ns := range changedNamespaces(prev, next) {
		s.notifier.Notify(notify.Change{
			Namespace: ns,
			Type:      notify.ChangeSet,
			Source:    store.SourceExternal,
		})
	}
}

// changedNamespaces returns the sorted top-level keys whose raw JSON
// content differs between two documents.
func changedNamespaces(prev, next []byte) []string {
	prevTop := topLevel(prev)
	nextTop := topLevel(next)

	seen := make(map[string]bool)
	var changed []string
	for ns, raw := range prevTop {
		if nextTop[ns] != raw {
			seen[ns] = true
			changed = append(changed, ns)
		}
	}
	for ns := range nextTop {
		if _, ok := prevTop[ns]; !ok && !seen[ns] {
			changed = append(changed, ns)
		}
	}
	sort.Strings(changed)
	return changed
}

// topLevel maps each top-level key to its raw JSON content.
func topLevel(data []byte) map[string]string {
	out := make(map[string]string)
	gjson.ParseBytes(data).ForEach(func(key, val gjson.Result) bool {
		out[key.String()] = val.Raw
		return true
	})
	return out
}
