package panel

import "sync"

// Registry tracks open panels by name so that requesting a panel that
// already exists hands back the existing instance instead of spawning a
// duplicate.
type Registry struct {
	mu     sync.Mutex
	panels map[string]*Panel
}

// NewRegistry creates an empty panel registry.
func NewRegistry() *Registry {
	return &Registry{panels: make(map[string]*Panel)}
}

// Acquire returns the panel registered under name, creating it with the
// factory only when no instance exists. It reports whether the panel was
// created on this call.
func (r *Registry) Acquire(name string, create func() (*Panel, error)) (*Panel, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.panels[name]; ok {
		return p, false, nil
	}
	p, err := create()
	if err != nil {
		return nil, false, err
	}
	r.panels[name] = p
	return p, true, nil
}

// Release removes a panel from the registry. A later Acquire for the
// same name creates a fresh instance.
func (r *Registry) Release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.panels, name)
}

// Len returns the number of registered panels.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.panels)
}
