package keymap

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the named keymaps. Several names may refer to the same
// keymap.
type Registry struct {
	mu      sync.RWMutex
	keymaps map[string]*Keymap
	fixed   map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		keymaps: make(map[string]*Keymap),
		fixed:   make(map[string]bool),
	}
}

// Register adds km under its own name, replacing any keymap of that name.
func (r *Registry) Register(km *Keymap) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keymaps[km.Name()] = km
}

// Link makes alias refer to the keymap currently named target.
func (r *Registry) Link(alias, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	km, ok := r.keymaps[target]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoKeymap, target)
	}
	r.keymaps[alias] = km
	return nil
}

// Protect prevents name from being deleted.
func (r *Registry) Protect(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixed[name] = true
}

// Delete removes name from the registry.
func (r *Registry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fixed[name] {
		return fmt.Errorf("%w: %s", ErrReadOnly, name)
	}
	if _, ok := r.keymaps[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNoKeymap, name)
	}
	delete(r.keymaps, name)
	return nil
}

// Get returns the keymap registered under name.
func (r *Registry) Get(name string) (*Keymap, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	km, ok := r.keymaps[name]
	return km, ok
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.keymaps))
	for n := range r.keymaps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
