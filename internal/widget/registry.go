package widget

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/keyline/internal/dispatcher/handler"
)

// Registry errors.
var (
	// ErrEmptyName indicates a widget definition without a name.
	ErrEmptyName = errors.New("widget: empty name")

	// ErrProtected indicates an attempt to change a '.'-prefixed builtin.
	ErrProtected = errors.New("widget: builtin widgets cannot be redefined")

	// ErrNoHandler indicates a widget definition without a handler.
	ErrNoHandler = errors.New("widget: no handler")
)

// Registry maps names to thingies.
type Registry struct {
	mu      sync.RWMutex
	thingys map[string]*Thingy
}

// NewRegistry creates an empty widget registry.
func NewRegistry() *Registry {
	return &Registry{thingys: make(map[string]*Thingy)}
}

// Lookup returns the thingy for name, creating a disabled one if needed.
func (r *Registry) Lookup(name string) *Thingy {
	r.mu.RLock()
	t := r.thingys[name]
	r.mu.RUnlock()
	if t != nil {
		return t
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t = r.thingys[name]; t == nil {
		t = &Thingy{name: name}
		r.thingys[name] = t
	}
	return t
}

// Get returns the thingy for name if a widget is defined for it.
func (r *Registry) Get(name string) (*Thingy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t := r.thingys[name]
	if t == nil || t.Disabled() {
		return nil, false
	}
	return t, true
}

// Define binds w to name.
func (r *Registry) Define(name string, w *Widget) error {
	if name == "" {
		return ErrEmptyName
	}
	if strings.HasPrefix(name, ".") {
		return ErrProtected
	}
	return r.define(name, w)
}

func (r *Registry) define(name string, w *Widget) error {
	if w == nil || w.Handler == nil {
		return ErrNoHandler
	}
	r.Lookup(name).widget.Store(w)
	return nil
}

// DefineBuiltin binds w to name and to the protected ".name".
func (r *Registry) DefineBuiltin(name string, w *Widget) error {
	if name == "" {
		return ErrEmptyName
	}
	if err := r.define(name, w); err != nil {
		return err
	}
	return r.define("."+name, w)
}

// DefineNative defines a native widget.
func (r *Registry) DefineNative(name string, flags Flags, fn handler.Func) error {
	return r.Define(name, &Widget{Flags: flags, Handler: Native{Fn: fn}})
}

// DefineUser defines a widget implemented by the Lua function fn.
func (r *Registry) DefineUser(name, fn string) error {
	if fn == "" {
		fn = name
	}
	return r.Define(name, &Widget{Handler: User{Function: fn}})
}

// Undefine disables name. The thingy itself stays valid.
func (r *Registry) Undefine(name string) error {
	if strings.HasPrefix(name, ".") {
		return ErrProtected
	}
	r.mu.RLock()
	t := r.thingys[name]
	r.mu.RUnlock()
	if t != nil {
		t.widget.Store(nil)
	}
	return nil
}

// Names returns the names of all defined widgets, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.thingys))
	for name, t := range r.thingys {
		if !t.Disabled() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Complete returns the defined widget names starting with prefix, and
// the longest prefix they share.
func (r *Registry) Complete(prefix string) ([]string, string) {
	var matches []string
	for _, name := range r.Names() {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return nil, prefix
	}
	common := matches[0]
	for _, m := range matches[1:] {
		for !strings.HasPrefix(m, common) {
			common = common[:len(common)-1]
		}
	}
	return matches, common
}
