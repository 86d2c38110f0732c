package plugin

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/keyline/internal/input/key"
	"github.com/dshills/keyline/internal/input/keymap"
	plua "github.com/dshills/keyline/internal/plugin/lua"
	"github.com/dshills/keyline/internal/widget"
)

// configSource names widgets defined by the configuration file rather
// than by a plugin.
const configSource = "config"

// Manager loads Lua plugins into a shared runtime and defines the widgets
// and key bindings they contribute.
type Manager struct {
	mu sync.RWMutex

	runtime *plua.Runtime
	widgets *widget.Registry
	keymaps *keymap.Registry
	loader  *Loader

	plugins   map[string]*PluginInfo
	loadOrder []string

	// defined maps each widget the manager defined to its source.
	defined map[string]string

	eventHandlers []EventHandler
	config        ManagerConfig
}

// ManagerConfig configures the plugin manager.
type ManagerConfig struct {
	// PluginPaths are directories to search for plugins.
	PluginPaths []string

	// Scripts are plain Lua files run before any plugin.
	Scripts []string

	// Capabilities lists what plugin manifests may request.
	Capabilities []plua.Capability
}

// DefaultManagerConfig returns the default configuration.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		PluginPaths: DefaultPluginPaths(),
	}
}

// EventHandler handles plugin manager events. Panics in handlers are
// recovered.
type EventHandler func(event ManagerEvent)

// ManagerEvent represents a plugin manager event.
type ManagerEvent struct {
	Type   ManagerEventType
	Plugin string
	Error  error
}

// ManagerEventType is the type of manager event.
type ManagerEventType int

const (
	// EventPluginLoaded is emitted when a plugin is loaded.
	EventPluginLoaded ManagerEventType = iota
	// EventPluginReloaded is emitted after all plugins were reloaded.
	EventPluginReloaded
	// EventPluginError is emitted when a plugin fails to load.
	EventPluginError
)

// String returns a string representation of the event type.
func (t ManagerEventType) String() string {
	switch t {
	case EventPluginLoaded:
		return "loaded"
	case EventPluginReloaded:
		return "reloaded"
	case EventPluginError:
		return "error"
	default:
		return "unknown"
	}
}

// NewManager creates a plugin manager over rt. Widgets are defined in
// widgets and bindings added to keymaps; keymaps may be nil.
func NewManager(config ManagerConfig, rt *plua.Runtime, widgets *widget.Registry, keymaps *keymap.Registry) *Manager {
	return &Manager{
		runtime: rt,
		widgets: widgets,
		keymaps: keymaps,
		loader:  NewLoader(WithPaths(config.PluginPaths...)),
		plugins: make(map[string]*PluginInfo),
		defined: make(map[string]string),
		config:  config,
	}
}

// Runtime returns the Lua runtime plugins run in.
func (m *Manager) Runtime() *plua.Runtime {
	return m.runtime
}

// LoadAll runs the configured scripts, then every discovered plugin in
// name order. A failing plugin does not stop the others; the failures
// are joined in the returned error.
func (m *Manager) LoadAll() error {
	var errs []error
	for _, path := range m.config.Scripts {
		if err := m.runtime.LoadFile(path); err != nil {
			errs = append(errs, err)
			m.emitEvent(ManagerEvent{Type: EventPluginError, Plugin: path, Error: err})
		}
	}

	infos, err := m.loader.Discover()
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	for _, info := range infos {
		if err := m.load(info); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Load loads a single discovered plugin by name.
func (m *Manager) Load(name string) error {
	m.mu.RLock()
	existing, ok := m.plugins[name]
	m.mu.RUnlock()
	if ok && existing.State.IsUsable() {
		return fmt.Errorf("%w: %s", ErrAlreadyLoaded, name)
	}

	info, ok := m.loader.Get(name)
	if !ok {
		if _, err := m.loader.Discover(); err != nil {
			return err
		}
		if info, ok = m.loader.Get(name); !ok {
			return fmt.Errorf("%w: %s", ErrPluginNotFound, name)
		}
	}
	return m.load(info)
}

func (m *Manager) load(info *PluginInfo) (err error) {
	m.mu.Lock()
	if _, seen := m.plugins[info.Name]; !seen {
		m.loadOrder = append(m.loadOrder, info.Name)
	}
	m.plugins[info.Name] = info
	m.mu.Unlock()

	defer func() {
		if err != nil {
			info.State = StateError
			info.Error = err
			m.emitEvent(ManagerEvent{Type: EventPluginError, Plugin: info.Name, Error: err})
			return
		}
		info.State = StateLoaded
		info.Error = nil
		m.emitEvent(ManagerEvent{Type: EventPluginLoaded, Plugin: info.Name})
	}()

	if info.Error != nil {
		return fmt.Errorf("plugin %s: %w", info.Name, info.Error)
	}
	mf := info.Manifest
	for _, c := range mf.Capabilities {
		if !m.capabilityAllowed(c) {
			return fmt.Errorf("plugin %s: %w: %s", info.Name, ErrCapabilityDenied, c)
		}
		if err := m.runtime.Grant(c); err != nil {
			return fmt.Errorf("plugin %s: %w", info.Name, err)
		}
	}
	if err := m.runtime.LoadFile(mf.MainPath()); err != nil {
		return fmt.Errorf("plugin %s: %w", info.Name, err)
	}
	for _, w := range mf.Widgets {
		if err := m.defineWidget(w.Name, w.Function, info.Name); err != nil {
			return fmt.Errorf("plugin %s: %w", info.Name, err)
		}
	}
	return m.bindKeys(info.Name, mf.Keybindings)
}

func (m *Manager) capabilityAllowed(c plua.Capability) bool {
	for _, a := range m.config.Capabilities {
		if a == c {
			return true
		}
	}
	return false
}

func (m *Manager) bindKeys(plugin string, bindings []KeybindingContribution) error {
	if m.keymaps == nil {
		return nil
	}
	for _, b := range bindings {
		km, ok := m.keymaps.Get(b.Keymap)
		if !ok {
			return fmt.Errorf("plugin %s: %w: %s", plugin, keymap.ErrNoKeymap, b.Keymap)
		}
		seq, err := key.Parse(b.Keys)
		if err != nil {
			return fmt.Errorf("plugin %s: keys %q: %w", plugin, b.Keys, err)
		}
		if err := km.Bind(seq, b.Widget); err != nil {
			return fmt.Errorf("plugin %s: keys %q: %w", plugin, b.Keys, err)
		}
	}
	return nil
}

// DefineWidgets defines user widgets from a name to function table, as
// read from the configuration. An empty function name means the widget
// name. The function need not exist yet; calling a widget whose function
// is missing reports it at that time.
func (m *Manager) DefineWidgets(table map[string]string) error {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := m.defineWidget(name, table[name], configSource); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) defineWidget(name, fn, source string) error {
	if err := m.widgets.DefineUser(name, fn); err != nil {
		return fmt.Errorf("widget %s: %w", name, err)
	}
	m.mu.Lock()
	m.defined[name] = source
	m.mu.Unlock()
	return nil
}

// Reload undefines the widgets the manager defined, forgets plugin state
// and loads everything again. Config-defined widgets are redefined by
// passing the current table.
func (m *Manager) Reload(widgets map[string]string) error {
	m.mu.Lock()
	names := make([]string, 0, len(m.defined))
	for name := range m.defined {
		names = append(names, name)
	}
	m.defined = make(map[string]string)
	m.plugins = make(map[string]*PluginInfo)
	m.loadOrder = nil
	m.mu.Unlock()

	for _, name := range names {
		_ = m.widgets.Undefine(name)
	}

	err := errors.Join(m.LoadAll(), m.DefineWidgets(widgets))
	m.emitEvent(ManagerEvent{Type: EventPluginReloaded, Error: err})
	return err
}

// Get returns a loaded or failed plugin by name.
func (m *Manager) Get(name string) (*PluginInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.plugins[name]
	return info, ok
}

// List returns plugins in load order.
func (m *Manager) List() []*PluginInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*PluginInfo, 0, len(m.loadOrder))
	for _, name := range m.loadOrder {
		out = append(out, m.plugins[name])
	}
	return out
}

// DefinedWidgets maps each widget the manager defined to its source
// plugin ("config" for the configuration table).
func (m *Manager) DefinedWidgets() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.defined))
	for k, v := range m.defined {
		out[k] = v
	}
	return out
}

// Count returns the number of plugins seen by the manager.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.plugins)
}

// HasErrors returns true if any plugin failed to load.
func (m *Manager) HasErrors() bool {
	return len(m.Errors()) > 0
}

// Errors returns the load error of every failed plugin.
func (m *Manager) Errors() map[string]error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	errs := make(map[string]error)
	for name, info := range m.plugins {
		if info.Error != nil {
			errs[name] = info.Error
		}
	}
	return errs
}

// Subscribe registers an event handler and returns a function that
// removes it.
func (m *Manager) Subscribe(handler EventHandler) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventHandlers = append(m.eventHandlers, handler)
	idx := len(m.eventHandlers) - 1
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if idx < len(m.eventHandlers) {
			m.eventHandlers[idx] = nil
		}
	}
}

func (m *Manager) emitEvent(event ManagerEvent) {
	m.mu.RLock()
	handlers := make([]EventHandler, len(m.eventHandlers))
	copy(handlers, m.eventHandlers)
	m.mu.RUnlock()

	for _, h := range handlers {
		if h == nil {
			continue
		}
		func() {
			defer func() { _ = recover() }()
			h(event)
		}()
	}
}
