package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	plua "github.com/dshills/keyline/internal/plugin/lua"
)

// Manifest describes a widget plugin: a Lua entry point plus the widgets
// and key bindings it contributes.
type Manifest struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	// Main is the entry point relative to the plugin directory
	// (default: "init.lua").
	Main string `json:"main"`

	Capabilities []plua.Capability `json:"capabilities"`

	Widgets     []WidgetContribution     `json:"widgets"`
	Keybindings []KeybindingContribution `json:"keybindings"`

	path string
}

// WidgetContribution defines a user widget backed by a Lua function.
type WidgetContribution struct {
	Name     string `json:"name"`
	Function string `json:"function"` // defaults to Name
}

// KeybindingContribution binds a key sequence in a keymap.
type KeybindingContribution struct {
	Keys   string `json:"keys"`   // binding notation, e.g. "^Xe"
	Widget string `json:"widget"` // widget name
	Keymap string `json:"keymap"` // defaults to "main"
}

// Validation errors.
var (
	ErrMissingName       = errors.New("manifest: name is required")
	ErrInvalidName       = errors.New("manifest: name must be alphanumeric with hyphens")
	ErrInvalidMain       = errors.New("manifest: main must be a .lua file")
	ErrInvalidCapability = errors.New("manifest: invalid capability")
	ErrMissingWidgetName = errors.New("manifest: widget name is required")
	ErrInvalidBinding    = errors.New("manifest: keybinding needs keys and widget")
)

// namePattern validates plugin names.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

var validCapabilities = map[plua.Capability]bool{
	plua.CapabilityEnv:    true,
	plua.CapabilityUnsafe: true,
}

// LoadManifest loads and validates a plugin manifest from a file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	m.path = filepath.Dir(path)
	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// NewManifestMinimal creates a manifest for a plugin without plugin.json.
func NewManifestMinimal(name, path string) *Manifest {
	return &Manifest{
		Name: name,
		Main: "init.lua",
		path: path,
	}
}

func (m *Manifest) applyDefaults() {
	if m.Main == "" {
		m.Main = "init.lua"
	}
	for i := range m.Widgets {
		if m.Widgets[i].Function == "" {
			m.Widgets[i].Function = m.Widgets[i].Name
		}
	}
	for i := range m.Keybindings {
		if m.Keybindings[i].Keymap == "" {
			m.Keybindings[i].Keymap = "main"
		}
	}
}

// Validate checks that the manifest is valid.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return ErrMissingName
	}
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("%w: %s", ErrInvalidName, m.Name)
	}
	if m.Main != "" && filepath.Ext(m.Main) != ".lua" {
		return fmt.Errorf("%w: %s", ErrInvalidMain, m.Main)
	}
	for _, c := range m.Capabilities {
		if !validCapabilities[c] {
			return fmt.Errorf("%w: %s", ErrInvalidCapability, c)
		}
	}
	for i, w := range m.Widgets {
		if w.Name == "" {
			return fmt.Errorf("%w at index %d", ErrMissingWidgetName, i)
		}
	}
	for i, b := range m.Keybindings {
		if b.Keys == "" || b.Widget == "" {
			return fmt.Errorf("%w at index %d", ErrInvalidBinding, i)
		}
	}
	return nil
}

// Path returns the path to the plugin directory.
func (m *Manifest) Path() string {
	return m.path
}

// MainPath returns the full path to the main Lua file.
func (m *Manifest) MainPath() string {
	return filepath.Join(m.path, m.Main)
}

func (m *Manifest) String() string {
	return m.Name + " (" + m.MainPath() + ")"
}
