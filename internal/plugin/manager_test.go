package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/keyline/internal/input/key"
	"github.com/dshills/keyline/internal/input/keymap"
	plua "github.com/dshills/keyline/internal/plugin/lua"
	"github.com/dshills/keyline/internal/widget"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

type fixture struct {
	dir     string
	rt      *plua.Runtime
	widgets *widget.Registry
	keymaps *keymap.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rt, err := plua.NewRuntime()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rt.Close() })
	keymaps := keymap.NewRegistry()
	if err := keymap.LoadDefaults(keymaps, keymap.Emacs); err != nil {
		t.Fatal(err)
	}
	return &fixture{
		dir:     t.TempDir(),
		rt:      rt,
		widgets: widget.NewRegistry(),
		keymaps: keymaps,
	}
}

func (f *fixture) manager(cfg ManagerConfig) *Manager {
	cfg.PluginPaths = []string{f.dir}
	return NewManager(cfg, f.rt, f.widgets, f.keymaps)
}

func TestManagerLoadAll(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.dir, "single.lua"), `function single_fn() end`)
	writeFile(t, filepath.Join(f.dir, "git", "plugin.json"), `{
		"name": "git-widgets",
		"widgets": [{"name": "git-status", "function": "git_status"}, {"name": "git_log"}],
		"keybindings": [{"keys": "^Xg", "widget": "git-status"}]
	}`)
	writeFile(t, filepath.Join(f.dir, "git", "init.lua"), `function git_status() end; function git_log() end`)

	var events []ManagerEvent
	m := f.manager(ManagerConfig{})
	m.Subscribe(func(e ManagerEvent) { events = append(events, e) })

	if err := m.LoadAll(); err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if m.Count() != 2 || m.HasErrors() {
		t.Fatalf("Count() = %d, errors = %v", m.Count(), m.Errors())
	}
	for _, name := range []string{"git-widgets", "single"} {
		info, ok := m.Get(name)
		if !ok || info.State != StateLoaded {
			t.Errorf("plugin %s = %+v", name, info)
		}
	}
	if !f.rt.HasFunction("single_fn") {
		t.Error("single.lua was not run")
	}

	th, ok := f.widgets.Get("git-status")
	if !ok {
		t.Fatal("git-status not defined")
	}
	if u, ok := th.Widget().Handler.(widget.User); !ok || u.Function != "git_status" {
		t.Errorf("git-status handler = %#v", th.Widget().Handler)
	}
	th, ok = f.widgets.Get("git_log")
	if !ok || th.Widget().Handler.(widget.User).Function != "git_log" {
		t.Error("git_log should default its function to its name")
	}

	km, _ := f.keymaps.Get("main")
	b, _ := km.Lookup(key.MustParse("^Xg"))
	if b == nil || b.Widget != "git-status" {
		t.Errorf("^Xg binding = %+v", b)
	}

	if len(events) != 2 || events[0].Type != EventPluginLoaded {
		t.Errorf("events = %+v", events)
	}
	if got := m.DefinedWidgets()["git-status"]; got != "git-widgets" {
		t.Errorf("DefinedWidgets()[git-status] = %q", got)
	}
}

func TestManagerLoadErrors(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.dir, "broken.lua"), `function (`)
	writeFile(t, filepath.Join(f.dir, "empty", "README"), "no entry point")
	writeFile(t, filepath.Join(f.dir, "envy", "plugin.json"), `{"name": "envy", "capabilities": ["env"]}`)
	writeFile(t, filepath.Join(f.dir, "envy", "init.lua"), ``)
	writeFile(t, filepath.Join(f.dir, "good.lua"), `function good() end`)

	m := f.manager(ManagerConfig{})
	err := m.LoadAll()
	if err == nil {
		t.Fatal("LoadAll() should report failures")
	}
	if !errors.Is(err, ErrCapabilityDenied) || !errors.Is(err, ErrNoEntryPoint) {
		t.Errorf("LoadAll() error = %v", err)
	}
	errs := m.Errors()
	for _, name := range []string{"broken", "empty", "envy"} {
		if errs[name] == nil {
			t.Errorf("plugin %s should have failed", name)
		}
	}
	if info, _ := m.Get("good"); info.State != StateLoaded {
		t.Errorf("good plugin state = %s", info.State)
	}
}

func TestManagerCapabilityAllowed(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.dir, "envy", "plugin.json"), `{"name": "envy", "capabilities": ["env"]}`)
	writeFile(t, filepath.Join(f.dir, "envy", "init.lua"), `has_env = os ~= nil and os.getenv ~= nil`)

	m := f.manager(ManagerConfig{Capabilities: []plua.Capability{plua.CapabilityEnv}})
	if err := m.LoadAll(); err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if got := f.rt.State().GetGlobal("has_env").String(); got != "true" {
		t.Errorf("has_env = %s, want true", got)
	}
}

func TestManagerScriptsAndWidgets(t *testing.T) {
	f := newFixture(t)
	script := filepath.Join(t.TempDir(), "widgets.lua")
	writeFile(t, script, `function upcase() end`)

	m := f.manager(ManagerConfig{Scripts: []string{script}})
	if err := m.LoadAll(); err != nil {
		t.Fatal(err)
	}
	if err := m.DefineWidgets(map[string]string{"upcase-line": "upcase", "later": ""}); err != nil {
		t.Fatal(err)
	}
	th, ok := f.widgets.Get("upcase-line")
	if !ok || th.Widget().Handler.(widget.User).Function != "upcase" {
		t.Error("upcase-line not defined")
	}
	if th, ok := f.widgets.Get("later"); !ok || th.Widget().Handler.(widget.User).Function != "later" {
		t.Error("later should be defined even before its function exists")
	}
	if err := m.DefineWidgets(map[string]string{".bad": "x"}); !errors.Is(err, widget.ErrProtected) {
		t.Errorf("DefineWidgets(.bad) error = %v", err)
	}
}

func TestManagerReload(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.dir, "a", "plugin.json"), `{"name": "a", "widgets": [{"name": "wa"}]}`)
	writeFile(t, filepath.Join(f.dir, "a", "init.lua"), `function wa() end`)

	m := f.manager(ManagerConfig{})
	if err := m.LoadAll(); err != nil {
		t.Fatal(err)
	}
	if err := m.DefineWidgets(map[string]string{"old": ""}); err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(f.dir, "a", "plugin.json"), `{"name": "a", "widgets": [{"name": "wb"}]}`)
	var reloaded bool
	m.Subscribe(func(e ManagerEvent) {
		if e.Type == EventPluginReloaded {
			reloaded = true
		}
	})
	if err := m.Reload(map[string]string{"new": ""}); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if !reloaded {
		t.Error("no reload event")
	}
	for name, want := range map[string]bool{"wa": false, "wb": true, "old": false, "new": true} {
		if _, ok := f.widgets.Get(name); ok != want {
			t.Errorf("widget %s defined = %v, want %v", name, ok, want)
		}
	}
}

func TestManagerLoadByName(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.dir, "one.lua"), ``)
	m := f.manager(ManagerConfig{})

	if err := m.Load("one"); err != nil {
		t.Fatalf("Load(one) error = %v", err)
	}
	if err := m.Load("one"); !errors.Is(err, ErrAlreadyLoaded) {
		t.Errorf("second Load(one) error = %v", err)
	}
	if err := m.Load("missing"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("Load(missing) error = %v", err)
	}
}

func TestManagerSubscribeRemove(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.dir, "one.lua"), ``)
	m := f.manager(ManagerConfig{})
	calls := 0
	remove := m.Subscribe(func(ManagerEvent) { calls++ })
	m.Subscribe(func(ManagerEvent) { panic("handler panic is recovered") })
	remove()
	if err := m.LoadAll(); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("removed handler called %d times", calls)
	}
}
