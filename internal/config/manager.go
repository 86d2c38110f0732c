package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dshills/keyline/internal/config/watcher"
)

// Logger is the logging surface used by the manager.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}

// Manager holds the current configuration and reloads it on request or
// when the files it came from change. It is not safe for concurrent use;
// the editor calls it from its own thread.
type Manager struct {
	path    string
	opts    []Option
	cfg     *Config
	watcher *watcher.Watcher
	subs    []func(*Config)
	logger  Logger
}

// NewManager loads the configuration at path.
func NewManager(path string, logger Logger, opts ...Option) (*Manager, error) {
	cfg, err := Load(path, opts...)
	if err != nil {
		return nil, err
	}
	if err := cfg.CheckKeymaps(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Manager{path: path, opts: opts, cfg: cfg, logger: logger}, nil
}

// SetLogger replaces the logger. A nil logger discards messages.
func (m *Manager) SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	m.logger = l
}

// Config returns the current configuration.
func (m *Manager) Config() *Config {
	return m.cfg
}

// OnReload registers fn to run with each newly loaded configuration.
func (m *Manager) OnReload(fn func(*Config)) {
	m.subs = append(m.subs, fn)
}

// Reload reads the configuration again. On error the current one is kept.
func (m *Manager) Reload() error {
	cfg, err := Load(m.path, m.opts...)
	if err == nil {
		err = cfg.CheckKeymaps()
	}
	if err != nil {
		m.logger.Warn("config reload failed, keeping current settings: %v", err)
		return err
	}
	m.cfg = cfg
	if m.watcher != nil {
		m.syncWatches()
	}
	for _, fn := range m.subs {
		fn(cfg)
	}
	m.logger.Info("config reloaded from %s", m.path)
	return nil
}

// Watch starts watching the configuration file and the files it names.
// It returns the descriptor to wait on; when it is readable, call
// HandleReady.
func (m *Manager) Watch(debounce time.Duration) (int, error) {
	if m.watcher == nil {
		w, err := watcher.New(watcher.WithDebounce(debounce))
		if err != nil {
			return -1, fmt.Errorf("starting config watcher: %w", err)
		}
		m.watcher = w
	}
	m.syncWatches()
	return m.watcher.Fd(), nil
}

// HandleReady collects the pending file changes and reloads once for
// all of them.
func (m *Manager) HandleReady() error {
	if m.watcher == nil {
		return ErrNotWatching
	}
	events, errs := m.watcher.Drain()
	for _, err := range errs {
		m.logger.Warn("config watcher: %v", err)
	}
	if len(events) == 0 {
		return nil
	}
	for _, ev := range events {
		m.logger.Info("config file %s: %s", ev.Path, ev.Op)
	}
	return m.Reload()
}

// Close stops watching.
func (m *Manager) Close() error {
	if m.watcher == nil {
		return nil
	}
	err := m.watcher.Close()
	m.watcher = nil
	return err
}

// syncWatches makes the watched set match the current configuration.
func (m *Manager) syncWatches() {
	want := map[string]bool{}
	for _, p := range m.watchedPaths() {
		want[p] = true
		if err := m.watcher.Watch(p); err != nil {
			m.logger.Warn("cannot watch %s: %v", p, err)
		}
	}
	for _, p := range m.watcher.Files() {
		if !want[p] {
			if err := m.watcher.Unwatch(p); err != nil && !errors.Is(err, watcher.ErrClosed) {
				m.logger.Warn("cannot stop watching %s: %v", p, err)
			}
		}
	}
}

// watchedPaths returns the absolute paths of the configuration file,
// the keymap files and the scripts.
func (m *Manager) watchedPaths() []string {
	paths := []string{m.path}
	paths = append(paths, m.cfg.KeymapFiles()...)
	paths = append(paths, m.cfg.Scripts()...)
	for i, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			paths[i] = abs
		}
	}
	return paths
}
