// Package app wires the line editor together: configuration, terminal,
// reader, keymaps, widgets, the Lua runtime and the editor itself, and
// runs the read loop that hands accepted lines to the caller.
package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dshills/keyline/internal/complete"
	"github.com/dshills/keyline/internal/config"
	"github.com/dshills/keyline/internal/config/watcher"
	"github.com/dshills/keyline/internal/dispatcher"
	"github.com/dshills/keyline/internal/display"
	"github.com/dshills/keyline/internal/input/keymap"
	"github.com/dshills/keyline/internal/plugin"
	plua "github.com/dshills/keyline/internal/plugin/lua"
	"github.com/dshills/keyline/internal/reader"
	"github.com/dshills/keyline/internal/terminal"
	"github.com/dshills/keyline/internal/widget"
	"github.com/dshills/keyline/internal/widget/builtin"
	"github.com/dshills/keyline/internal/zle"
)

// DefaultPrompt is used when Options.Prompt is empty.
const DefaultPrompt = "%n@%m %~ %# "

// reloadWatchName is the name the configuration watch is listed under.
const reloadWatchName = "config-reload"

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty means config.DefaultPath.
	ConfigPath string

	// ConfigOptions are passed to config.Load, mainly for tests.
	ConfigOptions []config.Option

	// Debug logs at debug level and traces dispatch.
	Debug bool

	// LogLevel overrides log.level from the configuration.
	LogLevel string

	// Prompt and RPrompt are the left and right prompts, with % escapes.
	Prompt  string
	RPrompt string

	// In and Out are the terminal. They default to os.Stdin and os.Stdout.
	In  *os.File
	Out *os.File

	// LogOutput receives log lines when log.file is not set. It defaults
	// to io.Discard so logs never draw over the edit line.
	LogOutput io.Writer

	// PluginPaths are the plugin directories. Nil means
	// plugin.DefaultPluginPaths.
	PluginPaths []string

	// NoWatch disables reloading the configuration when files change.
	NoWatch bool
}

// App is a configured line editor.
type App struct {
	opts    Options
	logger  *Logger
	logFile *os.File
	metrics *Metrics

	cfgMgr   *config.Manager
	tty      *terminal.TTY
	intr     *reader.Interrupt
	reader   *reader.Reader
	keymaps  *keymap.Registry
	widgets  *widget.Registry
	complete *complete.Completer
	disp     *dispatcher.Dispatcher
	display  *display.Display
	runtime  *plua.Runtime
	plugins  *plugin.Manager
	editor   *zle.Editor

	// warnings are startup failures that did not stop the editor.
	warnings ErrorList

	running   atomic.Bool
	closeOnce sync.Once
}

// New builds the editor described by opts and its configuration file.
// Plugin failures are logged and reported by Warnings; any other failure
// is fatal.
func New(opts Options) (a *App, err error) {
	if opts.ConfigPath == "" {
		opts.ConfigPath = config.DefaultPath()
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = io.Discard
	}
	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}

	a = &App{opts: opts, metrics: NewMetrics()}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	boot := NewLogger(LoggerConfig{Level: LogLevelInfo, Output: opts.LogOutput, Prefix: "keyline"})
	a.cfgMgr, err = config.NewManager(opts.ConfigPath, boot.WithComponent("config"), opts.ConfigOptions...)
	if err != nil {
		return nil, initError("config", "load", err)
	}
	cfg := a.cfgMgr.Config()

	if err := a.initLogger(cfg); err != nil {
		return nil, err
	}
	a.cfgMgr.SetLogger(a.logger.WithComponent("config"))
	if err := a.initTerminal(cfg); err != nil {
		return nil, err
	}
	if err := a.initWidgets(cfg); err != nil {
		return nil, err
	}
	a.initEditor(cfg)
	a.initPlugins(cfg)
	if !opts.NoWatch {
		a.initWatch()
	}
	a.cfgMgr.OnReload(a.applyConfig)

	a.logger.Info("started config=%s keymap=%s", opts.ConfigPath, cfg.Keymap.Main)
	return a, nil
}

func (a *App) initLogger(cfg *config.Config) error {
	level := cfg.Log.Level
	if a.opts.LogLevel != "" {
		level = a.opts.LogLevel
	}
	if a.opts.Debug {
		level = "debug"
	}
	out := a.opts.LogOutput
	if cfg.Log.File != "" {
		f, err := OpenLogFile(cfg.Log.File)
		if err != nil {
			return initError("log", "open "+cfg.Log.File, err)
		}
		a.logFile = f
		out = f
	}
	a.logger = NewLogger(LoggerConfig{Level: ParseLogLevel(level), Output: out, Prefix: "keyline"})
	return nil
}

func (a *App) initTerminal(cfg *config.Config) error {
	tty, err := terminal.Open(a.opts.In, a.opts.Out)
	if err != nil {
		return initError("terminal", "open", err)
	}
	a.tty = tty

	a.intr, err = reader.NewInterrupt()
	if err != nil {
		return initError("reader", "interrupt pipe", err)
	}
	a.reader, err = reader.New(tty, a.intr, readerConfig(cfg),
		reader.WithLogger(a.logger.WithComponent("reader")))
	if err != nil {
		return initError("reader", "create", err)
	}
	return nil
}

// readerConfig maps the editor settings onto the reader. An empty
// charset is taken from the locale.
func readerConfig(cfg *config.Config) reader.Config {
	rc := reader.DefaultConfig().
		WithKeyTimeout(cfg.Editor.KeyTimeout.Std()).
		WithIgnoreEOF(cfg.Editor.IgnoreEOF).
		WithMultibyte(cfg.Editor.Multibyte)
	charset := cfg.Editor.Charset
	if charset == "" {
		charset = reader.CharsetFromEnv(os.Getenv)
	}
	if charset != "" {
		rc = rc.WithCharset(charset)
	}
	return rc
}

func (a *App) initWidgets(cfg *config.Config) error {
	a.keymaps = keymap.NewRegistry()
	if err := cfg.ApplyKeymaps(a.keymaps); err != nil {
		return initError("keymap", "load", err)
	}

	a.widgets = widget.NewRegistry()
	a.complete = complete.New()
	if err := builtin.Register(a.widgets, a.complete); err != nil {
		return initError("widget", "register builtins", err)
	}

	rt, err := plua.NewRuntime()
	if err != nil {
		return initError("lua", "create runtime", err)
	}
	rt.SetLogger(a.logger.WithComponent("lua"))
	a.runtime = rt

	dcfg := dispatcher.DefaultConfig().WithMetrics().WithTrace(cfg.Editor.Trace || a.opts.Debug)
	a.disp = dispatcher.New(dcfg, a.widgets,
		dispatcher.WithCompleter(a.complete),
		dispatcher.WithUserRunner(rt),
		dispatcher.WithSignalHolder(a.intr),
		dispatcher.WithLogger(a.logger.WithComponent("dispatcher")))
	a.disp.RegisterPostHook(dispatcher.NewLoggingHook(a.logger.WithComponent("widget")))
	return nil
}

func (a *App) initEditor(cfg *config.Config) {
	a.display = display.New(a.tty, a.tty,
		display.WithTerminfo(display.LookupTerminfo(os.Getenv("TERM"))),
		display.WithBeep(cfg.Editor.Beep))

	a.editor = zle.New(editorConfig(cfg), a.reader, a.keymaps, a.disp, a.display,
		zle.WithTerminal(a.tty),
		zle.WithPrompter(zle.NewPrompter()),
		zle.WithCompleter(a.complete),
		zle.WithLogger(a.logger.WithComponent("zle")))
	a.runtime.Attach(a.editor.Context())
}

func editorConfig(cfg *config.Config) zle.Config {
	return zle.Config{
		Baud:        cfg.Editor.Baud,
		FlowControl: cfg.Editor.FlowControl,
		Login:       cfg.Editor.Login,
		IdleTimeout: cfg.Editor.Tmout.Std(),
	}
}

func (a *App) initPlugins(cfg *config.Config) {
	mcfg := plugin.DefaultManagerConfig()
	mcfg.Scripts = cfg.Scripts()
	if a.opts.PluginPaths != nil {
		mcfg.PluginPaths = a.opts.PluginPaths
	}
	a.plugins = plugin.NewManager(mcfg, a.runtime, a.widgets, a.keymaps)
	log := a.logger.WithComponent("plugin")
	a.plugins.Subscribe(func(ev plugin.ManagerEvent) {
		if ev.Error != nil {
			log.Warn("%s %s: %v", ev.Plugin, ev.Type, ev.Error)
			return
		}
		log.Debug("%s %s", ev.Plugin, ev.Type)
	})

	a.warnings.Add(a.plugins.LoadAll())
	a.warnings.Add(a.plugins.DefineWidgets(cfg.Widgets))
}

// initWatch reloads the configuration between keystrokes when a watched
// file changes. Failing to watch only disables reloading.
func (a *App) initWatch() {
	fd, err := a.cfgMgr.Watch(watcher.DefaultDebounce)
	if err != nil {
		a.logger.Warn("configuration will not reload: %v", err)
		return
	}
	a.editor.Watch(fd, reloadWatchName, func(int, []string) error {
		if err := a.cfgMgr.HandleReady(); err != nil {
			a.logger.Warn("reload: %v", err)
		}
		return nil
	})
}

// applyConfig makes a reloaded configuration live. Editor settings other
// than those the reader and display hold take effect on restart.
func (a *App) applyConfig(cfg *config.Config) {
	if err := cfg.ApplyKeymaps(a.keymaps); err != nil {
		a.logger.Warn("reload keymaps: %v", err)
	}
	a.reader.SetKeyTimeout(cfg.Editor.KeyTimeout.Std())
	a.reader.SetIgnoreEOF(cfg.Editor.IgnoreEOF)
	a.reader.SetMultibyte(cfg.Editor.Multibyte)
	a.display.SetBeep(cfg.Editor.Beep)
	if a.opts.LogLevel == "" && !a.opts.Debug {
		a.logger.SetLevel(ParseLogLevel(cfg.Log.Level))
	}
	if err := a.plugins.Reload(cfg.Widgets); err != nil {
		a.logger.Warn("reload plugins: %v", err)
	}
}

// Config returns the live configuration.
func (a *App) Config() *config.Config {
	return a.cfgMgr.Config()
}

// Editor returns the line editor.
func (a *App) Editor() *zle.Editor {
	return a.editor
}

// Logger returns the application logger.
func (a *App) Logger() *Logger {
	return a.logger
}

// Metrics returns the session metrics.
func (a *App) Metrics() *Metrics {
	return a.metrics
}

// Warnings returns startup failures that did not stop the editor.
func (a *App) Warnings() error {
	return a.warnings.AsError()
}

// Interrupt raises a user interrupt, as a SIGINT would.
func (a *App) Interrupt() {
	a.intr.Raise()
}

// Close restores the terminal and releases every component. It is safe
// to call more than once.
func (a *App) Close() error {
	var errs ErrorList
	a.closeOnce.Do(func() {
		if a.tty != nil && a.tty.InEditMode() {
			errs.Add(a.tty.Restore())
		}
		if a.cfgMgr != nil {
			errs.Add(a.cfgMgr.Close())
		}
		if a.runtime != nil {
			errs.Add(a.runtime.Close())
		}
		if a.intr != nil {
			errs.Add(a.intr.Close())
		}
		if a.logger != nil {
			a.logSummary()
		}
		if a.logFile != nil {
			errs.Add(a.logFile.Close())
		}
	})
	if err := errs.AsError(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

func (a *App) logSummary() {
	s := a.metrics.Snapshot()
	a.logger.Info("closing sessions=%d accepted=%d avg=%v", s.Sessions, s.Count(OutcomeAccepted), s.AvgSession)
	if a.disp == nil {
		return
	}
	if m := a.disp.Metrics(); m != nil {
		ds := m.Snapshot()
		a.logger.Debug("dispatches=%d failures=%d panics=%d", ds.TotalDispatches, ds.TotalFailures, ds.TotalPanics)
		for _, w := range m.TopWidgets(5) {
			a.logger.Debug("widget %s calls=%d failures=%d max=%v", w.Name, w.DispatchCount, w.FailureCount, w.MaxDuration)
		}
	}
}

// describe classifies a ReadLine result.
func describe(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeAccepted
	case errors.Is(err, reader.ErrFatal):
		return OutcomeFatal
	case errors.Is(err, io.EOF):
		return OutcomeEOF
	case errors.Is(err, zle.ErrEOFIgnored):
		return OutcomeEOFIgnored
	case errors.Is(err, zle.ErrIdleTimeout):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}
