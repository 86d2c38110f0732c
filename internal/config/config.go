package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/keyline/internal/config/loader"
)

// EnvPrefix prefixes the environment variables that override settings.
const EnvPrefix = "KEYLINE_"

// Config is the complete set of settings.
type Config struct {
	Editor  EditorConfig      `toml:"editor"`
	Keymap  KeymapConfig      `toml:"keymap"`
	Lua     LuaConfig         `toml:"lua"`
	Widgets map[string]string `toml:"widgets"`
	Log     LogConfig         `toml:"log"`

	// Path is the file the settings were read from. It need not exist.
	Path string `toml:"-"`
}

// EditorConfig holds the line editor settings.
type EditorConfig struct {
	// KeyTimeout is how long to wait for the rest of an ambiguous key
	// sequence. Zero waits forever.
	KeyTimeout Duration `toml:"keytimeout"`

	// Baud enables redisplay throttling when positive.
	Baud int `toml:"baud"`

	IgnoreEOF   bool   `toml:"ignore_eof"`
	Multibyte   bool   `toml:"multibyte"`
	Charset     string `toml:"charset"`
	Beep        bool   `toml:"beep"`
	FlowControl bool   `toml:"flow_control"`

	// Tmout ends a session left idle this long. Zero disables it.
	Tmout Duration `toml:"tmout"`

	Login bool `toml:"login"`
	Trace bool `toml:"trace"`
}

// KeymapConfig selects the main keymap and the YAML files applied on top
// of the defaults.
type KeymapConfig struct {
	Main  string   `toml:"main"`
	Files []string `toml:"files"`
}

// LuaConfig lists the scripts loaded at startup.
type LuaConfig struct {
	Scripts []string `toml:"scripts"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Duration is a time.Duration written as a string such as "400ms".
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			KeyTimeout: Duration(400 * time.Millisecond),
			Multibyte:  true,
			Beep:       true,
		},
		Keymap:  KeymapConfig{Main: "emacs"},
		Widgets: map[string]string{},
		Log:     LogConfig{Level: "info"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/keyline/config.toml, falling back
// to ~/.config.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "keyline", "config.toml")
}

// Option configures Load.
type Option func(*options)

type options struct {
	fs  loader.FileSystem
	env loader.Loader
}

// WithFS reads files from fsys.
func WithFS(fsys loader.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithEnv replaces the environment layer. A nil loader disables it.
func WithEnv(l loader.Loader) Option {
	return func(o *options) {
		o.env = l
	}
}

// Load reads the settings from path and the environment over the
// defaults, then validates them. A missing file is not an error.
func Load(path string, opts ...Option) (*Config, error) {
	o := options{fs: loader.DefaultFS(), env: loader.NewEnvLoader(EnvPrefix)}
	for _, opt := range opts {
		opt(&o)
	}

	file, err := loader.NewTOMLLoaderWithFS(o.fs, path).Load()
	if err != nil {
		return nil, err
	}
	merged := loader.DeepMerge(nil, file)
	if o.env != nil {
		env, err := o.env.Load()
		if err != nil {
			return nil, fmt.Errorf("reading environment: %w", err)
		}
		merged = loader.DeepMerge(merged, env)
	}

	cfg, err := decode(merged)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// decode applies the merged settings to the defaults.
func decode(settings map[string]any) (*Config, error) {
	cfg := Default()
	if len(settings) == 0 {
		return cfg, nil
	}
	data, err := toml.Marshal(settings)
	if err != nil {
		return nil, err
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, strings.TrimSpace(strict.String()))
		}
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
	}
	if c.Editor.KeyTimeout < 0 {
		invalid("editor.keytimeout is negative")
	}
	if c.Editor.Tmout < 0 {
		invalid("editor.tmout is negative")
	}
	if c.Editor.Baud < 0 {
		invalid("editor.baud is negative")
	}
	switch c.Keymap.Main {
	case "emacs", "viins":
	default:
		invalid("keymap.main %q is not emacs or viins", c.Keymap.Main)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		invalid("log.level %q is not debug, info, warn or error", c.Log.Level)
	}
	for name, fn := range c.Widgets {
		if name == "" || fn == "" {
			invalid("widgets entry %q = %q is incomplete", name, fn)
		}
	}
	return errors.Join(errs...)
}

// KeymapFiles returns the keymap files, resolved.
func (c *Config) KeymapFiles() []string {
	return c.resolve(c.Keymap.Files)
}

// Scripts returns the Lua scripts, resolved.
func (c *Config) Scripts() []string {
	return c.resolve(c.Lua.Scripts)
}

// resolve expands environment variables and a leading ~ in paths, and
// makes relative paths relative to the configuration file.
func (c *Config) resolve(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = os.ExpandEnv(p)
		if p == "~" || strings.HasPrefix(p, "~/") {
			if home, err := os.UserHomeDir(); err == nil {
				p = filepath.Join(home, p[1:])
			}
		}
		if !filepath.IsAbs(p) && c.Path != "" {
			p = filepath.Join(filepath.Dir(c.Path), p)
		}
		out = append(out, filepath.Clean(p))
	}
	return out
}
