package keymap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/dshills/keyline/internal/input/key"
)

// keymapFile is the YAML layout of a keymap file:
//
//	keymaps:
//	  emacs:
//	    bind:
//	      "^X^U": undo
//	    strings:
//	      "^Xg": "git status"
//	    unbind: ["^T"]
type keymapFile struct {
	Keymaps map[string]keymapConfig `yaml:"keymaps"`
	Links   map[string]string       `yaml:"links"`
}

type keymapConfig struct {
	Copy    string            `yaml:"copy"`
	Bind    map[string]string `yaml:"bind"`
	Strings map[string]string `yaml:"strings"`
	Unbind  []string          `yaml:"unbind"`
}

// Loader loads keymaps from YAML files.
type Loader struct {
	// searchPaths are directories to search for keymap files.
	searchPaths []string
}

// NewLoader creates a new keymap loader.
func NewLoader() *Loader {
	return &Loader{
		searchPaths: make([]string, 0),
	}
}

// AddSearchPath adds a directory to search for keymap files.
func (l *Loader) AddSearchPath(path string) {
	l.searchPaths = append(l.searchPaths, path)
}

// LoadFile applies a keymap file to the registry.
func (l *Loader) LoadFile(path string, reg *Registry) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening keymap file: %w", err)
	}
	defer f.Close()

	if err := l.LoadReader(f, reg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadReader applies keymap definitions read from r to the registry.
// Existing keymaps are modified in place; unknown names create new
// keymaps, optionally copied from another one.
func (l *Loader) LoadReader(r io.Reader, reg *Registry) error {
	var file keymapFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return fmt.Errorf("decoding keymap: %w", err)
	}

	names := make([]string, 0, len(file.Keymaps))
	for name := range file.Keymaps {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cfg := file.Keymaps[name]
		km, ok := reg.Get(name)
		if !ok {
			if cfg.Copy != "" {
				src, ok := reg.Get(cfg.Copy)
				if !ok {
					return fmt.Errorf("keymap %s: %w: %s", name, ErrNoKeymap, cfg.Copy)
				}
				km = src.Clone(name)
			} else {
				km = New(name)
			}
			reg.Register(km)
		}
		for _, spec := range cfg.Unbind {
			seq, err := key.Parse(spec)
			if err != nil {
				return fmt.Errorf("keymap %s: unbind %q: %w", name, spec, err)
			}
			km.Unbind(seq)
		}
		for spec, widget := range cfg.Bind {
			seq, err := key.Parse(spec)
			if err != nil {
				return fmt.Errorf("keymap %s: bind %q: %w", name, spec, err)
			}
			if err := km.Bind(seq, widget); err != nil {
				return fmt.Errorf("keymap %s: bind %q: %w", name, spec, err)
			}
		}
		for spec, s := range cfg.Strings {
			seq, err := key.Parse(spec)
			if err != nil {
				return fmt.Errorf("keymap %s: string %q: %w", name, spec, err)
			}
			out, err := key.Parse(s)
			if err != nil {
				return fmt.Errorf("keymap %s: string %q: %w", name, spec, err)
			}
			if err := km.BindString(seq, out); err != nil {
				return fmt.Errorf("keymap %s: string %q: %w", name, spec, err)
			}
		}
	}

	for alias, target := range file.Links {
		if err := reg.Link(alias, target); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll applies every *.yaml and *.yml file found in the search paths,
// in lexical order per directory.
func (l *Loader) LoadAll(reg *Registry) error {
	for _, dir := range l.searchPaths {
		var files []string
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return err
			}
			files = append(files, matches...)
		}
		sort.Strings(files)
		for _, f := range files {
			if err := l.LoadFile(f, reg); err != nil {
				return err
			}
		}
	}
	return nil
}
