package config

import (
	"github.com/dshills/keyline/internal/input/keymap"
)

// ApplyKeymaps installs the default keymaps in reg, links main to the
// configured keymap and applies the keymap files in order.
func (c *Config) ApplyKeymaps(reg *keymap.Registry) error {
	if err := keymap.LoadDefaults(reg, c.Keymap.Main); err != nil {
		return err
	}
	l := keymap.NewLoader()
	for _, f := range c.KeymapFiles() {
		if err := l.LoadFile(f, reg); err != nil {
			return err
		}
	}
	return nil
}

// CheckKeymaps applies the keymaps to a scratch registry, so a broken
// file can be reported without touching the live keymaps.
func (c *Config) CheckKeymaps() error {
	return c.ApplyKeymaps(keymap.NewRegistry())
}
