// Package config loads keyline's settings.
//
// Settings come from three layers, each overriding the one before:
//
//	1. built-in defaults
//	2. the TOML file, $XDG_CONFIG_HOME/keyline/config.toml by default
//	3. KEYLINE_ environment variables, e.g. KEYLINE_EDITOR_BAUD=9600
//
// The file may pull in other files with a top-level "@include" key:
//
//	"@include" = ["local.toml"]
//
//	[editor]
//	keytimeout = "400ms"
//	baud = 0
//	ignore_eof = false
//
//	[keymap]
//	main = "emacs"
//	files = ["~/.config/keyline/keys.yaml"]
//
//	[lua]
//	scripts = ["widgets.lua"]
//
//	[widgets]
//	my-widget = "my_widget"
//
//	[log]
//	level = "info"
//	file = ""
//
// Relative keymap files and scripts are resolved against the directory of
// the configuration file.
//
// A Manager keeps the current configuration and reloads it when the file,
// or one of the files it names, changes on disk. Changes are announced on
// a descriptor the editor watches, so reloads run between keystrokes.
package config
