// Package plugin loads Lua plugins that contribute user widgets.
//
// A plugin is either a single file:
//
//	~/.config/keyline/plugins/upcase.lua
//
// or a directory with an entry point and an optional manifest:
//
//	~/.config/keyline/plugins/git-widgets/
//	    plugin.json
//	    init.lua
//
// The manifest names the widgets the plugin defines and the keys to bind
// them to:
//
//	{
//	  "name": "git-widgets",
//	  "widgets": [{"name": "git-status", "function": "git_status"}],
//	  "keybindings": [{"keys": "^Xg", "widget": "git-status"}]
//	}
//
// All plugins share one Lua runtime, so a function defined by one plugin
// is visible to the others, as shell functions are.
package plugin
