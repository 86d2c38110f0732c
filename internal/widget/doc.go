// Package widget defines named editing commands.
//
// A Thingy is a stable handle for a widget name. Keymaps refer to names,
// and the registry resolves a name to the same *Thingy whether or not a
// widget is currently defined for it; a thingy without a widget is
// disabled. Widgets themselves are one of three variants:
//
//   - Native: a Go function run directly by the dispatcher.
//   - Completion: a Go function run through the completion protocol.
//   - User: the name of a Lua function run in a fresh parameter scope.
//
// Every builtin widget is also registered under its name with a leading
// '.', which cannot be redefined, so a user widget can wrap the builtin
// it replaces.
package widget
