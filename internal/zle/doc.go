// Package zle runs edit sessions: it reads key sequences from the
// terminal, resolves them against the selected keymap and dispatches the
// bound widgets until the line is accepted, the session fails, or the
// terminal goes away.
//
// Only one session can be active at a time. A session is started with
// ReadLine; widgets that need to re-enter the loop, such as
// recursive-edit, run a nested loop inside the active session instead of
// starting a new one.
package zle
