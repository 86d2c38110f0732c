// Package input holds the editor's key-level input state.
//
// The subpackages map key notation to bytes (key) and byte sequences to
// widgets (keymap). This package holds the modifier state: the numeric
// argument that one command stages and the next one consumes.
//
// # Numeric Arguments
//
// Commands such as digit-argument and universal-argument stage a tentative
// multiplier and mark themselves as a prefix. When the loop normalizes the
// modifier after such a command, the tentative multiplier becomes the
// active one. Any other command resets the modifier.
//
//	ESC 1 2 ^F   moves forward twelve characters
//	ESC - ^F     moves backward one character
package input
