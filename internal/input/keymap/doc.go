// Package keymap maps key byte sequences to widgets.
//
// A Keymap is a byte trie. Each complete sequence is bound either to a
// widget name or to a string that is fed back into the input as if typed.
// The Registry holds named keymaps, some of which are aliases ("main" is
// normally an alias of "emacs" or "viins").
//
// The Resolver reads bytes until they select a binding. When the bytes
// read so far are both a complete binding and the prefix of a longer one,
// it waits for the next byte only as long as the key timeout; on timeout
// the shorter binding wins and any unused bytes are pushed back.
package keymap
