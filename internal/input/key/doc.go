// Package key converts between key notation and the bytes a terminal sends.
//
// Bindings are written in caret notation ("^X^U"), with backslash escapes
// ("\ex", "\M-f", "\C-a", "\x7f") or Vim-style names ("<C-x>", "<Up>").
// Describe performs the reverse mapping for messages such as those of
// describe-key-briefly.
package key
