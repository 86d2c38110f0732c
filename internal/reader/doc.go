// Package reader turns raw terminal bytes into characters for the line editor.
//
// A Reader owns the per-editor input state: the pushback stack of bytes to be
// replayed before live input, the set of scheduled callbacks, the set of
// watched auxiliary descriptors and the multibyte decode state. Reads block
// in a single poll over the terminal, the interrupt pipe and the watched
// descriptors; the poll timeout is composed from the key timeout and the
// earliest scheduled callback.
//
// Everything in this package runs on the editor goroutine. The only
// exception is Interrupt.Raise, which may be called from a signal goroutine.
package reader
