package reader

import (
	"errors"
	"fmt"
)

// EOF is the end-of-input marker returned in place of a byte or character.
const EOF = -1

// Reader errors.
var (
	// ErrTimeout reports that a key or continuation timeout elapsed with no input.
	ErrTimeout = errors.New("reader: timed out")

	// ErrInterrupted reports that a pending user interrupt aborted the wait.
	// The interrupt stays pending for the caller to act on.
	ErrInterrupted = errors.New("reader: interrupted")

	// ErrFatal is matched by every FatalError.
	ErrFatal = errors.New("reader: fatal terminal condition")

	// ErrTerminalEOF reports end of file on the terminal.
	ErrTerminalEOF = errors.New("reader: end of file on terminal")

	// ErrInvalidSequence reports a byte sequence that is not valid in the
	// active character set.
	ErrInvalidSequence = errors.New("reader: invalid multibyte sequence")

	// ErrUnknownCharset indicates no decoder is registered for a charset.
	ErrUnknownCharset = errors.New("reader: unknown charset")

	// ErrClosed indicates the interrupt pipe has been closed.
	ErrClosed = errors.New("reader: closed")
)

// FatalError is a terminal condition the editor cannot recover from.
// The process is expected to restore the terminal and exit.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("reader: fatal error on %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrFatal.
func (e *FatalError) Is(target error) bool {
	return target == ErrFatal
}
