package dispatcher

import "errors"

// Dispatcher errors.
var (
	// ErrNoWidget indicates the thingy has no widget.
	ErrNoWidget = errors.New("dispatcher: no such widget")

	// ErrNoFunction indicates a user widget's function does not exist.
	ErrNoFunction = errors.New("dispatcher: no such function")

	// ErrNoSession indicates Execute was called without a session.
	ErrNoSession = errors.New("dispatcher: no active session")

	// ErrCancelled indicates the widget was cancelled by a hook.
	ErrCancelled = errors.New("dispatcher: widget cancelled by hook")

	// ErrPanic indicates the widget panicked.
	ErrPanic = errors.New("dispatcher: widget panic")
)
