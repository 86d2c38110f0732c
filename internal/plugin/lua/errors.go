package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a call runs past its deadline.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrNoFunction is returned when a named global function does not exist.
	ErrNoFunction = errors.New("lua function not found")

	// ErrNotFunction is returned when calling a value that is not a function.
	ErrNotFunction = errors.New("lua value is not a function")

	// ErrNoWidget is returned by zle functions that need a running widget.
	ErrNoWidget = errors.New("no widget is running")
)
