package zle

import "errors"

// Editor errors.
var (
	// ErrActive is returned by ReadLine while a session is running.
	ErrActive = errors.New("zle: editor is already active")

	// ErrEOFIgnored reports EOF typed on an empty line while EOF is
	// ignored. The exit hint has been shown.
	ErrEOFIgnored = errors.New("zle: EOF ignored")

	// ErrEditError reports a session that ended in the error state. The
	// line is discarded.
	ErrEditError = errors.New("zle: edit error")

	// ErrBreak is the cause of a session ended by send-break.
	ErrBreak = errors.New("zle: break")

	// ErrIdleTimeout reports a session ended by the idle timeout.
	ErrIdleTimeout = errors.New("zle: idle timeout")

	// ErrNoCommand indicates that no key sequence could be read.
	ErrNoCommand = errors.New("zle: no command")

	// ErrMinibuffer indicates a nested minibuffer read.
	ErrMinibuffer = errors.New("zle: minibuffer already in use")

	// ErrNoWatchHandler indicates a ready descriptor with no handler.
	ErrNoWatchHandler = errors.New("zle: no handler for watched descriptor")
)
