package zle

import (
	"errors"
	"time"

	"github.com/dshills/keyline/internal/reader"
)

// ReadFlags modify a ReadLine call.
type ReadFlags uint8

const (
	// FlagHistory adds the accepted line to the history.
	FlagHistory ReadFlags = 1 << iota
	// FlagNoSetty leaves the terminal modes alone.
	FlagNoSetty
	// FlagIgnoreEOF shows the exit hint instead of accepting EOF.
	FlagIgnoreEOF
)

// Context says what the line being read is for.
type Context uint8

const (
	// ContextStart is the first line of a command.
	ContextStart Context = iota
	// ContextCont is a continuation line.
	ContextCont
	// ContextSelect is a menu selection.
	ContextSelect
	// ContextVared is a parameter being edited.
	ContextVared
)

// String returns the name the context is exposed under.
func (c Context) String() string {
	switch c {
	case ContextStart:
		return "start"
	case ContextCont:
		return "cont"
	case ContextSelect:
		return "select"
	case ContextVared:
		return "vared"
	default:
		return "unknown"
	}
}

// State is the state of an edit session.
type State uint8

const (
	// Running is the state while keys are being dispatched.
	Running State = iota
	// Accepted means the line was accepted, possibly by EOF.
	Accepted
	// Error means the line was abandoned.
	Error
	// ExternalExit means the terminal failed and the process must exit.
	ExternalExit
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Accepted:
		return "accepted"
	case Error:
		return "error"
	case ExternalExit:
		return "external-exit"
	default:
		return "unknown"
	}
}

// session is the state of one ReadLine call.
type session struct {
	id      string
	flags   ReadFlags
	context Context

	done        bool
	errflag     bool
	eofSent     bool
	exitPending bool
	lineRange   bool

	cause error

	lastInput time.Time
	idleID    reader.CallbackID
}

func (s *session) running() bool {
	return !s.done && !s.errflag && !s.exitPending
}

// fail puts the session in the error state.
func (s *session) fail(err error) {
	s.errflag = true
	if s.cause == nil || errors.Is(err, reader.ErrFatal) {
		s.cause = err
	}
}

func (s *session) fatal() bool {
	return errors.Is(s.cause, reader.ErrFatal)
}

func (s *session) state() State {
	switch {
	case s.fatal():
		return ExternalExit
	case s.errflag || s.exitPending:
		return Error
	case s.done || s.eofSent:
		return Accepted
	default:
		return Running
	}
}
