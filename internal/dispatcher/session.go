package dispatcher

import "github.com/dshills/keyline/internal/dispatcher/execctx"

// Session is the edit session a widget runs in.
type Session interface {
	// Context returns the session's base execution context.
	Context() *execctx.Context

	// KeyBuffer returns the key sequence of the current command.
	KeyBuffer() []byte

	// FirstLine reports whether this is the first line of input.
	FirstLine() bool

	// IgnoreEOF reports whether EOF shows the exit hint instead of
	// ending the session.
	IgnoreEOF() bool

	// Login selects the logout wording of the exit hint.
	Login() bool

	// SetEOFSent marks the session as ended by EOF.
	SetEOFSent()

	// SetLineRange marks the current command as a line-range motion.
	SetLineRange()

	// HistoryLine returns the current history position.
	HistoryLine() int
	NewestHistory() int
	SetHistoryLine(n int)
}

// Completer receives the completion flag effects applied before native
// and completion widgets.
type Completer interface {
	// RemoveSuffix removes a pending auto-removable suffix.
	RemoveSuffix(ctx *execctx.Context)

	// FixSuffix makes a pending suffix permanent.
	FixSuffix()

	// InvalidateList discards the cached completion list.
	InvalidateList()
}

// UserRunner runs user-defined widgets.
type UserRunner interface {
	// HasFunction reports whether fn is defined.
	HasFunction(fn string) bool

	// RunWidget calls fn with args and returns its status.
	RunWidget(ctx *execctx.Context, fn string, args []string) (int, error)
}

// SignalHolder defers interrupt delivery while a native widget runs.
type SignalHolder interface {
	Hold()
	Release()
}

// Logger receives dispatch traces.
type Logger interface {
	Debug(format string, args ...any)
	Warn(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
