package zle

import (
	"fmt"
	"time"

	"github.com/dshills/keyline/internal/dispatcher/execctx"
	"github.com/dshills/keyline/internal/input/keymap"
)

// The methods below are the editor operations widgets reach through
// execctx.Editor, and the session state the dispatcher reads.

// Context returns the base execution context.
func (e *Editor) Context() *execctx.Context {
	return e.ctx
}

// KeyBuffer returns the key sequence of the current command.
func (e *Editor) KeyBuffer() []byte {
	return e.keys
}

// FirstLine reports whether the session reads the first line of a command.
func (e *Editor) FirstLine() bool {
	return e.s != nil && e.s.firstLine()
}

// IgnoreEOF reports whether EOF shows the exit hint.
func (e *Editor) IgnoreEOF() bool {
	return e.s != nil && e.s.ignoreEOF()
}

// Login reports whether the exit hint uses the logout wording.
func (e *Editor) Login() bool {
	return e.cfg.Login
}

// SetEOFSent ends the session as if by EOF.
func (e *Editor) SetEOFSent() {
	if e.s != nil {
		e.s.eofSent = true
	}
}

// SetLineRange marks the running command as a line-range motion.
func (e *Editor) SetLineRange() {
	if e.s != nil {
		e.s.lineRange = true
	}
}

// LineRange reports whether the last command was a line-range motion.
func (e *Editor) LineRange() bool {
	return e.s != nil && e.s.lineRange
}

// HistoryLine returns the history position; NewestHistory is the line
// being edited.
func (e *Editor) HistoryLine() int {
	return e.histLine
}

// NewestHistory returns the position of the line being edited.
func (e *Editor) NewestHistory() int {
	return e.history.Len()
}

// SetHistoryLine moves the history position without changing the line.
func (e *Editor) SetHistoryLine(n int) {
	e.histLine = max(0, min(n, e.history.Len()))
}

// Accept ends the session with the current line.
func (e *Editor) Accept() {
	if e.s != nil {
		e.s.done = true
	}
}

// AcceptAndHold accepts the line and keeps it for the next session.
func (e *Editor) AcceptAndHold() {
	e.push()
	e.Accept()
}

// SendBreak abandons the line.
func (e *Editor) SendBreak() {
	if e.s != nil {
		e.s.fail(ErrBreak)
	}
}

// PushLine saves the line for the next session and clears it.
func (e *Editor) PushLine() {
	e.push()
	e.buf.SetLine("")
}

func (e *Editor) push() {
	e.bufstack = append(e.bufstack, stacked{
		line: e.buf.String(),
		cs:   e.buf.Cursor(),
		hist: e.histLine,
	})
}

// UpHistory replaces the line with the one n entries older.
func (e *Editor) UpHistory(n int) bool {
	to := e.histLine - n
	if n <= 0 || to < 0 {
		return false
	}
	if e.histLine == e.history.Len() {
		e.savedLine = e.buf.String()
	}
	e.histLine = to
	e.buf.SetLine(e.history.At(to))
	return true
}

// DownHistory replaces the line with the one n entries newer. Moving past
// the newest entry restores the line that was being edited.
func (e *Editor) DownHistory(n int) bool {
	to := e.histLine + n
	if n <= 0 || to > e.history.Len() {
		return false
	}
	e.histLine = to
	if to == e.history.Len() {
		e.buf.SetLine(e.savedLine)
	} else {
		e.buf.SetLine(e.history.At(to))
	}
	return true
}

// HistNo returns the event number of the line being shown.
func (e *Editor) HistNo() int {
	return e.histLine + 1
}

// LastCol returns the remembered cursor column, or -1.
func (e *Editor) LastCol() int {
	return e.lastCol
}

// SetLastCol sets the remembered cursor column.
func (e *Editor) SetLastCol(col int) {
	e.lastCol = col
}

// KeymapName returns the name of the selected keymap.
func (e *Editor) KeymapName() string {
	return e.kmName
}

// SelectKeymap selects the keymap called name.
func (e *Editor) SelectKeymap(name string) error {
	if _, ok := e.keymaps.Get(name); !ok {
		return fmt.Errorf("%w: %s", keymap.ErrNoKeymap, name)
	}
	e.kmName = name
	return nil
}

// Keymaps returns the keymap registry.
func (e *Editor) Keymaps() *keymap.Registry {
	return e.keymaps
}

// ReadKeySequence reads one key sequence in the selected keymap.
func (e *Editor) ReadKeySequence() ([]byte, keymap.Binding, error) {
	km, ok := e.keymaps.Get(e.kmName)
	if !ok {
		return nil, keymap.Binding{}, fmt.Errorf("%w: %s", keymap.ErrNoKeymap, e.kmName)
	}
	return e.resolver.ReadSequence(km)
}

// Call runs the widget called name with args and returns its status.
func (e *Editor) Call(name string, args []string) int {
	if args == nil {
		args = []string{}
	}
	t := e.widgets.Lookup(name)
	r := e.disp.Execute(t, args, false)
	e.report(t, r)
	return r.Code()
}

// RecursiveEdit runs a nested loop in the current session and returns 1
// if it ended in error. Accepting the line ends only the nested loop.
func (e *Editor) RecursiveEdit() int {
	s := e.s
	if s == nil {
		return 1
	}
	e.core()
	status := 0
	if s.errflag {
		status = 1
	}
	if !s.fatal() {
		s.errflag, s.done, s.eofSent = false, false, false
		s.cause = nil
	}
	return status
}

// ResetPrompt expands the prompts again.
func (e *Editor) ResetPrompt() {
	if e.reexpanding {
		return
	}
	e.reexpanding = true
	defer func() { e.reexpanding = false }()
	e.expandPrompts()
}

// EOFChar returns the terminal's EOF character.
func (e *Editor) EOFChar() byte {
	if e.term != nil {
		if c := e.term.EOFChar(); c != 0 {
			return c
		}
	}
	return defaultEOFChar
}

// ContextName returns the name of the session's context.
func (e *Editor) ContextName() string {
	if e.s == nil {
		return ""
	}
	return e.s.context.String()
}

// Watch calls fn whenever fd is ready, between keystrokes. Called from a
// watch handler, it takes effect from the next pass.
func (e *Editor) Watch(fd int, name string, fn execctx.WatchFunc) {
	if fn == nil {
		return
	}
	e.rd.Watch(fd, name)
	if e.rd.Watches().InPass() {
		e.watchPending = append(e.watchPending, watchFnChange{fd: fd, fn: fn})
		return
	}
	e.watchers[fd] = fn
}

// Unwatch stops watching fd. A handler already due in the current pass
// still runs.
func (e *Editor) Unwatch(fd int) bool {
	ok := e.rd.Unwatch(fd)
	if e.rd.Watches().InPass() {
		e.watchPending = append(e.watchPending, watchFnChange{fd: fd})
		return ok
	}
	delete(e.watchers, fd)
	return ok
}

// Schedule runs fn after d, between keystrokes.
func (e *Editor) Schedule(d time.Duration, fn func()) {
	e.rd.Scheduler().After(d, fn)
}
