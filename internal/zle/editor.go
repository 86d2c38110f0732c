package zle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/keyline/internal/buffer"
	"github.com/dshills/keyline/internal/dispatcher"
	"github.com/dshills/keyline/internal/dispatcher/execctx"
	"github.com/dshills/keyline/internal/input"
	"github.com/dshills/keyline/internal/input/keymap"
	"github.com/dshills/keyline/internal/reader"
	"github.com/dshills/keyline/internal/widget"
)

// LineInit is the widget run at the start of every session, if defined.
const LineInit = "zle-line-init"

// defaultEOFChar is used when no terminal reports one.
const defaultEOFChar = 0x04

// Terminal is the terminal-mode collaborator.
type Terminal interface {
	EOFChar() byte
	EnterEditMode(flowControl bool) error
	Restore() error
}

// Display is the redisplay collaborator.
type Display interface {
	execctx.Display
	Attach(buf *buffer.Buffer)
	SetPrompts(left, right string)
	ClearMessage()
	NeedsRefresh() bool
	Cost() int
	Trash()
}

// Logger is the logging surface used by the editor.
type Logger interface {
	Debug(format string, args ...any)
	Warn(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Config configures an Editor.
type Config struct {
	// Baud enables redisplay throttling when positive.
	Baud int

	// FlowControl leaves ^S and ^Q to the terminal driver.
	FlowControl bool

	// Login selects the logout wording of the exit hint.
	Login bool

	// IdleTimeout ends a session that sees no input for this long.
	IdleTimeout time.Duration
}

// Editor reads lines. It implements execctx.Editor for the widgets it
// runs and dispatcher.Session for its dispatcher.
type Editor struct {
	cfg      Config
	rd       *reader.Reader
	term     Terminal
	display  Display
	disp     *dispatcher.Dispatcher
	widgets  *widget.Registry
	keymaps  *keymap.Registry
	resolver *keymap.Resolver
	prompter *Prompter
	history  *History
	lister   dispatcher.Completer
	logger   Logger

	buf *buffer.Buffer
	mod input.Modifier
	ctx *execctx.Context

	active  bool
	s       *session
	last    State
	keys    []byte
	kmName  string
	lastCol int
	undoing bool
	minibuf bool

	histLine  int
	savedLine string
	bufstack  []stacked

	rawLeft, rawRight string
	reexpanding       bool
	lastStatus        int

	watchers     map[int]execctx.WatchFunc
	watchPending []watchFnChange
}

// watchFnChange is a Watch or Unwatch made during a watch pass. A nil fn
// removes the function for fd.
type watchFnChange struct {
	fd int
	fn execctx.WatchFunc
}

// stacked is a line saved by push-line or accept-and-hold.
type stacked struct {
	line string
	cs   int
	hist int
}

// Option configures an Editor.
type Option func(*Editor)

// WithTerminal sets the terminal whose modes sessions change.
func WithTerminal(t Terminal) Option {
	return func(e *Editor) {
		e.term = t
	}
}

// WithHistory sets the history. The default keeps DefaultHistorySize lines.
func WithHistory(h *History) Option {
	return func(e *Editor) {
		e.history = h
	}
}

// WithPrompter sets the prompt expander.
func WithPrompter(p *Prompter) Option {
	return func(e *Editor) {
		e.prompter = p
	}
}

// WithCompleter sets the completion collaborator whose state is reset
// at the start and end of each session.
func WithCompleter(c dispatcher.Completer) Option {
	return func(e *Editor) {
		e.lister = c
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an editor reading from rd and dispatching through d. The
// editor becomes d's session and rd's watch handler and refresher.
func New(cfg Config, rd *reader.Reader, keymaps *keymap.Registry, d *dispatcher.Dispatcher, display Display, opts ...Option) *Editor {
	e := &Editor{
		cfg:      cfg,
		rd:       rd,
		display:  display,
		disp:     d,
		widgets:  d.Widgets(),
		keymaps:  keymaps,
		resolver: keymap.NewResolver(rd),
		logger:   nopLogger{},
		buf:      buffer.New(),
		mod:      input.NewModifier(),
		kmName:   keymap.Main,
		lastCol:  -1,
		watchers: make(map[int]execctx.WatchFunc),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.history == nil {
		e.history = NewHistory(0)
	}
	if e.prompter == nil {
		e.prompter = &Prompter{}
	}
	e.ctx = execctx.New(e.buf, &e.mod).
		WithDisplay(display).
		WithInput(keyInput{rd}).
		WithEditor(e)

	display.Attach(e.buf)
	rd.SetRefresher(display)
	rd.SetWatchHandler(e.handleWatch)
	rd.Watches().OnPassEnd(e.applyWatchChanges)
	d.SetSession(e)
	return e
}

// Buffer returns the edit buffer.
func (e *Editor) Buffer() *buffer.Buffer {
	return e.buf
}

// History returns the history.
func (e *Editor) History() *History {
	return e.history
}

// Reader returns the input reader.
func (e *Editor) Reader() *reader.Reader {
	return e.rd
}

// Active reports whether a session is running.
func (e *Editor) Active() bool {
	return e.active
}

// LastState returns the state the most recent session ended in.
func (e *Editor) LastState() State {
	return e.last
}

// SetLastStatus sets the status shown by %? in prompts.
func (e *Editor) SetLastStatus(status int) {
	e.lastStatus = status
}

// ReadLine reads one line, showing the prompts lprompt and rprompt.
//
// It returns the accepted line without a trailing newline, or one of:
// io.EOF when EOF was typed on an empty first line; ErrEOFIgnored when
// the exit hint was shown instead; ErrActive when a session is already
// running; ErrIdleTimeout; an error matching ErrEditError when the
// session failed; ctx.Err() when ctx was cancelled; or a
// *reader.FatalError when the terminal failed, in which case the
// terminal has not been touched since the failure.
func (e *Editor) ReadLine(ctx context.Context, lprompt, rprompt string, flags ReadFlags, zctx Context) (string, error) {
	if e.active {
		return "", ErrActive
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.active = true
	defer func() { e.active = false }()

	s := &session{id: uuid.NewString(), flags: flags, context: zctx}
	e.s = s
	defer func() { e.s = nil }()

	setty := e.term != nil && flags&FlagNoSetty == 0
	if setty {
		if err := e.term.EnterEditMode(e.cfg.FlowControl); err != nil {
			return "", fmt.Errorf("entering edit mode: %w", err)
		}
	}
	if intr := e.rd.Interrupt(); intr != nil {
		stop := context.AfterFunc(ctx, intr.Raise)
		defer stop()
	}

	e.start(lprompt, rprompt)
	if e.cfg.IdleTimeout > 0 {
		s.lastInput = e.rd.Scheduler().Now()
		s.idleID = e.rd.Scheduler().After(e.cfg.IdleTimeout, e.idleTimeout)
		defer func() { e.rd.Scheduler().Cancel(s.idleID) }()
	}
	e.logger.Debug("session %s started context=%s", s.id, zctx)

	e.display.Refresh()
	if t, ok := e.widgets.Get(LineInit); ok {
		e.disp.Execute(t, []string{}, true)
		s.errflag = false
		s.cause = nil
	}
	e.core()

	e.last = s.state()
	e.logger.Debug("session %s ended state=%s", s.id, e.last)
	if e.last == ExternalExit {
		return "", s.cause
	}
	e.trash()
	if setty {
		if err := e.term.Restore(); err != nil {
			e.logger.Warn("restoring terminal: %v", err)
		}
	}
	return e.result(ctx)
}

// start resets the editor for a new session.
func (e *Editor) start(lprompt, rprompt string) {
	e.rawLeft, e.rawRight = lprompt, rprompt
	e.expandPrompts()
	e.buf.SetLine("")
	e.keys = nil
	e.kmName = keymap.Main
	e.lastCol = -1
	e.undoing = true
	e.histLine = e.history.Len()
	e.savedLine = ""
	e.disp.ResetLastCommand()
	if e.lister != nil {
		e.lister.FixSuffix()
	}
	if n := len(e.bufstack); n > 0 {
		top := e.bufstack[n-1]
		e.bufstack = e.bufstack[:n-1]
		e.buf.SetLine(top.line)
		e.buf.SetCursor(min(top.cs, e.buf.Len()))
		if top.hist >= 0 && top.hist <= e.history.Len() {
			e.histLine = top.hist
		}
	}
	e.buf.InitUndo()
	e.mod.Init()
	e.display.Status("")
	e.display.ClearMessage()
	e.display.Invalidate()
}

// trash ends the session's display. After an error, pushed-back input is
// discarded.
func (e *Editor) trash() {
	e.display.Status("")
	if e.lister != nil {
		e.lister.InvalidateList()
	}
	e.display.Trash()
	if e.s.errflag {
		e.rd.ClearPending()
	}
}

func (e *Editor) result(ctx context.Context) (string, error) {
	s := e.s
	if s.errflag || s.exitPending {
		if intr := e.rd.Interrupt(); intr != nil {
			intr.Clear()
		}
	}
	switch {
	case s.exitPending:
		return "", ErrIdleTimeout
	case s.errflag:
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if s.cause != nil {
			return "", fmt.Errorf("%w: %w", ErrEditError, s.cause)
		}
		return "", ErrEditError
	case s.eofSent:
		if s.ignoreEOF() {
			return "", ErrEOFIgnored
		}
		return "", io.EOF
	}
	line := e.buf.String()
	if s.flags&FlagHistory != 0 {
		e.history.Add(line)
	}
	return line, nil
}

// idleTimeout runs from the scheduler when the idle timeout may have
// expired. A key read since then re-arms it for the time remaining;
// otherwise the interrupt aborts the wait for the next key.
func (e *Editor) idleTimeout() {
	s := e.s
	if s == nil {
		return
	}
	sched := e.rd.Scheduler()
	if left := e.cfg.IdleTimeout - sched.Now().Sub(s.lastInput); left > 0 {
		s.idleID = sched.After(left, e.idleTimeout)
		return
	}
	s.exitPending = true
	if intr := e.rd.Interrupt(); intr != nil {
		intr.Raise()
	}
}

func (e *Editor) expandPrompts() {
	e.display.SetPrompts(
		e.prompter.Expand(e.rawLeft, e.lastStatus),
		e.prompter.Expand(e.rawRight, e.lastStatus),
	)
}

func (s *session) ignoreEOF() bool {
	return s.flags&FlagIgnoreEOF != 0
}

func (s *session) firstLine() bool {
	return s.context == ContextStart
}

// applyWatchChanges applies the watch functions changed during the pass
// that just ended.
func (e *Editor) applyWatchChanges() {
	for _, c := range e.watchPending {
		if c.fn == nil {
			delete(e.watchers, c.fd)
		} else {
			e.watchers[c.fd] = c.fn
		}
	}
	e.watchPending = e.watchPending[:0]
}

// handleWatch routes a ready descriptor to the function registered for it.
func (e *Editor) handleWatch(w reader.Watch, conds []string) error {
	fn := e.watchers[w.FD]
	if fn == nil {
		return fmt.Errorf("%w: %s on fd %d", ErrNoWatchHandler, w.Handler, w.FD)
	}
	return fn(w.FD, conds)
}

// keyInput adapts the reader to the blocking reads widgets make.
type keyInput struct {
	rd *reader.Reader
}

func (k keyInput) GetByte() (int, error) {
	return k.rd.GetByte(reader.NoKeyTimeout)
}

func (k keyInput) GetFullChar() (rune, error) {
	return k.rd.GetFullChar(reader.NoKeyTimeout)
}

func (k keyInput) GetRestChar(first int) (rune, error) {
	return k.rd.GetRestChar(first)
}

func (k keyInput) PushBack(p []byte) {
	k.rd.PushBack(p)
}

func (k keyInput) LastByte() int {
	return k.rd.LastByte()
}

// isFatal reports whether err means the terminal is gone.
func isFatal(err error) bool {
	return errors.Is(err, reader.ErrFatal)
}
