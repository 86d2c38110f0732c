// Package execctx provides the execution context for widgets.
package execctx

import (
	"time"

	"github.com/dshills/keyline/internal/buffer"
	"github.com/dshills/keyline/internal/input"
	"github.com/dshills/keyline/internal/input/keymap"
)

// Display abstracts redisplay for widgets.
type Display interface {
	// Message shows msg below the edit line until the next keystroke.
	Message(msg string)

	// Status sets the status line; "" removes it.
	Status(text string)

	// StatusLine returns the status line being shown.
	StatusLine() string

	Refresh()

	// Invalidate forces the next refresh to redraw everything.
	Invalidate()

	ClearScreen() error
	Feep()
}

// Input abstracts the keyboard for widgets that read more input.
type Input interface {
	// GetByte reads one byte without a key timeout.
	GetByte() (int, error)

	// GetFullChar reads one character without a key timeout.
	GetFullChar() (rune, error)

	// GetRestChar completes the character whose first byte was already
	// read.
	GetRestChar(first int) (rune, error)

	// PushBack queues bytes to be read again.
	PushBack(p []byte)

	// LastByte returns the most recently read byte.
	LastByte() int
}

// WatchFunc handles readiness on a watched descriptor.
type WatchFunc func(fd int, conds []string) error

// Editor abstracts the edit session for widgets.
type Editor interface {
	// Line acceptance
	Accept()
	AcceptAndHold()
	SendBreak()
	PushLine()

	// History
	UpHistory(n int) bool
	DownHistory(n int) bool
	HistNo() int
	LastCol() int
	SetLastCol(col int)

	// Keymaps
	KeymapName() string
	SelectKeymap(name string) error
	Keymaps() *keymap.Registry

	// ReadKeySequence reads one complete key sequence from the main
	// keymap without executing it.
	ReadKeySequence() ([]byte, keymap.Binding, error)

	// ReadCommandName prompts on the status line for a widget name.
	ReadCommandName(prompt string) (string, error)

	// Call runs another widget and returns its status.
	Call(name string, args []string) int

	RecursiveEdit() int
	ResetPrompt()
	EOFChar() byte
	ContextName() string

	// Watched descriptors and scheduled callbacks
	Watch(fd int, name string, fn WatchFunc)
	Unwatch(fd int) bool
	Schedule(after time.Duration, fn func())
}

// Context provides context for widget execution.
// It carries the widget invocation and the collaborators of the session.
type Context struct {
	// Widget is the name of the executing widget.
	Widget string

	// LastWidget is the name of the previously executed widget.
	LastWidget string

	// Args are the arguments the widget was called with.
	Args []string

	// Keys is the key sequence that invoked the widget.
	Keys []byte

	Buffer   *buffer.Buffer
	Modifier *input.Modifier
	Display  Display
	Input    Input
	Editor   Editor
}

// New creates a new execution context.
func New(buf *buffer.Buffer, mod *input.Modifier) *Context {
	return &Context{Buffer: buf, Modifier: mod}
}

// WithDisplay returns the context with the display set.
func (ctx *Context) WithDisplay(d Display) *Context {
	ctx.Display = d
	return ctx
}

// WithInput returns the context with the input set.
func (ctx *Context) WithInput(in Input) *Context {
	ctx.Input = in
	return ctx
}

// WithEditor returns the context with the editor set.
func (ctx *Context) WithEditor(ed Editor) *Context {
	ctx.Editor = ed
	return ctx
}

// Invocation returns a copy of the context for one widget call.
func (ctx *Context) Invocation(widget, last string, args []string, keys []byte) *Context {
	c := *ctx
	c.Widget = widget
	c.LastWidget = last
	c.Args = args
	c.Keys = keys
	return &c
}

// Mult returns the numeric argument, defaulting to 1.
func (ctx *Context) Mult() int {
	if ctx.Modifier == nil {
		return 1
	}
	return ctx.Modifier.Mult
}

// Numeric returns the explicit numeric argument, if any.
func (ctx *Context) Numeric() (int, bool) {
	if ctx.Modifier == nil || !ctx.Modifier.HasMult() {
		return 0, false
	}
	return ctx.Modifier.Mult, true
}

// LastKey returns the last byte read, falling back to the last byte of
// the invoking key sequence.
func (ctx *Context) LastKey() byte {
	if ctx.Input != nil {
		if c := ctx.Input.LastByte(); c >= 0 {
			return byte(c)
		}
	}
	if len(ctx.Keys) > 0 {
		return ctx.Keys[len(ctx.Keys)-1]
	}
	return 0
}

// Message shows msg if a display is attached.
func (ctx *Context) Message(msg string) {
	if ctx.Display != nil {
		ctx.Display.Message(msg)
	}
}

// Validate checks that the context has all required components.
func (ctx *Context) Validate() error {
	if ctx.Buffer == nil {
		return ErrMissingBuffer
	}
	if ctx.Modifier == nil {
		return ErrMissingModifier
	}
	return nil
}

// ValidateForSession checks that the context can drive an edit session.
func (ctx *Context) ValidateForSession() error {
	if err := ctx.Validate(); err != nil {
		return err
	}
	if ctx.Display == nil {
		return ErrMissingDisplay
	}
	if ctx.Input == nil {
		return ErrMissingInput
	}
	if ctx.Editor == nil {
		return ErrMissingEditor
	}
	return nil
}
