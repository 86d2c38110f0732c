package widget

import (
	"sync/atomic"

	"github.com/dshills/keyline/internal/dispatcher/handler"
)

// Flags control how the dispatcher treats a widget.
type Flags uint16

const (
	// KeepSuffix keeps a pending auto-removable completion suffix.
	KeepSuffix Flags = 1 << iota
	// MenuCompletion keeps the completion list and suffix state.
	MenuCompletion
	// LineMove marks the command as a line-range motion.
	LineMove
	// LastCol keeps the remembered cursor column.
	LastCol
	// NotCommand means the widget is not recorded as the last command.
	NotCommand
)

// Handler is implemented by Native, Completion and User.
type Handler interface {
	isHandler()
}

// Native is a widget implemented in Go.
type Native struct {
	Fn handler.Func
}

// Completion is a widget run through the completion protocol.
type Completion struct {
	Fn handler.Func
}

// User is a widget implemented by a Lua function.
type User struct {
	Function string
}

func (Native) isHandler()     {}
func (Completion) isHandler() {}
func (User) isHandler()       {}

// Widget is an executable editing command.
type Widget struct {
	Flags   Flags
	Handler Handler
}

// Has reports whether all of f are set.
func (w *Widget) Has(f Flags) bool {
	return w.Flags&f == f
}

// Thingy names a widget. The widget may be swapped while the thingy is
// referenced from a keymap or the dispatcher.
type Thingy struct {
	name   string
	widget atomic.Pointer[Widget]
}

// Name returns the thingy's name.
func (t *Thingy) Name() string {
	return t.name
}

// Widget returns the bound widget, or nil if the thingy is disabled.
func (t *Thingy) Widget() *Widget {
	return t.widget.Load()
}

// Disabled reports whether no widget is defined for the name.
func (t *Thingy) Disabled() bool {
	return t.widget.Load() == nil
}
