package lua

import (
	"fmt"
	"strconv"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keyline/internal/dispatcher/execctx"
)

// ModuleName is the name of the global table and require module through
// which scripts reach the editor.
const ModuleName = "zle"

// Logger is the logging surface used by the runtime.
type Logger interface {
	Debug(format string, args ...any)
	Warn(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Runtime runs user-defined widgets, watch handlers and scheduled
// callbacks written in Lua. It satisfies dispatcher.UserRunner.
type Runtime struct {
	state  *State
	bridge *Bridge
	module *lua.LTable

	// stack holds the contexts of the widgets currently running,
	// innermost last. base serves callbacks that run outside a widget.
	stack []*execctx.Context
	base  *execctx.Context

	watchers map[int]*lua.LFunction
	logger   Logger
}

// NewRuntime creates a runtime on a fresh sandboxed state.
func NewRuntime(opts ...StateOption) (*Runtime, error) {
	state, err := NewState(opts...)
	if err != nil {
		return nil, err
	}
	r := &Runtime{
		state:    state,
		bridge:   NewBridge(state.L),
		watchers: make(map[int]*lua.LFunction),
		logger:   nopLogger{},
	}
	r.module = state.L.SetFuncs(state.L.NewTable(), map[string]lua.LGFunction{
		"insert":     r.luaInsert,
		"set_buffer": r.luaSetBuffer,
		"message":    r.luaMessage,
		"call":       r.luaCall,
		"watch":      r.luaWatch,
		"unwatch":    r.luaUnwatch,
		"schedule":   r.luaSchedule,
	})
	state.PreloadModule(ModuleName, func(L *lua.LState) int {
		L.Push(r.module)
		return 1
	})
	r.installParams(nil)
	return r, nil
}

// SetLogger sets the logger used for callback failures.
func (r *Runtime) SetLogger(l Logger) {
	if l != nil {
		r.logger = l
	}
}

// Attach sets the context used by watch handlers and scheduled callbacks,
// which run between keystrokes rather than inside a widget.
func (r *Runtime) Attach(ctx *execctx.Context) {
	r.base = ctx
	r.installParams(ctx)
}

// State returns the underlying state.
func (r *Runtime) State() *State {
	return r.state
}

// Grant enables a sandbox capability.
func (r *Runtime) Grant(c Capability) error {
	return r.state.Sandbox().Grant(c)
}

// LoadFile runs a script, typically defining widget functions.
func (r *Runtime) LoadFile(path string) error {
	if err := r.state.DoFile(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// LoadString runs a chunk of Lua.
func (r *Runtime) LoadString(code string) error {
	return r.state.DoString(code)
}

// Close releases the state. Watched descriptors registered by scripts
// stay with the editor; their handlers fail once the state is closed.
func (r *Runtime) Close() error {
	r.watchers = make(map[int]*lua.LFunction)
	return r.state.Close()
}

// HasFunction reports whether a global Lua function named fn exists.
func (r *Runtime) HasFunction(fn string) bool {
	return r.state.HasFunction(fn)
}

// RunWidget calls the Lua function fn. args[0] is the widget name.
func (r *Runtime) RunWidget(ctx *execctx.Context, fn string, args []string) (int, error) {
	r.stack = append(r.stack, ctx)
	r.installParams(ctx)
	defer func() {
		r.stack = r.stack[:len(r.stack)-1]
		r.installParams(r.current())
	}()

	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = lua.LString(a)
	}
	results, err := r.state.CallGlobal(fn, largs...)
	if err != nil {
		return 1, err
	}
	return Status(results), nil
}

func (r *Runtime) current() *execctx.Context {
	if n := len(r.stack); n > 0 {
		return r.stack[n-1]
	}
	return r.base
}

// installParams points the zle global at a read-only table whose
// parameters are read live from ctx.
func (r *Runtime) installParams(ctx *execctx.Context) {
	r.state.SetGlobal(ModuleName, r.bridge.ReadOnlyTable(func(name string) lua.LValue {
		return param(ctx, name)
	}, r.module))
}

func param(ctx *execctx.Context, name string) lua.LValue {
	if ctx == nil {
		return lua.LNil
	}
	switch name {
	case "BUFFER":
		if ctx.Buffer != nil {
			return lua.LString(ctx.Buffer.String())
		}
	case "LBUFFER":
		if ctx.Buffer != nil {
			return lua.LString(ctx.Buffer.Left())
		}
	case "RBUFFER":
		if ctx.Buffer != nil {
			return lua.LString(ctx.Buffer.Right())
		}
	case "CURSOR":
		if ctx.Buffer != nil {
			return lua.LNumber(ctx.Buffer.Cursor())
		}
	case "WIDGET":
		return lua.LString(ctx.Widget)
	case "LASTWIDGET":
		return lua.LString(ctx.LastWidget)
	case "KEYS":
		return lua.LString(ctx.Keys)
	case "NUMERIC":
		if n, ok := ctx.Numeric(); ok {
			return lua.LNumber(n)
		}
	case "KEYMAP":
		if ctx.Editor != nil {
			return lua.LString(ctx.Editor.KeymapName())
		}
	case "CONTEXT":
		if ctx.Editor != nil {
			return lua.LString(ctx.Editor.ContextName())
		}
	case "HISTNO":
		if ctx.Editor != nil {
			return lua.LNumber(ctx.Editor.HistNo())
		}
	}
	return lua.LNil
}

// checkContext returns the context for a zle function, raising a Lua
// error when none applies. widget requires a running widget.
func (r *Runtime) checkContext(L *lua.LState, widget bool) *execctx.Context {
	var ctx *execctx.Context
	if widget {
		if n := len(r.stack); n > 0 {
			ctx = r.stack[n-1]
		}
	} else {
		ctx = r.current()
	}
	if ctx == nil {
		L.RaiseError("%s", ErrNoWidget.Error())
	}
	return ctx
}

// zle.insert(text)
func (r *Runtime) luaInsert(L *lua.LState) int {
	ctx := r.checkContext(L, true)
	ctx.Buffer.Insert(L.CheckString(1))
	return 0
}

// zle.set_buffer(text[, cursor])
func (r *Runtime) luaSetBuffer(L *lua.LState) int {
	ctx := r.checkContext(L, true)
	ctx.Buffer.SetLine(L.CheckString(1))
	if L.GetTop() >= 2 {
		cs := L.CheckInt(2)
		cs = min(max(cs, 0), ctx.Buffer.Len())
		ctx.Buffer.SetCursor(cs)
	}
	return 0
}

// zle.message(text)
func (r *Runtime) luaMessage(L *lua.LState) int {
	ctx := r.checkContext(L, false)
	ctx.Message(L.CheckString(1))
	return 0
}

// zle.call(widget, args...) returns the widget's status.
func (r *Runtime) luaCall(L *lua.LState) int {
	ctx := r.checkContext(L, false)
	if ctx.Editor == nil {
		L.RaiseError("%s", execctx.ErrMissingEditor.Error())
		return 0
	}
	name := L.CheckString(1)
	args := StringArgs(L, 2)
	L.Push(lua.LNumber(ctx.Editor.Call(name, args)))
	return 1
}

// zle.watch(fd, fn)
func (r *Runtime) luaWatch(L *lua.LState) int {
	ctx := r.checkContext(L, false)
	if ctx.Editor == nil {
		L.RaiseError("%s", execctx.ErrMissingEditor.Error())
		return 0
	}
	fd := L.CheckInt(1)
	fn := L.CheckFunction(2)
	if fd < 0 {
		L.ArgError(1, "invalid descriptor")
		return 0
	}
	r.watchers[fd] = fn
	ctx.Editor.Watch(fd, "lua:"+strconv.Itoa(fd), r.runWatch)
	return 0
}

// zle.unwatch(fd) returns whether fd was watched.
func (r *Runtime) luaUnwatch(L *lua.LState) int {
	ctx := r.checkContext(L, false)
	fd := L.CheckInt(1)
	delete(r.watchers, fd)
	ok := false
	if ctx.Editor != nil {
		ok = ctx.Editor.Unwatch(fd)
	}
	L.Push(lua.LBool(ok))
	return 1
}

// zle.schedule(seconds, fn)
func (r *Runtime) luaSchedule(L *lua.LState) int {
	ctx := r.checkContext(L, false)
	if ctx.Editor == nil {
		L.RaiseError("%s", execctx.ErrMissingEditor.Error())
		return 0
	}
	secs := float64(L.CheckNumber(1))
	fn := L.CheckFunction(2)
	after := time.Duration(secs * float64(time.Second))
	ctx.Editor.Schedule(after, func() {
		if _, err := r.state.Call(fn); err != nil {
			r.logger.Warn("lua scheduled callback: %v", err)
		}
	})
	return 0
}

// runWatch calls the Lua handler for fd with the condition names.
// A false result or a Lua error is reported as a failure.
func (r *Runtime) runWatch(fd int, conds []string) error {
	fn, ok := r.watchers[fd]
	if !ok {
		return fmt.Errorf("%w: watch handler for fd %d", ErrNoFunction, fd)
	}
	args := make([]lua.LValue, 0, len(conds)+1)
	args = append(args, lua.LNumber(fd))
	for _, c := range conds {
		args = append(args, lua.LString(c))
	}
	results, err := r.state.Call(fn, args...)
	if err != nil {
		return err
	}
	if len(results) > 0 && results[0] == lua.LFalse {
		return fmt.Errorf("watch handler for fd %d failed", fd)
	}
	return nil
}
