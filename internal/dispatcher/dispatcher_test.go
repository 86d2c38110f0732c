package dispatcher

import (
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/dshills/keyline/internal/buffer"
	"github.com/dshills/keyline/internal/dispatcher/execctx"
	"github.com/dshills/keyline/internal/dispatcher/handler"
	"github.com/dshills/keyline/internal/input"
	"github.com/dshills/keyline/internal/input/keymap"
	"github.com/dshills/keyline/internal/widget"
)

type fakeDisplay struct {
	messages []string
	feeps    int
}

func (f *fakeDisplay) Message(msg string)  { f.messages = append(f.messages, msg) }
func (f *fakeDisplay) Status(string)       {}
func (f *fakeDisplay) StatusLine() string   { return "" }
func (f *fakeDisplay) Refresh()            {}
func (f *fakeDisplay) Invalidate()         {}
func (f *fakeDisplay) ClearScreen() error  { return nil }
func (f *fakeDisplay) Feep()               { f.feeps++ }
func (f *fakeDisplay) last() string {
	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1]
}

type fakeEditor struct {
	lastCol int
}

func (e *fakeEditor) Accept()                                          {}
func (e *fakeEditor) AcceptAndHold()                                   {}
func (e *fakeEditor) SendBreak()                                       {}
func (e *fakeEditor) PushLine()                                        {}
func (e *fakeEditor) UpHistory(int) bool                               { return false }
func (e *fakeEditor) DownHistory(int) bool                             { return false }
func (e *fakeEditor) HistNo() int                                      { return 0 }
func (e *fakeEditor) LastCol() int                                     { return e.lastCol }
func (e *fakeEditor) SetLastCol(col int)                               { e.lastCol = col }
func (e *fakeEditor) KeymapName() string                               { return keymap.Emacs }
func (e *fakeEditor) SelectKeymap(string) error                        { return nil }
func (e *fakeEditor) Keymaps() *keymap.Registry                        { return nil }
func (e *fakeEditor) ReadKeySequence() ([]byte, keymap.Binding, error) { return nil, keymap.Binding{}, nil }
func (e *fakeEditor) ReadCommandName(string) (string, error)           { return "", nil }
func (e *fakeEditor) Call(string, []string) int                        { return 0 }
func (e *fakeEditor) RecursiveEdit() int                               { return 0 }
func (e *fakeEditor) ResetPrompt()                                     {}
func (e *fakeEditor) EOFChar() byte                                    { return 4 }
func (e *fakeEditor) ContextName() string                              { return "start" }
func (e *fakeEditor) Watch(int, string, execctx.WatchFunc)             {}
func (e *fakeEditor) Unwatch(int) bool                                 { return false }
func (e *fakeEditor) Schedule(time.Duration, func())                   {}

type fakeSession struct {
	ctx       *execctx.Context
	keys      []byte
	firstLine bool
	ignoreEOF bool
	login     bool
	eofSent   bool
	lineRange bool
	histLine  int
	newest    int
}

func (s *fakeSession) Context() *execctx.Context { return s.ctx }
func (s *fakeSession) KeyBuffer() []byte         { return s.keys }
func (s *fakeSession) FirstLine() bool           { return s.firstLine }
func (s *fakeSession) IgnoreEOF() bool           { return s.ignoreEOF }
func (s *fakeSession) Login() bool               { return s.login }
func (s *fakeSession) SetEOFSent()               { s.eofSent = true }
func (s *fakeSession) SetLineRange()             { s.lineRange = true }
func (s *fakeSession) HistoryLine() int          { return s.histLine }
func (s *fakeSession) NewestHistory() int        { return s.newest }
func (s *fakeSession) SetHistoryLine(n int)      { s.histLine = n }

type fakeCompleter struct {
	calls []string
}

func (c *fakeCompleter) RemoveSuffix(*execctx.Context) { c.calls = append(c.calls, "remove") }
func (c *fakeCompleter) FixSuffix()                    { c.calls = append(c.calls, "fix") }
func (c *fakeCompleter) InvalidateList()               { c.calls = append(c.calls, "invalidate") }

type fakeRunner struct {
	funcs map[string]func(ctx *execctx.Context, args []string) (int, error)
}

func (r *fakeRunner) HasFunction(fn string) bool { _, ok := r.funcs[fn]; return ok }

func (r *fakeRunner) RunWidget(ctx *execctx.Context, fn string, args []string) (int, error) {
	return r.funcs[fn](ctx, args)
}

type countingHolder struct {
	held, holds, releases int
}

func (h *countingHolder) Hold()    { h.held++; h.holds++ }
func (h *countingHolder) Release() { h.held--; h.releases++ }

type recordingLogger struct {
	debug []string
	warn  []string
}

func (l *recordingLogger) Debug(format string, args ...any) {
	l.debug = append(l.debug, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Warn(format string, args ...any) {
	l.warn = append(l.warn, fmt.Sprintf(format, args...))
}

type fixture struct {
	d       *Dispatcher
	reg     *widget.Registry
	session *fakeSession
	display *fakeDisplay
	editor  *fakeEditor
}

func newFixture(t *testing.T, config Config, opts ...Option) *fixture {
	t.Helper()
	mod := input.NewModifier()
	display := &fakeDisplay{}
	editor := &fakeEditor{lastCol: 7}
	ctx := execctx.New(buffer.New(), &mod).WithDisplay(display).WithEditor(editor)
	session := &fakeSession{ctx: ctx, firstLine: true}
	reg := widget.NewRegistry()
	d := New(config, reg, opts...)
	d.SetSession(session)
	return &fixture{d: d, reg: reg, session: session, display: display, editor: editor}
}

func (f *fixture) define(t *testing.T, name string, flags widget.Flags, fn handler.Func) *widget.Thingy {
	t.Helper()
	if err := f.reg.DefineNative(name, flags, fn); err != nil {
		t.Fatal(err)
	}
	return f.reg.Lookup(name)
}

func TestExecuteDisabled(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	prev := f.define(t, "beep", 0, func(*execctx.Context) handler.Result { return handler.Success() })
	f.d.Execute(prev, nil, false)

	buf := f.session.ctx.Buffer
	buf.SetLine("e\u0301x")
	buf.SetCursor(1)

	r := f.d.Execute(f.reg.Lookup("no-such"), nil, false)
	if !r.Failed() {
		t.Error("disabled widget should fail")
	}
	if got := f.display.last(); got != "No such widget `no-such'" {
		t.Errorf("message = %q", got)
	}
	if f.d.LastBound() != prev {
		t.Error("a disabled widget must not become the last-bound command")
	}
	if buf.Cursor() != 2 {
		t.Errorf("cursor = %d, want it moved off the combining mark to 2", buf.Cursor())
	}
}

func TestExecuteNative(t *testing.T) {
	f := newFixture(t, DefaultConfig().WithMetrics())
	var seen []string
	first := f.define(t, "first", 0, func(ctx *execctx.Context) handler.Result {
		seen = append(seen, ctx.LastWidget)
		ctx.Buffer.Insert("a")
		return handler.Success()
	})
	second := f.define(t, "second", 0, func(ctx *execctx.Context) handler.Result {
		seen = append(seen, ctx.LastWidget)
		return handler.Fail()
	})

	if r := f.d.Execute(first, nil, false); r.Failed() {
		t.Fatalf("first failed: %+v", r)
	}
	if r := f.d.Execute(second, nil, false); !r.Failed() {
		t.Fatal("second should fail")
	}
	if !slices.Equal(seen, []string{"", "first"}) {
		t.Errorf("LastWidget seen = %q", seen)
	}
	if f.d.LastBound() != second {
		t.Error("last-bound should be second")
	}
	if f.session.ctx.Buffer.String() != "a" {
		t.Errorf("buffer = %q", f.session.ctx.Buffer.String())
	}
	m := f.d.Metrics()
	if m.TotalDispatches() != 2 || m.TotalFailures() != 1 {
		t.Errorf("metrics = %+v", m.Snapshot())
	}
	if ws := m.WidgetStats("second"); ws == nil || ws.LastStatus != handler.StatusError {
		t.Errorf("WidgetStats(second) = %+v", ws)
	}
}

func TestExecuteNilNativeFeeps(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	if err := f.reg.Define("stub", &widget.Widget{Handler: widget.Native{}}); err != nil {
		t.Fatal(err)
	}
	if r := f.d.Execute(f.reg.Lookup("stub"), nil, false); r.Failed() {
		t.Error("a widget without a function succeeds after feeping")
	}
	if f.display.feeps != 1 {
		t.Errorf("feeps = %d, want 1", f.display.feeps)
	}
}

func TestExitHint(t *testing.T) {
	tests := []struct {
		name      string
		keys      []byte
		args      []string
		line      string
		firstLine bool
		ignoreEOF bool
		login     bool
		wantHint  string
	}{
		{"exit hint", []byte{4}, nil, "", true, true, false, ExitHint},
		{"logout hint", []byte{4}, nil, "", true, true, true, LogoutHint},
		{"eof not ignored", []byte{4}, nil, "", true, false, false, ""},
		{"called with args", []byte{4}, []string{}, "", true, true, false, ""},
		{"non-empty line", []byte{4}, nil, "x", true, true, false, ""},
		{"not first line", []byte{4}, nil, "", false, true, false, ""},
		{"longer sequence", []byte{4, 4}, nil, "", true, true, false, ""},
		{"other key", []byte{1}, nil, "", true, true, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, DefaultConfig())
			f.session.keys = tt.keys
			f.session.firstLine = tt.firstLine
			f.session.ignoreEOF = tt.ignoreEOF
			f.session.login = tt.login
			f.session.ctx.Buffer.SetLine(tt.line)

			ran := false
			th := f.define(t, "delete-char", 0, func(*execctx.Context) handler.Result {
				ran = true
				return handler.Success()
			})
			r := f.d.Execute(th, tt.args, false)

			if tt.wantHint == "" {
				if !ran || f.session.eofSent {
					t.Errorf("widget should run normally (ran=%v eofSent=%v)", ran, f.session.eofSent)
				}
				return
			}
			if ran {
				t.Error("widget must not run when the exit hint is shown")
			}
			if !r.Failed() || !f.session.eofSent {
				t.Errorf("result=%+v eofSent=%v", r, f.session.eofSent)
			}
			if got := f.display.last(); got != tt.wantHint {
				t.Errorf("message = %q, want %q", got, tt.wantHint)
			}
			if f.d.LastBound() != th {
				t.Error("the hint path still records the last-bound command")
			}
		})
	}
}

func TestFlagEffects(t *testing.T) {
	tests := []struct {
		name      string
		flags     widget.Flags
		calls     []string
		lineRange bool
		lastCol   int
	}{
		{"plain", 0, []string{"remove", "fix", "invalidate"}, false, -1},
		{"keep suffix", widget.KeepSuffix, []string{"fix", "invalidate"}, false, -1},
		{"menu", widget.MenuCompletion, []string{"remove"}, false, -1},
		{"both", widget.KeepSuffix | widget.MenuCompletion, nil, false, -1},
		{"line move", widget.LineMove, []string{"remove", "fix", "invalidate"}, true, -1},
		{"last col", widget.LastCol, []string{"remove", "fix", "invalidate"}, false, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeCompleter{}
			f := newFixture(t, DefaultConfig(), WithCompleter(c))
			th := f.define(t, "w", tt.flags, func(*execctx.Context) handler.Result { return handler.Success() })
			f.d.Execute(th, nil, false)

			if !slices.Equal(c.calls, tt.calls) {
				t.Errorf("completer calls = %v, want %v", c.calls, tt.calls)
			}
			if f.session.lineRange != tt.lineRange {
				t.Errorf("lineRange = %v", f.session.lineRange)
			}
			if f.editor.lastCol != tt.lastCol {
				t.Errorf("lastCol = %d, want %d", f.editor.lastCol, tt.lastCol)
			}
			if f.d.LastCommand() != tt.flags {
				t.Errorf("LastCommand = %v, want %v", f.d.LastCommand(), tt.flags)
			}
		})
	}
}

func TestNotCommandKeepsLastCommand(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	menu := f.define(t, "menu", widget.MenuCompletion, func(*execctx.Context) handler.Result { return handler.Success() })
	arg := f.define(t, "arg", widget.NotCommand, func(*execctx.Context) handler.Result { return handler.Success() })

	f.d.Execute(menu, nil, false)
	f.d.Execute(arg, nil, false)
	if f.d.LastCommand() != widget.MenuCompletion {
		t.Errorf("LastCommand = %v, want MenuCompletion", f.d.LastCommand())
	}
}

func TestCompletionPreservesNewestHistory(t *testing.T) {
	tests := []struct {
		name  string
		start int
		want  int
	}{
		{"at newest", 5, 5},
		{"in history", 2, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, DefaultConfig())
			f.session.newest = 5
			f.session.histLine = tt.start
			err := f.reg.Define("complete", &widget.Widget{Handler: widget.Completion{
				Fn: func(*execctx.Context) handler.Result {
					f.session.histLine = 3
					return handler.Success()
				},
			}})
			if err != nil {
				t.Fatal(err)
			}
			f.d.Execute(f.reg.Lookup("complete"), nil, false)
			if f.session.histLine != tt.want {
				t.Errorf("history line = %d, want %d", f.session.histLine, tt.want)
			}
		})
	}
}

func TestUserWidget(t *testing.T) {
	log := &recordingLogger{}
	var got []string
	runner := &fakeRunner{funcs: map[string]func(*execctx.Context, []string) (int, error){
		"my_func": func(ctx *execctx.Context, args []string) (int, error) {
			got = args
			return 1, nil
		},
	}}
	f := newFixture(t, DefaultConfig().WithTrace(true), WithUserRunner(runner), WithLogger(log))
	menu := f.define(t, "menu", widget.MenuCompletion, func(*execctx.Context) handler.Result { return handler.Success() })
	f.d.Execute(menu, nil, false)

	if err := f.reg.DefineUser("my-widget", "my_func"); err != nil {
		t.Fatal(err)
	}
	th := f.reg.Lookup("my-widget")
	r := f.d.Execute(th, []string{"a", "b"}, false)
	if !r.Failed() {
		t.Error("status 1 should fail")
	}
	if !slices.Equal(got, []string{"my-widget", "a", "b"}) {
		t.Errorf("args = %q", got)
	}
	if f.d.LastCommand() != 0 {
		t.Error("user widgets clear the last command flags")
	}
	if f.d.LastBound() != th {
		t.Error("user widget should become last-bound")
	}

	if err := f.reg.DefineUser("missing", "nope"); err != nil {
		t.Fatal(err)
	}
	r = f.d.Execute(f.reg.Lookup("missing"), nil, false)
	if !errors.Is(r.Error, ErrNoFunction) {
		t.Errorf("error = %v, want ErrNoFunction", r.Error)
	}
	if msg := f.display.last(); msg != "No such shell function `nope'" {
		t.Errorf("message = %q", msg)
	}
	if f.d.LastBound() != th {
		t.Error("a missing function must not become last-bound")
	}
}

func TestTraceSuppressedInUserWidget(t *testing.T) {
	log := &recordingLogger{}
	f := newFixture(t, DefaultConfig().WithTrace(true), WithLogger(log))
	inner := f.define(t, "inner", 0, func(*execctx.Context) handler.Result { return handler.Success() })
	runner := &fakeRunner{funcs: map[string]func(*execctx.Context, []string) (int, error){
		"outer": func(ctx *execctx.Context, args []string) (int, error) {
			return f.d.Execute(inner, []string{}, false).Code(), nil
		},
	}}
	f.d.SetUserRunner(runner)
	if err := f.reg.DefineUser("outer", ""); err != nil {
		t.Fatal(err)
	}

	f.d.Execute(f.reg.Lookup("outer"), nil, false)
	f.d.Execute(inner, nil, false)
	if len(log.debug) != 2 {
		t.Fatalf("trace = %q, want the outer and the second inner call only", log.debug)
	}
}

func TestSetBindk(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	outer := f.reg.Lookup("outer")
	f.d.SetBound(outer)

	var during string
	th := f.define(t, "zle-line-init", 0, func(ctx *execctx.Context) handler.Result {
		during = ctx.Widget
		return handler.Success()
	})

	f.d.Execute(th, nil, true)
	if during != "zle-line-init" {
		t.Errorf("WIDGET during call = %q", during)
	}
	if f.d.Bound() != outer {
		t.Error("bound command should be restored")
	}

	f.d.Execute(th, nil, false)
	if during != "outer" {
		t.Errorf("WIDGET without setBindk = %q", during)
	}
}

func TestSignalsHeldForNative(t *testing.T) {
	h := &countingHolder{}
	f := newFixture(t, DefaultConfig(), WithSignalHolder(h))
	heldDuring := 0
	th := f.define(t, "w", 0, func(*execctx.Context) handler.Result {
		heldDuring = h.held
		return handler.Success()
	})
	f.d.Execute(th, nil, false)
	if heldDuring != 1 || h.held != 0 || h.releases != 1 {
		t.Errorf("held during=%d after=%d releases=%d", heldDuring, h.held, h.releases)
	}
}

func TestPanicRecovery(t *testing.T) {
	log := &recordingLogger{}
	f := newFixture(t, DefaultConfig().WithMetrics(), WithLogger(log))
	th := f.define(t, "boom", 0, func(*execctx.Context) handler.Result { panic("oops") })

	r := f.d.Execute(th, nil, false)
	if !errors.Is(r.Error, ErrPanic) {
		t.Errorf("error = %v, want ErrPanic", r.Error)
	}
	if f.d.Metrics().TotalPanics() != 1 {
		t.Error("panic not recorded")
	}
	if len(log.warn) != 1 {
		t.Errorf("warnings = %d, want 1", len(log.warn))
	}
}

func TestHooks(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ran := false
	th := f.define(t, "w", 0, func(*execctx.Context) handler.Result {
		ran = true
		return handler.Errorf("bad")
	})

	log := &recordingLogger{}
	f.d.RegisterPostHook(NewLoggingHook(log))
	var post []string
	f.d.RegisterPostHook(PostDispatchFunc(func(w string, _ *execctx.Context, r *handler.Result) {
		post = append(post, w+":"+r.Status.String())
	}))

	f.d.Execute(th, nil, false)
	if !ran || !slices.Equal(post, []string{"w:error"}) || len(log.warn) != 1 {
		t.Errorf("ran=%v post=%v warn=%v", ran, post, log.warn)
	}

	f.d.RegisterPreHook(PreDispatchFunc(func(string, *execctx.Context) bool { return false }))
	ran = false
	r := f.d.Execute(th, nil, false)
	if ran || !errors.Is(r.Error, ErrCancelled) {
		t.Errorf("cancelled hook: ran=%v result=%+v", ran, r)
	}
}

func TestExecuteWithoutSession(t *testing.T) {
	d := NewWithDefaults(widget.NewRegistry())
	if r := d.Execute(d.Widgets().Lookup("x"), nil, false); !errors.Is(r.Error, ErrNoSession) {
		t.Errorf("result = %+v", r)
	}
}
