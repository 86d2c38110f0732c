package builtin

import (
	"errors"
	"slices"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/dshills/keyline/internal/buffer"
	"github.com/dshills/keyline/internal/dispatcher/execctx"
	"github.com/dshills/keyline/internal/dispatcher/handler"
	"github.com/dshills/keyline/internal/input"
	"github.com/dshills/keyline/internal/input/key"
	"github.com/dshills/keyline/internal/input/keymap"
	"github.com/dshills/keyline/internal/reader"
	"github.com/dshills/keyline/internal/widget"
)

type scriptInput struct {
	data   []byte
	pushed []byte
	last   int
}

func (s *scriptInput) GetByte() (int, error) {
	if n := len(s.pushed); n > 0 {
		c := s.pushed[n-1]
		s.pushed = s.pushed[:n-1]
		s.last = int(c)
		return s.last, nil
	}
	if len(s.data) == 0 {
		s.last = reader.EOF
		return reader.EOF, reader.ErrTimeout
	}
	s.last = int(s.data[0])
	s.data = s.data[1:]
	return s.last, nil
}

func (s *scriptInput) GetFullChar() (rune, error) {
	c, err := s.GetByte()
	if err != nil {
		return reader.EOF, err
	}
	return s.GetRestChar(c)
}

func (s *scriptInput) GetRestChar(first int) (rune, error) {
	if first == reader.EOF {
		return reader.EOF, nil
	}
	p := []byte{byte(first)}
	for !utf8.FullRune(p) {
		c, err := s.GetByte()
		if err != nil {
			return '?', nil
		}
		p = append(p, byte(c))
	}
	r, _ := utf8.DecodeRune(p)
	if r == utf8.RuneError {
		return r, reader.ErrInvalidSequence
	}
	return r, nil
}

func (s *scriptInput) PushBack(p []byte) {
	for i := len(p) - 1; i >= 0; i-- {
		s.pushed = append(s.pushed, p[i])
	}
}

func (s *scriptInput) LastByte() int { return s.last }

type stubDisplay struct {
	status   string
	messages []string
	feeps    int
	invalid  int
	cleared  int
}

func (d *stubDisplay) Message(msg string) { d.messages = append(d.messages, msg) }
func (d *stubDisplay) Status(text string) { d.status = text }
func (d *stubDisplay) StatusLine() string { return d.status }
func (d *stubDisplay) Refresh()           {}
func (d *stubDisplay) Invalidate()        { d.invalid++ }
func (d *stubDisplay) ClearScreen() error { d.cleared++; return nil }
func (d *stubDisplay) Feep()              { d.feeps++ }

type stubEditor struct {
	keymaps  *keymap.Registry
	kmName   string
	history  []string
	hist     int
	lastCol  int
	accepted bool
	broke    bool
	seq      []byte
	binding  keymap.Binding
	command  string
	calls    []string
}

func (e *stubEditor) Accept()        { e.accepted = true }
func (e *stubEditor) AcceptAndHold() { e.accepted = true }
func (e *stubEditor) SendBreak()     { e.broke = true }
func (e *stubEditor) PushLine()      {}
func (e *stubEditor) UpHistory(n int) bool {
	if e.hist-n < 0 {
		return false
	}
	e.hist -= n
	return true
}
func (e *stubEditor) DownHistory(n int) bool {
	if e.hist+n >= len(e.history) {
		return false
	}
	e.hist += n
	return true
}
func (e *stubEditor) HistNo() int                    { return e.hist }
func (e *stubEditor) LastCol() int                   { return e.lastCol }
func (e *stubEditor) SetLastCol(col int)             { e.lastCol = col }
func (e *stubEditor) KeymapName() string             { return e.kmName }
func (e *stubEditor) SelectKeymap(name string) error { e.kmName = name; return nil }
func (e *stubEditor) Keymaps() *keymap.Registry      { return e.keymaps }
func (e *stubEditor) ReadKeySequence() ([]byte, keymap.Binding, error) {
	return e.seq, e.binding, nil
}
func (e *stubEditor) ReadCommandName(string) (string, error) { return e.command, nil }
func (e *stubEditor) Call(name string, args []string) int {
	e.calls = append(e.calls, name)
	return 0
}
func (e *stubEditor) RecursiveEdit() int                      { return 1 }
func (e *stubEditor) ResetPrompt()                            {}
func (e *stubEditor) EOFChar() byte                           { return 4 }
func (e *stubEditor) ContextName() string                     { return "start" }
func (e *stubEditor) Watch(int, string, execctx.WatchFunc)    {}
func (e *stubEditor) Unwatch(int) bool                        { return false }
func (e *stubEditor) Schedule(time.Duration, func())          {}

type env struct {
	ctx     *execctx.Context
	in      *scriptInput
	display *stubDisplay
	editor  *stubEditor
}

func newEnv(t *testing.T, line string, cs int) *env {
	t.Helper()
	buf := buffer.New()
	buf.SetLine(line)
	buf.SetCursor(cs)
	mod := input.NewModifier()
	reg := keymap.NewRegistry()
	if err := keymap.LoadDefaults(reg, keymap.Emacs); err != nil {
		t.Fatal(err)
	}
	e := &env{
		in:      &scriptInput{last: reader.EOF},
		display: &stubDisplay{},
		editor:  &stubEditor{keymaps: reg, kmName: keymap.Main, lastCol: -1},
	}
	e.ctx = execctx.New(buf, &mod).WithInput(e.in).WithDisplay(e.display).WithEditor(e.editor)
	return e
}

func (e *env) check(t *testing.T, line string, cs int) {
	t.Helper()
	if got := e.ctx.Buffer.String(); got != line {
		t.Errorf("line = %q, want %q", got, line)
	}
	if got := e.ctx.Buffer.Cursor(); got != cs {
		t.Errorf("cursor = %d, want %d", got, cs)
	}
}

func TestEditingWidgets(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		cs     int
		mult   int
		fn     handler.Func
		failed bool
		want   string
		wantCS int
	}{
		{"forward-char", "abc", 0, 2, forwardChar, false, "abc", 2},
		{"forward-char stops at end", "abc", 2, 5, forwardChar, false, "abc", 3},
		{"forward-char negative", "abc", 3, -2, forwardChar, false, "abc", 1},
		{"forward-char over cluster", "e\u0301x", 0, 1, forwardChar, false, "e\u0301x", 2},
		{"backward-char", "abc", 3, 1, backwardChar, false, "abc", 2},
		{"beginning-of-line", "abc", 2, 1, beginningOfLine, false, "abc", 0},
		{"end-of-line", "abc", 1, 1, endOfLine, false, "abc", 3},
		{"end-of-line negative", "abc", 1, -1, endOfLine, false, "abc", 0},
		{"backward-delete-char", "abc", 3, 2, backwardDeleteChar, false, "a", 1},
		{"backward-delete-char clamps", "abc", 1, 5, backwardDeleteChar, false, "bc", 0},
		{"backward-delete-char cluster", "ae\u0301", 3, 1, backwardDeleteChar, false, "a", 1},
		{"delete-char", "abc", 0, 2, deleteChar, false, "c", 0},
		{"delete-char past end", "abc", 2, 2, deleteChar, true, "abc", 2},
		{"delete-char negative", "abc", 3, -1, deleteChar, false, "ab", 2},
		{"kill-line", "abc def", 3, 1, killLine, false, "abc", 3},
		{"backward-kill-line", "abc def", 3, 1, backwardKillLine, false, " def", 0},
		{"kill-word", "abc def ghi", 0, 2, killWord, false, " ghi", 0},
		{"backward-kill-word", "abc def ghi", 11, 1, backwardKillWord, false, "abc def ", 8},
		{"backward-kill-word negative", "abc def", 0, -1, backwardKillWord, false, " def", 0},
		{"transpose-chars", "abc", 1, 1, transposeChars, false, "bac", 2},
		{"transpose-chars at start", "abc", 0, 1, transposeChars, true, "abc", 0},
		{"undefined-key", "abc", 0, 1, undefinedKey, true, "abc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, tt.line, tt.cs)
			if tt.mult != 1 {
				e.ctx.Modifier.SetMult(tt.mult)
			}
			r := tt.fn(e.ctx)
			if r.Failed() != tt.failed {
				t.Errorf("Failed() = %v, want %v", r.Failed(), tt.failed)
			}
			e.check(t, tt.want, tt.wantCS)
		})
	}
}

func TestSelfInsert(t *testing.T) {
	e := newEnv(t, "", 0)
	e.in.last = 'a'
	e.ctx.Modifier.SetMult(3)
	if r := selfInsert(e.ctx); r.Failed() {
		t.Fatal("self-insert failed")
	}
	e.check(t, "aaa", 3)

	e = newEnv(t, "x", 1)
	e.in.last = 0xc3
	e.in.data = []byte{0xa9}
	selfInsert(e.ctx)
	e.check(t, "x\u00e9", 2)

	e = newEnv(t, "", 0)
	e.in.last = 'a'
	e.ctx.Modifier.SetMult(-1)
	if r := selfInsert(e.ctx); !r.Failed() {
		t.Error("negative count should fail")
	}

	e = newEnv(t, "", 0)
	e.in.last = 0x80 | '\r'
	selfInsertUnmeta(e.ctx)
	e.check(t, "\n", 1)
}

func TestQuotedInsert(t *testing.T) {
	e := newEnv(t, "", 0)
	e.in.data = []byte{0x07}
	if r := quotedInsert(e.ctx); r.Failed() {
		t.Fatal("quoted-insert failed")
	}
	e.check(t, "\a", 1)

	if r := quotedInsert(e.ctx); !r.Failed() {
		t.Error("quoted-insert without input should fail")
	}
}

func TestViMotions(t *testing.T) {
	e := newEnv(t, "abc", 1)
	e.editor.kmName = keymap.VICmd
	e.ctx.Modifier.SetMult(5)
	if r := viForwardChar(e.ctx); r.Failed() {
		t.Fatal("vi-forward-char failed")
	}
	e.check(t, "abc", 2)
	if r := viForwardChar(e.ctx); !r.Failed() {
		t.Error("vi-forward-char at the last character should fail in command mode")
	}

	e.ctx.Modifier.SetMult(-1)
	if r := viForwardChar(e.ctx); r.Failed() {
		t.Error("negative vi-forward-char should move back")
	}
	e.check(t, "abc", 1)
	if e.ctx.Modifier.Mult != -1 {
		t.Errorf("Mult = %d, want it restored", e.ctx.Modifier.Mult)
	}

	e = newEnv(t, "abc", 0)
	if r := viBackwardChar(e.ctx); !r.Failed() {
		t.Error("vi-backward-char at start should fail")
	}

	e = newEnv(t, "abc", 3)
	e.editor.kmName = keymap.VIIns
	viCmdMode(e.ctx)
	if e.editor.kmName != keymap.VICmd {
		t.Errorf("keymap = %s", e.editor.kmName)
	}
	e.check(t, "abc", 2)
	viAddNext(e.ctx)
	if e.editor.kmName != keymap.VIIns {
		t.Errorf("keymap = %s", e.editor.kmName)
	}
	e.check(t, "abc", 3)
}

func TestArgumentWidgets(t *testing.T) {
	e := newEnv(t, "", 0)
	mod := e.ctx.Modifier
	for _, c := range []byte("35") {
		e.in.last = int(c)
		if r := digitArgument(e.ctx); r.Failed() {
			t.Fatalf("digit-argument %c failed", c)
		}
		mod.Normalize()
	}
	if !mod.HasMult() || mod.Mult != 35 {
		t.Errorf("Mult = %d, want 35", mod.Mult)
	}

	mod.Init()
	if r := negArgument(e.ctx); r.Failed() {
		t.Fatal("neg-argument failed")
	}
	mod.Normalize()
	e.in.last = '2'
	digitArgument(e.ctx)
	mod.Normalize()
	if mod.Mult != -2 {
		t.Errorf("Mult = %d, want -2", mod.Mult)
	}
	if r := negArgument(e.ctx); !r.Failed() {
		t.Error("neg-argument after digits should fail")
	}
}

func TestUniversalArgument(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    int
		pending []byte
	}{
		{"digits", "-12x", -12, []byte("x")},
		{"bare", "", 4, nil},
		{"minus only", "-a", -1, []byte("a")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, "", 0)
			e.in.data = []byte(tt.data)
			universalArgument(e.ctx)
			e.ctx.Modifier.Normalize()
			if e.ctx.Modifier.Mult != tt.want {
				t.Errorf("Mult = %d, want %d", e.ctx.Modifier.Mult, tt.want)
			}
			if !slices.Equal(e.in.pushed, tt.pending) {
				t.Errorf("pushed back %q, want %q", e.in.pushed, tt.pending)
			}
		})
	}

	e := newEnv(t, "", 0)
	e.ctx.Args = []string{"7"}
	universalArgument(e.ctx)
	if !e.ctx.Modifier.HasMult() || e.ctx.Modifier.Mult != 7 {
		t.Errorf("Mult with argument = %d", e.ctx.Modifier.Mult)
	}
}

func TestArgumentBase(t *testing.T) {
	e := newEnv(t, "", 0)
	e.ctx.Modifier.SetMult(16)
	if r := argumentBase(e.ctx); r.Failed() {
		t.Fatal("argument-base 16 failed")
	}
	if e.ctx.Modifier.Base != 16 || e.ctx.Modifier.HasMult() {
		t.Errorf("modifier = %+v", *e.ctx.Modifier)
	}

	e.ctx.Modifier.SetMult(40)
	if r := argumentBase(e.ctx); !r.Failed() {
		t.Error("base 40 should fail")
	}

	e.ctx.Args = []string{"0x8"}
	argumentBase(e.ctx)
	if e.ctx.Modifier.Base != 8 {
		t.Errorf("Base = %d, want 8", e.ctx.Modifier.Base)
	}
}

func TestHistoryKeepsColumn(t *testing.T) {
	e := newEnv(t, "abcdef", 2)
	e.editor.history = []string{"a", "b", "c"}
	e.editor.hist = 2
	if r := upHistory(e.ctx); r.Failed() {
		t.Fatal("up-history failed")
	}
	if e.editor.hist != 1 || e.editor.lastCol != 2 {
		t.Errorf("hist=%d lastCol=%d", e.editor.hist, e.editor.lastCol)
	}
	if r := downHistory(e.ctx); r.Failed() {
		t.Fatal("down-history failed")
	}
	if r := downHistory(e.ctx); !r.Failed() {
		t.Error("down-history past the newest entry should fail")
	}
}

func TestDescribeKeyBriefly(t *testing.T) {
	e := newEnv(t, "", 0)
	e.editor.seq = key.MustParse("^X?")
	e.editor.binding = keymap.Binding{Widget: "describe-key-briefly"}
	if r := describeKeyBriefly(e.ctx); r.Failed() {
		t.Fatal("describe-key-briefly failed")
	}
	if got := e.display.messages; !slices.Equal(got, []string{"^X? is describe-key-briefly"}) {
		t.Errorf("messages = %q", got)
	}
	if e.display.status != "" {
		t.Error("status line should be cleared")
	}

	e.editor.seq = key.MustParse("^Xg")
	e.editor.binding = keymap.Binding{String: []byte("ls\n")}
	describeKeyBriefly(e.ctx)
	if got := e.display.messages[1]; got != "^Xg is ls^J" {
		t.Errorf("string binding message = %q", got)
	}

	e.display.status = "busy"
	if r := describeKeyBriefly(e.ctx); !r.Failed() {
		t.Error("describe-key-briefly with a status line should fail")
	}
}

func TestWhereIs(t *testing.T) {
	tests := []struct {
		widget string
		want   string
	}{
		{"undo", "undo is on ^X^U ^_"},
		{"digit-argument", "digit-argument is on ^[0 ^[1 ^[2 ^[3 et al"},
		{"push-input", "push-input is not bound to any key"},
	}
	for _, tt := range tests {
		t.Run(tt.widget, func(t *testing.T) {
			e := newEnv(t, "", 0)
			e.editor.command = tt.widget
			whereIs(e.ctx)
			if len(e.display.messages) != 1 || e.display.messages[0] != tt.want {
				t.Errorf("messages = %q, want %q", e.display.messages, tt.want)
			}
		})
	}
}

func TestSessionWidgets(t *testing.T) {
	e := newEnv(t, "ls", 2)
	if r := acceptLine(e.ctx); r.Failed() || !e.editor.accepted {
		t.Error("accept-line did not accept")
	}
	if r := sendBreak(e.ctx); r.Status != handler.StatusCancelled || !e.editor.broke {
		t.Errorf("send-break = %+v", r)
	}
	if r := recursiveEdit(e.ctx); !r.Failed() {
		t.Error("recursive-edit should report the nested error status")
	}
	clearScreen(e.ctx)
	beep(e.ctx)
	if e.display.cleared != 1 || e.display.feeps != 1 || e.display.invalid != 1 {
		t.Errorf("display = %+v", e.display)
	}

	e.editor.command = "forward-char"
	if r := executeNamedCmd(e.ctx); r.Failed() {
		t.Error("execute-named-cmd failed")
	}
	if !slices.Equal(e.editor.calls, []string{"forward-char"}) {
		t.Errorf("calls = %v", e.editor.calls)
	}
	e.editor.command = ""
	if r := executeNamedCmd(e.ctx); !r.Failed() {
		t.Error("execute-named-cmd without a name should fail")
	}
}

type stubCompleter struct {
	widgets []string
}

func (c *stubCompleter) Complete(ctx *execctx.Context, w string) handler.Result {
	c.widgets = append(c.widgets, w)
	return handler.Success()
}

func TestRegister(t *testing.T) {
	reg := widget.NewRegistry()
	if err := Register(reg, nil); err != nil {
		t.Fatal(err)
	}
	for _, e := range natives() {
		if _, ok := reg.Get(e.name); !ok {
			t.Errorf("%s not defined", e.name)
		}
		if _, ok := reg.Get("." + e.name); !ok {
			t.Errorf(".%s not defined", e.name)
		}
	}
	if _, ok := reg.Get("complete-word"); ok {
		t.Error("completion widgets need a completer")
	}

	c := &stubCompleter{}
	reg = widget.NewRegistry()
	if err := Register(reg, c); err != nil {
		t.Fatal(err)
	}
	th, ok := reg.Get("menu-complete")
	if !ok {
		t.Fatal("menu-complete not defined")
	}
	w := th.Widget()
	comp, ok := w.Handler.(widget.Completion)
	if !ok || !w.Has(widget.MenuCompletion) {
		t.Fatalf("menu-complete = %#v", w)
	}

	e := newEnv(t, "ab", 2)
	comp.Fn(e.ctx)
	dcl, _ := reg.Get("delete-char-or-list")
	dcl.Widget().Handler.(widget.Native).Fn(e.ctx)
	e.ctx.Buffer.SetCursor(0)
	dcl.Widget().Handler.(widget.Native).Fn(e.ctx)
	if !slices.Equal(c.widgets, []string{"menu-complete", "list-choices"}) {
		t.Errorf("completer calls = %v", c.widgets)
	}
	e.check(t, "b", 0)

	if err := reg.Define(".self-insert", w); !errors.Is(err, widget.ErrProtected) {
		t.Errorf("redefining .self-insert = %v", err)
	}
}
