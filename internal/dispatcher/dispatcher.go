package dispatcher

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/keyline/internal/dispatcher/execctx"
	"github.com/dshills/keyline/internal/dispatcher/handler"
	"github.com/dshills/keyline/internal/input/key"
	"github.com/dshills/keyline/internal/widget"
)

// Exit hints shown when EOF is typed under ignore-EOF.
const (
	ExitHint   = "zsh: use 'exit' to exit."
	LogoutHint = "zsh: use 'logout' to logout."
)

// Dispatcher executes widgets.
type Dispatcher struct {
	mu sync.RWMutex

	widgets *widget.Registry
	session Session

	completer Completer
	users     UserRunner
	signals   SignalHolder
	logger    Logger

	config  Config
	metrics *Metrics

	preHooks  []PreDispatchHook
	postHooks []PostDispatchHook

	// bindk is the command being executed, lbindk the previous one.
	bindk  atomic.Pointer[widget.Thingy]
	lbindk atomic.Pointer[widget.Thingy]

	lastcmd  widget.Flags
	untraced int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCompleter sets the collaborator for completion flag effects.
func WithCompleter(c Completer) Option {
	return func(d *Dispatcher) { d.completer = c }
}

// WithUserRunner sets the runner for user-defined widgets.
func WithUserRunner(u UserRunner) Option {
	return func(d *Dispatcher) { d.users = u }
}

// WithSignalHolder sets the interrupt holder used around native widgets.
func WithSignalHolder(h SignalHolder) Option {
	return func(d *Dispatcher) { d.signals = h }
}

// WithLogger sets the trace logger.
func WithLogger(l Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New creates a dispatcher over the widget registry.
func New(config Config, widgets *widget.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		widgets: widgets,
		config:  config,
		logger:  nopLogger{},
	}
	if config.EnableMetrics {
		d.metrics = NewMetrics()
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewWithDefaults creates a dispatcher with default configuration.
func NewWithDefaults(widgets *widget.Registry) *Dispatcher {
	return New(DefaultConfig(), widgets)
}

// SetSession attaches the active edit session; nil detaches it.
func (d *Dispatcher) SetSession(s Session) {
	d.session = s
}

// SetUserRunner replaces the runner for user-defined widgets.
func (d *Dispatcher) SetUserRunner(u UserRunner) {
	d.users = u
}

// Widgets returns the widget registry.
func (d *Dispatcher) Widgets() *widget.Registry {
	return d.widgets
}

// Bound returns the command being executed.
func (d *Dispatcher) Bound() *widget.Thingy {
	return d.bindk.Load()
}

// SetBound records t as the command being executed.
func (d *Dispatcher) SetBound(t *widget.Thingy) {
	d.bindk.Store(t)
}

// LastBound returns the previously executed command.
func (d *Dispatcher) LastBound() *widget.Thingy {
	return d.lbindk.Load()
}

// LastCommand returns the flags of the last widget recorded as a command.
func (d *Dispatcher) LastCommand() widget.Flags {
	return d.lastcmd
}

// ResetLastCommand forgets the last command, as at the start of a line.
func (d *Dispatcher) ResetLastCommand() {
	d.lastcmd = 0
}

// Metrics returns the metrics collector (may be nil if disabled).
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Config returns the dispatcher configuration.
func (d *Dispatcher) Config() Config {
	return d.config
}

// Execute runs the widget named by t. A nil args means the widget was
// invoked from a key binding rather than called by another widget.
// With setBindk the bound command is t for the duration of the call.
func (d *Dispatcher) Execute(t *widget.Thingy, args []string, setBindk bool) handler.Result {
	s := d.session
	if s == nil || t == nil {
		return handler.Error(ErrNoSession)
	}
	if setBindk {
		saved := d.bindk.Swap(t)
		defer d.bindk.Store(saved)
	}
	base := s.Context()
	defer base.Buffer.AlignCursorRight()

	start := time.Now()
	name := t.Name()
	ctx := base.Invocation(thingyName(d.bindk.Load()), thingyName(d.lbindk.Load()), args, s.KeyBuffer())
	if d.config.Trace && d.untraced == 0 {
		d.logger.Debug("widget %s args=%q", name, args)
	}

	var (
		result  handler.Result
		tracked bool
	)
	w := t.Widget()
	switch {
	case w == nil:
		ctx.Message(fmt.Sprintf("No such widget `%s'", key.Describe([]byte(name))))
		result = handler.Fail()
	case !d.runPreHooks(name, ctx):
		result = handler.Error(ErrCancelled)
	default:
		result, tracked = d.run(s, t, w, ctx, args)
	}

	if tracked {
		d.lbindk.Store(t)
	}
	d.runPostHooks(name, ctx, &result)
	if d.metrics != nil {
		d.metrics.RecordDispatch(name, time.Since(start), result.Status)
	}
	return result
}

func (d *Dispatcher) run(s Session, t *widget.Thingy, w *widget.Widget, ctx *execctx.Context, args []string) (handler.Result, bool) {
	switch h := w.Handler.(type) {
	case widget.Native:
		if d.exitHint(s, ctx, args) {
			return handler.Fail(), true
		}
		d.applyFlags(s, ctx, w.Flags)
		result := handler.Success()
		if h.Fn == nil {
			if ctx.Display != nil {
				ctx.Display.Feep()
			}
		} else {
			result = d.runNative(t.Name(), h.Fn, ctx)
		}
		d.recordCommand(w.Flags)
		return result, true

	case widget.Completion:
		if d.exitHint(s, ctx, args) {
			return handler.Fail(), true
		}
		d.applyFlags(s, ctx, w.Flags)
		atNewest := s.HistoryLine() == s.NewestHistory()
		result := d.call(t.Name(), h.Fn, ctx)
		if atNewest {
			s.SetHistoryLine(s.NewestHistory())
		}
		d.recordCommand(w.Flags)
		return result, true

	case widget.User:
		if d.users == nil || !d.users.HasFunction(h.Function) {
			ctx.Message(fmt.Sprintf("No such shell function `%s'", key.Describe([]byte(h.Function))))
			return handler.Error(fmt.Errorf("%w: %s", ErrNoFunction, h.Function)), false
		}
		d.untraced++
		code, err := d.users.RunWidget(ctx, h.Function, append([]string{t.Name()}, args...))
		d.untraced--
		d.lastcmd = 0
		if err != nil {
			return handler.Error(err), true
		}
		return handler.FromCode(code), true
	}
	return handler.Error(ErrNoWidget), false
}

// exitHint handles EOF typed alone on an empty first line while EOF is
// ignored: the hint is shown and the session ends instead of running
// the widget.
func (d *Dispatcher) exitHint(s Session, ctx *execctx.Context, args []string) bool {
	keys := s.KeyBuffer()
	if args != nil || len(keys) != 1 || ctx.Editor == nil || keys[0] != ctx.Editor.EOFChar() {
		return false
	}
	if ctx.Buffer.Len() != 0 || !s.FirstLine() || !s.IgnoreEOF() {
		return false
	}
	if s.Login() {
		ctx.Message(LogoutHint)
	} else {
		ctx.Message(ExitHint)
	}
	s.SetEOFSent()
	return true
}

func (d *Dispatcher) applyFlags(s Session, ctx *execctx.Context, flags widget.Flags) {
	if d.completer != nil {
		if flags&widget.KeepSuffix == 0 {
			d.completer.RemoveSuffix(ctx)
		}
		if flags&widget.MenuCompletion == 0 {
			d.completer.FixSuffix()
			d.completer.InvalidateList()
		}
	}
	if flags&widget.LineMove != 0 {
		s.SetLineRange()
	}
	if flags&widget.LastCol == 0 && ctx.Editor != nil {
		ctx.Editor.SetLastCol(-1)
	}
}

func (d *Dispatcher) recordCommand(flags widget.Flags) {
	if flags&widget.NotCommand == 0 {
		d.lastcmd = flags
	}
}

// runNative runs fn with interrupt delivery held.
func (d *Dispatcher) runNative(name string, fn handler.Func, ctx *execctx.Context) handler.Result {
	if d.signals != nil {
		d.signals.Hold()
		defer d.signals.Release()
	}
	return d.call(name, fn, ctx)
}

func (d *Dispatcher) call(name string, fn handler.Func, ctx *execctx.Context) handler.Result {
	if fn == nil {
		return handler.NoOp()
	}
	if d.config.RecoverFromPanic {
		return d.executeWithRecovery(name, fn, ctx)
	}
	return fn(ctx)
}

// executeWithRecovery executes a widget with panic recovery.
func (d *Dispatcher) executeWithRecovery(name string, fn handler.Func, ctx *execctx.Context) (result handler.Result) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)

			d.logger.Warn("widget %s panicked: %v\n%s", name, r, stack[:n])
			result = handler.Error(fmt.Errorf("%w: %s: %v", ErrPanic, name, r))

			if d.metrics != nil {
				d.metrics.RecordPanic(name)
			}
		}
	}()

	return fn(ctx)
}

func thingyName(t *widget.Thingy) string {
	if t == nil {
		return ""
	}
	return t.Name()
}
