package dispatcher

import (
	"github.com/dshills/keyline/internal/dispatcher/execctx"
	"github.com/dshills/keyline/internal/dispatcher/handler"
)

// PreDispatchHook is called before a widget runs.
// Returning false cancels the dispatch.
type PreDispatchHook interface {
	PreDispatch(widget string, ctx *execctx.Context) bool
}

// PostDispatchHook is called after a widget ran.
// It may inspect or modify the result.
type PostDispatchHook interface {
	PostDispatch(widget string, ctx *execctx.Context, result *handler.Result)
}

// PreDispatchFunc is a function adapter for PreDispatchHook.
type PreDispatchFunc func(widget string, ctx *execctx.Context) bool

// PreDispatch implements PreDispatchHook.
func (f PreDispatchFunc) PreDispatch(widget string, ctx *execctx.Context) bool {
	return f(widget, ctx)
}

// PostDispatchFunc is a function adapter for PostDispatchHook.
type PostDispatchFunc func(widget string, ctx *execctx.Context, result *handler.Result)

// PostDispatch implements PostDispatchHook.
func (f PostDispatchFunc) PostDispatch(widget string, ctx *execctx.Context, result *handler.Result) {
	f(widget, ctx, result)
}

// LoggingHook logs failed widgets.
type LoggingHook struct {
	Logger Logger
}

// NewLoggingHook creates a new logging hook.
func NewLoggingHook(l Logger) *LoggingHook {
	return &LoggingHook{Logger: l}
}

// PostDispatch logs the result if the widget failed with an error.
func (h *LoggingHook) PostDispatch(widget string, ctx *execctx.Context, result *handler.Result) {
	if h.Logger == nil || result.Error == nil {
		return
	}
	h.Logger.Warn("widget %s: %s: %v", widget, result.Status, result.Error)
}

// RegisterPreHook registers a pre-dispatch hook.
func (d *Dispatcher) RegisterPreHook(hook PreDispatchHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.preHooks = append(d.preHooks, hook)
}

// RegisterPostHook registers a post-dispatch hook.
func (d *Dispatcher) RegisterPostHook(hook PostDispatchHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.postHooks = append(d.postHooks, hook)
}

// runPreHooks runs all pre-dispatch hooks.
// Returns false if any hook cancels the widget.
func (d *Dispatcher) runPreHooks(widget string, ctx *execctx.Context) bool {
	d.mu.RLock()
	hooks := make([]PreDispatchHook, len(d.preHooks))
	copy(hooks, d.preHooks)
	d.mu.RUnlock()

	for _, h := range hooks {
		if !h.PreDispatch(widget, ctx) {
			return false
		}
	}
	return true
}

// runPostHooks runs all post-dispatch hooks.
func (d *Dispatcher) runPostHooks(widget string, ctx *execctx.Context, result *handler.Result) {
	d.mu.RLock()
	hooks := make([]PostDispatchHook, len(d.postHooks))
	copy(hooks, d.postHooks)
	d.mu.RUnlock()

	for _, h := range hooks {
		h.PostDispatch(widget, ctx, result)
	}
}
