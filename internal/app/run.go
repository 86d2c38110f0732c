package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/keyline/internal/zle"
)

// Run reads lines until end of input, the idle timeout, a terminal
// failure or ctx is done, writing each accepted line to out followed by
// a newline. Lines abandoned by send-break or a failing widget set the
// status shown by %? to 1; accepted lines set it to 0.
//
// End of input, the idle timeout and ctx ending return nil. A terminal
// failure is returned after the terminal has been restored.
func (a *App) Run(ctx context.Context, out io.Writer) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer a.running.Store(false)

	flags := zle.FlagHistory
	for {
		if ctx.Err() != nil {
			return nil
		}
		if a.Config().Editor.IgnoreEOF {
			flags |= zle.FlagIgnoreEOF
		} else {
			flags &^= zle.FlagIgnoreEOF
		}

		timer := StartTimer()
		line, err := a.editor.ReadLine(ctx, a.opts.Prompt, a.opts.RPrompt, flags, zle.ContextStart)
		if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			a.logger.Debug("read cancelled: %v", err)
			return nil
		}
		outcome := describe(err)
		a.metrics.RecordSession(outcome, timer.Elapsed(), line)

		switch outcome {
		case OutcomeAccepted:
			a.editor.SetLastStatus(0)
			if _, err := fmt.Fprintln(out, line); err != nil {
				return err
			}
		case OutcomeEOF:
			a.logger.Debug("end of input")
			return nil
		case OutcomeEOFIgnored:
		case OutcomeError:
			a.logger.Debug("line abandoned: %v", err)
			a.editor.SetLastStatus(1)
		case OutcomeTimeout:
			a.logger.Info("idle timeout")
			return nil
		case OutcomeFatal:
			a.logger.Error("terminal: %v", err)
			if a.tty.InEditMode() {
				if rerr := a.tty.Restore(); rerr != nil {
					a.logger.Warn("restoring terminal: %v", rerr)
				}
			}
			return err
		}
	}
}

// HandleSignals turns SIGINT into an editor interrupt and cancels the
// returned context on SIGTERM or SIGHUP. Call stop to restore default
// signal handling.
func (a *App) HandleSignals(parent context.Context) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(parent)
	sigs := make(chan os.Signal, 4)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigs:
				if sig == syscall.SIGINT {
					a.intr.Raise()
					continue
				}
				a.logger.Info("received %v", sig)
				cancel()
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return ctx, func() {
		signal.Stop(sigs)
		close(done)
		cancel()
	}
}
