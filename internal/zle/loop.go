package zle

import (
	"fmt"
	"time"

	"github.com/dshills/keyline/internal/dispatcher/handler"
	"github.com/dshills/keyline/internal/input/keymap"
	"github.com/dshills/keyline/internal/widget"
)

// maxBatchWait caps the wait for more input before a throttled redisplay.
const maxBatchWait = 500 * time.Millisecond

// core dispatches commands until the session is done, fails, or is
// asked to exit.
func (e *Editor) core() {
	s := e.s
	for s.running() {
		if e.display.StatusLine() != "" {
			e.display.Status("")
		}
		s.lineRange = false
		e.reselectKeymap()

		t, err := e.getKeyCmd()
		if t == nil {
			s.fail(err)
			break
		}
		s.lastInput = e.rd.Scheduler().Now()
		e.display.ClearMessage()

		// EOF on an empty first line ends the session. undefined-key is
		// resolved for an unbound EOF character, so this is told apart
		// from an interrupt.
		if e.buf.Len() == 0 && s.firstLine() && !s.ignoreEOF() && e.rd.LastByte() == int(e.EOFChar()) {
			s.eofSent = true
			break
		}

		r := e.disp.Execute(t, nil, false)
		e.report(t, r)
		if r.Failed() {
			e.display.Feep()
			if s.eofSent {
				break
			}
		}
		e.mod.Normalize()

		// the vi command cursor never rests past the last character
		if e.kmName == keymap.VICmd && e.buf.Cursor() > 0 && e.buf.Cursor() == e.buf.Len() {
			e.buf.BackwardCluster()
		}
		if e.undoing {
			e.buf.Checkpoint()
		}
		e.redisplay()
	}
}

func (e *Editor) report(t *widget.Thingy, r handler.Result) {
	if r.Message != "" {
		e.display.Message(r.Message)
	}
	if r.Error != nil {
		e.logger.Debug("widget %s: %v", t.Name(), r.Error)
	}
}

// getKeyCmd reads the next key sequence and returns the thingy bound to
// it. It returns nil when no sequence could be read.
func (e *Editor) getKeyCmd() (*widget.Thingy, error) {
	km, ok := e.keymaps.Get(e.kmName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", keymap.ErrNoKeymap, e.kmName)
	}
	name, seq, err := e.resolver.Next(km)
	if name == "" {
		if err == nil {
			err = ErrNoCommand
		}
		return nil, err
	}
	if isFatal(err) {
		return nil, err
	}
	e.keys = seq
	return e.widgets.Lookup(name), nil
}

// reselectKeymap falls back to main when the selected keymap was deleted.
func (e *Editor) reselectKeymap() {
	if _, ok := e.keymaps.Get(e.kmName); !ok {
		e.kmName = keymap.Main
	}
}

// redisplay refreshes unless input is already queued. With a baud rate
// set, it first waits for more input for as long as the last refresh
// would have taken to transmit, so fast typing is drawn in batches.
func (e *Editor) redisplay() {
	if e.rd.Pending() > 0 {
		return
	}
	if e.cfg.Baud > 0 && e.disp.LastCommand()&widget.MenuCompletion == 0 {
		if e.rd.InputReady(e.batchWait()) {
			return
		}
	}
	e.display.Refresh()
}

// batchWait is the transmit time of the last refresh at the configured
// baud rate.
func (e *Editor) batchWait() time.Duration {
	costmult := 3840000 / e.cfg.Baud
	to := time.Duration(e.display.Cost()*costmult/1000) * time.Millisecond
	return min(to, maxBatchWait)
}
