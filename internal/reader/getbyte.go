package reader

import (
	"errors"
	"io"

	"golang.org/x/sys/unix"
)

// GetByte returns the next input byte, from the pushback stack if it is
// non-empty, otherwise from the terminal.
//
// On a key timeout it returns EOF and ErrTimeout without consuming input.
// When an interrupt is pending it returns EOF and ErrInterrupted, leaving
// the interrupt pending. Unrecoverable terminal conditions return EOF and
// a *FatalError.
//
// Carriage return and newline are exchanged on bytes read from the
// terminal, undoing the exchange the terminal driver is configured to make.
func (r *Reader) GetByte(req KeyTimeout) (int, error) {
	r.lastRuneValid = false

	if b, ok := r.pushback.Pop(); ok {
		r.last = int(b)
		return r.last, nil
	}

	var (
		c    byte
		eofs int
		die  bool
	)
	for {
		n, err := r.rawGetByte(req, &c)
		switch {
		case errors.Is(err, errTimedOut):
			r.last = EOF
			return EOF, ErrTimeout
		case errors.Is(err, errInterrupted):
			r.last = EOF
			return EOF, ErrInterrupted
		case err == nil && n == 1:
		case err == nil && n == 0:
			if r.cfg.IgnoreEOF && eofs < r.cfg.MaxEOFRetries {
				eofs++
				continue
			}
			r.last = EOF
			return EOF, &FatalError{Op: "read", Err: ErrTerminalEOF}
		case errors.Is(err, unix.EINTR):
			eofs = 0
			continue
		case errors.Is(err, unix.EAGAIN):
			eofs = 0
			if serr := r.term.SetBlocking(); serr != nil {
				r.last = EOF
				return EOF, &FatalError{Op: "read", Err: serr}
			}
			continue
		case errors.Is(err, unix.EIO) && !die:
			eofs = 0
			r.logger.Warn("terminal read failed, reattaching: %v", err)
			if aerr := r.term.Reattach(); aerr != nil {
				r.logger.Warn("reattach failed: %v", aerr)
			}
			if r.refresher != nil {
				r.refresher.Refresh()
			}
			die = true
			continue
		default:
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			r.last = EOF
			return EOF, &FatalError{Op: "read", Err: err}
		}
		break
	}

	switch c {
	case '\r':
		c = '\n'
	case '\n':
		c = '\r'
	}
	r.last = int(c)
	return r.last, nil
}
