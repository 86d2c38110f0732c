package reader

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

var (
	errTimedOut    = errors.New("timed out")
	errInterrupted = errors.New("interrupted")
)

const watchEvents = unix.POLLIN | unix.POLLERR | unix.POLLHUP | unix.POLLNVAL

// composeTimeout wraps ComposeTimeout with the redisplay that must follow
// any callback it ran.
func (r *Reader) composeTimeout(req KeyTimeout) Timeout {
	t, ran := ComposeTimeout(req, r.cfg.KeyTimeout, r.sched)
	if ran > 0 {
		r.refreshIfNeeded()
	}
	return t
}

// rawGetByte waits for the terminal and reads one byte. Ready watched
// descriptors and due callbacks are serviced while waiting. It returns
// the read's count and error unchanged, or errTimedOut on a key timeout,
// or errInterrupted when an interrupt is pending.
func (r *Reader) rawGetByte(req KeyTimeout, b *byte) (int, error) {
	t := r.composeTimeout(req)
	watches := r.watches.Snapshot()
	tty := r.term.Fd()

	fds := make([]unix.PollFd, 0, 2+len(watches))
	fds = append(fds, unix.PollFd{Fd: int32(tty), Events: unix.POLLIN})
	wake := -1
	if r.intr != nil {
		wake = len(fds)
		fds = append(fds, unix.PollFd{Fd: int32(r.intr.FD()), Events: unix.POLLIN})
	}
	base := len(fds)
	for _, w := range watches {
		fds = append(fds, unix.PollFd{Fd: int32(w.FD), Events: unix.POLLIN})
	}

	errtry := false
	for {
		set := fds
		if errtry {
			set = fds[:base]
		}
		for i := range set {
			set[i].Revents = 0
		}
		n, err := unix.Poll(set, t.Millis())
		if err != nil {
			if r.interrupted() {
				return -1, errInterrupted
			}
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if !errtry {
				r.logger.Warn("poll failed, retrying with terminal only: %v", err)
				errtry = true
				continue
			}
			return -1, err
		}
		if n == 0 {
			switch t.Kind {
			case TimeoutNone, TimeoutKey:
				return 0, errTimedOut
			case TimeoutScheduled:
				if r.sched.RunDue() > 0 {
					r.refreshIfNeeded()
				}
			}
			t = r.composeTimeout(req)
			continue
		}
		if wake >= 0 && set[wake].Revents != 0 {
			if r.intr.settle() {
				return -1, errInterrupted
			}
		}
		if !errtry && len(watches) > 0 {
			errtry = r.fireWatches(watches, set[base:])
		}
		re := set[0].Revents
		if re&unix.POLLNVAL != 0 {
			return -1, unix.EBADF
		}
		if re&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			buf := []byte{0}
			n, err := unix.Read(tty, buf)
			*b = buf[0]
			return n, err
		}
	}
}

// fireWatches runs the handlers of ready descriptors in registration
// order and reports whether a handler failed.
func (r *Reader) fireWatches(watches []Watch, polled []unix.PollFd) bool {
	failed := false
	r.watches.beginPass()
	for i, w := range watches {
		re := polled[i].Revents
		if re&watchEvents == 0 {
			continue
		}
		var conds []string
		if re&unix.POLLERR != 0 {
			conds = append(conds, "err")
		}
		if re&unix.POLLHUP != 0 {
			conds = append(conds, "hup")
		}
		if re&unix.POLLNVAL != 0 {
			conds = append(conds, "nval")
		}
		if r.onWatch == nil {
			continue
		}
		if err := r.onWatch(w, conds); err != nil {
			r.logger.Warn("watch handler %s for fd %d failed: %v", w.Handler, w.FD, err)
			failed = true
			break
		}
	}
	r.watches.endPass()
	r.refreshIfNeeded()
	return failed
}

func (r *Reader) interrupted() bool {
	return r.intr != nil && r.intr.Pending()
}

// InputReady waits up to d for terminal input. Pushed-back bytes count
// as ready input. Callbacks and watched descriptors are not serviced.
func (r *Reader) InputReady(d time.Duration) bool {
	if r.pushback.Len() > 0 {
		return true
	}
	fds := []unix.PollFd{{Fd: int32(r.term.Fd()), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, int(d/time.Millisecond))
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return err == nil && n > 0
	}
}
