package reader

import (
	"sync"

	"golang.org/x/sys/unix"
)

// Interrupt is the user-interrupt flag plus a self-pipe that wakes a
// blocked poll. Raise is safe to call from any goroutine.
//
// While held, Raise only records the interrupt; it is delivered when the
// last hold is released. Handlers run with the interrupt held.
type Interrupt struct {
	mu      sync.Mutex
	rfd     int
	wfd     int
	pending bool
	held    int
	queued  bool
	closed  bool
}

// NewInterrupt creates the interrupt pipe.
func NewInterrupt() (*Interrupt, error) {
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return nil, err
	}
	for _, fd := range p {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(p[0])
			unix.Close(p[1])
			return nil, err
		}
	}
	return &Interrupt{rfd: p[0], wfd: p[1]}, nil
}

// FD returns the read end of the pipe for polling.
func (i *Interrupt) FD() int {
	return i.rfd
}

// Raise flags an interrupt and wakes any blocked read.
func (i *Interrupt) Raise() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return
	}
	if i.held > 0 {
		i.queued = true
		return
	}
	i.deliver()
}

func (i *Interrupt) deliver() {
	i.pending = true
	_, _ = unix.Write(i.wfd, []byte{1})
}

// Pending reports whether an interrupt is flagged.
func (i *Interrupt) Pending() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.pending
}

// Clear resets the flag and drains the pipe.
func (i *Interrupt) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pending = false
	i.drain()
}

func (i *Interrupt) drain() {
	var buf [16]byte
	for {
		n, err := unix.Read(i.rfd, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// settle drains a stale wakeup and reports whether an interrupt is pending.
func (i *Interrupt) settle() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.pending {
		i.drain()
	}
	return i.pending
}

// Hold defers delivery of interrupts until the matching Release.
func (i *Interrupt) Hold() {
	i.mu.Lock()
	i.held++
	i.mu.Unlock()
}

// Release ends one Hold, delivering a queued interrupt when none remain.
func (i *Interrupt) Release() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.held == 0 {
		return
	}
	i.held--
	if i.held == 0 && i.queued {
		i.queued = false
		if !i.closed {
			i.deliver()
		}
	}
}

// Close closes both ends of the pipe.
func (i *Interrupt) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return ErrClosed
	}
	i.closed = true
	unix.Close(i.wfd)
	return unix.Close(i.rfd)
}
