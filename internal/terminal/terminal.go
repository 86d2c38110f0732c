// Package terminal configures the controlling terminal for line editing.
package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// DefaultEOFChar is used when the input is not a terminal.
const DefaultEOFChar = 0x04

// Terminal errors.
var (
	// ErrNotTerminal indicates the input descriptor is not a terminal.
	ErrNotTerminal = errors.New("terminal: not a terminal")

	// ErrNotInEditMode indicates Restore was called without EnterEditMode.
	ErrNotInEditMode = errors.New("terminal: not in edit mode")
)

// TTY is the editor's terminal: bytes are read from in and written to out.
type TTY struct {
	in  *os.File
	out *os.File
	fd  int

	isTTY  bool
	saved  *term.State
	eof    byte
	active bool
}

// Open wraps in and out. When in is not a terminal the TTY still reads
// from it but mode changes are no-ops.
func Open(in, out *os.File) (*TTY, error) {
	if in == nil {
		return nil, fmt.Errorf("terminal: open: %w", os.ErrInvalid)
	}
	if out == nil {
		out = in
	}
	fd := int(in.Fd())
	t := &TTY{
		in:    in,
		out:   out,
		fd:    fd,
		isTTY: term.IsTerminal(fd),
		eof:   DefaultEOFChar,
	}
	if t.isTTY {
		tio, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
		if err != nil {
			return nil, fmt.Errorf("terminal: get attributes: %w", err)
		}
		if c := tio.Cc[unix.VEOF]; c != vdisable {
			t.eof = c
		}
	}
	return t, nil
}

// Fd returns the input descriptor.
func (t *TTY) Fd() int {
	return t.fd
}

// Out returns the output writer.
func (t *TTY) Out() io.Writer {
	return t.out
}

// IsTerminal reports whether the input is a terminal.
func (t *TTY) IsTerminal() bool {
	return t.isTTY
}

// EOFChar returns the terminal's end-of-file character.
func (t *TTY) EOFChar() byte {
	return t.eof
}

// EnterEditMode switches the terminal to character-at-a-time input without
// echo. The driver is told to map CR and LF to each other on input; the
// reader swaps them back. Signal-generating keys other than the interrupt
// character are disabled, as are ^S and ^Q unless flowControl is set.
func (t *TTY) EnterEditMode(flowControl bool) error {
	if !t.isTTY || t.active {
		return nil
	}
	saved, err := term.GetState(t.fd)
	if err != nil {
		return fmt.Errorf("terminal: save state: %w", err)
	}
	tio, err := unix.IoctlGetTermios(t.fd, ioctlGetTermios)
	if err != nil {
		return fmt.Errorf("terminal: get attributes: %w", err)
	}
	if c := tio.Cc[unix.VEOF]; c != vdisable {
		t.eof = c
	}

	tio.Lflag &^= unix.ICANON | unix.ECHO
	tio.Iflag |= unix.INLCR | unix.ICRNL
	tio.Oflag |= unix.OPOST | unix.ONLCR
	if !flowControl {
		tio.Iflag &^= unix.IXON
		tio.Cc[unix.VSTART] = vdisable
		tio.Cc[unix.VSTOP] = vdisable
	}
	tio.Cc[unix.VMIN] = 1
	tio.Cc[unix.VTIME] = 0
	tio.Cc[unix.VQUIT] = vdisable
	tio.Cc[unix.VSUSP] = vdisable
	tio.Cc[unix.VLNEXT] = vdisable
	tio.Cc[unix.VDISCARD] = vdisable

	if err := unix.IoctlSetTermios(t.fd, ioctlSetTermios, tio); err != nil {
		return fmt.Errorf("terminal: set attributes: %w", err)
	}
	t.saved = saved
	t.active = true
	return nil
}

// InEditMode reports whether EnterEditMode is in effect.
func (t *TTY) InEditMode() bool {
	return t.active
}

// Restore returns the terminal to the mode saved by EnterEditMode.
func (t *TTY) Restore() error {
	if !t.isTTY {
		return nil
	}
	if !t.active {
		return ErrNotInEditMode
	}
	t.active = false
	if err := term.Restore(t.fd, t.saved); err != nil {
		return fmt.Errorf("terminal: restore: %w", err)
	}
	return nil
}

// SetBlocking clears non-blocking mode on the input.
func (t *TTY) SetBlocking() error {
	return unix.SetNonblock(t.fd, false)
}

// Reattach makes this process group the terminal's foreground group.
func (t *TTY) Reattach() error {
	if !t.isTTY {
		return ErrNotTerminal
	}
	return unix.IoctlSetPointerInt(t.fd, unix.TIOCSPGRP, unix.Getpgrp())
}

// Size returns the output terminal's width and height, falling back to
// 80x24 when it cannot be determined.
func (t *TTY) Size() (width, height int) {
	w, h, err := term.GetSize(int(t.out.Fd()))
	if err != nil || w <= 0 {
		return 80, 24
	}
	return w, h
}

// Write writes to the output.
func (t *TTY) Write(p []byte) (int, error) {
	return t.out.Write(p)
}
