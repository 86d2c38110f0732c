// Package display redraws the edit line below the prompt.
package display

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2/terminfo"
	_ "github.com/gdamore/tcell/v2/terminfo/base" // common terminal descriptions
	"github.com/rivo/uniseg"

	"github.com/dshills/keyline/internal/buffer"
)

// Control sequences used when the terminal description lacks them.
const (
	eraseToEOL    = "\x1b[K"
	eraseBelow    = "\x1b[J"
	clearFallback = "\x1b[H\x1b[2J"
	bell          = "\a"
)

// Sizer reports the terminal size.
type Sizer interface {
	Size() (width, height int)
}

// Display draws one edit line with its prompts, plus an optional status
// line and message below it. It is used from the editor goroutine only.
type Display struct {
	out   io.Writer
	size  Sizer
	ti    *terminfo.Terminfo
	beep  bool
	frame bytes.Buffer

	buf     *buffer.Buffer
	lprompt string
	rprompt string
	status  string
	message string

	needsRefresh bool
	cost         int
}

// Option configures a Display.
type Option func(*Display)

// WithTerminfo uses ti for clear-screen and padding.
func WithTerminfo(ti *terminfo.Terminfo) Option {
	return func(d *Display) {
		d.ti = ti
	}
}

// WithBeep sets whether Feep rings the bell.
func WithBeep(on bool) Option {
	return func(d *Display) {
		d.beep = on
	}
}

// LookupTerminfo returns the description of term, or nil when unknown.
func LookupTerminfo(term string) *terminfo.Terminfo {
	if term == "" {
		return nil
	}
	ti, err := terminfo.LookupTerminfo(term)
	if err != nil {
		return nil
	}
	return ti
}

// New creates a display writing to out. size may be nil, in which case
// the line is assumed to be 80 columns wide.
func New(out io.Writer, size Sizer, opts ...Option) *Display {
	d := &Display{
		out:          out,
		size:         size,
		beep:         true,
		needsRefresh: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetBeep changes whether Feep rings the bell.
func (d *Display) SetBeep(on bool) {
	d.beep = on
}

// Attach sets the buffer drawn by Refresh.
func (d *Display) Attach(buf *buffer.Buffer) {
	d.buf = buf
	d.needsRefresh = true
}

// SetPrompts sets the left and right prompts.
func (d *Display) SetPrompts(left, right string) {
	d.lprompt, d.rprompt = left, right
	d.needsRefresh = true
}

// Prompts returns the left and right prompts.
func (d *Display) Prompts() (string, string) {
	return d.lprompt, d.rprompt
}

// Message shows msg below the edit line until ClearMessage.
func (d *Display) Message(msg string) {
	d.message = msg
	d.needsRefresh = true
}

// ClearMessage removes the message, as when the next key is read.
func (d *Display) ClearMessage() {
	if d.message != "" {
		d.message = ""
		d.needsRefresh = true
	}
}

// Status sets the status line; "" removes it.
func (d *Display) Status(text string) {
	d.status = text
	d.needsRefresh = true
}

// StatusLine returns the status line being shown.
func (d *Display) StatusLine() string {
	return d.status
}

// Invalidate forces the next refresh.
func (d *Display) Invalidate() {
	d.needsRefresh = true
}

// NeedsRefresh reports whether the screen is out of date.
func (d *Display) NeedsRefresh() bool {
	return d.needsRefresh
}

// Cost returns the number of bytes written by the last refresh.
func (d *Display) Cost() int {
	return d.cost
}

func (d *Display) width() int {
	if d.size != nil {
		if w, _ := d.size.Size(); w > 0 {
			return w
		}
	}
	return 80
}

// Refresh redraws the prompt, the line, the right prompt and any text
// below, then places the cursor.
func (d *Display) Refresh() {
	f := &d.frame
	f.Reset()

	line, left := "", ""
	if d.buf != nil {
		line, left = d.buf.String(), d.buf.Left()
	}
	width := d.width()
	lw := uniseg.StringWidth(d.lprompt)
	linew := uniseg.StringWidth(line)

	f.WriteByte('\r')
	f.WriteString(d.lprompt)
	f.WriteString(line)
	f.WriteString(eraseToEOL)
	if d.rprompt != "" {
		rw := uniseg.StringWidth(d.rprompt)
		if gap := width - 1 - lw - linew - rw; gap > 0 {
			f.WriteString(strings.Repeat(" ", gap))
			f.WriteString(d.rprompt)
		}
	}
	f.WriteString(eraseBelow)

	below := 0
	for _, text := range []string{d.status, d.message} {
		if text == "" {
			continue
		}
		for _, l := range strings.Split(text, "\n") {
			f.WriteString("\r\n")
			f.WriteString(truncate(l, width-1))
			f.WriteString(eraseToEOL)
			below++
		}
	}
	if below > 0 {
		f.WriteString("\x1b[" + strconv.Itoa(below) + "A")
	}

	f.WriteByte('\r')
	if col := lw + uniseg.StringWidth(left); col > 0 {
		f.WriteString("\x1b[" + strconv.Itoa(col) + "C")
	}

	d.cost = f.Len()
	_, _ = d.out.Write(f.Bytes())
	d.needsRefresh = false
}

// truncate cuts s to at most width columns on a grapheme boundary.
func truncate(s string, width int) string {
	if uniseg.StringWidth(s) <= width {
		return s
	}
	var out strings.Builder
	w := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cw := g.Width()
		if w+cw > width {
			break
		}
		out.WriteString(g.Str())
		w += cw
	}
	return out.String()
}

// ClearScreen clears the terminal. The next refresh redraws the line at
// the top.
func (d *Display) ClearScreen() error {
	var err error
	if d.ti != nil && d.ti.Clear != "" {
		var b bytes.Buffer
		d.ti.TPuts(&b, d.ti.Clear)
		_, err = d.out.Write(b.Bytes())
	} else {
		_, err = io.WriteString(d.out, clearFallback)
	}
	d.needsRefresh = true
	return err
}

// Feep rings the bell unless beeping is off.
func (d *Display) Feep() {
	if d.beep {
		_, _ = io.WriteString(d.out, bell)
	}
}

// Trash finishes the session's display: the status line is removed, the
// line is drawn once more and the cursor moves below it and below any
// message, which stays on screen.
func (d *Display) Trash() {
	d.status = ""
	d.Refresh()
	down := 1
	if d.message != "" {
		down += strings.Count(d.message, "\n") + 1
	}
	_, _ = io.WriteString(d.out, strings.Repeat("\r\n", down))
	d.message = ""
	d.needsRefresh = true
}
