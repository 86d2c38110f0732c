package zle

import (
	"errors"
	"strings"
	"unicode"

	"github.com/dshills/keyline/internal/reader"
)

// Minibuffer editing keys.
const (
	ctrlG     = 0x07
	ctrlH     = 0x08
	ctrlU     = 0x15
	ctrlW     = 0x17
	escape    = 0x1b
	backspace = 0x7f
)

// ReadCommandName reads a widget name on the status line. Space and tab
// complete the name, return accepts it, and ^G, escape or EOF abort with
// an empty name.
func (e *Editor) ReadCommandName(prompt string) (string, error) {
	if e.minibuf {
		return "", ErrMinibuffer
	}
	e.minibuf = true
	defer func() {
		e.minibuf = false
		e.display.Status("")
	}()

	var name []rune
	for {
		e.display.Status(prompt + string(name) + "_")
		e.display.Refresh()

		r, err := e.rd.GetFullChar(reader.NoKeyTimeout)
		if err != nil {
			if errors.Is(err, reader.ErrInvalidSequence) {
				e.display.Feep()
				continue
			}
			return "", err
		}
		switch r {
		case reader.EOF, ctrlG, escape:
			return "", nil
		case '\n', '\r':
			return string(name), nil
		case backspace, ctrlH:
			if len(name) == 0 {
				e.display.Feep()
				continue
			}
			name = name[:len(name)-1]
		case ctrlU, ctrlW:
			name = name[:0]
		case ' ', '\t':
			name = e.completeName(name)
		default:
			if !unicode.IsPrint(r) {
				e.display.Feep()
				continue
			}
			name = append(name, r)
		}
	}
}

// completeName extends name to the longest prefix shared by the widgets
// it matches, listing them when it cannot be extended.
func (e *Editor) completeName(name []rune) []rune {
	matches, common := e.widgets.Complete(string(name))
	switch {
	case len(matches) == 0:
		e.display.Feep()
	case len(common) > len(string(name)):
		return []rune(common)
	case len(matches) > 1:
		e.display.Message(strings.Join(matches, "  "))
	}
	return name
}
