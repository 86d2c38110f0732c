package keymap

import (
	"fmt"

	"github.com/dshills/keyline/internal/input/key"
)

// Binding is the target of a key sequence: a widget, or a string that is
// pushed back into the input.
type Binding struct {
	Widget string
	String []byte
}

// IsString reports whether the binding sends a string.
func (b Binding) IsString() bool {
	return b.Widget == ""
}

// Describe returns the binding as it is listed.
func (b Binding) Describe() string {
	if b.IsString() {
		return key.Quote(b.String)
	}
	return b.Widget
}

// Entry is one binding together with its key sequence.
type Entry struct {
	Keys    []byte
	Binding Binding
}

func (e Entry) String() string {
	return fmt.Sprintf("%s %s", key.Quote(e.Keys), e.Binding.Describe())
}
