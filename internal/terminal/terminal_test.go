package terminal_test

import (
	"errors"
	"os"
	"testing"

	"github.com/dshills/keyline/internal/terminal"
)

func TestOpenNonTerminal(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()

	tty, err := terminal.Open(r, w)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if tty.IsTerminal() {
		t.Error("pipe reported as terminal")
	}
	if tty.EOFChar() != terminal.DefaultEOFChar {
		t.Errorf("EOFChar = %#x, want %#x", tty.EOFChar(), terminal.DefaultEOFChar)
	}
	if err := tty.EnterEditMode(false); err != nil {
		t.Errorf("EnterEditMode: %v", err)
	}
	if tty.InEditMode() {
		t.Error("non-terminal should not enter edit mode")
	}
	if err := tty.Restore(); err != nil {
		t.Errorf("Restore: %v", err)
	}
	if err := tty.Reattach(); !errors.Is(err, terminal.ErrNotTerminal) {
		t.Errorf("Reattach = %v, want ErrNotTerminal", err)
	}
	if w, h := tty.Size(); w != 80 || h != 24 {
		t.Errorf("Size = %dx%d, want 80x24", w, h)
	}
}

func TestSetBlocking(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()

	tty, err := terminal.Open(r, w)
	if err != nil {
		t.Fatal(err)
	}
	if err := tty.SetBlocking(); err != nil {
		t.Errorf("SetBlocking: %v", err)
	}
}

func TestOpenNil(t *testing.T) {
	if _, err := terminal.Open(nil, nil); err == nil {
		t.Error("expected error for nil input")
	}
}
