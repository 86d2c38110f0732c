package buffer_test

import (
	"testing"

	"github.com/dshills/keyline/internal/buffer"
)

func TestInsertDelete(t *testing.T) {
	b := buffer.New()
	b.Insert("hello")
	b.SetCursor(0)
	b.Insert(">")
	if b.String() != ">hello" || b.Cursor() != 1 {
		t.Fatalf("after insert: %q cs=%d", b.String(), b.Cursor())
	}
	if got := b.DeleteForward(2); got != "he" {
		t.Errorf("DeleteForward = %q", got)
	}
	if got := b.DeleteBackward(5); got != ">" {
		t.Errorf("DeleteBackward = %q", got)
	}
	if b.String() != "llo" || b.Cursor() != 0 {
		t.Errorf("result %q cs=%d", b.String(), b.Cursor())
	}
	b.SetCursor(99)
	if b.Cursor() != 3 {
		t.Errorf("cursor not clamped: %d", b.Cursor())
	}
}

func TestLeftRight(t *testing.T) {
	b := buffer.New()
	b.SetLine("abcd")
	b.SetCursor(1)
	if b.Left() != "a" || b.Right() != "bcd" {
		t.Errorf("Left/Right = %q/%q", b.Left(), b.Right())
	}
}

func TestTranspose(t *testing.T) {
	tests := []struct {
		line   string
		cs     int
		want   string
		wantCS int
		ok     bool
	}{
		{"ab", 1, "ba", 2, true},
		{"abc", 3, "acb", 3, true},
		{"a", 1, "a", 1, false},
		{"ab", 0, "ab", 0, false},
	}
	for _, tt := range tests {
		b := buffer.New()
		b.SetLine(tt.line)
		b.SetCursor(tt.cs)
		ok := b.Transpose()
		if ok != tt.ok || b.String() != tt.want || b.Cursor() != tt.wantCS {
			t.Errorf("Transpose(%q@%d) = %v %q@%d", tt.line, tt.cs, ok, b.String(), b.Cursor())
		}
	}
}

func TestWordBounds(t *testing.T) {
	b := buffer.New()
	b.SetLine("ls  /usr/lib  ")
	b.SetCursor(12)
	if got := b.WordStart(); got != 9 {
		t.Errorf("WordStart = %d, want 9", got)
	}
	b.SetCursor(2)
	if got := b.WordEnd(); got != 8 {
		t.Errorf("WordEnd = %d, want 8", got)
	}
}

func TestAlignCursorRight(t *testing.T) {
	b := buffer.New()
	// "e" + combining acute accent + "x"
	b.SetLine("e\u0301x")
	b.SetCursor(1)
	b.AlignCursorRight()
	if b.Cursor() != 2 {
		t.Errorf("cursor = %d, want 2", b.Cursor())
	}
	b.SetCursor(0)
	b.AlignCursorRight()
	if b.Cursor() != 0 {
		t.Errorf("cursor on a boundary moved to %d", b.Cursor())
	}
}

func TestClusterMotion(t *testing.T) {
	b := buffer.New()
	b.SetLine("ae\u0301")
	if !b.BackwardCluster() || b.Cursor() != 1 {
		t.Errorf("BackwardCluster: cursor = %d, want 1", b.Cursor())
	}
	if !b.BackwardCluster() || b.Cursor() != 0 {
		t.Errorf("BackwardCluster: cursor = %d, want 0", b.Cursor())
	}
	if b.BackwardCluster() {
		t.Error("BackwardCluster at start should fail")
	}
	b.SetCursor(1)
	if !b.ForwardCluster() || b.Cursor() != 3 {
		t.Errorf("ForwardCluster: cursor = %d, want 3", b.Cursor())
	}
	if b.ForwardCluster() {
		t.Error("ForwardCluster at end should fail")
	}
}

func TestUndo(t *testing.T) {
	b := buffer.New()
	b.Insert("a")
	b.Checkpoint()
	b.Insert("b")
	b.Checkpoint()
	b.Insert("c")

	if !b.Undo() || b.String() != "ab" {
		t.Fatalf("first Undo: %q", b.String())
	}
	if !b.Undo() || b.String() != "a" {
		t.Fatalf("second Undo: %q", b.String())
	}
	if !b.Redo() || b.String() != "ab" {
		t.Fatalf("Redo: %q", b.String())
	}
	b.Undo()
	b.Undo()
	if b.String() != "" {
		t.Errorf("fully undone: %q", b.String())
	}
	if b.Undo() {
		t.Error("Undo past the start should fail")
	}

	b.Insert("z")
	b.Checkpoint()
	if b.Redo() {
		t.Error("Redo after a new change should fail")
	}
}

func TestCheckpointUnchanged(t *testing.T) {
	b := buffer.New()
	if b.Checkpoint() {
		t.Error("Checkpoint without change should not record a step")
	}
	if b.UndoDepth() != 0 {
		t.Errorf("UndoDepth = %d", b.UndoDepth())
	}
}
