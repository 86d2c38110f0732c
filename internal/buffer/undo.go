package buffer

import "slices"

// InitUndo discards the undo history and records the current line as its
// starting point.
func (b *Buffer) InitUndo() {
	b.history = []state{{line: slices.Clone(b.line), cs: b.cs}}
	b.pos = 0
}

// Changed reports whether the line differs from the last checkpoint.
func (b *Buffer) Changed() bool {
	return !slices.Equal(b.line, b.history[b.pos].line)
}

// Checkpoint records the line as an undo step if it changed. Steps that
// had been undone are discarded.
func (b *Buffer) Checkpoint() bool {
	if !b.Changed() {
		b.history[b.pos].cs = b.cs
		return false
	}
	b.history = append(b.history[:b.pos+1], state{line: slices.Clone(b.line), cs: b.cs})
	b.pos++
	return true
}

// Undo restores the previous checkpoint. Uncommitted changes are
// checkpointed first so that they are what gets undone.
func (b *Buffer) Undo() bool {
	b.Checkpoint()
	if b.pos == 0 {
		return false
	}
	b.pos--
	b.restore(b.history[b.pos])
	return true
}

// Redo reapplies the most recently undone checkpoint.
func (b *Buffer) Redo() bool {
	if b.pos+1 >= len(b.history) {
		return false
	}
	b.pos++
	b.restore(b.history[b.pos])
	return true
}

// UndoDepth returns the number of steps that can be undone.
func (b *Buffer) UndoDepth() int {
	return b.pos
}

func (b *Buffer) restore(s state) {
	b.line = slices.Clone(s.line)
	b.cs = min(s.cs, len(b.line))
	b.mark = min(b.mark, len(b.line))
}
