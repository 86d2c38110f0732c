// Package buffer holds the line being edited: its text, the cursor and
// the undo history.
package buffer

import (
	"slices"
	"strings"

	"github.com/rivo/uniseg"
)

// Buffer is a single edit line. The cursor is a rune index in [0, Len()].
type Buffer struct {
	line []rune
	cs   int
	mark int

	history []state
	pos     int
}

type state struct {
	line []rune
	cs   int
}

// New creates an empty buffer with an initialized undo history.
func New() *Buffer {
	b := &Buffer{}
	b.InitUndo()
	return b
}

// String returns the line.
func (b *Buffer) String() string {
	return string(b.line)
}

// Runes returns a copy of the line.
func (b *Buffer) Runes() []rune {
	return slices.Clone(b.line)
}

// Len returns the line length in runes.
func (b *Buffer) Len() int {
	return len(b.line)
}

// At returns the rune at index i.
func (b *Buffer) At(i int) rune {
	return b.line[i]
}

// Cursor returns the cursor position.
func (b *Buffer) Cursor() int {
	return b.cs
}

// SetCursor moves the cursor, clamping it to the line.
func (b *Buffer) SetCursor(cs int) {
	b.cs = max(0, min(cs, len(b.line)))
}

// Mark returns the mark position.
func (b *Buffer) Mark() int {
	return b.mark
}

// SetMark sets the mark, clamping it to the line.
func (b *Buffer) SetMark(m int) {
	b.mark = max(0, min(m, len(b.line)))
}

// Left returns the text before the cursor.
func (b *Buffer) Left() string {
	return string(b.line[:b.cs])
}

// Right returns the text from the cursor on.
func (b *Buffer) Right() string {
	return string(b.line[b.cs:])
}

// Insert inserts s at the cursor and moves the cursor past it.
func (b *Buffer) Insert(s string) {
	r := []rune(s)
	b.line = slices.Insert(b.line, b.cs, r...)
	if b.mark > b.cs {
		b.mark += len(r)
	}
	b.cs += len(r)
}

// DeleteForward deletes up to n runes after the cursor and returns them.
func (b *Buffer) DeleteForward(n int) string {
	end := min(b.cs+n, len(b.line))
	return b.cut(b.cs, end)
}

// DeleteBackward deletes up to n runes before the cursor and returns them.
func (b *Buffer) DeleteBackward(n int) string {
	start := max(b.cs-n, 0)
	out := b.cut(start, b.cs)
	b.cs = start
	return out
}

func (b *Buffer) cut(start, end int) string {
	if start >= end {
		return ""
	}
	out := string(b.line[start:end])
	b.line = slices.Delete(b.line, start, end)
	switch {
	case b.mark >= end:
		b.mark -= end - start
	case b.mark > start:
		b.mark = start
	}
	return out
}

// SetLine replaces the line and puts the cursor at its end.
func (b *Buffer) SetLine(s string) {
	b.line = []rune(s)
	b.cs = len(b.line)
	b.mark = 0
}

// Clear empties the line.
func (b *Buffer) Clear() {
	b.SetLine("")
}

// Transpose swaps the runes before and at the cursor, as transpose-chars
// does; at the end of the line it swaps the two runes before the cursor.
func (b *Buffer) Transpose() bool {
	cs := b.cs
	if cs == len(b.line) {
		cs--
	}
	if cs < 1 || len(b.line) < 2 {
		return false
	}
	b.line[cs-1], b.line[cs] = b.line[cs], b.line[cs-1]
	b.cs = cs + 1
	return true
}

// WordStart returns the index of the start of the word before the cursor.
func (b *Buffer) WordStart() int {
	i := b.cs
	for i > 0 && !isWord(b.line[i-1]) {
		i--
	}
	for i > 0 && isWord(b.line[i-1]) {
		i--
	}
	return i
}

// WordEnd returns the index just past the end of the word after the cursor.
func (b *Buffer) WordEnd() int {
	i := b.cs
	for i < len(b.line) && !isWord(b.line[i]) {
		i++
	}
	for i < len(b.line) && isWord(b.line[i]) {
		i++
	}
	return i
}

func isWord(r rune) bool {
	return !strings.ContainsRune(" \t\n/;&|<>()", r)
}

// boundaries returns the rune indices at which grapheme clusters start,
// plus Len().
func (b *Buffer) boundaries() []int {
	out := []int{0}
	g := uniseg.NewGraphemes(string(b.line))
	n := 0
	for g.Next() {
		n += len(g.Runes())
		out = append(out, n)
	}
	return out
}

// OnBoundary reports whether i starts a grapheme cluster or is Len().
func (b *Buffer) OnBoundary(i int) bool {
	_, found := slices.BinarySearch(b.boundaries(), i)
	return found
}

// AlignCursorRight moves a cursor resting inside a grapheme cluster, such
// as on a combining mark, to the end of that cluster.
func (b *Buffer) AlignCursorRight() {
	bs := b.boundaries()
	i, found := slices.BinarySearch(bs, b.cs)
	if !found && i < len(bs) {
		b.cs = bs[i]
	}
}

// BackwardCluster moves the cursor left by one grapheme cluster.
func (b *Buffer) BackwardCluster() bool {
	if b.cs == 0 {
		return false
	}
	bs := b.boundaries()
	i, _ := slices.BinarySearch(bs, b.cs)
	b.cs = bs[i-1]
	return true
}

// ForwardCluster moves the cursor right by one grapheme cluster.
func (b *Buffer) ForwardCluster() bool {
	if b.cs >= len(b.line) {
		return false
	}
	bs := b.boundaries()
	i, found := slices.BinarySearch(bs, b.cs)
	if found {
		i++
	}
	b.cs = bs[min(i, len(bs)-1)]
	return true
}
