package keymap

import (
	"errors"
	"sort"
)

// Keymap errors.
var (
	ErrEmptySequence = errors.New("keymap: empty key sequence")
	ErrEmptyTarget   = errors.New("keymap: binding has no target")
	ErrNoKeymap      = errors.New("keymap: no such keymap")
	ErrReadOnly      = errors.New("keymap: keymap cannot be deleted")
)

type node struct {
	children map[byte]*node
	binding  *Binding
}

// Keymap is a named byte trie of bindings.
type Keymap struct {
	name string
	root node
	size int
}

// New creates an empty keymap.
func New(name string) *Keymap {
	return &Keymap{name: name}
}

// Name returns the keymap's primary name.
func (k *Keymap) Name() string {
	return k.name
}

// Len returns the number of bindings.
func (k *Keymap) Len() int {
	return k.size
}

// Bind binds seq to a widget.
func (k *Keymap) Bind(seq []byte, widget string) error {
	if widget == "" {
		return ErrEmptyTarget
	}
	return k.set(seq, Binding{Widget: widget})
}

// BindString binds seq to a string sent back into the input.
func (k *Keymap) BindString(seq, s []byte) error {
	if len(s) == 0 {
		return ErrEmptyTarget
	}
	return k.set(seq, Binding{String: append([]byte(nil), s...)})
}

func (k *Keymap) set(seq []byte, b Binding) error {
	if len(seq) == 0 {
		return ErrEmptySequence
	}
	n := &k.root
	for _, c := range seq {
		if n.children == nil {
			n.children = make(map[byte]*node)
		}
		next, ok := n.children[c]
		if !ok {
			next = &node{}
			n.children[c] = next
		}
		n = next
	}
	if n.binding == nil {
		k.size++
	}
	n.binding = &b
	return nil
}

// Unbind removes the binding for seq and prunes empty branches.
func (k *Keymap) Unbind(seq []byte) bool {
	if len(seq) == 0 {
		return false
	}
	path := make([]*node, 0, len(seq)+1)
	n := &k.root
	path = append(path, n)
	for _, c := range seq {
		next, ok := n.children[c]
		if !ok {
			return false
		}
		n = next
		path = append(path, n)
	}
	if n.binding == nil {
		return false
	}
	n.binding = nil
	k.size--
	for i := len(seq) - 1; i >= 0; i-- {
		child := path[i+1]
		if child.binding != nil || len(child.children) > 0 {
			break
		}
		delete(path[i].children, seq[i])
	}
	return true
}

// Lookup returns the binding for seq, if any, and whether seq is a
// strict prefix of a longer binding.
func (k *Keymap) Lookup(seq []byte) (*Binding, bool) {
	n := &k.root
	for _, c := range seq {
		next, ok := n.children[c]
		if !ok {
			return nil, false
		}
		n = next
	}
	return n.binding, len(n.children) > 0
}

// Entries returns every binding ordered by key sequence.
func (k *Keymap) Entries() []Entry {
	var out []Entry
	var walk func(n *node, prefix []byte)
	walk = func(n *node, prefix []byte) {
		if n.binding != nil {
			out = append(out, Entry{Keys: append([]byte(nil), prefix...), Binding: *n.binding})
		}
		keys := make([]int, 0, len(n.children))
		for c := range n.children {
			keys = append(keys, int(c))
		}
		sort.Ints(keys)
		for _, c := range keys {
			walk(n.children[byte(c)], append(prefix, byte(c)))
		}
	}
	walk(&k.root, nil)
	return out
}

// Find returns the sequences bound to widget, in key order.
func (k *Keymap) Find(widget string) [][]byte {
	var out [][]byte
	for _, e := range k.Entries() {
		if e.Binding.Widget == widget {
			out = append(out, e.Keys)
		}
	}
	return out
}

// Clone returns a deep copy under a new name.
func (k *Keymap) Clone(name string) *Keymap {
	c := New(name)
	for _, e := range k.Entries() {
		b := e.Binding
		_ = c.set(e.Keys, b)
	}
	return c
}
