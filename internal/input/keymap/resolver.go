package keymap

import (
	"errors"

	"github.com/dshills/keyline/internal/reader"
)

// UndefinedKey is the widget resolved for sequences with no binding.
const UndefinedKey = "undefined-key"

// MaxStringHops bounds how many string bindings may expand in a row.
const MaxStringHops = 20

// ErrStringLoop reports a chain of string bindings that never reaches a
// widget.
var ErrStringLoop = errors.New("keymap: string inserting another one too many times")

// ByteSource supplies input bytes to the resolver.
type ByteSource interface {
	GetByte(req reader.KeyTimeout) (int, error)
	PushBack(p []byte)
	SetLastByte(c int)
}

// Resolver reads key sequences and resolves them against a keymap.
type Resolver struct {
	src ByteSource
}

// NewResolver creates a resolver reading from src.
func NewResolver(src ByteSource) *Resolver {
	return &Resolver{src: src}
}

// ReadSequence reads bytes until they select a binding in km and returns
// the sequence used together with its binding. Bytes read beyond the
// longest complete binding are pushed back. A sequence with no binding
// resolves to UndefinedKey.
//
// An empty sequence means no input could be read; err then says why. A
// non-nil err with a non-empty sequence is a fatal or interrupt condition
// that arrived mid-sequence.
func (r *Resolver) ReadSequence(km *Keymap) ([]byte, Binding, error) {
	var (
		buf     []byte
		found   = Binding{Widget: UndefinedKey}
		matched int
		lastc   = reader.EOF
		err     error
	)
	for {
		req := reader.NoKeyTimeout
		if matched > 0 {
			req = reader.UseKeyTimeout
		}
		var c int
		c, err = r.src.GetByte(req)
		if c == reader.EOF {
			if errors.Is(err, reader.ErrTimeout) {
				err = nil
			}
			break
		}
		buf = append(buf, byte(c))
		b, prefix := km.Lookup(buf)
		if b != nil {
			found = *b
			matched = len(buf)
			lastc = c
		}
		if !prefix {
			break
		}
	}
	if len(buf) == 0 {
		return nil, found, err
	}
	if matched == 0 {
		matched = len(buf)
	} else if matched < len(buf) {
		r.src.PushBack(buf[matched:])
		r.src.SetLastByte(lastc)
	}
	return buf[:matched], found, err
}

// Next resolves the next widget. String bindings are pushed back into the
// input and resolution restarts, at most MaxStringHops times.
func (r *Resolver) Next(km *Keymap) (string, []byte, error) {
	for hops := 0; ; {
		seq, b, err := r.ReadSequence(km)
		if len(seq) == 0 {
			return "", nil, err
		}
		if !b.IsString() {
			return b.Widget, seq, err
		}
		if err != nil {
			return "", seq, err
		}
		if hops++; hops == MaxStringHops {
			return "", seq, ErrStringLoop
		}
		r.src.PushBack(b.String)
	}
}
