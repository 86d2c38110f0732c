package reader

const initialPushbackSize = 32

// Pushback is a LIFO stack of bytes replayed ahead of live input.
// The backing array grows by doubling and is never shrunk.
type Pushback struct {
	buf []byte
}

// Push pushes a single byte; it is the next byte to be read.
func (p *Pushback) Push(b byte) {
	if len(p.buf) == cap(p.buf) {
		size := cap(p.buf) * 2
		if size == 0 {
			size = initialPushbackSize
		}
		grown := make([]byte, len(p.buf), size)
		copy(grown, p.buf)
		p.buf = grown
	}
	p.buf = append(p.buf, b)
}

// PushBytes pushes s so that it is read back in its original order.
func (p *Pushback) PushBytes(s []byte) {
	for i := len(s) - 1; i >= 0; i-- {
		p.Push(s[i])
	}
}

// Pop removes and returns the most recently pushed byte.
func (p *Pushback) Pop() (byte, bool) {
	n := len(p.buf)
	if n == 0 {
		return 0, false
	}
	b := p.buf[n-1]
	p.buf = p.buf[:n-1]
	return b, true
}

// Len returns the number of queued bytes.
func (p *Pushback) Len() int {
	return len(p.buf)
}

// Cap returns the size of the backing array.
func (p *Pushback) Cap() int {
	return cap(p.buf)
}

// Clear discards all queued bytes.
func (p *Pushback) Clear() {
	p.buf = p.buf[:0]
}
