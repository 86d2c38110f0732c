package reader

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	gencoding "github.com/gdamore/encoding"
	"github.com/gdamore/tcell/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

type decodeStatus uint8

const (
	decodeComplete decodeStatus = iota
	decodeIncomplete
	decodeInvalid
)

// charDecoder assembles one character at a time. The undecoded bytes of
// the current character are its shift state.
type charDecoder struct {
	dec     *encoding.Decoder
	pending []byte
	out     [utf8.UTFMax * 4]byte
}

func newCharDecoder(charset string) (*charDecoder, error) {
	var enc encoding.Encoding
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		enc = gencoding.UTF8
	default:
		enc = tcell.GetEncoding(charset)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCharset, charset)
	}
	return &charDecoder{dec: enc.NewDecoder()}, nil
}

func (d *charDecoder) feed(b byte) (rune, decodeStatus) {
	d.pending = append(d.pending, b)
	d.dec.Reset()
	nDst, _, err := d.dec.Transform(d.out[:], d.pending, false)
	switch {
	case errors.Is(err, transform.ErrShortSrc) && nDst == 0:
		return 0, decodeIncomplete
	case err != nil && nDst == 0:
		d.reset()
		return utf8.RuneError, decodeInvalid
	}
	r, _ := utf8.DecodeRune(d.out[:nDst])
	literal := string(d.pending) == string(utf8.RuneError)
	d.reset()
	if r == utf8.RuneError && !literal {
		return utf8.RuneError, decodeInvalid
	}
	return r, decodeComplete
}

func (d *charDecoder) reset() {
	d.pending = d.pending[:0]
}

// Idle reports whether the decoder holds no partial character.
func (r *Reader) Idle() bool {
	return len(r.dec.pending) == 0
}

// GetFullChar reads a complete character.
func (r *Reader) GetFullChar(req KeyTimeout) (rune, error) {
	b, err := r.GetByte(req)
	if err != nil {
		r.dec.reset()
		r.lastRune, r.lastRuneValid = EOF, true
		return EOF, err
	}
	return r.GetRestChar(b)
}

// GetRestChar completes the character whose first byte has already been
// read. Continuation bytes must arrive within the continuation timeout; a
// valid lead byte followed by silence yields '?'. An invalid sequence
// yields utf8.RuneError and ErrInvalidSequence. Both reset the decoder.
func (r *Reader) GetRestChar(first int) (rune, error) {
	r.lastRuneValid = true
	if first == EOF {
		r.dec.reset()
		r.lastRune = EOF
		return EOF, nil
	}
	if !r.cfg.Multibyte {
		r.lastRune = rune(first)
		return r.lastRune, nil
	}

	ch, st := r.dec.feed(byte(first))
	for st == decodeIncomplete {
		b, err := r.GetByte(TimeoutAfter(r.cfg.ContinuationTimeout))
		r.lastRuneValid = true
		if b == EOF {
			r.dec.reset()
			if errors.Is(err, ErrTimeout) {
				r.last = '?'
				r.lastRune = '?'
				return '?', nil
			}
			r.lastRune = EOF
			return EOF, err
		}
		ch, st = r.dec.feed(byte(b))
	}
	if st == decodeInvalid {
		r.lastRune = utf8.RuneError
		return utf8.RuneError, ErrInvalidSequence
	}
	r.lastRune = ch
	return ch, nil
}

// CharsetFromEnv derives the input charset from the locale variables,
// in the order LC_ALL, LC_CTYPE, LANG. It returns "" when none names one.
func CharsetFromEnv(getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, name := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		v := getenv(name)
		if v == "" {
			continue
		}
		if v == "C" || v == "POSIX" {
			return "us-ascii"
		}
		if i := strings.IndexByte(v, '.'); i >= 0 {
			cs := v[i+1:]
			if j := strings.IndexByte(cs, '@'); j >= 0 {
				cs = cs[:j]
			}
			return strings.ToLower(cs)
		}
		return ""
	}
	return ""
}
