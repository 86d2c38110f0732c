package key

import (
	"errors"
	"fmt"
	"strings"
)

// Parse errors
var (
	ErrEmptySpec        = errors.New("empty key specification")
	ErrInvalidSpec      = errors.New("invalid key specification")
	ErrUnmatchedBracket = errors.New("unmatched bracket in key specification")
)

// named maps key names to the bytes an xterm-compatible terminal sends.
var named = map[string]string{
	"cr":        "\r",
	"enter":     "\r",
	"return":    "\r",
	"nl":        "\n",
	"lf":        "\n",
	"tab":       "\t",
	"esc":       "\x1b",
	"escape":    "\x1b",
	"space":     " ",
	"bs":        "\x7f",
	"backspace": "\x7f",
	"del":       "\x1b[3~",
	"delete":    "\x1b[3~",
	"up":        "\x1b[A",
	"down":      "\x1b[B",
	"right":     "\x1b[C",
	"left":      "\x1b[D",
	"home":      "\x1b[H",
	"end":       "\x1b[F",
	"pageup":    "\x1b[5~",
	"pagedown":  "\x1b[6~",
	"insert":    "\x1b[2~",
	"lt":        "<",
	"bslash":    "\\",
}

// Parse converts a key specification into the bytes the terminal sends.
//
// Supported notation:
//   - Plain characters: "a", "é"
//   - Caret control: "^X", "^?" (DEL), "^[" (ESC)
//   - Escapes: "\e", "\n", "\r", "\t", "\\", "\^", "\xNN", "\NNN" (octal)
//   - Prefixes: "\C-x" (control), "\M-x" (meta, sent as ESC x)
//   - Vim-style: "<C-x>", "<M-x>", "<CR>", "<Esc>", "<Up>"
//
// Notations may be concatenated: "^X^U", "\ex", "<Esc>[A".
func Parse(spec string) ([]byte, error) {
	if spec == "" {
		return nil, ErrEmptySpec
	}
	var out []byte
	for i := 0; i < len(spec); {
		b, n, err := parseOne(spec[i:])
		if err != nil {
			return nil, fmt.Errorf("%w at offset %d", err, i)
		}
		out = append(out, b...)
		i += n
	}
	return out, nil
}

// MustParse is like Parse but panics on error. It is intended for
// built-in binding tables.
func MustParse(spec string) []byte {
	b, err := Parse(spec)
	if err != nil {
		panic(fmt.Sprintf("key: MustParse(%q): %v", spec, err))
	}
	return b
}

func parseOne(s string) ([]byte, int, error) {
	switch s[0] {
	case '^':
		if len(s) < 2 {
			return nil, 0, ErrInvalidSpec
		}
		return []byte{control(s[1])}, 2, nil
	case '\\':
		return parseEscape(s)
	case '<':
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return nil, 0, ErrUnmatchedBracket
		}
		if end == 1 {
			return []byte{'<'}, 1, nil
		}
		b, err := parseVimStyle(s[1:end])
		if err != nil {
			return nil, 0, err
		}
		return b, end + 1, nil
	}
	return []byte{s[0]}, 1, nil
}

func parseEscape(s string) ([]byte, int, error) {
	if len(s) < 2 {
		return nil, 0, ErrInvalidSpec
	}
	switch c := s[1]; c {
	case 'e', 'E':
		return []byte{0x1b}, 2, nil
	case 'n':
		return []byte{'\n'}, 2, nil
	case 'r':
		return []byte{'\r'}, 2, nil
	case 't':
		return []byte{'\t'}, 2, nil
	case 'a':
		return []byte{0x07}, 2, nil
	case 'b':
		return []byte{'\b'}, 2, nil
	case 'C', 'M':
		if len(s) < 4 || s[2] != '-' {
			return nil, 0, fmt.Errorf("%w: %q", ErrInvalidSpec, s)
		}
		rest, n, err := parseOne(s[3:])
		if err != nil {
			return nil, 0, err
		}
		if len(rest) != 1 {
			return nil, 0, fmt.Errorf("%w: modifier on a sequence", ErrInvalidSpec)
		}
		if c == 'C' {
			return []byte{control(rest[0])}, 3 + n, nil
		}
		return []byte{0x1b, rest[0]}, 3 + n, nil
	case 'x':
		v, n := 0, 0
		for n < 2 && 2+n < len(s) && isHex(s[2+n]) {
			v = v*16 + hexVal(s[2+n])
			n++
		}
		if n == 0 {
			return nil, 0, fmt.Errorf("%w: empty \\x escape", ErrInvalidSpec)
		}
		return []byte{byte(v)}, 2 + n, nil
	default:
		if c >= '0' && c <= '7' {
			v, n := 0, 0
			for n < 3 && 1+n < len(s) && s[1+n] >= '0' && s[1+n] <= '7' {
				v = v*8 + int(s[1+n]-'0')
				n++
			}
			return []byte{byte(v)}, 1 + n, nil
		}
		return []byte{c}, 2, nil
	}
}

// parseVimStyle parses Vim-style notation like "C-s", "M-f", "CR", "Esc"
func parseVimStyle(inner string) ([]byte, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return nil, ErrInvalidSpec
	}
	if b, ok := named[strings.ToLower(inner)]; ok {
		return []byte(b), nil
	}

	parts := strings.Split(inner, "-")
	if len(parts) == 1 {
		return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, inner)
	}
	keyPart := parts[len(parts)-1]
	var k []byte
	if b, ok := named[strings.ToLower(keyPart)]; ok {
		k = []byte(b)
	} else if len(keyPart) == 1 {
		k = []byte{keyPart[0]}
	} else {
		return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, keyPart)
	}

	meta := false
	for _, p := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "c":
			if len(k) != 1 {
				return nil, fmt.Errorf("%w: control on %q", ErrInvalidSpec, keyPart)
			}
			k[0] = control(k[0])
		case "m", "a":
			meta = true
		default:
			return nil, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
	}
	if meta {
		k = append([]byte{0x1b}, k...)
	}
	return k, nil
}

func control(c byte) byte {
	if c == '?' {
		return 0x7f
	}
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	return c & 0x1f
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}
