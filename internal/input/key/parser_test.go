package key

import (
	"bytes"
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		spec string
		want []byte
	}{
		{"a", []byte("a")},
		{"^X^U", []byte{0x18, 0x15}},
		{"^x", []byte{0x18}},
		{"^?", []byte{0x7f}},
		{"^[", []byte{0x1b}},
		{`\ex`, []byte{0x1b, 'x'}},
		{`\M-f`, []byte{0x1b, 'f'}},
		{`\C-a`, []byte{0x01}},
		{`\x7f`, []byte{0x7f}},
		{`\033`, []byte{0x1b}},
		{`\\`, []byte{'\\'}},
		{`\^`, []byte{'^'}},
		{"<C-x>", []byte{0x18}},
		{"<M-b>", []byte{0x1b, 'b'}},
		{"<CR>", []byte{'\r'}},
		{"<Esc>", []byte{0x1b}},
		{"<Up>", []byte("\x1b[A")},
		{"<C-x>u", []byte{0x18, 'u'}},
		{"<>", []byte("<>")},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := Parse(tt.spec)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.spec, err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Parse(%q) = %q, want %q", tt.spec, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		spec string
		want error
	}{
		{"", ErrEmptySpec},
		{"^", ErrInvalidSpec},
		{`\`, ErrInvalidSpec},
		{"<C-x", ErrUnmatchedBracket},
		{"<Q-x>", ErrInvalidSpec},
		{"<Nope>", ErrInvalidSpec},
		{`\xzz`, ErrInvalidSpec},
		{`\C-<Up>`, ErrInvalidSpec},
	}

	for _, tt := range tests {
		if _, err := Parse(tt.spec); !errors.Is(err, tt.want) {
			t.Errorf("Parse(%q) error = %v, want %v", tt.spec, err, tt.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		seq  []byte
		want string
	}{
		{[]byte{0x18, 0x15}, "^X^U"},
		{[]byte{0x1b, 'x'}, "^[x"},
		{[]byte{0x7f}, "^?"},
		{[]byte("ab"), "ab"},
		{[]byte{0xe1}, `\M-a`},
		{[]byte("^"), `\^`},
	}
	for _, tt := range tests {
		if got := Describe(tt.seq); got != tt.want {
			t.Errorf("Describe(%q) = %q, want %q", tt.seq, got, tt.want)
		}
	}
}

func TestDescribeRoundTrip(t *testing.T) {
	for _, spec := range []string{"^X^U", "^[x", "^?", "abc", `\\`} {
		seq, err := Parse(spec)
		if err != nil {
			t.Fatalf("Parse(%q): %v", spec, err)
		}
		if got := Describe(seq); got != spec {
			t.Errorf("Describe(Parse(%q)) = %q", spec, got)
		}
	}
}
