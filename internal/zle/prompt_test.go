package zle

import (
	"errors"
	"strings"
	"testing"
)

func TestPrompterExpand(t *testing.T) {
	p := &Prompter{
		User:  "ada",
		Host:  "box.example.org",
		Home:  "/home/ada",
		Getwd: func() (string, error) { return "/home/ada/src", nil },
	}

	tests := []struct {
		in     string
		status int
		want   string
	}{
		{"plain> ", 0, "plain> "},
		{"%n@%m%# ", 0, "ada@box% "},
		{"%M", 0, "box.example.org"},
		{"%~ ", 0, "~/src "},
		{"%d|%/", 0, "/home/ada/src|/home/ada/src"},
		{"[%?]", 2, "[2]"},
		{"100%%", 0, "100%"},
		{"%x", 0, "%x"},
		{"tail%", 0, "tail%"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := p.Expand(tt.in, tt.status); got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPrompterTilde(t *testing.T) {
	tests := []struct {
		name string
		home string
		wd   string
		want string
	}{
		{"home", "/home/ada", "/home/ada", "~"},
		{"below", "/home/ada", "/home/ada/x/y", "~/x/y"},
		{"sibling", "/home/ada", "/home/adam", "/home/adam"},
		{"root home", "/", "/etc", "/etc"},
		{"no home", "", "/tmp", "/tmp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wd := tt.wd
			p := &Prompter{Home: tt.home, Getwd: func() (string, error) { return wd, nil }}
			if got := p.Expand("%~", 0); got != tt.want {
				t.Errorf("Expand(%%~) = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrompterRootAndErrors(t *testing.T) {
	p := &Prompter{Root: true, Getwd: func() (string, error) { return "", errors.New("gone") }}
	if got := p.Expand("%#", 0); got != "#" {
		t.Errorf("Expand(%%#) for root = %q, want #", got)
	}
	if got := p.Expand("%d", 0); got != "." {
		t.Errorf("Expand(%%d) with no directory = %q, want .", got)
	}
	if got := (&Prompter{}).Expand("%d%n", 0); got != "" {
		t.Errorf("empty prompter expanded to %q", got)
	}
}

func TestHistoryAdd(t *testing.T) {
	tests := []struct {
		name  string
		max   int
		lines []string
		want  []string
	}{
		{"keeps order", 0, []string{"a", "b", "c"}, []string{"a", "b", "c"}},
		{"skips empty", 0, []string{"a", "", "b"}, []string{"a", "b"}},
		{"skips repeat", 0, []string{"a", "a", "b", "a"}, []string{"a", "b", "a"}},
		{"trims oldest", 2, []string{"a", "b", "c"}, []string{"b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory(tt.max)
			for _, l := range tt.lines {
				h.Add(l)
			}
			got := h.Entries()
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("entries = %q, want %q", got, tt.want)
			}
			if h.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", h.Len(), len(tt.want))
			}
			if h.Len() > 0 && h.At(0) != tt.want[0] {
				t.Errorf("At(0) = %q, want %q", h.At(0), tt.want[0])
			}
		})
	}
}
