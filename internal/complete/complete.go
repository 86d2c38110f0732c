// Package complete implements file-name completion for the completion
// widgets.
package complete

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dshills/keyline/internal/buffer"
	"github.com/dshills/keyline/internal/dispatcher/execctx"
	"github.com/dshills/keyline/internal/dispatcher/handler"
)

// maxListed bounds how many choices are shown below the line.
const maxListed = 100

// suffix is an auto-removable suffix inserted after a unique match.
type suffix struct {
	active bool
	pos    int // rune offset of the suffix
	text   string
}

// Completer completes the word before the cursor as a file name. A
// unique match gets an auto-removable suffix: "/" for directories and a
// space otherwise. The suffix is removed by the next widget unless that
// widget inserts a character that cannot end a word.
type Completer struct {
	dir  string
	home string

	list      []string
	listValid bool
	wordStart int

	menu    bool
	menuIdx int
	menuLen int

	suf suffix
}

// Option configures a Completer.
type Option func(*Completer)

// WithDir sets the directory relative names are completed in. The
// default is the process working directory.
func WithDir(dir string) Option {
	return func(c *Completer) {
		c.dir = dir
	}
}

// WithHome sets the directory "~" expands to.
func WithHome(home string) Option {
	return func(c *Completer) {
		c.home = home
	}
}

// New creates a completer.
func New(opts ...Option) *Completer {
	c := &Completer{}
	if home, err := os.UserHomeDir(); err == nil {
		c.home = home
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete runs the completion widget named widget.
func (c *Completer) Complete(ctx *execctx.Context, widget string) handler.Result {
	buf := ctx.Buffer
	if widget == "menu-complete" && c.menu && c.listValid {
		return c.cycle(buf)
	}

	start, word := currentWord(buf)
	matches, err := c.candidates(word)
	if err != nil {
		return handler.Error(err)
	}
	c.list, c.listValid, c.wordStart = matches, true, start
	c.menu = false

	if len(matches) == 0 {
		return handler.Fail()
	}
	if widget == "list-choices" {
		c.show(ctx)
		return handler.Success()
	}
	if len(matches) == 1 {
		c.insertMatch(buf, word, matches[0])
		return handler.Success()
	}

	if widget == "menu-complete" {
		c.menu = true
		c.menuIdx = 0
		c.replaceWord(buf, len([]rune(word)), matches[0])
		return handler.Success()
	}

	prefix := commonPrefix(matches)
	if len(prefix) > len(word) {
		buf.Insert(prefix[len(word):])
		return handler.Success()
	}
	c.show(ctx)
	return handler.Success()
}

// cycle replaces the menu entry inserted last with the next one.
func (c *Completer) cycle(buf *buffer.Buffer) handler.Result {
	c.menuIdx = (c.menuIdx + 1) % len(c.list)
	c.replaceWord(buf, c.menuLen, c.list[c.menuIdx])
	return handler.Success()
}

// replaceWord replaces n runes at the word start with text.
func (c *Completer) replaceWord(buf *buffer.Buffer, n int, text string) {
	buf.SetCursor(c.wordStart)
	buf.DeleteForward(n)
	buf.Insert(text)
	c.menuLen = len([]rune(text))
}

func (c *Completer) insertMatch(buf *buffer.Buffer, word, match string) {
	rest := match[len(word):]
	sfx := " "
	if strings.HasSuffix(match, "/") {
		rest = strings.TrimSuffix(rest, "/")
		sfx = "/"
	}
	buf.Insert(rest)
	c.suf = suffix{active: true, pos: buf.Cursor(), text: sfx}
	buf.Insert(sfx)
}

func (c *Completer) show(ctx *execctx.Context) {
	names := make([]string, 0, min(len(c.list), maxListed))
	for i, m := range c.list {
		if i == maxListed {
			break
		}
		names = append(names, filepath.Base(strings.TrimSuffix(m, "/"))+trailingSlash(m))
	}
	msg := strings.Join(names, "  ")
	if len(c.list) > maxListed {
		msg += "  ..."
	}
	ctx.Message(msg)
}

func trailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return "/"
	}
	return ""
}

// candidates returns the sorted file names beginning with word.
// Directories end in "/".
func (c *Completer) candidates(word string) ([]string, error) {
	dirPart, base := "", word
	if i := strings.LastIndexByte(word, '/'); i >= 0 {
		dirPart, base = word[:i+1], word[i+1:]
	}

	dir := dirPart
	switch {
	case strings.HasPrefix(dir, "~/"):
		dir = filepath.Join(c.home, dir[2:])
	case dir == "":
		dir = "."
	}
	if !filepath.IsAbs(dir) && c.dir != "" {
		dir = filepath.Join(c.dir, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) || os.IsPermission(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}
		m := dirPart + name
		if isDir(dir, e) {
			m += "/"
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func isDir(dir string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink != 0 {
		fi, err := os.Stat(filepath.Join(dir, e.Name()))
		return err == nil && fi.IsDir()
	}
	return false
}

// currentWord returns the start and text of the word before the cursor.
func currentWord(buf *buffer.Buffer) (int, string) {
	left := []rune(buf.Left())
	i := len(left)
	for i > 0 && !isDelimiter(left[i-1]) {
		i--
	}
	return i, string(left[i:])
}

func isDelimiter(r rune) bool {
	switch r {
	case ' ', '\t', '\n', ';', '&', '|', '(', ')', '<', '>':
		return true
	}
	return false
}

func commonPrefix(list []string) string {
	if len(list) == 0 {
		return ""
	}
	p := list[0]
	for _, s := range list[1:] {
		for !strings.HasPrefix(s, p) {
			p = p[:len(p)-1]
		}
	}
	return p
}

// RemoveSuffix removes a pending suffix unless the invoking key inserts
// a character that continues the word, in which case the suffix stays.
// Typing the suffix character itself removes it, so it is not doubled.
func (c *Completer) RemoveSuffix(ctx *execctx.Context) {
	if !c.suf.active {
		return
	}
	c.suf.active = false
	if len(ctx.Keys) == 1 {
		k := rune(ctx.Keys[0])
		if k >= 0x20 && k != 0x7f && !isDelimiter(k) && string(k) != c.suf.text {
			return
		}
	}
	buf := ctx.Buffer
	n := len([]rune(c.suf.text))
	end := c.suf.pos + n
	if buf.Cursor() == end && end <= buf.Len() && string(buf.Runes()[c.suf.pos:end]) == c.suf.text {
		buf.DeleteBackward(n)
	}
}

// FixSuffix makes a pending suffix permanent.
func (c *Completer) FixSuffix() {
	c.suf.active = false
}

// InvalidateList discards the cached list and ends menu completion.
func (c *Completer) InvalidateList() {
	c.list = nil
	c.listValid = false
	c.menu = false
}

// List returns the cached completion list.
func (c *Completer) List() []string {
	return c.list
}
