package zle

import (
	"os"
	"os/user"
	"strconv"
	"strings"
)

// Prompter expands prompt escapes:
//
//	%n  user name
//	%m  host name up to the first dot
//	%M  full host name
//	%~  current directory, with the home directory shown as ~
//	%d  current directory (also %/)
//	%#  '#' for the superuser, '%' otherwise
//	%?  status of the last command
//	%%  a literal '%'
//
// Unknown escapes are copied unchanged.
type Prompter struct {
	User string
	Host string
	Home string
	Root bool

	// Getwd returns the current directory.
	Getwd func() (string, error)
}

// NewPrompter creates a prompter for the current process.
func NewPrompter() *Prompter {
	p := &Prompter{
		Root:  os.Geteuid() == 0,
		Getwd: os.Getwd,
	}
	if u, err := user.Current(); err == nil {
		p.User = u.Username
	}
	if h, err := os.Hostname(); err == nil {
		p.Host = h
	}
	if h, err := os.UserHomeDir(); err == nil {
		p.Home = h
	}
	return p
}

// Expand expands the escapes in s. status is the value of %?.
func (p *Prompter) Expand(s string, status int) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteString(p.User)
		case 'm':
			host, _, _ := strings.Cut(p.Host, ".")
			sb.WriteString(host)
		case 'M':
			sb.WriteString(p.Host)
		case '~':
			sb.WriteString(p.tildeDir())
		case 'd', '/':
			sb.WriteString(p.dir())
		case '#':
			if p.Root {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('%')
			}
		case '?':
			sb.WriteString(strconv.Itoa(status))
		case '%':
			sb.WriteByte('%')
		default:
			sb.WriteByte('%')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

func (p *Prompter) dir() string {
	if p.Getwd == nil {
		return ""
	}
	wd, err := p.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func (p *Prompter) tildeDir() string {
	wd := p.dir()
	switch {
	case p.Home == "" || p.Home == "/":
		return wd
	case wd == p.Home:
		return "~"
	case strings.HasPrefix(wd, p.Home+"/"):
		return "~" + wd[len(p.Home):]
	}
	return wd
}
