package input

// ModifierFlags records which parts of a Modifier are in effect.
type ModifierFlags uint16

const (
	// ModMult means Mult holds an explicit numeric argument.
	ModMult ModifierFlags = 1 << iota
	// ModTMult means TMult holds a numeric argument being entered.
	ModTMult
	// ModNeg means a bare negative argument is staged.
	ModNeg
	// ModVIBuf means a vi register was selected.
	ModVIBuf
)

// MaxBase is the largest numeric base digits can be entered in.
const MaxBase = 36

// Modifier is the numeric-argument state shared by consecutive commands.
type Modifier struct {
	Flags ModifierFlags
	Mult  int
	TMult int
	Base  int
	VIBuf byte

	prefix bool
}

// NewModifier returns an initialized modifier.
func NewModifier() Modifier {
	var m Modifier
	m.Init()
	return m
}

// Init resets the modifier to its identity.
func (m *Modifier) Init() {
	m.Flags = 0
	m.Mult = 1
	m.TMult = 1
	m.Base = 10
	m.VIBuf = 0
}

// MarkPrefix records that the running command is a prefix whose state
// carries over to the next command.
func (m *Modifier) MarkPrefix() {
	m.prefix = true
}

// IsPrefix reports whether the running command marked itself a prefix.
func (m *Modifier) IsPrefix() bool {
	return m.prefix
}

// Normalize runs after each command. A prefix command's tentative
// multiplier becomes the active one; otherwise the modifier is reset.
func (m *Modifier) Normalize() {
	if !m.prefix {
		m.Init()
		return
	}
	m.prefix = false
	if m.Flags&ModTMult != 0 {
		m.Flags |= ModMult
		m.Mult = m.TMult
	}
}

// HasMult reports whether an explicit numeric argument is in effect.
func (m *Modifier) HasMult() bool {
	return m.Flags&ModMult != 0
}

// ParseDigit returns the value of key as a digit in the current base,
// or -1. The meta bit is ignored.
func (m *Modifier) ParseDigit(key byte) int {
	key &= 0x7f
	if m.Base > 10 {
		switch {
		case key >= 'a' && int(key) < 'a'+m.Base-10:
			return int(key-'a') + 10
		case key >= 'A' && int(key) < 'A'+m.Base-10:
			return int(key-'A') + 10
		case key >= '0' && key <= '9':
			return int(key - '0')
		}
		return -1
	}
	if key >= '0' && int(key) < '0'+m.Base {
		return int(key - '0')
	}
	return -1
}

// Digit appends key to the numeric argument being entered.
func (m *Modifier) Digit(key byte) bool {
	d := m.ParseDigit(key)
	if d < 0 {
		return false
	}
	sign := 1
	if m.Mult < 0 {
		sign = -1
	}
	if m.Flags&ModTMult == 0 {
		m.TMult = 0
	}
	if m.Flags&ModNeg != 0 {
		m.TMult = sign * d
		m.Flags &^= ModNeg
	} else {
		m.TMult = m.TMult*m.Base + sign*d
	}
	m.Flags |= ModTMult
	m.prefix = true
	return true
}

// Negate stages a negative argument. It fails once digits were entered.
func (m *Modifier) Negate() bool {
	if m.Flags&(ModMult|ModTMult) != 0 {
		return false
	}
	m.TMult = -1
	m.Flags |= ModTMult | ModNeg
	m.prefix = true
	return true
}

// Universal applies a universal argument. With digits entered after it,
// n is their value (negative when preceded by '-'); with none, the
// argument is multiplied by four.
func (m *Modifier) Universal(n int, gotDigits bool) {
	if gotDigits {
		m.TMult = n
	} else {
		m.TMult *= 4
	}
	m.Flags |= ModTMult
	m.prefix = true
}

// SetMult sets an explicit multiplier, as when a widget is given one
// by its caller.
func (m *Modifier) SetMult(n int) {
	m.Mult = n
	m.Flags |= ModMult
}

// SetBase changes the base for subsequent digits and clears the rest of
// the modifier while keeping prefix state.
func (m *Modifier) SetBase(base int) bool {
	if base < 2 || base > MaxBase {
		return false
	}
	m.Flags = 0
	m.Mult = 1
	m.TMult = 1
	m.VIBuf = 0
	m.Base = base
	m.prefix = true
	return true
}
