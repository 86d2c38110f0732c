package key

import "strings"

// Describe renders a byte sequence in caret notation: control characters
// as ^X, DEL as ^?, bytes with the high bit set as \M-x.
func Describe(seq []byte) string {
	var sb strings.Builder
	for _, b := range seq {
		if b >= 0x80 {
			sb.WriteString(`\M-`)
			b &= 0x7f
		}
		switch {
		case b == 0x7f:
			sb.WriteString("^?")
		case b < 0x20:
			sb.WriteByte('^')
			sb.WriteByte(b + '@')
		case b == '^' || b == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(b)
		default:
			sb.WriteByte(b)
		}
	}
	return sb.String()
}

// Quote renders a string binding the way it is listed: in double quotes
// with control characters in caret notation.
func Quote(s []byte) string {
	return `"` + Describe(s) + `"`
}
