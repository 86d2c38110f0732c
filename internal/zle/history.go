package zle

// DefaultHistorySize is the number of lines kept by NewHistory(0).
const DefaultHistorySize = 1000

// History is the list of accepted lines, oldest first.
type History struct {
	entries []string
	max     int
}

// NewHistory creates a history keeping at most max lines.
func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &History{max: max}
}

// Add appends line. Empty lines and repeats of the newest line are not
// recorded.
func (h *History) Add(line string) {
	if line == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	if over := len(h.entries) - h.max; over > 0 {
		h.entries = append(h.entries[:0], h.entries[over:]...)
	}
}

// Len returns the number of lines.
func (h *History) Len() int {
	return len(h.entries)
}

// At returns line i, 0 being the oldest.
func (h *History) At(i int) string {
	return h.entries[i]
}

// Entries returns a copy of the lines.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}
