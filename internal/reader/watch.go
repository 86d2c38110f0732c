package reader

// Watch is an auxiliary descriptor monitored alongside the terminal.
type Watch struct {
	FD      int
	Handler string
}

// WatchHandler is invoked when a watched descriptor is ready. conds lists
// any of "err", "hup" and "nval". A non-nil error suppresses further
// watch handlers for the rest of the current pass.
type WatchHandler func(w Watch, conds []string) error

type watchChange struct {
	add bool
	w   Watch
}

// WatchSet is the set of watched descriptors in registration order.
// While a pass is running, changes are queued and applied when it ends,
// so handlers never alter the list the pass is iterating over.
type WatchSet struct {
	list    []Watch
	inPass  bool
	pending []watchChange
	passEnd []func()
}

// Add registers fd, replacing the handler if fd is already watched.
func (s *WatchSet) Add(fd int, handler string) {
	w := Watch{FD: fd, Handler: handler}
	if s.inPass {
		s.pending = append(s.pending, watchChange{add: true, w: w})
		return
	}
	s.add(w)
}

// Remove unregisters fd and reports whether it was watched.
func (s *WatchSet) Remove(fd int) bool {
	found := s.index(fd) >= 0
	if s.inPass {
		for _, c := range s.pending {
			if c.w.FD == fd {
				found = c.add
			}
		}
		if found {
			s.pending = append(s.pending, watchChange{w: Watch{FD: fd}})
		}
		return found
	}
	s.remove(fd)
	return found
}

// Lookup returns the watch registered for fd.
func (s *WatchSet) Lookup(fd int) (Watch, bool) {
	if i := s.index(fd); i >= 0 {
		return s.list[i], true
	}
	return Watch{}, false
}

// Len returns the number of watched descriptors.
func (s *WatchSet) Len() int {
	return len(s.list)
}

// Snapshot returns a private copy of the current list.
func (s *WatchSet) Snapshot() []Watch {
	if len(s.list) == 0 {
		return nil
	}
	out := make([]Watch, len(s.list))
	copy(out, s.list)
	return out
}

// InPass reports whether a pass is running, so changes are being queued.
func (s *WatchSet) InPass() bool {
	return s.inPass
}

// OnPassEnd registers fn to run after each pass, once the queued changes
// have been applied.
func (s *WatchSet) OnPassEnd(fn func()) {
	s.passEnd = append(s.passEnd, fn)
}

func (s *WatchSet) beginPass() {
	s.inPass = true
}

func (s *WatchSet) endPass() {
	s.inPass = false
	for _, c := range s.pending {
		if c.add {
			s.add(c.w)
		} else {
			s.remove(c.w.FD)
		}
	}
	s.pending = s.pending[:0]
	for _, fn := range s.passEnd {
		fn()
	}
}

func (s *WatchSet) add(w Watch) {
	if i := s.index(w.FD); i >= 0 {
		s.list[i].Handler = w.Handler
		return
	}
	s.list = append(s.list, w)
}

func (s *WatchSet) remove(fd int) {
	if i := s.index(fd); i >= 0 {
		s.list = append(s.list[:i], s.list[i+1:]...)
	}
}

func (s *WatchSet) index(fd int) int {
	for i, w := range s.list {
		if w.FD == fd {
			return i
		}
	}
	return -1
}
