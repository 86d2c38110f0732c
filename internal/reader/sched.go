package reader

import (
	"sort"
	"time"
)

// Clock supplies the current time to the scheduler.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// CallbackID identifies a scheduled callback for cancellation.
type CallbackID uint64

type scheduled struct {
	id     CallbackID
	due    time.Time
	action func()
}

// Scheduler is the ordered set of scheduled callbacks, earliest due first.
// Callbacks with equal due times run in registration order.
type Scheduler struct {
	clock   Clock
	entries []scheduled
	nextID  CallbackID
}

// NewScheduler creates an empty scheduler. A nil clock means SystemClock.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock
	}
	return &Scheduler{clock: clock}
}

// Now returns the scheduler's notion of the current time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Add registers action to run once due has passed.
func (s *Scheduler) Add(due time.Time, action func()) CallbackID {
	s.nextID++
	e := scheduled{id: s.nextID, due: due, action: action}
	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].due.After(due)
	})
	s.entries = append(s.entries, scheduled{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e
	return e.id
}

// After registers action to run d from now.
func (s *Scheduler) After(d time.Duration, action func()) CallbackID {
	return s.Add(s.clock.Now().Add(d), action)
}

// Cancel removes a callback that has not yet run.
func (s *Scheduler) Cancel(id CallbackID) bool {
	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of pending callbacks.
func (s *Scheduler) Len() int {
	return len(s.entries)
}

// Next returns the due time of the earliest callback.
func (s *Scheduler) Next() (time.Time, bool) {
	if len(s.entries) == 0 {
		return time.Time{}, false
	}
	return s.entries[0].due, true
}

// RunDue invokes every callback whose due time has passed, earliest first,
// and returns how many ran. The clock is re-read after each callback since
// a callback may take time or schedule further callbacks.
func (s *Scheduler) RunDue() int {
	ran := 0
	for len(s.entries) > 0 {
		e := s.entries[0]
		if e.due.After(s.clock.Now()) {
			break
		}
		s.entries = s.entries[1:]
		e.action()
		ran++
	}
	return ran
}
