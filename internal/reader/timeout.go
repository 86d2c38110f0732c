package reader

import (
	"math"
	"time"
)

// MaxTimeout is the longest single wait handed to poll, whose timeout
// argument is an int32 count of milliseconds.
const MaxTimeout = time.Duration(math.MaxInt32) * time.Millisecond

// TimeoutKind tags an effective timeout with its source.
type TimeoutKind uint8

const (
	// TimeoutNone blocks indefinitely.
	TimeoutNone TimeoutKind = iota
	// TimeoutKey is a key-press timeout; expiry is reported to the caller.
	TimeoutKey
	// TimeoutScheduled expires when the earliest scheduled callback is due.
	TimeoutScheduled
	// TimeoutClamped is MaxTimeout standing in for a longer wait;
	// expiry means the timeout must be recomputed.
	TimeoutClamped
)

// String returns the string representation of the kind.
func (k TimeoutKind) String() string {
	switch k {
	case TimeoutNone:
		return "none"
	case TimeoutKey:
		return "key"
	case TimeoutScheduled:
		return "scheduled"
	case TimeoutClamped:
		return "clamped"
	default:
		return "unknown"
	}
}

// Timeout is the effective wait computed before each blocking read.
type Timeout struct {
	Kind     TimeoutKind
	Duration time.Duration
}

// Millis converts the timeout to a poll argument; -1 means block.
// Durations are rounded up so a wait never expires early.
func (t Timeout) Millis() int {
	if t.Kind == TimeoutNone {
		return -1
	}
	ms := (t.Duration + time.Millisecond - 1) / time.Millisecond
	if ms > math.MaxInt32 {
		ms = math.MaxInt32
	}
	return int(ms)
}

type keyTimeoutMode uint8

const (
	keyTimeoutOff keyTimeoutMode = iota
	keyTimeoutConfigured
	keyTimeoutExplicit
)

// KeyTimeout is a read's request for a key-press timeout.
type KeyTimeout struct {
	mode keyTimeoutMode
	d    time.Duration
}

var (
	// NoKeyTimeout waits for input without a key timeout.
	NoKeyTimeout = KeyTimeout{}

	// UseKeyTimeout applies the configured key timeout, if positive.
	UseKeyTimeout = KeyTimeout{mode: keyTimeoutConfigured}
)

// TimeoutAfter requests an explicit key timeout that ignores the
// configured value.
func TimeoutAfter(d time.Duration) KeyTimeout {
	return KeyTimeout{mode: keyTimeoutExplicit, d: d}
}

func (k KeyTimeout) resolve(configured time.Duration) (time.Duration, bool) {
	switch k.mode {
	case keyTimeoutConfigured:
		return configured, configured > 0
	case keyTimeoutExplicit:
		return k.d, k.d > 0
	default:
		return 0, false
	}
}

// ComposeTimeout computes the effective timeout for the next wait.
//
// Callbacks in s that are already due run first, in order, until the
// earliest remaining one lies in the future. That callback replaces the key
// timeout when it is due sooner, or sets the timeout when no key timeout
// was requested. A delay beyond MaxTimeout yields a clamped timeout, unless
// a key timeout is already in effect.
func ComposeTimeout(req KeyTimeout, configured time.Duration, s *Scheduler) (Timeout, int) {
	var t Timeout
	if d, ok := req.resolve(configured); ok {
		t = Timeout{Kind: TimeoutKey, Duration: min(d, MaxTimeout)}
	}
	if s == nil {
		return t, 0
	}
	ran := 0
	for {
		ran += s.RunDue()
		due, ok := s.Next()
		if !ok {
			return t, ran
		}
		diff := due.Sub(s.Now())
		if diff <= 0 {
			continue
		}
		switch {
		case diff > MaxTimeout:
			if t.Kind != TimeoutKey {
				t = Timeout{Kind: TimeoutClamped, Duration: MaxTimeout}
			}
		case t.Kind != TimeoutKey || diff < t.Duration:
			t = Timeout{Kind: TimeoutScheduled, Duration: diff}
		}
		return t, ran
	}
}
