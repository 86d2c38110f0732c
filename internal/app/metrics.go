package app

import (
	"sync/atomic"
	"time"
)

// Outcome classifies how a read ended.
type Outcome int

const (
	// OutcomeAccepted is a line returned to the caller.
	OutcomeAccepted Outcome = iota
	// OutcomeEOF is end of input on an empty line.
	OutcomeEOF
	// OutcomeEOFIgnored is EOF refused with the exit hint.
	OutcomeEOFIgnored
	// OutcomeError is a line abandoned by send-break or a failed widget.
	OutcomeError
	// OutcomeTimeout is a session ended by the idle timeout.
	OutcomeTimeout
	// OutcomeFatal is a terminal failure.
	OutcomeFatal

	numOutcomes
)

// String returns the outcome name used in logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeEOF:
		return "eof"
	case OutcomeEOFIgnored:
		return "eof-ignored"
	case OutcomeError:
		return "error"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Metrics counts edit sessions. All methods are safe for concurrent use.
type Metrics struct {
	outcomes [numOutcomes]atomic.Uint64

	sessionTotalNs atomic.Int64
	sessionMinNs   atomic.Int64
	sessionMaxNs   atomic.Int64
	lastSessionNs  atomic.Int64
	lineBytes      atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{startTime: time.Now()}
	m.sessionMinNs.Store(1<<63 - 1)
	return m
}

// RecordSession records one ReadLine call that ended with o after d.
// line is the accepted text, if any.
func (m *Metrics) RecordSession(o Outcome, d time.Duration, line string) {
	if o < 0 || o >= numOutcomes {
		return
	}
	m.outcomes[o].Add(1)
	if o == OutcomeAccepted {
		m.lineBytes.Add(uint64(len(line)))
	}

	ns := d.Nanoseconds()
	m.sessionTotalNs.Add(ns)
	m.lastSessionNs.Store(ns)
	for {
		cur := m.sessionMinNs.Load()
		if ns >= cur || m.sessionMinNs.CompareAndSwap(cur, ns) {
			break
		}
	}
	for {
		cur := m.sessionMaxNs.Load()
		if ns <= cur || m.sessionMaxNs.CompareAndSwap(cur, ns) {
			break
		}
	}
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Uptime:        time.Since(m.startTime),
		LastSession:   time.Duration(m.lastSessionNs.Load()),
		MaxSession:    time.Duration(m.sessionMaxNs.Load()),
		AcceptedBytes: m.lineBytes.Load(),
	}
	for o := range s.Outcomes {
		n := m.outcomes[o].Load()
		s.Outcomes[o] = n
		s.Sessions += n
	}
	if s.Sessions > 0 {
		s.AvgSession = time.Duration(m.sessionTotalNs.Load() / int64(s.Sessions))
		s.MinSession = time.Duration(m.sessionMinNs.Load())
	}
	return s
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	for i := range m.outcomes {
		m.outcomes[i].Store(0)
	}
	m.sessionTotalNs.Store(0)
	m.sessionMinNs.Store(1<<63 - 1)
	m.sessionMaxNs.Store(0)
	m.lastSessionNs.Store(0)
	m.lineBytes.Store(0)
	m.startTime = time.Now()
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime        time.Duration
	Sessions      uint64
	Outcomes      [numOutcomes]uint64
	AvgSession    time.Duration
	MinSession    time.Duration
	MaxSession    time.Duration
	LastSession   time.Duration
	AcceptedBytes uint64
}

// Count returns the number of sessions that ended with o.
func (s MetricsSnapshot) Count(o Outcome) uint64 {
	if o < 0 || o >= numOutcomes {
		return 0
	}
	return s.Outcomes[o]
}

// AcceptRate returns the percentage of sessions that accepted a line.
func (s MetricsSnapshot) AcceptRate() float64 {
	if s.Sessions == 0 {
		return 0
	}
	return float64(s.Outcomes[OutcomeAccepted]) / float64(s.Sessions) * 100
}

// Timer measures elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stop returns the elapsed time and resets the timer.
func (t *Timer) Stop() time.Duration {
	elapsed := t.Elapsed()
	t.start = time.Now()
	return elapsed
}
