package dispatcher

import (
	"sort"
	"sync"
	"time"

	"github.com/dshills/keyline/internal/dispatcher/handler"
)

// Metrics collects dispatch statistics.
type Metrics struct {
	mu sync.RWMutex

	widgets map[string]*WidgetMetrics

	totalDispatches uint64
	totalFailures   uint64
	totalPanics     uint64
	totalDuration   time.Duration
}

// WidgetMetrics holds metrics for one widget name.
type WidgetMetrics struct {
	Name          string
	DispatchCount uint64
	FailureCount  uint64
	TotalDuration time.Duration
	MaxDuration   time.Duration
	LastStatus    handler.ResultStatus
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{widgets: make(map[string]*WidgetMetrics)}
}

// RecordDispatch records one widget execution.
func (m *Metrics) RecordDispatch(widget string, duration time.Duration, status handler.ResultStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalDispatches++
	m.totalDuration += duration

	wm := m.widgets[widget]
	if wm == nil {
		wm = &WidgetMetrics{Name: widget}
		m.widgets[widget] = wm
	}
	wm.DispatchCount++
	wm.TotalDuration += duration
	wm.LastStatus = status
	if duration > wm.MaxDuration {
		wm.MaxDuration = duration
	}

	if status == handler.StatusError || status == handler.StatusCancelled {
		m.totalFailures++
		wm.FailureCount++
	}
}

// RecordPanic records a panic recovery.
func (m *Metrics) RecordPanic(widget string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalPanics++
}

// TotalDispatches returns the total number of dispatches.
func (m *Metrics) TotalDispatches() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalDispatches
}

// TotalFailures returns the number of dispatches that failed.
func (m *Metrics) TotalFailures() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalFailures
}

// TotalPanics returns the total number of panics recovered.
func (m *Metrics) TotalPanics() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalPanics
}

// WidgetStats returns a copy of the metrics for one widget.
func (m *Metrics) WidgetStats(widget string) *WidgetMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wm := m.widgets[widget]
	if wm == nil {
		return nil
	}
	c := *wm
	return &c
}

// TopWidgets returns the n most dispatched widgets.
func (m *Metrics) TopWidgets(n int) []*WidgetMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*WidgetMetrics, 0, len(m.widgets))
	for _, wm := range m.widgets {
		c := *wm
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DispatchCount != out[j].DispatchCount {
			return out[i].DispatchCount > out[j].DispatchCount
		}
		return out[i].Name < out[j].Name
	})
	if n > len(out) {
		n = len(out)
	}
	return out[:n]
}

// MetricsSnapshot is a point-in-time view of the totals.
type MetricsSnapshot struct {
	TotalDispatches uint64
	TotalFailures   uint64
	TotalPanics     uint64
	AverageDuration time.Duration
	WidgetCount     int
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := MetricsSnapshot{
		TotalDispatches: m.totalDispatches,
		TotalFailures:   m.totalFailures,
		TotalPanics:     m.totalPanics,
		WidgetCount:     len(m.widgets),
	}
	if m.totalDispatches > 0 {
		s.AverageDuration = m.totalDuration / time.Duration(m.totalDispatches)
	}
	return s
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.widgets = make(map[string]*WidgetMetrics)
	m.totalDispatches = 0
	m.totalFailures = 0
	m.totalPanics = 0
	m.totalDuration = 0
}
