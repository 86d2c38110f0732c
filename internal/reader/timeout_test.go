package reader

import (
	"testing"
	"time"
)

func TestComposeTimeout(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name       string
		req        KeyTimeout
		configured time.Duration
		sched      []time.Duration
		want       Timeout
	}{
		{
			name: "nothing set blocks",
			req:  NoKeyTimeout,
			want: Timeout{Kind: TimeoutNone},
		},
		{
			name:       "configured key timeout",
			req:        UseKeyTimeout,
			configured: 400 * time.Millisecond,
			want:       Timeout{Kind: TimeoutKey, Duration: 400 * time.Millisecond},
		},
		{
			name:       "configured zero disables",
			req:        UseKeyTimeout,
			configured: 0,
			want:       Timeout{Kind: TimeoutNone},
		},
		{
			name:       "explicit overrides configured",
			req:        TimeoutAfter(50 * time.Millisecond),
			configured: 0,
			want:       Timeout{Kind: TimeoutKey, Duration: 50 * time.Millisecond},
		},
		{
			name:       "callback sooner than key",
			req:        UseKeyTimeout,
			configured: 2 * time.Second,
			sched:      []time.Duration{time.Second},
			want:       Timeout{Kind: TimeoutScheduled, Duration: time.Second},
		},
		{
			name:       "key sooner than callback",
			req:        UseKeyTimeout,
			configured: 400 * time.Millisecond,
			sched:      []time.Duration{time.Second},
			want:       Timeout{Kind: TimeoutKey, Duration: 400 * time.Millisecond},
		},
		{
			name:  "callback without key timeout",
			req:   NoKeyTimeout,
			sched: []time.Duration{3 * time.Second, time.Second},
			want:  Timeout{Kind: TimeoutScheduled, Duration: time.Second},
		},
		{
			name:  "distant callback is clamped",
			req:   NoKeyTimeout,
			sched: []time.Duration{MaxTimeout + time.Hour},
			want:  Timeout{Kind: TimeoutClamped, Duration: MaxTimeout},
		},
		{
			name:       "distant callback keeps key timeout",
			req:        UseKeyTimeout,
			configured: time.Second,
			sched:      []time.Duration{MaxTimeout + time.Hour},
			want:       Timeout{Kind: TimeoutKey, Duration: time.Second},
		},
		{
			name:       "key timeout clamped to maximum",
			req:        UseKeyTimeout,
			configured: MaxTimeout * 2,
			want:       Timeout{Kind: TimeoutKey, Duration: MaxTimeout},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{now: start}
			s := NewScheduler(clock)
			for _, d := range tt.sched {
				s.Add(start.Add(d), func() {})
			}

			got, ran := ComposeTimeout(tt.req, tt.configured, s)
			if got != tt.want {
				t.Errorf("ComposeTimeout = %+v, want %+v", got, tt.want)
			}
			if ran != 0 {
				t.Errorf("ran = %d, want 0", ran)
			}
		})
	}
}

func TestComposeTimeoutDrainsDueCallbacks(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	clock := &fakeClock{now: start}
	s := NewScheduler(clock)

	var order []int
	s.Add(start.Add(-2*time.Second), func() { order = append(order, 1) })
	s.Add(start.Add(-time.Second), func() {
		order = append(order, 2)
		// A callback may schedule another one that is already due.
		s.Add(start.Add(-time.Millisecond), func() { order = append(order, 3) })
	})
	s.Add(start.Add(5*time.Second), func() { order = append(order, 4) })

	got, ran := ComposeTimeout(NoKeyTimeout, 0, s)
	if ran != 3 {
		t.Errorf("ran = %d, want 3", ran)
	}
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("order = %v, want [1 2 3]", order)
	}
	want := Timeout{Kind: TimeoutScheduled, Duration: 5 * time.Second}
	if got != want {
		t.Errorf("ComposeTimeout = %+v, want %+v", got, want)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestComposeTimeoutMonotone(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	for _, key := range []time.Duration{100 * time.Millisecond, time.Second, 10 * time.Second} {
		for _, due := range []time.Duration{200 * time.Millisecond, 2 * time.Second} {
			s := NewScheduler(&fakeClock{now: start})
			s.Add(start.Add(due), func() {})
			got, _ := ComposeTimeout(UseKeyTimeout, key, s)
			if got.Duration != min(key, due) {
				t.Errorf("key %v, due %v: duration %v, want %v", key, due, got.Duration, min(key, due))
			}
		}
	}
}

func TestTimeoutMillis(t *testing.T) {
	tests := []struct {
		t    Timeout
		want int
	}{
		{Timeout{Kind: TimeoutNone}, -1},
		{Timeout{Kind: TimeoutKey, Duration: 400 * time.Millisecond}, 400},
		{Timeout{Kind: TimeoutScheduled, Duration: 1500 * time.Microsecond}, 2},
		{Timeout{Kind: TimeoutClamped, Duration: MaxTimeout}, 1<<31 - 1},
	}
	for _, tt := range tests {
		if got := tt.t.Millis(); got != tt.want {
			t.Errorf("%+v.Millis() = %d, want %d", tt.t, got, tt.want)
		}
	}
}

func TestSchedulerOrderAndCancel(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	clock := &fakeClock{now: start}
	s := NewScheduler(clock)

	var order []string
	s.Add(start.Add(2*time.Second), func() { order = append(order, "b") })
	id := s.Add(start.Add(time.Second), func() { order = append(order, "x") })
	s.Add(start.Add(time.Second), func() { order = append(order, "a") })
	s.Add(start.Add(2*time.Second), func() { order = append(order, "c") })

	if !s.Cancel(id) {
		t.Fatal("Cancel returned false")
	}
	if s.Cancel(id) {
		t.Error("second Cancel should fail")
	}

	clock.now = start.Add(2 * time.Second)
	if n := s.RunDue(); n != 3 {
		t.Errorf("RunDue = %d, want 3", n)
	}
	if got := order; len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("order = %v, want [a b c]", got)
	}
}
