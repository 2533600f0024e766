package poll

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func fixed(v int64) Int64N {
	return func(n int64) int64 {
		if v >= n {
			return n - 1
		}
		return v
	}
}

func TestScheduleNext(t *testing.T) {
	tests := []struct {
		name string
		s    Schedule
		rnd  Int64N
		want time.Duration
	}{
		{"no jitter", Schedule{Interval: 120 * time.Second}, nil, 120 * time.Second},
		{"lowest draw", Schedule{Interval: 120 * time.Second, Jitter: 10 * time.Second}, fixed(0), 110 * time.Second},
		{"middle draw", Schedule{Interval: 120 * time.Second, Jitter: 10 * time.Second}, fixed(int64(10 * time.Second)), 120 * time.Second},
		{"highest draw", Schedule{Interval: 120 * time.Second, Jitter: 10 * time.Second}, fixed(int64(20 * time.Second)), 130 * time.Second},
		{"floored", Schedule{Interval: 2 * time.Second, Jitter: 5 * time.Second}, fixed(0), minDelay},
		{"zero interval", Schedule{}, nil, minDelay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Next(tt.rnd); got != tt.want {
				t.Errorf("Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScheduleNext_StaysWithinBounds(t *testing.T) {
	s := Schedule{Interval: 30 * time.Second, Jitter: 5 * time.Second}
	for i := 0; i < 1000; i++ {
		got := s.Next(nil)
		if got < 25*time.Second || got > 35*time.Second {
			t.Fatalf("Next() = %v, want within [25s, 35s]", got)
		}
	}
}

func TestRun_CallsImmediatelyAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	first := make(chan struct{})

	done := Start(ctx, Schedule{Interval: time.Hour}, nil, func(context.Context) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(first)
		}
	})

	select {
	case <-first:
	case <-time.After(2 * time.Second):
		t.Fatal("fn was not called immediately")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after cancel")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestRun_CancelledContextNeverCalls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	Run(ctx, Schedule{Interval: time.Second}, nil, func(context.Context) { called = true })
	if called {
		t.Fatal("fn called with an already-cancelled context")
	}
}
