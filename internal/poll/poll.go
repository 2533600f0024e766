// Package poll runs a function on a jittered interval until cancelled.
package poll

import (
	"context"
	"math/rand/v2"
	"time"
)

// minDelay keeps a misconfigured jitter from producing a busy loop.
const minDelay = time.Second

// Int64N returns a uniform value in [0, n). rand.Int64N is the default and
// is safe for concurrent use.
type Int64N func(n int64) int64

// Schedule is a base interval with a symmetric uniform jitter.
type Schedule struct {
	Interval time.Duration
	Jitter   time.Duration
}

// Next returns the delay before the following run: Interval shifted by a
// uniform offset in [-Jitter, +Jitter], never below one second.
func (s Schedule) Next(rnd Int64N) time.Duration {
	delay := s.Interval
	if s.Jitter > 0 {
		if rnd == nil {
			rnd = rand.Int64N
		}
		span := int64(2*s.Jitter) + 1
		delay += time.Duration(rnd(span)) - s.Jitter
	}
	if delay < minDelay {
		delay = minDelay
	}
	return delay
}

// Run calls fn immediately and then after each Schedule.Next delay. It
// blocks until ctx is cancelled. fn receives ctx so in-flight work is
// cancelled together with the loop. The delay is recomputed every cycle, so
// many loops started together drift apart instead of firing in bursts.
func Run(ctx context.Context, s Schedule, rnd Int64N, fn func(context.Context)) {
	for {
		if ctx.Err() != nil {
			return
		}
		fn(ctx)

		timer := time.NewTimer(s.Next(rnd))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Start launches Run in a goroutine. The returned channel is closed when
// the loop has exited.
func Start(ctx context.Context, s Schedule, rnd Int64N, fn func(context.Context)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(ctx, s, rnd, fn)
	}()
	return done
}
