// Package readiness implements the bounded polling loop used to wait for a
// backing service to come up.
package readiness

import (
	"context"
	"time"
)

// Result is the terminal state of a wait.
type Result int

const (
	// Ready means the probe succeeded before the timeout.
	Ready Result = iota
	// TimedOut means the timeout elapsed without a successful probe.
	// It is a tolerated outcome, not an error — callers log a warning and
	// proceed.
	TimedOut
)

// String returns the lowercase name of the result for logs and JSON output.
func (r Result) String() string {
	if r == Ready {
		return "ready"
	}
	return "timed-out"
}

// Waiter polls a probe at a fixed interval until it succeeds or a timeout
// elapses. The clock and sleep functions are injectable so tests can drive
// the loop without real time passing.
type Waiter struct {
	Interval time.Duration
	Timeout  time.Duration

	now   func() time.Time
	sleep func(time.Duration)
}

// NewWaiter returns a Waiter backed by the real clock.
func NewWaiter(interval, timeout time.Duration) *Waiter {
	return &Waiter{
		Interval: interval,
		Timeout:  timeout,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Wait invokes probe until it returns nil or the timeout elapses. A probe
// error is indistinguishable from "not ready yet" and never ends the loop on
// its own. The elapsed check runs after every probe, so a single slow probe
// cannot skip the deadline. Context cancellation ends the wait as TimedOut.
func (w *Waiter) Wait(ctx context.Context, probe func(context.Context) error) Result {
	start := w.now()

	for {
		if err := probe(ctx); err == nil {
			return Ready
		}

		if w.now().Sub(start) > w.Timeout {
			return TimedOut
		}
		if ctx.Err() != nil {
			return TimedOut
		}

		w.sleep(w.Interval)
	}
}
