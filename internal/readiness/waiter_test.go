package readiness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock drives the waiter without real time passing: sleeping simply
// advances the clock.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time         { return c.now }
func (c *fakeClock) Sleep(d time.Duration)  { c.now = c.now.Add(d) }
func (c *fakeClock) elapsed() time.Duration { return c.now.Sub(time.Time{}) }

func newTestWaiter(clock *fakeClock, interval, timeout time.Duration) *Waiter {
	return &Waiter{
		Interval: interval,
		Timeout:  timeout,
		now:      clock.Now,
		sleep:    clock.Sleep,
	}
}

// probeFailingUntil returns a probe that fails until the Nth invocation and
// counts calls.
func probeFailingUntil(n int, calls *int) func(context.Context) error {
	return func(context.Context) error {
		*calls++
		if *calls < n {
			return errors.New("not ready")
		}
		return nil
	}
}

func TestWait_ReadyOnFirstAttempt(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	w := newTestWaiter(clock, 2*time.Second, 60*time.Second)

	calls := 0
	result := w.Wait(context.Background(), probeFailingUntil(1, &calls))

	assert.Equal(t, Ready, result)
	assert.Equal(t, 1, calls)
	assert.Equal(t, time.Duration(0), clock.elapsed())
}

func TestWait_ReadyOnThirdAttempt(t *testing.T) {
	t.Parallel()

	// Probe fails on attempts 1–2, succeeds on attempt 3, interval=2s,
	// timeout=60s: ready after two sleeps (4s), exactly 3 invocations.
	clock := &fakeClock{}
	w := newTestWaiter(clock, 2*time.Second, 60*time.Second)

	calls := 0
	result := w.Wait(context.Background(), probeFailingUntil(3, &calls))

	assert.Equal(t, Ready, result)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 4*time.Second, clock.elapsed())
}

func TestWait_TimesOutWhenNeverReady(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	w := newTestWaiter(clock, 2*time.Second, 60*time.Second)

	calls := 0
	result := w.Wait(context.Background(), func(context.Context) error {
		calls++
		return errors.New("not ready")
	})

	assert.Equal(t, TimedOut, result)
	// The deadline may be overshot by at most one interval, never more.
	assert.GreaterOrEqual(t, clock.elapsed(), 60*time.Second)
	assert.LessOrEqual(t, clock.elapsed(), 62*time.Second)
	// Probes at t=0,2,…,60 plus the final one at t=62.
	assert.Equal(t, 32, calls)
}

func TestWait_SlowProbeCannotSkipDeadline(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	w := newTestWaiter(clock, time.Second, 5*time.Second)

	// Each probe invocation takes 10s — longer than the whole timeout. The
	// elapsed check runs after the probe, so the wait ends after one attempt.
	calls := 0
	result := w.Wait(context.Background(), func(context.Context) error {
		calls++
		clock.Sleep(10 * time.Second)
		return errors.New("not ready")
	})

	assert.Equal(t, TimedOut, result)
	assert.Equal(t, 1, calls)
}

func TestWait_ContextCancellation(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	w := newTestWaiter(clock, time.Second, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := w.Wait(ctx, func(context.Context) error { return errors.New("not ready") })
	assert.Equal(t, TimedOut, result)
}

func TestResult_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "timed-out", TimedOut.String())
}
