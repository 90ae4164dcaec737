package ratelim

import "time"

// Timer measures wall-clock time from StartTimer to Stop and reports it
// once through a callback. The intended use is deferring Stop at the top of
// a scope, which fires the callback on every exit path, early returns and
// panics included:
//
//	defer ratelim.StartTimer(func(elapsed time.Duration) {
//		logger.Info("rebuild done", "elapsed", elapsed)
//	}).Stop()
//
// A panic raised by the callback itself is not caught.
type Timer struct {
	started time.Time
	clock   Clock
	onStop  func(time.Duration)
	stopped bool
}

// StartTimer starts a timer that passes the elapsed time to onStop when
// stopped.
func StartTimer(onStop func(elapsed time.Duration)) *Timer {
	return StartTimerWithClock(onStop, systemClock{})
}

// StartTimerWithClock is StartTimer with an injected time source.
func StartTimerWithClock(onStop func(elapsed time.Duration), clock Clock) *Timer {
	if clock == nil {
		clock = systemClock{}
	}
	return &Timer{started: clock.Now(), clock: clock, onStop: onStop}
}

// Elapsed returns the time since the timer started without stopping it.
func (t *Timer) Elapsed() time.Duration {
	return t.clock.Now().Sub(t.started)
}

// Stop invokes the callback with the elapsed time. Only the first call has
// an effect; later calls are no-ops.
func (t *Timer) Stop() {
	if t.stopped {
		return
	}
	t.stopped = true
	if t.onStop != nil {
		t.onStop(t.Elapsed())
	}
}
