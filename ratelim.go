// Package ratelim provides a single-action cooldown gate: a guarded
// function runs at most once per fixed cooldown period, and calls that
// arrive too early are skipped or rejected with the remaining wait.
//
// A RateLimiter guards exactly one action. It holds no locks; callers
// sharing one instance across goroutines must serialize access themselves,
// otherwise the check-then-run sequence can let more than one call through
// a single window.
package ratelim

import (
	"fmt"
	"time"
)

// CooldownError is returned by TryRun while the cooldown is still active.
// It is the expected "not yet" outcome rather than an exceptional failure;
// Remaining tells the caller how long to wait before the next attempt can
// succeed.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active: %s remaining", e.Remaining)
}

// RateLimiter runs an action at most once per cooldown period.
//
// A fresh limiter is cold: no start instant is recorded and the first
// TryRun or Run always fires. Each permitted run re-arms the window at the
// instant the run actually happened, not at the previous deadline, so time
// overshot past a deadline is never credited toward the next window and two
// permitted runs are always at least one cooldown apart.
type RateLimiter struct {
	cooldown time.Duration
	clock    Clock
	start    time.Time
	started  bool
}

// New creates a limiter with the given cooldown period.
//
// Panics if cooldown is not strictly positive; that is a programming
// mistake, not a runtime condition.
func New(cooldown time.Duration) *RateLimiter {
	return NewWithClock(cooldown, systemClock{})
}

// NewWithClock is New with an injected time source.
func NewWithClock(cooldown time.Duration, clock Clock) *RateLimiter {
	if cooldown <= 0 {
		panic("ratelim: cooldown must be positive")
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &RateLimiter{cooldown: cooldown, clock: clock}
}

// CooldownPeriod returns the cooldown period the limiter was created with.
func (l *RateLimiter) CooldownPeriod() time.Duration {
	return l.cooldown
}

// StartNow (re)starts the cooldown period at the current instant without
// running anything. It returns the previous start instant, with ok false
// when the limiter was cold.
func (l *RateLimiter) StartNow() (prev time.Time, ok bool) {
	prev, ok = l.start, l.started
	l.start = l.clock.Now()
	l.started = true
	return prev, ok
}

// Remaining reports how long until the next run can be permitted. It is
// zero for a cold limiter and once the deadline has passed.
func (l *RateLimiter) Remaining() time.Duration {
	if !l.started {
		return 0
	}
	if rem := l.cooldown - l.clock.Now().Sub(l.start); rem > 0 {
		return rem
	}
	return 0
}

// TryRun runs fn if the cooldown period has elapsed, re-arming the window,
// and returns nil. Otherwise fn is not called and the result is a
// *CooldownError carrying the remaining wait; the window is left untouched.
//
// The first call on a cold limiter always runs fn.
func (l *RateLimiter) TryRun(fn func()) error {
	if !l.started {
		fn()
		l.StartNow()
		return nil
	}
	now := l.clock.Now()
	deadline := l.start.Add(l.cooldown)
	if now.Before(deadline) {
		return &CooldownError{Remaining: deadline.Sub(now)}
	}
	fn()
	l.start = now
	return nil
}

// Run is TryRun with the cooldown-active signal discarded: fn either runs
// or the call is silently a no-op.
func (l *RateLimiter) Run(fn func()) {
	_ = l.TryRun(fn)
}

// RunWithElapsed runs fn with the actual time elapsed since the window was
// last armed, provided at least one cooldown period has passed. Shorter
// elapsed times are a silent no-op.
//
// Unlike TryRun, the first call on a cold limiter does not run fn: there is
// no previous start to measure from, so it only arms the window.
func (l *RateLimiter) RunWithElapsed(fn func(elapsed time.Duration)) {
	if !l.started {
		l.StartNow()
		return
	}
	now := l.clock.Now()
	elapsed := now.Sub(l.start)
	if elapsed >= l.cooldown {
		fn(elapsed)
		l.start = now
	}
}
