package ratelim

import "time"

// Clock supplies the current time to RateLimiter and Timer. Production code
// uses the system clock; tests can inject a FakeClock for deterministic
// behavior. Implementations must be monotonic: instants returned by Now
// must never move backwards. time.Now satisfies this because Go time.Time
// values carry a monotonic reading that Sub and Since honor.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// FakeClock is a manually advanced Clock for tests.
type FakeClock struct {
	current time.Time
}

// NewFakeClock creates a FakeClock sitting at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{current: start}
}

func (f *FakeClock) Now() time.Time { return f.current }

// Advance moves the clock forward by d.
func (f *FakeClock) Advance(d time.Duration) { f.current = f.current.Add(d) }

// Set moves the clock to t.
func (f *FakeClock) Set(t time.Time) { f.current = t }
