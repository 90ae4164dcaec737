package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"ratelim"
)

func NewLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(h)
}

// throttleState is shared across handlers derived via WithAttrs/WithGroup
// so the whole handler tree counts as one guarded action. The mutex
// provides the external synchronization the limiter requires.
type throttleState struct {
	mu      sync.Mutex
	lim     *ratelim.RateLimiter
	dropped int
}

type throttledHandler struct {
	inner slog.Handler
	state *throttleState
}

// Throttle wraps a slog.Handler so that at most one record per interval
// reaches it. Records arriving inside the cooldown are dropped and counted;
// the next record that passes carries the count as a "dropped" attribute.
// Meant for log statements that can fire in tight loops.
func Throttle(h slog.Handler, interval time.Duration) slog.Handler {
	return &throttledHandler{
		inner: h,
		state: &throttleState{lim: ratelim.New(interval)},
	}
}

func (t *throttledHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return t.inner.Enabled(ctx, level)
}

func (t *throttledHandler) Handle(ctx context.Context, r slog.Record) error {
	t.state.mu.Lock()
	pass := false
	t.state.lim.Run(func() { pass = true })
	if !pass {
		t.state.dropped++
		t.state.mu.Unlock()
		return nil
	}
	dropped := t.state.dropped
	t.state.dropped = 0
	t.state.mu.Unlock()
	if dropped > 0 {
		r.AddAttrs(slog.Int("dropped", dropped))
	}
	return t.inner.Handle(ctx, r)
}

func (t *throttledHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &throttledHandler{inner: t.inner.WithAttrs(attrs), state: t.state}
}

func (t *throttledHandler) WithGroup(name string) slog.Handler {
	return &throttledHandler{inner: t.inner.WithGroup(name), state: t.state}
}
