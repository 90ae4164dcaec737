package pacer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"ratelim"
	"ratelim/internal/config"
	"ratelim/internal/events"
	"ratelim/internal/metrics"
	"ratelim/internal/model"
	"ratelim/internal/sink"
	"ratelim/internal/storage"
)

// Action is the operation the pacer guards.
type Action func(ctx context.Context) error

// CommandAction runs the configured command with a timeout. An empty argv
// is a no-op action, useful when the daemon is only consulted over HTTP.
func CommandAction(argv []string, timeout time.Duration) Action {
	return func(ctx context.Context) error {
		if len(argv) == 0 {
			return nil
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("command %q: %w (output: %q)", argv[0], err, bytes.TrimSpace(out))
		}
		return nil
	}
}

// Pacer owns the cooldown gate around the action. The gate itself holds no
// locks, so every access goes through the pacer mutex.
type Pacer struct {
	mu      sync.Mutex
	lim     *ratelim.RateLimiter
	summary *ratelim.RateLimiter
	clock   ratelim.Clock

	action  Action
	logger  *slog.Logger
	metrics *metrics.Metrics
	events  *events.Store
	store   storage.Store
	sink    *sink.Kafka

	seq          uint64
	lastFiredAt  time.Time
	suppressed   int
	summaryCount int
}

func New(cfg config.PacerConfig, action Action, store storage.Store, snk *sink.Kafka, ev *events.Store, m *metrics.Metrics, logger *slog.Logger) *Pacer {
	return NewWithClock(cfg, action, store, snk, ev, m, logger, ratelim.SystemClock())
}

func NewWithClock(cfg config.PacerConfig, action Action, store storage.Store, snk *sink.Kafka, ev *events.Store, m *metrics.Metrics, logger *slog.Logger, clock ratelim.Clock) *Pacer {
	if action == nil {
		action = CommandAction(cfg.Command, cfg.CommandTimeout)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if m != nil {
		m.SetCooldown(cfg.Cooldown)
	}
	return &Pacer{
		lim:     ratelim.NewWithClock(cfg.Cooldown, clock),
		summary: ratelim.NewWithClock(cfg.SummaryInterval, clock),
		clock:   clock,
		action:  action,
		logger:  logger,
		metrics: m,
		events:  ev,
		store:   store,
		sink:    snk,
	}
}

// Trigger attempts to fire the action. Inside the cooldown window nothing
// runs and the result carries the remaining wait.
func (p *Pacer) Trigger(ctx context.Context, source string) model.TriggerResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firing model.Firing
	err := p.lim.TryRun(func() {
		firing = p.fire(ctx, source)
	})
	if err != nil {
		var ce *ratelim.CooldownError
		remaining := time.Duration(0)
		if errors.As(err, &ce) {
			remaining = ce.Remaining
		}
		p.suppressed++
		p.summaryCount++
		if p.metrics != nil {
			p.metrics.RecordSuppressed()
		}
		p.logger.Debug("trigger suppressed", "source", source, "remaining", remaining)
		// First suppression arms the summary window without logging;
		// afterwards at most one summary line per interval.
		p.summary.RunWithElapsed(func(elapsed time.Duration) {
			p.logger.Info("triggers suppressed", "count", p.summaryCount, "window", elapsed)
			p.summaryCount = 0
		})
		return model.TriggerResult{Outcome: model.OutcomeSuppressed, Remaining: remaining}
	}
	return model.TriggerResult{Outcome: model.OutcomeFired, Firing: &firing}
}

func (p *Pacer) fire(ctx context.Context, source string) model.Firing {
	now := p.clock.Now()
	p.seq++
	f := model.Firing{
		Seq:        p.seq,
		FiredAt:    now,
		Source:     source,
		Suppressed: p.suppressed,
	}
	if !p.lastFiredAt.IsZero() {
		f.SincePrevious = now.Sub(p.lastFiredAt)
	}

	timer := ratelim.StartTimerWithClock(func(elapsed time.Duration) {
		f.ActionDuration = elapsed
	}, p.clock)
	actionErr := p.action(ctx)
	timer.Stop()
	if actionErr != nil {
		f.ActionError = actionErr.Error()
		p.logger.Error("action failed", "seq", f.Seq, "err", actionErr)
	} else {
		p.logger.Info("action fired", "seq", f.Seq, "source", source,
			"since_previous", f.SincePrevious, "duration", f.ActionDuration, "suppressed", f.Suppressed)
	}

	p.lastFiredAt = now
	p.suppressed = 0

	if p.metrics != nil {
		p.metrics.RecordFired(now, f.ActionDuration)
	}
	if p.events != nil {
		p.events.Add(f)
	}
	if p.store != nil {
		if err := p.store.SaveFiring(ctx, f); err != nil {
			p.logger.Warn("audit store save error", "seq", f.Seq, "err", err)
		}
	}
	if err := p.sink.Publish(ctx, f); err != nil {
		p.logger.Warn("sink publish error", "seq", f.Seq, "err", err)
	}
	return f
}

// Status is a point-in-time view for the API.
type Status struct {
	Cooldown    time.Duration `json:"cooldown"`
	Remaining   time.Duration `json:"remaining"`
	Armed       bool          `json:"armed"`
	Firings     uint64        `json:"firings"`
	Suppressed  int           `json:"suppressed_since_last_firing"`
	LastFiredAt time.Time     `json:"last_fired_at,omitzero"`
}

func (p *Pacer) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Cooldown:    p.lim.CooldownPeriod(),
		Remaining:   p.lim.Remaining(),
		Armed:       p.seq > 0,
		Firings:     p.seq,
		Suppressed:  p.suppressed,
		LastFiredAt: p.lastFiredAt,
	}
}

// Handle holds the active pacer so a config reload can swap it while the
// API keeps serving. Cooldown periods are immutable per gate; a reload
// builds a fresh pacer rather than mutating the running one.
type Handle struct {
	p atomic.Pointer[Pacer]
}

func NewHandle(p *Pacer) *Handle {
	h := &Handle{}
	h.p.Store(p)
	return h
}

func (h *Handle) Get() *Pacer { return h.p.Load() }

func (h *Handle) Set(p *Pacer) { h.p.Store(p) }
