package pacer

import (
	"context"
	"testing"
	"time"

	"ratelim"
	"ratelim/internal/config"
	"ratelim/internal/events"
	"ratelim/internal/model"
)

func testPacer(t *testing.T, action Action) (*Pacer, *ratelim.FakeClock, *events.Store) {
	t.Helper()
	clock := ratelim.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ev := events.NewStore(100)
	cfg := config.PacerConfig{
		Cooldown:        time.Second,
		CommandTimeout:  time.Second,
		SummaryInterval: time.Minute,
	}
	p := NewWithClock(cfg, action, nil, nil, ev, nil, nil, clock)
	return p, clock, ev
}

func TestTriggerFiresAndSuppresses(t *testing.T) {
	calls := 0
	p, clock, ev := testPacer(t, func(context.Context) error {
		calls++
		return nil
	})
	ctx := context.Background()

	res := p.Trigger(ctx, "http")
	if res.Outcome != model.OutcomeFired || res.Firing == nil {
		t.Fatalf("first trigger = %+v", res)
	}
	if res.Firing.Seq != 1 || res.Firing.Source != "http" {
		t.Fatalf("firing = %+v", res.Firing)
	}
	if calls != 1 {
		t.Fatalf("action calls = %d", calls)
	}

	clock.Advance(300 * time.Millisecond)
	res = p.Trigger(ctx, "http")
	if res.Outcome != model.OutcomeSuppressed {
		t.Fatalf("expected suppression, got %+v", res)
	}
	if res.Remaining != 700*time.Millisecond {
		t.Fatalf("remaining = %s, want 700ms", res.Remaining)
	}
	if calls != 1 {
		t.Fatalf("action ran during cooldown")
	}

	clock.Advance(700 * time.Millisecond)
	res = p.Trigger(ctx, "cron")
	if res.Outcome != model.OutcomeFired {
		t.Fatalf("expected firing at deadline, got %+v", res)
	}
	if res.Firing.Seq != 2 {
		t.Fatalf("seq = %d", res.Firing.Seq)
	}
	if res.Firing.SincePrevious != time.Second {
		t.Fatalf("since_previous = %s", res.Firing.SincePrevious)
	}
	if res.Firing.Suppressed != 1 {
		t.Fatalf("suppressed = %d, want 1", res.Firing.Suppressed)
	}

	if got := ev.List(0); len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
}

func TestTriggerRecordsActionError(t *testing.T) {
	p, _, ev := testPacer(t, func(context.Context) error {
		return context.DeadlineExceeded
	})
	res := p.Trigger(context.Background(), "http")
	if res.Outcome != model.OutcomeFired {
		t.Fatalf("failing action still consumes the window, got %+v", res)
	}
	if res.Firing.ActionError == "" {
		t.Fatalf("expected action error recorded")
	}
	last, ok := ev.Last()
	if !ok || last.ActionError == "" {
		t.Fatalf("event missing action error: %+v", last)
	}
}

func TestStatus(t *testing.T) {
	p, clock, _ := testPacer(t, func(context.Context) error { return nil })
	st := p.Status()
	if st.Armed || st.Firings != 0 || st.Remaining != 0 {
		t.Fatalf("cold status = %+v", st)
	}
	if st.Cooldown != time.Second {
		t.Fatalf("cooldown = %s", st.Cooldown)
	}

	p.Trigger(context.Background(), "http")
	clock.Advance(400 * time.Millisecond)
	st = p.Status()
	if !st.Armed || st.Firings != 1 {
		t.Fatalf("status after firing = %+v", st)
	}
	if st.Remaining != 600*time.Millisecond {
		t.Fatalf("remaining = %s", st.Remaining)
	}
}

func TestCommandActionEmptyArgvIsNoop(t *testing.T) {
	action := CommandAction(nil, time.Second)
	if err := action(context.Background()); err != nil {
		t.Fatalf("empty command: %v", err)
	}
}
