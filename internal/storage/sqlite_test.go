package storage

import (
	"context"
	"testing"
	"time"

	"ratelim/internal/model"
)

func TestSQLiteSaveAndList(t *testing.T) {
	store, err := NewSQLite("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		f := model.Firing{
			Seq:            uint64(i + 1),
			FiredAt:        base.Add(time.Duration(i) * time.Minute),
			Source:         "http",
			SincePrevious:  time.Minute,
			ActionDuration: 250 * time.Millisecond,
			Suppressed:     i,
		}
		if err := store.SaveFiring(ctx, f); err != nil {
			t.Fatalf("save firing %d: %v", i, err)
		}
	}

	n, err := store.CountFirings(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}

	recent, err := store.RecentFirings(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %d rows, want 2", len(recent))
	}
	if recent[0].Seq != 3 {
		t.Fatalf("newest seq = %d, want 3", recent[0].Seq)
	}
	if !recent[0].FiredAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("fired_at = %v", recent[0].FiredAt)
	}
	if recent[0].ActionDuration != 250*time.Millisecond {
		t.Fatalf("action duration = %s", recent[0].ActionDuration)
	}
}
