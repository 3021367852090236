package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Aashish019/Client-Link-Monitor/internal/domain"
	"github.com/Aashish019/Client-Link-Monitor/internal/repo"
)

func TestMemoryStore_UpsertReplacesURL(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.Upsert(ctx, &domain.Target{Name: "api", URL: "https://old.example.com"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	first, err := s.Get(ctx, "api")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if err := s.Upsert(ctx, &domain.Target{Name: "api", URL: "https://new.example.com"}); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}

	got, err := s.Get(ctx, "api")
	if err != nil {
		t.Fatalf("Get after upsert: %v", err)
	}
	if got.URL != "https://new.example.com" {
		t.Fatalf("URL not replaced: %s", got.URL)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("CreatedAt changed on upsert: %v -> %v", first.CreatedAt, got.CreatedAt)
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 target after re-add, got %d", len(all))
	}
}

func TestMemoryStore_ListOrderedByName(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, name := range []string{"zulu", "alpha", "mike"} {
		if err := s.Upsert(ctx, &domain.Target{Name: name, URL: "https://" + name + ".example.com"}); err != nil {
			t.Fatalf("Upsert %s: %v", name, err)
		}
	}
	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"alpha", "mike", "zulu"}
	for i, name := range want {
		if all[i].Name != name {
			t.Fatalf("order[%d] = %s, want %s", i, all[i].Name, name)
		}
	}
}

func TestMemoryStore_GetMissingIsNotFound(t *testing.T) {
	s := New()
	if _, err := s.Get(context.Background(), "ghost"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("Get missing = %v, want ErrNotFound", err)
	}
	// Remove of an absent name is a no-op.
	if err := s.Remove(context.Background(), "ghost"); err != nil {
		t.Fatalf("Remove missing: %v", err)
	}
}

func TestMemoryStore_UptimeStatsWindows(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()

	appendAt := func(ts time.Time, st domain.Status) {
		t.Helper()
		if err := s.Append(ctx, &domain.CheckRecord{Name: "api", Status: st, CheckedAt: ts}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	// Inside 24h: 1 up, 1 down. Older but inside 7d: 2 up.
	appendAt(now.Add(-1*time.Hour), domain.StatusUp)
	appendAt(now.Add(-2*time.Hour), domain.StatusDown)
	appendAt(now.Add(-48*time.Hour), domain.StatusUp)
	appendAt(now.Add(-72*time.Hour), domain.StatusUp)
	// Ancient record outside both windows must not count.
	appendAt(now.Add(-8*24*time.Hour), domain.StatusDown)

	stats, err := s.UptimeStats(ctx, "api")
	if err != nil {
		t.Fatalf("UptimeStats: %v", err)
	}
	if stats.Window24h != 50.0 {
		t.Fatalf("24h = %v, want 50", stats.Window24h)
	}
	if stats.Window7d != 75.0 {
		t.Fatalf("7d = %v, want 75", stats.Window7d)
	}
}

func TestMemoryStore_UptimeDefaultsTo100(t *testing.T) {
	stats, err := New().UptimeStats(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("UptimeStats: %v", err)
	}
	if stats.Window24h != 100.0 || stats.Window7d != 100.0 {
		t.Fatalf("empty history = %+v, want 100/100", stats)
	}
}

func TestMemoryStore_PurgeDropsOnlyThatTarget(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()
	for _, name := range []string{"keep", "drop"} {
		if err := s.Append(ctx, &domain.CheckRecord{Name: name, Status: domain.StatusDown, CheckedAt: now}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	if err := s.Purge(ctx, "drop"); err != nil {
		t.Fatalf("Purge: %v", err)
	}

	gone, err := s.RecentByTarget(ctx, "drop", 10)
	if err != nil {
		t.Fatalf("RecentByTarget: %v", err)
	}
	if len(gone) != 0 {
		t.Fatalf("purged target still has %d records", len(gone))
	}
	kept, err := s.RecentByTarget(ctx, "keep", 10)
	if err != nil {
		t.Fatalf("RecentByTarget: %v", err)
	}
	if len(kept) != 1 {
		t.Fatalf("unrelated target lost records: got %d, want 1", len(kept))
	}
	// Purged target reads as never-checked again.
	stats, err := s.UptimeStats(ctx, "drop")
	if err != nil {
		t.Fatalf("UptimeStats: %v", err)
	}
	if stats.Window24h != 100.0 {
		t.Fatalf("post-purge 24h = %v, want 100", stats.Window24h)
	}
}

func TestMemoryStore_RecentByTargetNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		rec := &domain.CheckRecord{Name: "api", Status: domain.StatusUp, CheckedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	got, err := s.RecentByTarget(ctx, "api", 3)
	if err != nil {
		t.Fatalf("RecentByTarget: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("limit ignored: got %d records", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CheckedAt.After(got[i-1].CheckedAt) {
			t.Fatalf("records not newest-first: %v before %v", got[i-1].CheckedAt, got[i].CheckedAt)
		}
	}
}
