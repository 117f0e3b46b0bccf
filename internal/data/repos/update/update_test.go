package update

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/activity-tracker-backend/internal/data/repos/testutil"
	"github.com/yungbote/activity-tracker-backend/internal/domain/tracker"
)

func TestListByActivityOrdersAscending(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := NewUpdateRepo(gdb, testutil.Logger(t))
	ctx := context.Background()

	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	a := testutil.SeedActivity(t, ctx, tx, "ordered", tracker.StatusOngoing, tracker.PriorityMedium, start)
	testutil.SeedUpdate(t, ctx, tx, a.ID, "second", start.Add(48*time.Hour))
	testutil.SeedUpdate(t, ctx, tx, a.ID, "first", start.Add(24*time.Hour))

	got, err := repo.ListByActivity(ctx, tx, a.ID)
	if err != nil {
		t.Fatalf("list by activity: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(got))
	}
	if got[0].Text != "first" || got[1].Text != "second" {
		t.Fatalf("unexpected order: %q, %q", got[0].Text, got[1].Text)
	}
}

func TestLatestByActivity(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := NewUpdateRepo(gdb, testutil.Logger(t))
	ctx := context.Background()

	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	a := testutil.SeedActivity(t, ctx, tx, "latest", tracker.StatusOngoing, tracker.PriorityMedium, start)
	testutil.SeedUpdate(t, ctx, tx, a.ID, "old", start.Add(24*time.Hour))
	testutil.SeedUpdate(t, ctx, tx, a.ID, "new", start.Add(72*time.Hour))

	got, err := repo.LatestByActivity(ctx, tx, a.ID)
	if err != nil {
		t.Fatalf("latest by activity: %v", err)
	}
	if got == nil || got.Text != "new" {
		t.Fatalf("expected newest update, got %+v", got)
	}

	b := testutil.SeedActivity(t, ctx, tx, "empty", tracker.StatusOngoing, tracker.PriorityLow, start)
	none, err := repo.LatestByActivity(ctx, tx, b.ID)
	if err != nil {
		t.Fatalf("latest by activity (empty): %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil for activity without updates, got %+v", none)
	}
}

func TestCountPerActivity(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := NewUpdateRepo(gdb, testutil.Logger(t))
	ctx := context.Background()

	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	a := testutil.SeedActivity(t, ctx, tx, "busy", tracker.StatusOngoing, tracker.PriorityHigh, start)
	b := testutil.SeedActivity(t, ctx, tx, "quiet", tracker.StatusOngoing, tracker.PriorityLow, start)
	testutil.SeedUpdate(t, ctx, tx, a.ID, "u1", start.Add(time.Hour))
	testutil.SeedUpdate(t, ctx, tx, a.ID, "u2", start.Add(2*time.Hour))

	counts, err := repo.CountPerActivity(ctx, tx)
	if err != nil {
		t.Fatalf("count per activity: %v", err)
	}
	if counts[a.ID] != 2 {
		t.Fatalf("expected 2 for busy activity, got %d", counts[a.ID])
	}
	if _, ok := counts[b.ID]; ok {
		t.Fatalf("expected no entry for activity without updates")
	}
}
