package goal

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/activity-tracker-backend/internal/data/repos/testutil"
	"github.com/yungbote/activity-tracker-backend/internal/domain/tracker"
)

func TestListByWeekOnlyReturnsThatWeek(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := NewGoalRepo(gdb, testutil.Logger(t))
	ctx := context.Background()

	thisWeek := tracker.WeekStart(time.Date(2026, 8, 26, 15, 0, 0, 0, time.UTC))
	lastWeek := thisWeek.AddDate(0, 0, -7)
	testutil.SeedGoal(t, ctx, tx, "ship exports", thisWeek)
	testutil.SeedGoal(t, ctx, tx, "old goal", lastWeek)

	got, err := repo.ListByWeek(ctx, tx, thisWeek)
	if err != nil {
		t.Fatalf("list by week: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 goal, got %d", len(got))
	}
	if got[0].Text != "ship exports" {
		t.Fatalf("unexpected goal %q", got[0].Text)
	}
}

func TestSetCompletedAndUpdateText(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := NewGoalRepo(gdb, testutil.Logger(t))
	ctx := context.Background()

	g := testutil.SeedGoal(t, ctx, tx, "draft", time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC))

	if err := repo.SetCompleted(ctx, tx, g.ID, true); err != nil {
		t.Fatalf("set completed: %v", err)
	}
	if err := repo.UpdateText(ctx, tx, g.ID, "finalized"); err != nil {
		t.Fatalf("update text: %v", err)
	}

	got, err := repo.GetByID(ctx, tx, g.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if !got.Completed || got.Text != "finalized" {
		t.Fatalf("unexpected goal state %+v", got)
	}
}

func TestDeleteAndCount(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := NewGoalRepo(gdb, testutil.Logger(t))
	ctx := context.Background()

	week := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	keep := testutil.SeedGoal(t, ctx, tx, "keep this", week)
	drop := testutil.SeedGoal(t, ctx, tx, "drop this", week)

	if err := repo.Delete(ctx, tx, drop.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	count, err := repo.Count(ctx, tx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 goal after delete, got %d", count)
	}

	got, err := repo.GetByID(ctx, tx, keep.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got == nil {
		t.Fatal("surviving goal missing")
	}
}
