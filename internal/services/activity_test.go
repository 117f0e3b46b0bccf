package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/activity-tracker-backend/internal/domain/tracker"
	"github.com/yungbote/activity-tracker-backend/internal/platform/apierr"
)

func TestCreateRejectsEmptyDescription(t *testing.T) {
	f := newFixture(t)
	svc := f.activityService()

	_, err := svc.Create(context.Background(), CreateActivityInput{Description: "   "})
	if err == nil {
		t.Fatal("expected validation error")
	}
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != 400 {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestCreateRejectsInvalidEnums(t *testing.T) {
	f := newFixture(t)
	svc := f.activityService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateActivityInput{Description: "a", Status: "Paused"}); err == nil {
		t.Fatal("expected invalid status to be rejected")
	}
	if _, err := svc.Create(ctx, CreateActivityInput{Description: "a", Priority: "Urgent"}); err == nil {
		t.Fatal("expected invalid priority to be rejected")
	}
}

func TestCreateWithInitialNoteSnapshotsBlockingPoints(t *testing.T) {
	f := newFixture(t)
	svc := f.activityService()
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateActivityInput{
		Description:    "write rollout plan",
		BlockingPoints: "waiting on review",
		InitialNote:    "kicked off",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updates, err := f.updateRepo.ListByActivity(ctx, nil, a.ID)
	if err != nil {
		t.Fatalf("list updates: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	if updates[0].BPSnapshot != "waiting on review" {
		t.Fatalf("unexpected snapshot %q", updates[0].BPSnapshot)
	}

	got, err := svc.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Observations != "kicked off" {
		t.Fatalf("unexpected observations %q", got.Observations)
	}
}

func TestCloseWithoutNoteRejectsWholeEdit(t *testing.T) {
	f := newFixture(t)
	svc := f.activityService()
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateActivityInput{Description: "original", Priority: tracker.PriorityLow})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	closed := tracker.StatusClosed
	high := tracker.PriorityHigh
	_, err = svc.Edit(ctx, a.ID, EditActivityInput{Status: &closed, Priority: &high})
	if err == nil {
		t.Fatal("expected closing without a note to fail")
	}

	got, err := svc.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != tracker.StatusOngoing || got.Priority != tracker.PriorityLow {
		t.Fatalf("edit was partially persisted: status=%q priority=%q", got.Status, got.Priority)
	}
}

func TestCloseWithNoteAppendsPrefixedUpdateAndEndDate(t *testing.T) {
	f := newFixture(t)
	svc := f.activityService()
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateActivityInput{Description: "ship it"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.ChangeStatus(ctx, a.ID, tracker.StatusClosed, "done")
	if err != nil {
		t.Fatalf("change status: %v", err)
	}
	if got.Status != tracker.StatusClosed {
		t.Fatalf("unexpected status %q", got.Status)
	}
	if got.EndDate == nil {
		t.Fatal("expected end date to be set")
	}
	today := tracker.DayStart(time.Now())
	if !got.EndDate.Equal(today) {
		t.Fatalf("expected end date %v, got %v", today, got.EndDate)
	}

	updates, err := f.updateRepo.ListByActivity(ctx, nil, a.ID)
	if err != nil {
		t.Fatalf("list updates: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("expected exactly 1 update, got %d", len(updates))
	}
	if !strings.HasPrefix(updates[0].Text, "[CLOSED] ") {
		t.Fatalf("expected closed prefix, got %q", updates[0].Text)
	}
}

func TestFullLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	svc := f.activityService()
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateActivityInput{
		Description: "A",
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Priority:    tracker.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.AppendUpdate(ctx, a.ID, "progress", nil); err != nil {
		t.Fatalf("append update: %v", err)
	}
	got, err := svc.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Observations != "progress" {
		t.Fatalf("expected observations %q, got %q", "progress", got.Observations)
	}
	if len(got.Updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(got.Updates))
	}
	if got.Updates[0].BPSnapshot != got.BlockingPoints {
		t.Fatalf("snapshot %q does not match blocking points %q",
			got.Updates[0].BPSnapshot, got.BlockingPoints)
	}

	closed, err := svc.ChangeStatus(ctx, a.ID, tracker.StatusClosed, "done")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != tracker.StatusClosed || closed.EndDate == nil {
		t.Fatalf("unexpected closed state %+v", closed)
	}

	final, err := svc.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get after close: %v", err)
	}
	if len(final.Updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(final.Updates))
	}
	if final.Updates[1].Text != "[CLOSED] done" {
		t.Fatalf("unexpected closing update %q", final.Updates[1].Text)
	}
}

func TestAppendUpdateSnapshotsPostChangeBlockingPoints(t *testing.T) {
	f := newFixture(t)
	svc := f.activityService()
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateActivityInput{
		Description:    "snapshot semantics",
		BlockingPoints: "old blocker",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newBP := "new blocker"
	u, err := svc.AppendUpdate(ctx, a.ID, "switched blockers", &newBP)
	if err != nil {
		t.Fatalf("append update: %v", err)
	}
	if u.BPSnapshot != "new blocker" {
		t.Fatalf("snapshot should reflect post-change value, got %q", u.BPSnapshot)
	}

	got, err := svc.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.BlockingPoints != "new blocker" {
		t.Fatalf("blocking points not persisted, got %q", got.BlockingPoints)
	}
}

func TestAppendUpdateRejectsBlankText(t *testing.T) {
	f := newFixture(t)
	svc := f.activityService()
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateActivityInput{Description: "needs text"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AppendUpdate(ctx, a.ID, "   ", nil); err == nil {
		t.Fatal("expected blank update text to be rejected")
	}
}

func TestBulkSetPrioritySkipsUnknownIDs(t *testing.T) {
	f := newFixture(t)
	svc := f.activityService()
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateActivityInput{Description: "one"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := svc.Create(ctx, CreateActivityInput{Description: "two"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.BulkSetPriority(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()}, tracker.PriorityHigh)
	if err != nil {
		t.Fatalf("bulk set priority: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 updated, got %d", updated)
	}

	if _, err := svc.BulkSetPriority(ctx, nil, tracker.PriorityHigh); err == nil {
		t.Fatal("expected empty id list to be rejected")
	}
	if _, err := svc.BulkSetPriority(ctx, []uuid.UUID{a.ID}, "Critical"); err == nil {
		t.Fatal("expected invalid priority to be rejected")
	}
}

func TestDeleteCascadesUpdates(t *testing.T) {
	f := newFixture(t)
	svc := f.activityService()
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateActivityInput{Description: "doomed", InitialNote: "note"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	updates, err := f.updateRepo.ListByActivity(ctx, nil, a.ID)
	if err != nil {
		t.Fatalf("list updates: %v", err)
	}
	if len(updates) != 0 {
		t.Fatalf("expected cascade delete, found %d updates", len(updates))
	}

	if err := svc.Delete(ctx, a.ID); err == nil {
		t.Fatal("expected not found on second delete")
	}
}

func TestSearchEnforcesMinimumLength(t *testing.T) {
	f := newFixture(t)
	svc := f.activityService()

	if _, err := svc.Search(context.Background(), "a"); err == nil {
		t.Fatal("expected short query to be rejected")
	}
}

func TestSearchCountsRunesNotBytes(t *testing.T) {
	f := newFixture(t)
	svc := f.activityService()
	ctx := context.Background()

	// "é" is two bytes but one character and must still be rejected.
	if _, err := svc.Search(ctx, "é"); err == nil {
		t.Fatal("expected single-rune query to be rejected")
	}
	if _, err := svc.Search(ctx, "éé"); err != nil {
		t.Fatalf("two-rune query rejected: %v", err)
	}
}

func TestEditWithBlankEndDateClearsIt(t *testing.T) {
	f := newFixture(t)
	svc := f.activityService()
	ctx := context.Background()

	end := tracker.DayStart(time.Now()).AddDate(0, 0, 7)
	a, err := svc.Create(ctx, CreateActivityInput{Description: "planned", EndDate: &end})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	edited, err := svc.Edit(ctx, a.ID, EditActivityInput{ClearEndDate: true})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.EndDate != nil {
		t.Fatalf("expected end date cleared, got %v", edited.EndDate)
	}

	reloaded, err := svc.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.EndDate != nil {
		t.Fatalf("cleared end date came back after reload: %v", reloaded.EndDate)
	}
}

func TestCompletedViewCounters(t *testing.T) {
	f := newFixture(t)
	svc := f.activityService()
	ctx := context.Background()

	oldClosed, err := svc.Create(ctx, CreateActivityInput{
		Description: "finished long ago",
		Priority:    tracker.PriorityHigh,
		StartDate:   tracker.DayStart(time.Now()).AddDate(0, -3, 0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	lastQuarter := tracker.DayStart(time.Now()).AddDate(0, -2, 0)
	if _, err := svc.Edit(ctx, oldClosed.ID, EditActivityInput{EndDate: &lastQuarter}); err != nil {
		t.Fatalf("set end date: %v", err)
	}
	if _, err := svc.ChangeStatus(ctx, oldClosed.ID, tracker.StatusClosed, "archived"); err != nil {
		t.Fatalf("close: %v", err)
	}

	recent, err := svc.Create(ctx, CreateActivityInput{Description: "just wrapped"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.ChangeStatus(ctx, recent.ID, tracker.StatusClosed, "done"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := svc.Create(ctx, CreateActivityInput{Description: "still open"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	view, err := svc.Completed(ctx)
	if err != nil {
		t.Fatalf("completed: %v", err)
	}
	if view.TotalCount != 2 || len(view.Activities) != 2 {
		t.Fatalf("expected 2 closed activities, got %d", view.TotalCount)
	}
	if view.Activities[0].ID != recent.ID {
		t.Fatalf("expected most recently finished first, got %q", view.Activities[0].Description)
	}
	if view.HighPriority != 1 {
		t.Fatalf("expected 1 high-priority closed, got %d", view.HighPriority)
	}
	if view.ClosedThisMonth != 1 {
		t.Fatalf("expected 1 closed this month, got %d", view.ClosedThisMonth)
	}
}
