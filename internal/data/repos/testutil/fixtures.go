package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/activity-tracker-backend/internal/domain/tracker"
)

func SeedActivity(tb testing.TB, ctx context.Context, tx *gorm.DB, desc, status, priority string, startDate time.Time) *tracker.Activity {
	tb.Helper()
	a := &tracker.Activity{
		ID:          uuid.New(),
		Description: desc,
		Status:      status,
		Priority:    priority,
		StartDate:   startDate,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed activity: %v", err)
	}
	return a
}

func SeedUpdate(tb testing.TB, ctx context.Context, tx *gorm.DB, activityID uuid.UUID, text string, createdAt time.Time) *tracker.Update {
	tb.Helper()
	u := &tracker.Update{
		ID:         uuid.New(),
		ActivityID: activityID,
		Text:       text,
		CreatedAt:  createdAt,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed update: %v", err)
	}
	return u
}

func SeedGoal(tb testing.TB, ctx context.Context, tx *gorm.DB, text string, weekOf time.Time) *tracker.Goal {
	tb.Helper()
	g := &tracker.Goal{
		ID:     uuid.New(),
		Text:   text,
		WeekOf: tracker.WeekStart(weekOf),
	}
	if err := tx.WithContext(ctx).Create(g).Error; err != nil {
		tb.Fatalf("seed goal: %v", err)
	}
	return g
}

func PtrTime(v time.Time) *time.Time { return &v }
