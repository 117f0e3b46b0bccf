package services

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/activity-tracker-backend/internal/domain/tracker"
)

func (f *testFixture) analyticsService(ttl time.Duration) AnalyticsService {
	return NewAnalyticsService(f.db, f.log, f.activityRepo, f.updateRepo, ttl)
}

func TestAnalyticsAveragesAndDistribution(t *testing.T) {
	f := newFixture(t)
	actSvc := f.activityService()
	anSvc := f.analyticsService(0)
	ctx := context.Background()

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 10)
	if _, err := actSvc.Create(ctx, CreateActivityInput{
		Description: "closed quickly",
		StartDate:   start,
		EndDate:     &end,
		Status:      tracker.StatusClosed,
		Priority:    tracker.PriorityHigh,
		Tags:        "infra, billing",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := actSvc.Create(ctx, CreateActivityInput{
		Description:    "still open",
		BlockingPoints: "blocked",
		Tags:           "infra",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	view, err := anSvc.Analytics(ctx)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if view.TotalActivities != 2 || view.OngoingActivities != 1 {
		t.Fatalf("unexpected counts %d/%d", view.TotalActivities, view.OngoingActivities)
	}
	if view.AvgDaysToClose != 10 {
		t.Fatalf("expected avg 10 days to close, got %v", view.AvgDaysToClose)
	}
	if view.AvgDaysByPriority[tracker.PriorityHigh] != 10 {
		t.Fatalf("expected high priority avg 10, got %v", view.AvgDaysByPriority[tracker.PriorityHigh])
	}
	if view.AvgDaysByPriority[tracker.PriorityLow] != 0 {
		t.Fatalf("expected 0 fallback for empty bucket, got %v", view.AvgDaysByPriority[tracker.PriorityLow])
	}
	if view.BlockerCount != 1 || view.BlockerPercent != 100 {
		t.Fatalf("unexpected blocker stats %d/%v", view.BlockerCount, view.BlockerPercent)
	}
	if len(view.Velocity) != velocityPoints {
		t.Fatalf("expected %d velocity points, got %d", velocityPoints, len(view.Velocity))
	}
	if len(view.TopTags) == 0 || view.TopTags[0].Tag != "infra" || view.TopTags[0].Count != 2 {
		t.Fatalf("unexpected top tags %+v", view.TopTags)
	}
}

func TestAnalyticsPriorityFallbackOnEmptyDatabase(t *testing.T) {
	f := newFixture(t)
	anSvc := f.analyticsService(0)

	view, err := anSvc.Analytics(context.Background())
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if view.PriorityCounts[tracker.PriorityLow] != 1 {
		t.Fatalf("expected low-priority placeholder of 1, got %+v", view.PriorityCounts)
	}
}

func TestAnalyticsCacheServesWithinTTL(t *testing.T) {
	f := newFixture(t)
	actSvc := f.activityService()
	anSvc := f.analyticsService(5 * time.Minute)
	ctx := context.Background()

	first, err := anSvc.Analytics(ctx)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if _, err := actSvc.Create(ctx, CreateActivityInput{Description: "after cache"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	second, err := anSvc.Analytics(ctx)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if second.TotalActivities != first.TotalActivities {
		t.Fatal("expected cached view within TTL")
	}
}

func TestResultCacheExpires(t *testing.T) {
	rc := &resultCache{ttl: time.Minute}
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	calls := 0
	compute := func() (*AnalyticsView, error) {
		calls++
		return &AnalyticsView{TotalActivities: calls}, nil
	}

	if _, err := rc.GetOrCompute(base, compute); err != nil {
		t.Fatalf("compute: %v", err)
	}
	if _, err := rc.GetOrCompute(base.Add(30*time.Second), compute); err != nil {
		t.Fatalf("compute: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected cache hit, got %d computations", calls)
	}

	view, err := rc.GetOrCompute(base.Add(2*time.Minute), compute)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if calls != 2 || view.TotalActivities != 2 {
		t.Fatalf("expected recompute after expiry, calls=%d", calls)
	}
}

func TestTimelineRangeFiltering(t *testing.T) {
	f := newFixture(t)
	actSvc := f.activityService()
	anSvc := f.analyticsService(0)
	ctx := context.Background()

	old := tracker.DayStart(time.Now()).AddDate(0, 0, -90)
	if _, err := actSvc.Create(ctx, CreateActivityInput{Description: "ancient", StartDate: old}); err != nil {
		t.Fatalf("create: %v", err)
	}
	recent, err := actSvc.Create(ctx, CreateActivityInput{Description: "recent"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	view, err := anSvc.Timeline(ctx, TimelineQuery{Range: "30"})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Activity.ID != recent.ID {
		t.Fatalf("expected only the recent activity, got %d items", len(view.Items))
	}
	if view.Items[0].BarWidth < 1 {
		t.Fatalf("bar width below the visible minimum: %f", view.Items[0].BarWidth)
	}

	all, err := anSvc.Timeline(ctx, TimelineQuery{Range: "all"})
	if err != nil {
		t.Fatalf("timeline all: %v", err)
	}
	if len(all.Items) != 2 {
		t.Fatalf("expected both activities with range=all, got %d", len(all.Items))
	}
	if len(all.Months) == 0 {
		t.Fatal("expected month labels on the all-time window")
	}

	if _, err := anSvc.Timeline(ctx, TimelineQuery{Range: "soon"}); err == nil {
		t.Fatal("expected invalid range to be rejected")
	}
}
