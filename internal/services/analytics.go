package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	activityrepo "github.com/yungbote/activity-tracker-backend/internal/data/repos/activity"
	updaterepo "github.com/yungbote/activity-tracker-backend/internal/data/repos/update"
	"github.com/yungbote/activity-tracker-backend/internal/domain/tracker"
	"github.com/yungbote/activity-tracker-backend/internal/platform/apierr"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
)

const (
	velocityPoints     = 6
	velocityBucketDays = 30
	topTagsCap         = 10
)

// timelineFloor caps how far back the all-time timeline window reaches.
var timelineFloor = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

type VelocityPoint struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type AnalyticsView struct {
	TotalActivities   int                `json:"total_activities"`
	OngoingActivities int                `json:"ongoing_activities"`
	ClosedThisMonth   int                `json:"closed_this_month"`
	ClosedLastMonth   int                `json:"closed_last_month"`
	AvgDaysToClose    float64            `json:"avg_days_to_close"`
	AvgDaysByPriority map[string]float64 `json:"avg_days_by_priority"`
	BlockerCount      int                `json:"blocker_count"`
	BlockerPercent    float64            `json:"blocker_percent"`
	Velocity          []VelocityPoint    `json:"velocity"`
	PriorityCounts    map[string]int     `json:"priority_counts"`
	StatusCounts      map[string]int     `json:"status_counts"`
	TopTags           []TagCount         `json:"top_tags"`
	Stale             []Suggestion       `json:"stale"`
	LongRunning       []Suggestion       `json:"long_running"`
	ComputedAt        time.Time          `json:"computed_at"`
}

type TimelineQuery struct {
	Status   string
	Priority string
	Range    string
}

type TimelineItem struct {
	Activity *tracker.Activity `json:"activity"`
	Updates  []*tracker.Update `json:"updates"`
	BarStart float64           `json:"bar_start_pct"`
	BarWidth float64           `json:"bar_width_pct"`
	Color    string            `json:"color"`
}

type TimelineView struct {
	From   time.Time      `json:"from"`
	To     time.Time      `json:"to"`
	Months []string       `json:"months"`
	Items  []TimelineItem `json:"items"`
}

type AnalyticsService interface {
	Analytics(ctx context.Context) (*AnalyticsView, error)
	Timeline(ctx context.Context, q TimelineQuery) (*TimelineView, error)
}

// resultCache holds one computed analytics view behind a wall-clock expiry.
// There is no write-triggered invalidation; concurrent callers may recompute
// the same view, which is harmless because the computation is read-only.
type resultCache struct {
	mu   sync.Mutex
	ttl  time.Duration
	at   time.Time
	view *AnalyticsView
}

func (rc *resultCache) GetOrCompute(now time.Time, compute func() (*AnalyticsView, error)) (*AnalyticsView, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.view != nil && rc.ttl > 0 && now.Sub(rc.at) < rc.ttl {
		return rc.view, nil
	}
	view, err := compute()
	if err != nil {
		return nil, err
	}
	rc.view = view
	rc.at = now
	return view, nil
}

type analyticsService struct {
	db           *gorm.DB
	log          *logger.Logger
	activityRepo activityrepo.ActivityRepo
	updateRepo   updaterepo.UpdateRepo
	cache        *resultCache
	now          func() time.Time
}

func NewAnalyticsService(
	db *gorm.DB,
	baseLog *logger.Logger,
	activityRepo activityrepo.ActivityRepo,
	updateRepo updaterepo.UpdateRepo,
	cacheTTL time.Duration,
) AnalyticsService {
	serviceLog := baseLog.With("service", "AnalyticsService")
	return &analyticsService{
		db:           db,
		log:          serviceLog,
		activityRepo: activityRepo,
		updateRepo:   updateRepo,
		cache:        &resultCache{ttl: cacheTTL},
		now:          time.Now,
	}
}

func (an *analyticsService) Analytics(ctx context.Context) (*AnalyticsView, error) {
	return an.cache.GetOrCompute(an.now(), func() (*AnalyticsView, error) {
		return an.compute(ctx)
	})
}

func (an *analyticsService) compute(ctx context.Context) (*AnalyticsView, error) {
	activities, err := an.activityRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	latest, err := an.updateRepo.LatestPerActivity(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("latest updates: %w", err)
	}

	now := an.now().UTC()
	view := &AnalyticsView{
		AvgDaysByPriority: make(map[string]float64, 3),
		PriorityCounts:    make(map[string]int, 3),
		StatusCounts:      make(map[string]int, 3),
		ComputedAt:        now,
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	var closeDaysSum float64
	var closeDaysN int
	prioritySum := map[string]float64{}
	priorityN := map[string]int{}
	tagCounts := map[string]int{}
	var open []*tracker.Activity

	for _, a := range activities {
		view.TotalActivities++
		view.StatusCounts[a.Status]++
		view.PriorityCounts[a.Priority]++

		for _, tag := range tracker.SplitTags(a.Tags) {
			tagCounts[tag]++
		}

		if a.Status != tracker.StatusClosed {
			open = append(open, a)
		}
		if a.Status == tracker.StatusOngoing {
			view.OngoingActivities++
			if strings.TrimSpace(a.BlockingPoints) != "" {
				view.BlockerCount++
			}
		}

		if a.Status == tracker.StatusClosed && a.EndDate != nil {
			end := a.EndDate.UTC()
			if !end.Before(monthStart) && end.Before(monthStart.AddDate(0, 1, 0)) {
				view.ClosedThisMonth++
			}
			if !end.Before(lastMonthStart) && end.Before(monthStart) {
				view.ClosedLastMonth++
			}
			days := end.Sub(a.StartDate.UTC()).Hours() / 24
			closeDaysSum += days
			closeDaysN++
			prioritySum[a.Priority] += days
			priorityN[a.Priority]++
		}
	}

	if closeDaysN > 0 {
		view.AvgDaysToClose = closeDaysSum / float64(closeDaysN)
	}
	for _, p := range []string{tracker.PriorityHigh, tracker.PriorityMedium, tracker.PriorityLow} {
		if priorityN[p] > 0 {
			view.AvgDaysByPriority[p] = prioritySum[p] / float64(priorityN[p])
		} else {
			view.AvgDaysByPriority[p] = 0
		}
	}
	if view.OngoingActivities > 0 {
		view.BlockerPercent = 100 * float64(view.BlockerCount) / float64(view.OngoingActivities)
	}

	view.Velocity = computeVelocity(activities, monthStart)

	// Keep the priority chart non-empty even on a fresh database.
	if view.PriorityCounts[tracker.PriorityHigh] == 0 &&
		view.PriorityCounts[tracker.PriorityMedium] == 0 &&
		view.PriorityCounts[tracker.PriorityLow] == 0 {
		view.PriorityCounts[tracker.PriorityLow] = 1
	}

	view.TopTags = topTags(tagCounts, topTagsCap)
	view.Stale, view.LongRunning = computeSuggestions(open, latest, now)

	an.log.Debug("Analytics recomputed", "activities", view.TotalActivities)
	return view, nil
}

// computeVelocity buckets closures into fixed 30-day windows walking back
// from the first of the current month. The windows approximate months rather
// than following the calendar exactly.
func computeVelocity(activities []*tracker.Activity, monthStart time.Time) []VelocityPoint {
	points := make([]VelocityPoint, 0, velocityPoints)
	for i := velocityPoints - 1; i >= 0; i-- {
		start := monthStart.AddDate(0, 0, -velocityBucketDays*i)
		end := start.AddDate(0, 0, velocityBucketDays)
		count := 0
		for _, a := range activities {
			if a.Status != tracker.StatusClosed || a.EndDate == nil {
				continue
			}
			e := a.EndDate.UTC()
			if !e.Before(start) && e.Before(end) {
				count++
			}
		}
		points = append(points, VelocityPoint{Label: start.Format("Jan 2"), Count: count})
	}
	return points
}

func topTags(counts map[string]int, limit int) []TagCount {
	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (an *analyticsService) Timeline(ctx context.Context, q TimelineQuery) (*TimelineView, error) {
	today := tracker.DayStart(an.now())
	windowStart := timelineFloor
	var cutoff time.Time
	if q.Range != "" && q.Range != "all" {
		days, err := strconv.Atoi(q.Range)
		if err != nil || days <= 0 {
			return nil, apierr.Validation("invalid_range", "range must be a positive day count or \"all\"")
		}
		cutoff = today.AddDate(0, 0, -days)
		windowStart = cutoff
	}

	activities, err := an.activityRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	view := &TimelineView{From: windowStart, To: today}
	totalDays := today.Sub(windowStart).Hours() / 24
	if totalDays <= 0 {
		totalDays = 1
	}
	for m := time.Date(windowStart.Year(), windowStart.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(today); m = m.AddDate(0, 1, 0) {
		view.Months = append(view.Months, m.Format("Jan 2006"))
	}

	for _, a := range activities {
		if q.Status != "" && a.Status != q.Status {
			continue
		}
		if q.Priority != "" && a.Priority != q.Priority {
			continue
		}

		updates, err := an.updateRepo.ListByActivity(ctx, nil, a.ID)
		if err != nil {
			return nil, fmt.Errorf("list updates: %w", err)
		}
		if !cutoff.IsZero() {
			var inRange []*tracker.Update
			for _, u := range updates {
				if !u.CreatedAt.Before(cutoff) {
					inRange = append(inRange, u)
				}
			}
			started := !a.StartDate.Before(cutoff)
			ended := a.EndDate != nil && !a.EndDate.Before(cutoff)
			if len(inRange) == 0 && !started && !ended {
				continue
			}
			updates = inRange
		}

		barFrom := clampDay(tracker.DayStart(a.StartDate), windowStart, today)
		barTo := today
		if a.EndDate != nil {
			barTo = clampDay(tracker.DayStart(*a.EndDate), windowStart, today)
		}
		width := barTo.Sub(barFrom).Hours() / 24 / totalDays * 100
		if width < 1 {
			width = 1
		}
		view.Items = append(view.Items, TimelineItem{
			Activity: a,
			Updates:  updates,
			BarStart: barFrom.Sub(windowStart).Hours() / 24 / totalDays * 100,
			BarWidth: width,
			Color:    priorityColor(a.Priority),
		})
	}
	return view, nil
}

func clampDay(t, lo, hi time.Time) time.Time {
	if t.Before(lo) {
		return lo
	}
	if t.After(hi) {
		return hi
	}
	return t
}

func priorityColor(priority string) string {
	switch priority {
	case tracker.PriorityHigh:
		return "#e74c3c"
	case tracker.PriorityMedium:
		return "#f39c12"
	case tracker.PriorityLow:
		return "#2ecc71"
	default:
		return "#95a5a6"
	}
}
