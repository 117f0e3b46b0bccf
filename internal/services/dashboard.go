package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	activityrepo "github.com/yungbote/activity-tracker-backend/internal/data/repos/activity"
	updaterepo "github.com/yungbote/activity-tracker-backend/internal/data/repos/update"
	"github.com/yungbote/activity-tracker-backend/internal/domain/tracker"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
)

const (
	staleAfterDays       = 14
	longRunningAfterDays = 30
	suggestionCap        = 5
	recentUpdatesPerItem = 2
	recentFeedCap        = 10
)

// DashboardQuery carries the user-chosen filters and sort for the main list.
// Search is a case-sensitive substring match over description, source, and
// blocking points; the dedicated search endpoint is the case-insensitive one.
type DashboardQuery struct {
	Search      string
	Priority    string
	Status      string
	HasBlockers bool
	Sort        string
	Dir         string
}

type Suggestion struct {
	Activity *tracker.Activity `json:"activity"`
	Days     int               `json:"days"`
}

type DashboardView struct {
	Activities      []*tracker.Activity              `json:"activities"`
	RecentUpdates   map[uuid.UUID][]*tracker.Update  `json:"recent_updates"`
	RecentFeed      []*tracker.Update                `json:"recent_feed"`
	ActiveCount     int                              `json:"active_count"`
	HighPriority    int                              `json:"high_priority_count"`
	BlockerCount    int                              `json:"blocker_count"`
	Streak          int                              `json:"streak"`
	UpdatesThisWeek int                              `json:"updates_this_week"`
	Stale           []Suggestion                     `json:"stale"`
	LongRunning     []Suggestion                     `json:"long_running"`
}

type DashboardService interface {
	Build(ctx context.Context, q DashboardQuery) (*DashboardView, error)
	All(ctx context.Context, q DashboardQuery) ([]*tracker.Activity, error)
}

type dashboardService struct {
	db           *gorm.DB
	log          *logger.Logger
	activityRepo activityrepo.ActivityRepo
	updateRepo   updaterepo.UpdateRepo
	now          func() time.Time
}

func NewDashboardService(
	db *gorm.DB,
	baseLog *logger.Logger,
	activityRepo activityrepo.ActivityRepo,
	updateRepo updaterepo.UpdateRepo,
) DashboardService {
	serviceLog := baseLog.With("service", "DashboardService")
	return &dashboardService{
		db:           db,
		log:          serviceLog,
		activityRepo: activityRepo,
		updateRepo:   updateRepo,
		now:          time.Now,
	}
}

func (ds *dashboardService) Build(ctx context.Context, q DashboardQuery) (*DashboardView, error) {
	all, err := ds.activityRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	var open []*tracker.Activity
	for _, a := range all {
		if a.Status != tracker.StatusClosed {
			open = append(open, a)
		}
	}

	filtered := filterActivities(open, q)
	sortKey := q.Sort
	if sortKey == "" {
		sortKey = "priority"
	}
	sortActivities(filtered, sortKey, q.Dir)

	ids := make([]uuid.UUID, 0, len(filtered))
	for _, a := range filtered {
		ids = append(ids, a.ID)
	}
	updates, err := ds.updateRepo.ListByActivities(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("list recent updates: %w", err)
	}
	recent := make(map[uuid.UUID][]*tracker.Update, len(filtered))
	for _, u := range updates {
		if len(recent[u.ActivityID]) < recentUpdatesPerItem {
			recent[u.ActivityID] = append(recent[u.ActivityID], u)
		}
	}

	view := &DashboardView{
		Activities:    filtered,
		RecentUpdates: recent,
	}
	for _, a := range open {
		if a.Status != tracker.StatusOngoing {
			continue
		}
		view.ActiveCount++
		if a.Priority == tracker.PriorityHigh {
			view.HighPriority++
		}
		if strings.TrimSpace(a.BlockingPoints) != "" {
			view.BlockerCount++
		}
	}

	allUpdates, err := ds.updateRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list updates: %w", err)
	}
	now := ds.now()
	view.Streak = computeStreak(allUpdates, now)
	view.UpdatesThisWeek = countUpdatesThisWeek(allUpdates, now)

	openIDs := make(map[uuid.UUID]bool, len(open))
	for _, a := range open {
		openIDs[a.ID] = true
	}
	for i := len(allUpdates) - 1; i >= 0 && len(view.RecentFeed) < recentFeedCap; i-- {
		if openIDs[allUpdates[i].ActivityID] {
			view.RecentFeed = append(view.RecentFeed, allUpdates[i])
		}
	}

	latest, err := ds.updateRepo.LatestPerActivity(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("latest updates: %w", err)
	}
	view.Stale, view.LongRunning = computeSuggestions(open, latest, now)

	return view, nil
}

// All is the everything listing behind the dashboard: closed activities
// included, same filters, plus the alphabetical sort key.
func (ds *dashboardService) All(ctx context.Context, q DashboardQuery) ([]*tracker.Activity, error) {
	all, err := ds.activityRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	filtered := filterActivities(all, q)
	sortActivities(filtered, q.Sort, q.Dir)
	return filtered, nil
}

func filterActivities(activities []*tracker.Activity, q DashboardQuery) []*tracker.Activity {
	out := make([]*tracker.Activity, 0, len(activities))
	for _, a := range activities {
		if q.Search != "" &&
			!strings.Contains(a.Description, q.Search) &&
			!strings.Contains(a.Source, q.Search) &&
			!strings.Contains(a.BlockingPoints, q.Search) {
			continue
		}
		if q.Priority != "" && a.Priority != q.Priority {
			continue
		}
		if q.Status != "" && a.Status != q.Status {
			continue
		}
		if q.HasBlockers && strings.TrimSpace(a.BlockingPoints) == "" {
			continue
		}
		out = append(out, a)
	}
	return out
}

// sortActivities orders in place. Ties keep retrieval order, so the sort must
// stay stable.
func sortActivities(activities []*tracker.Activity, key, dir string) {
	desc := dir == "desc"
	var less func(a, b *tracker.Activity) bool
	switch key {
	case "priority":
		less = func(a, b *tracker.Activity) bool {
			return tracker.PriorityRank(a.Priority) < tracker.PriorityRank(b.Priority)
		}
	case "status":
		less = func(a, b *tracker.Activity) bool { return a.Status < b.Status }
	case "start_date":
		less = func(a, b *tracker.Activity) bool { return a.StartDate.Before(b.StartDate) }
	case "activity":
		less = func(a, b *tracker.Activity) bool {
			return strings.ToLower(a.Description) < strings.ToLower(b.Description)
		}
	default:
		return
	}
	sort.SliceStable(activities, func(i, j int) bool {
		if desc {
			return less(activities[j], activities[i])
		}
		return less(activities[i], activities[j])
	})
}

// computeStreak counts consecutive UTC calendar days with at least one
// update, walking backward from today and stopping at the first gap.
func computeStreak(updates []*tracker.Update, now time.Time) int {
	days := make(map[time.Time]bool, len(updates))
	for _, u := range updates {
		days[tracker.DayStart(u.CreatedAt)] = true
	}

	streak := 0
	for day := tracker.DayStart(now); days[day]; day = day.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

func countUpdatesThisWeek(updates []*tracker.Update, now time.Time) int {
	today := tracker.DayStart(now)
	count := 0
	for _, u := range updates {
		diff := today.Sub(tracker.DayStart(u.CreatedAt)).Hours() / 24
		if diff >= 0 && diff < 7 {
			count++
		}
	}
	return count
}

func computeSuggestions(open []*tracker.Activity, latest map[uuid.UUID]time.Time, now time.Time) (stale, longRunning []Suggestion) {
	today := tracker.DayStart(now)
	for _, a := range open {
		if a.Status != tracker.StatusOngoing {
			continue
		}

		sinceActivity := int(today.Sub(tracker.DayStart(a.StartDate)).Hours() / 24)
		if at, ok := latest[a.ID]; ok {
			sinceActivity = int(today.Sub(tracker.DayStart(at)).Hours() / 24)
		}
		if sinceActivity >= staleAfterDays {
			stale = append(stale, Suggestion{Activity: a, Days: sinceActivity})
		}

		sinceStart := int(today.Sub(tracker.DayStart(a.StartDate)).Hours() / 24)
		if sinceStart >= longRunningAfterDays {
			longRunning = append(longRunning, Suggestion{Activity: a, Days: sinceStart})
		}
	}

	sort.SliceStable(stale, func(i, j int) bool { return stale[i].Days > stale[j].Days })
	sort.SliceStable(longRunning, func(i, j int) bool { return longRunning[i].Days > longRunning[j].Days })
	if len(stale) > suggestionCap {
		stale = stale[:suggestionCap]
	}
	if len(longRunning) > suggestionCap {
		longRunning = longRunning[:suggestionCap]
	}
	return stale, longRunning
}
