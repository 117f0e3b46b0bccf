package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	activityrepo "github.com/yungbote/activity-tracker-backend/internal/data/repos/activity"
	updaterepo "github.com/yungbote/activity-tracker-backend/internal/data/repos/update"
	"github.com/yungbote/activity-tracker-backend/internal/domain/tracker"
	"github.com/yungbote/activity-tracker-backend/internal/platform/apierr"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
)

const closedPrefix = "[CLOSED] "

type CreateActivityInput struct {
	Description    string     `json:"description"`
	Source         string     `json:"source"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	BlockingPoints string     `json:"blocking_points"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	Tags           string     `json:"tags"`
	InitialNote    string     `json:"initial_note"`
}

// EditActivityInput overwrites only the fields whose pointers are set.
type EditActivityInput struct {
	Description    *string    `json:"description"`
	Source         *string    `json:"source"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	BlockingPoints *string    `json:"blocking_points"`
	Status         *string    `json:"status"`
	Priority       *string    `json:"priority"`
	Tags           *string    `json:"tags"`
	ClearEndDate   bool       `json:"clear_end_date"`
	NewUpdateText  string     `json:"new_update_text"`
	ClosingNote    string     `json:"closing_note"`
}

// CompletedView is the closed-activity listing with its header counters.
type CompletedView struct {
	Activities      []*tracker.Activity `json:"activities"`
	TotalCount      int                 `json:"total_count"`
	HighPriority    int64               `json:"high_priority"`
	ClosedThisMonth int                 `json:"closed_this_month"`
}

type ActivityService interface {
	Create(ctx context.Context, in CreateActivityInput) (*tracker.Activity, error)
	Edit(ctx context.Context, id uuid.UUID, in EditActivityInput) (*tracker.Activity, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, newStatus, closingNote string) (*tracker.Activity, error)
	BulkSetPriority(ctx context.Context, ids []uuid.UUID, priority string) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AppendUpdate(ctx context.Context, id uuid.UUID, text string, newBlockingPoints *string) (*tracker.Update, error)
	Get(ctx context.Context, id uuid.UUID) (*tracker.Activity, error)
	ListAll(ctx context.Context) ([]*tracker.Activity, error)
	Completed(ctx context.Context) (*CompletedView, error)
	Search(ctx context.Context, query string) ([]*tracker.Activity, error)
}

type activityService struct {
	db           *gorm.DB
	log          *logger.Logger
	activityRepo activityrepo.ActivityRepo
	updateRepo   updaterepo.UpdateRepo
	now          func() time.Time
}

func NewActivityService(
	db *gorm.DB,
	baseLog *logger.Logger,
	activityRepo activityrepo.ActivityRepo,
	updateRepo updaterepo.UpdateRepo,
) ActivityService {
	serviceLog := baseLog.With("service", "ActivityService")
	return &activityService{
		db:           db,
		log:          serviceLog,
		activityRepo: activityRepo,
		updateRepo:   updateRepo,
		now:          time.Now,
	}
}

func (as *activityService) Create(ctx context.Context, in CreateActivityInput) (*tracker.Activity, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, apierr.Validation("description_required", "description cannot be empty")
	}

	status := in.Status
	if status == "" {
		status = tracker.StatusOngoing
	}
	if !tracker.ValidStatus(status) {
		return nil, apierr.Validation("invalid_status", fmt.Sprintf("invalid status %q", status))
	}

	priority := in.Priority
	if priority == "" {
		priority = tracker.PriorityMedium
	}
	if !tracker.ValidPriority(priority) {
		return nil, apierr.Validation("invalid_priority", fmt.Sprintf("invalid priority %q", priority))
	}

	start := in.StartDate
	if start.IsZero() {
		start = tracker.DayStart(as.now())
	}
	if in.EndDate != nil && in.EndDate.Before(start) {
		return nil, apierr.Validation("end_date_before_start", "end date cannot precede start date")
	}

	a := &tracker.Activity{
		ID:             uuid.New(),
		Description:    desc,
		Source:         strings.TrimSpace(in.Source),
		StartDate:      start,
		EndDate:        in.EndDate,
		BlockingPoints: strings.TrimSpace(in.BlockingPoints),
		Status:         status,
		Priority:       priority,
		Tags:           strings.TrimSpace(in.Tags),
	}

	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := as.activityRepo.Create(ctx, tx, a); err != nil {
			return fmt.Errorf("create activity: %w", err)
		}
		if note := strings.TrimSpace(in.InitialNote); note != "" {
			if err := as.appendUpdateTx(ctx, tx, a, note); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		as.log.Error("Create failed", "error", err)
		return nil, err
	}

	as.log.Info("Activity created", "activity_id", a.ID, "priority", a.Priority)
	return a, nil
}

func (as *activityService) Edit(ctx context.Context, id uuid.UUID, in EditActivityInput) (*tracker.Activity, error) {
	var result *tracker.Activity

	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := as.activityRepo.GetByID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("load activity: %w", err)
		}
		if a == nil {
			return apierr.NotFound("activity_not_found")
		}

		if in.Description != nil {
			desc := strings.TrimSpace(*in.Description)
			if desc == "" {
				return apierr.Validation("description_required", "description cannot be empty")
			}
			a.Description = desc
		}
		if in.Source != nil {
			a.Source = strings.TrimSpace(*in.Source)
		}
		if in.StartDate != nil {
			a.StartDate = *in.StartDate
		}
		if in.ClearEndDate {
			a.EndDate = nil
		} else if in.EndDate != nil {
			a.EndDate = in.EndDate
		}
		if in.BlockingPoints != nil {
			a.BlockingPoints = strings.TrimSpace(*in.BlockingPoints)
		}
		if in.Priority != nil {
			if !tracker.ValidPriority(*in.Priority) {
				return apierr.Validation("invalid_priority", fmt.Sprintf("invalid priority %q", *in.Priority))
			}
			a.Priority = *in.Priority
		}
		if in.Tags != nil {
			a.Tags = strings.TrimSpace(*in.Tags)
		}
		if a.EndDate != nil && a.EndDate.Before(a.StartDate) {
			return apierr.Validation("end_date_before_start", "end date cannot precede start date")
		}

		updateText := strings.TrimSpace(in.NewUpdateText)
		closingNote := strings.TrimSpace(in.ClosingNote)

		closing := false
		if in.Status != nil {
			if !tracker.ValidStatus(*in.Status) {
				return apierr.Validation("invalid_status", fmt.Sprintf("invalid status %q", *in.Status))
			}
			closing = a.Status != tracker.StatusClosed && *in.Status == tracker.StatusClosed
			a.Status = *in.Status
		}
		if closing {
			if closingNote == "" && updateText == "" {
				return apierr.Validation("closing_note_required", "closing an activity requires a closing note or an update")
			}
			if a.EndDate == nil {
				today := tracker.DayStart(as.now())
				a.EndDate = &today
			}
		}

		if err := tx.WithContext(ctx).Save(a).Error; err != nil {
			return fmt.Errorf("save activity: %w", err)
		}

		if updateText != "" {
			if err := as.appendUpdateTx(ctx, tx, a, updateText); err != nil {
				return err
			}
		}
		if closing && closingNote != "" {
			if err := as.appendUpdateTx(ctx, tx, a, closedPrefix+closingNote); err != nil {
				return err
			}
		}

		result = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	as.log.Info("Activity edited", "activity_id", id)
	return result, nil
}

func (as *activityService) ChangeStatus(ctx context.Context, id uuid.UUID, newStatus, closingNote string) (*tracker.Activity, error) {
	if !tracker.ValidStatus(newStatus) {
		return nil, apierr.Validation("invalid_status", fmt.Sprintf("invalid status %q", newStatus))
	}

	var result *tracker.Activity
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := as.activityRepo.GetByID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("load activity: %w", err)
		}
		if a == nil {
			return apierr.NotFound("activity_not_found")
		}

		note := strings.TrimSpace(closingNote)
		fields := map[string]any{"status": newStatus}
		if a.Status != tracker.StatusClosed && newStatus == tracker.StatusClosed {
			if note == "" {
				return apierr.Validation("closing_note_required", "closing an activity requires a closing note")
			}
			if a.EndDate == nil {
				today := tracker.DayStart(as.now())
				a.EndDate = &today
				fields["end_date"] = a.EndDate
			}
		}
		a.Status = newStatus
		if newStatus != tracker.StatusClosed {
			note = ""
		}

		if err := as.activityRepo.UpdateFields(ctx, tx, a.ID, fields); err != nil {
			return fmt.Errorf("save activity: %w", err)
		}
		if note != "" {
			if err := as.appendUpdateTx(ctx, tx, a, closedPrefix+note); err != nil {
				return err
			}
		}

		result = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	as.log.Info("Activity status changed", "activity_id", id, "status", newStatus)
	return result, nil
}

func (as *activityService) BulkSetPriority(ctx context.Context, ids []uuid.UUID, priority string) (int64, error) {
	if len(ids) == 0 {
		return 0, apierr.Validation("no_activity_ids", "activity_ids cannot be empty")
	}
	if !tracker.ValidPriority(priority) {
		return 0, apierr.Validation("invalid_priority", fmt.Sprintf("invalid priority %q", priority))
	}

	var updated int64
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := as.activityRepo.BulkSetPriority(ctx, tx, ids, priority)
		if err != nil {
			return fmt.Errorf("bulk set priority: %w", err)
		}
		updated = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	as.log.Info("Bulk priority applied", "requested", len(ids), "updated", updated, "priority", priority)
	return updated, nil
}

func (as *activityService) Delete(ctx context.Context, id uuid.UUID) error {
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := as.activityRepo.GetByID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("load activity: %w", err)
		}
		if a == nil {
			return apierr.NotFound("activity_not_found")
		}
		return as.activityRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	as.log.Info("Activity deleted", "activity_id", id)
	return nil
}

func (as *activityService) AppendUpdate(ctx context.Context, id uuid.UUID, text string, newBlockingPoints *string) (*tracker.Update, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, apierr.Validation("update_text_required", "update text cannot be empty")
	}

	var result *tracker.Update
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := as.activityRepo.GetByID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("load activity: %w", err)
		}
		if a == nil {
			return apierr.NotFound("activity_not_found")
		}

		// Snapshot reflects the blocking points after any change in this call.
		if newBlockingPoints != nil {
			a.BlockingPoints = strings.TrimSpace(*newBlockingPoints)
		}
		if err := as.appendUpdateTx(ctx, tx, a, trimmed); err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Save(a).Error; err != nil {
			return fmt.Errorf("save activity: %w", err)
		}

		result = &a.Updates[len(a.Updates)-1]
		return nil
	})
	if err != nil {
		return nil, err
	}

	as.log.Info("Update appended", "activity_id", id)
	return result, nil
}

// appendUpdateTx persists one update carrying the activity's current blocking
// points and refreshes the observations cache. The caller owns saving any
// other field changes on a.
func (as *activityService) appendUpdateTx(ctx context.Context, tx *gorm.DB, a *tracker.Activity, text string) error {
	u := &tracker.Update{
		ID:             uuid.New(),
		ActivityID:     a.ID,
		Text:           text,
		BlockingPoints: a.BlockingPoints,
		BPSnapshot:     a.BlockingPoints,
		CreatedAt:      as.now().UTC(),
	}
	if _, err := as.updateRepo.Create(ctx, tx, u); err != nil {
		return fmt.Errorf("append update: %w", err)
	}

	a.Observations = text
	if err := tx.WithContext(ctx).
		Model(&tracker.Activity{}).
		Where("id = ?", a.ID).
		Update("observations", text).Error; err != nil {
		return fmt.Errorf("refresh observations: %w", err)
	}

	a.Updates = append(a.Updates, *u)
	return nil
}

func (as *activityService) Get(ctx context.Context, id uuid.UUID) (*tracker.Activity, error) {
	a, err := as.activityRepo.GetByIDWithUpdates(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apierr.NotFound("activity_not_found")
	}
	return a, nil
}

func (as *activityService) ListAll(ctx context.Context) ([]*tracker.Activity, error) {
	return as.activityRepo.List(ctx, nil)
}

// Completed assembles the closed listing, most recently finished first, with
// its counters. Missing end dates sink to the bottom.
func (as *activityService) Completed(ctx context.Context) (*CompletedView, error) {
	list, err := as.activityRepo.ListByStatus(ctx, nil, tracker.StatusClosed)
	if err != nil {
		return nil, fmt.Errorf("list closed: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].EndDate, list[j].EndDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	byPriority, err := as.activityRepo.CountByPriority(ctx, nil, tracker.StatusClosed)
	if err != nil {
		return nil, fmt.Errorf("count closed by priority: %w", err)
	}
	now := as.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	thisMonth, err := as.activityRepo.ListClosedSince(ctx, nil, monthStart)
	if err != nil {
		return nil, fmt.Errorf("list closed this month: %w", err)
	}

	return &CompletedView{
		Activities:      list,
		TotalCount:      len(list),
		HighPriority:    byPriority[tracker.PriorityHigh],
		ClosedThisMonth: len(thisMonth),
	}, nil
}

// Search backs the JSON search endpoint: case-insensitive, two-character
// minimum, capped at 20 rows.
func (as *activityService) Search(ctx context.Context, query string) ([]*tracker.Activity, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < 2 {
		return nil, apierr.Validation("query_too_short", "search query must be at least 2 characters")
	}
	return as.activityRepo.Search(ctx, nil, q, 20)
}
