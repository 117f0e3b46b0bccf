package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	goalrepo "github.com/yungbote/activity-tracker-backend/internal/data/repos/goal"
	"github.com/yungbote/activity-tracker-backend/internal/domain/tracker"
	"github.com/yungbote/activity-tracker-backend/internal/platform/apierr"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
)

const minGoalLength = 3

type GoalService interface {
	Add(ctx context.Context, text string, weekOf *time.Time) (*tracker.Goal, error)
	Edit(ctx context.Context, id uuid.UUID, text string) (*tracker.Goal, error)
	ToggleComplete(ctx context.Context, id uuid.UUID) (*tracker.Goal, error)
	Remove(ctx context.Context, id uuid.UUID) error
	CurrentWeek(ctx context.Context) ([]*tracker.Goal, error)
	ListAll(ctx context.Context) ([]*tracker.Goal, error)
}

type goalService struct {
	db       *gorm.DB
	log      *logger.Logger
	goalRepo goalrepo.GoalRepo
	now      func() time.Time
}

func NewGoalService(db *gorm.DB, baseLog *logger.Logger, goalRepo goalrepo.GoalRepo) GoalService {
	serviceLog := baseLog.With("service", "GoalService")
	return &goalService{
		db:       db,
		log:      serviceLog,
		goalRepo: goalRepo,
		now:      time.Now,
	}
}

func (gs *goalService) Add(ctx context.Context, text string, weekOf *time.Time) (*tracker.Goal, error) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minGoalLength {
		return nil, apierr.Validation("goal_text_too_short",
			fmt.Sprintf("goal text must be at least %d characters", minGoalLength))
	}

	week := tracker.WeekStart(gs.now())
	if weekOf != nil {
		week = tracker.WeekStart(*weekOf)
	}

	g := &tracker.Goal{
		ID:     uuid.New(),
		Text:   trimmed,
		WeekOf: week,
	}

	err := gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := gs.goalRepo.Create(ctx, tx, g)
		return err
	})
	if err != nil {
		gs.log.Error("Add goal failed", "error", err)
		return nil, err
	}

	gs.log.Info("Goal added", "goal_id", g.ID, "week_of", week.Format("2006-01-02"))
	return g, nil
}

func (gs *goalService) Edit(ctx context.Context, id uuid.UUID, text string) (*tracker.Goal, error) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minGoalLength {
		return nil, apierr.Validation("goal_text_too_short",
			fmt.Sprintf("goal text must be at least %d characters", minGoalLength))
	}

	var result *tracker.Goal
	err := gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := gs.goalRepo.GetByID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("load goal: %w", err)
		}
		if g == nil {
			return apierr.NotFound("goal_not_found")
		}
		if err := gs.goalRepo.UpdateText(ctx, tx, id, trimmed); err != nil {
			return fmt.Errorf("update goal text: %w", err)
		}
		g.Text = trimmed
		result = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	gs.log.Info("Goal edited", "goal_id", id)
	return result, nil
}

func (gs *goalService) Remove(ctx context.Context, id uuid.UUID) error {
	err := gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := gs.goalRepo.GetByID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("load goal: %w", err)
		}
		if g == nil {
			return apierr.NotFound("goal_not_found")
		}
		return gs.goalRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	gs.log.Info("Goal removed", "goal_id", id)
	return nil
}

func (gs *goalService) ToggleComplete(ctx context.Context, id uuid.UUID) (*tracker.Goal, error) {
	var result *tracker.Goal
	err := gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := gs.goalRepo.GetByID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("load goal: %w", err)
		}
		if g == nil {
			return apierr.NotFound("goal_not_found")
		}
		if err := gs.goalRepo.SetCompleted(ctx, tx, id, !g.Completed); err != nil {
			return fmt.Errorf("toggle goal: %w", err)
		}
		g.Completed = !g.Completed
		result = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	gs.log.Info("Goal toggled", "goal_id", id, "completed", result.Completed)
	return result, nil
}

func (gs *goalService) CurrentWeek(ctx context.Context) ([]*tracker.Goal, error) {
	return gs.goalRepo.ListByWeek(ctx, nil, tracker.WeekStart(gs.now()))
}

func (gs *goalService) ListAll(ctx context.Context) ([]*tracker.Goal, error) {
	return gs.goalRepo.ListAll(ctx, nil)
}
