package goal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/activity-tracker-backend/internal/domain/tracker"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
)

type GoalRepo interface {
	Create(ctx context.Context, tx *gorm.DB, g *tracker.Goal) (*tracker.Goal, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*tracker.Goal, error)
	ListByWeek(ctx context.Context, tx *gorm.DB, weekOf time.Time) ([]*tracker.Goal, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*tracker.Goal, error)
	SetCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, completed bool) error
	UpdateText(ctx context.Context, tx *gorm.DB, id uuid.UUID, text string) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type goalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGoalRepo(db *gorm.DB, baseLog *logger.Logger) GoalRepo {
	repoLog := baseLog.With("repo", "GoalRepo")
	return &goalRepo{db: db, log: repoLog}
}

func (gr *goalRepo) Create(ctx context.Context, tx *gorm.DB, g *tracker.Goal) (*tracker.Goal, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}

	if err := transaction.WithContext(ctx).Create(g).Error; err != nil {
		return nil, err
	}
	return g, nil
}

func (gr *goalRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*tracker.Goal, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}

	var result tracker.Goal
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (gr *goalRepo) ListByWeek(ctx context.Context, tx *gorm.DB, weekOf time.Time) ([]*tracker.Goal, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}

	var results []*tracker.Goal
	if err := transaction.WithContext(ctx).
		Where("week_of = ?", weekOf).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (gr *goalRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*tracker.Goal, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}

	var results []*tracker.Goal
	if err := transaction.WithContext(ctx).
		Order("week_of DESC, created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (gr *goalRepo) SetCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, completed bool) error {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}
	return transaction.WithContext(ctx).
		Model(&tracker.Goal{}).
		Where("id = ?", id).
		Update("completed", completed).Error
}

func (gr *goalRepo) UpdateText(ctx context.Context, tx *gorm.DB, id uuid.UUID, text string) error {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}
	return transaction.WithContext(ctx).
		Model(&tracker.Goal{}).
		Where("id = ?", id).
		Update("text", text).Error
}

func (gr *goalRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&tracker.Goal{}).Error
}

func (gr *goalRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&tracker.Goal{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
