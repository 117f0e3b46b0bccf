package update

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/activity-tracker-backend/internal/domain/tracker"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
)

type UpdateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, u *tracker.Update) (*tracker.Update, error)
	ListByActivity(ctx context.Context, tx *gorm.DB, activityID uuid.UUID) ([]*tracker.Update, error)
	ListByActivities(ctx context.Context, tx *gorm.DB, activityIDs []uuid.UUID) ([]*tracker.Update, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*tracker.Update, error)
	ListSince(ctx context.Context, tx *gorm.DB, since time.Time) ([]*tracker.Update, error)
	LatestByActivity(ctx context.Context, tx *gorm.DB, activityID uuid.UUID) (*tracker.Update, error)
	LatestPerActivity(ctx context.Context, tx *gorm.DB) (map[uuid.UUID]time.Time, error)
	CountPerActivity(ctx context.Context, tx *gorm.DB) (map[uuid.UUID]int64, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type updateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUpdateRepo(db *gorm.DB, baseLog *logger.Logger) UpdateRepo {
	repoLog := baseLog.With("repo", "UpdateRepo")
	return &updateRepo{db: db, log: repoLog}
}

func (ur *updateRepo) Create(ctx context.Context, tx *gorm.DB, u *tracker.Update) (*tracker.Update, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	if err := transaction.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

func (ur *updateRepo) ListByActivity(ctx context.Context, tx *gorm.DB, activityID uuid.UUID) ([]*tracker.Update, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*tracker.Update
	if err := transaction.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ListByActivities returns updates for all the given activities in one
// query, newest first.
func (ur *updateRepo) ListByActivities(ctx context.Context, tx *gorm.DB, activityIDs []uuid.UUID) ([]*tracker.Update, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*tracker.Update
	if len(activityIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("activity_id IN ?", activityIDs).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *updateRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*tracker.Update, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*tracker.Update
	if err := transaction.WithContext(ctx).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *updateRepo) ListSince(ctx context.Context, tx *gorm.DB, since time.Time) ([]*tracker.Update, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*tracker.Update
	if err := transaction.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *updateRepo) LatestByActivity(ctx context.Context, tx *gorm.DB, activityID uuid.UUID) (*tracker.Update, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var result tracker.Update
	err := transaction.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("created_at DESC").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// LatestPerActivity returns, for every activity that has updates, the
// timestamp of its most recent one.
func (ur *updateRepo) LatestPerActivity(ctx context.Context, tx *gorm.DB) (map[uuid.UUID]time.Time, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var rows []struct {
		ActivityID uuid.UUID
		Latest     time.Time
	}
	if err := transaction.WithContext(ctx).
		Model(&tracker.Update{}).
		Select("activity_id, MAX(created_at) AS latest").
		Group("activity_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	latest := make(map[uuid.UUID]time.Time, len(rows))
	for _, r := range rows {
		latest[r.ActivityID] = r.Latest
	}
	return latest, nil
}

func (ur *updateRepo) CountPerActivity(ctx context.Context, tx *gorm.DB) (map[uuid.UUID]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var rows []struct {
		ActivityID uuid.UUID
		Total      int64
	}
	if err := transaction.WithContext(ctx).
		Model(&tracker.Update{}).
		Select("activity_id, COUNT(*) AS total").
		Group("activity_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.ActivityID] = r.Total
	}
	return counts, nil
}

func (ur *updateRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&tracker.Update{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
