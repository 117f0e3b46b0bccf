package activity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/activity-tracker-backend/internal/domain/tracker"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
)

type ActivityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, a *tracker.Activity) (*tracker.Activity, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*tracker.Activity, error)
	GetByIDWithUpdates(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*tracker.Activity, error)
	List(ctx context.Context, tx *gorm.DB) ([]*tracker.Activity, error)
	ListByStatus(ctx context.Context, tx *gorm.DB, status string) ([]*tracker.Activity, error)
	Search(ctx context.Context, tx *gorm.DB, query string, limit int) ([]*tracker.Activity, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
	BulkSetPriority(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, priority string) (int64, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	CountByStatus(ctx context.Context, tx *gorm.DB) (map[string]int64, error)
	CountByPriority(ctx context.Context, tx *gorm.DB, status string) (map[string]int64, error)
	ListClosedSince(ctx context.Context, tx *gorm.DB, since time.Time) ([]*tracker.Activity, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	repoLog := baseLog.With("repo", "ActivityRepo")
	return &activityRepo{db: db, log: repoLog}
}

func (ar *activityRepo) Create(ctx context.Context, tx *gorm.DB, a *tracker.Activity) (*tracker.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if err := transaction.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (ar *activityRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*tracker.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var result tracker.Activity
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

func (ar *activityRepo) GetByIDWithUpdates(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*tracker.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var result tracker.Activity
	err := transaction.WithContext(ctx).
		Preload("Updates", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
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

func (ar *activityRepo) List(ctx context.Context, tx *gorm.DB) ([]*tracker.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*tracker.Activity
	if err := transaction.WithContext(ctx).
		Order("start_date DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *activityRepo) ListByStatus(ctx context.Context, tx *gorm.DB, status string) ([]*tracker.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*tracker.Activity
	if err := transaction.WithContext(ctx).
		Where("status = ?", status).
		Order("start_date DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Search matches description, source, blocking points, and tags
// case-insensitively.
func (ar *activityRepo) Search(ctx context.Context, tx *gorm.DB, query string, limit int) ([]*tracker.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	pattern := "%" + query + "%"
	var results []*tracker.Activity
	if err := transaction.WithContext(ctx).
		Where("description LIKE ? COLLATE NOCASE OR source LIKE ? COLLATE NOCASE OR blocking_points LIKE ? COLLATE NOCASE OR tags LIKE ? COLLATE NOCASE",
			pattern, pattern, pattern, pattern).
		Order("status DESC, priority DESC, start_date DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *activityRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	return transaction.WithContext(ctx).
		Model(&tracker.Activity{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (ar *activityRepo) BulkSetPriority(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, priority string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(ids) == 0 {
		return 0, nil
	}

	res := transaction.WithContext(ctx).
		Model(&tracker.Activity{}).
		Where("id IN ?", ids).
		Update("priority", priority)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (ar *activityRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&tracker.Activity{}).Error
}

func (ar *activityRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&tracker.Activity{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (ar *activityRepo) CountByStatus(ctx context.Context, tx *gorm.DB) (map[string]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var rows []struct {
		Status string
		Total  int64
	}
	if err := transaction.WithContext(ctx).
		Model(&tracker.Activity{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

func (ar *activityRepo) CountByPriority(ctx context.Context, tx *gorm.DB, status string) (map[string]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	q := transaction.WithContext(ctx).
		Model(&tracker.Activity{}).
		Select("priority, COUNT(*) AS total").
		Group("priority")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var rows []struct {
		Priority string
		Total    int64
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Priority] = r.Total
	}
	return counts, nil
}

func (ar *activityRepo) ListClosedSince(ctx context.Context, tx *gorm.DB, since time.Time) ([]*tracker.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*tracker.Activity
	if err := transaction.WithContext(ctx).
		Where("status = ? AND end_date IS NOT NULL AND end_date >= ?", tracker.StatusClosed, since).
		Order("end_date DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
