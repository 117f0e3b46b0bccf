package db

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/activity-tracker-backend/internal/domain/tracker"
)

// schemaMigration records an applied versioned step so each runs exactly once
// per database file across upgrades.
type schemaMigration struct {
	Version   int `gorm:"primaryKey"`
	AppliedAt time.Time
}

func (schemaMigration) TableName() string { return "schema_migrations" }

type migrationStep struct {
	version int
	name    string
	run     func(tx *gorm.DB) error
}

// Ordered, append-only. Never renumber a shipped step.
var migrationSteps = []migrationStep{
	{
		version: 1,
		name:    "backfill updates.bp_snapshot from activity blocking points",
		run: func(tx *gorm.DB) error {
			return tx.Exec(`
				UPDATE updates
				SET bp_snapshot = blocking_points
				WHERE bp_snapshot = '' AND blocking_points <> '';
			`).Error
		},
	},
	{
		version: 2,
		name:    "normalize goals.week_of to Monday",
		run: func(tx *gorm.DB) error {
			var goals []tracker.Goal
			if err := tx.Find(&goals).Error; err != nil {
				return err
			}
			for _, g := range goals {
				monday := tracker.WeekStart(g.WeekOf)
				if !monday.Equal(g.WeekOf) {
					if err := tx.Model(&tracker.Goal{}).
						Where("id = ?", g.ID).
						Update("week_of", monday).Error; err != nil {
						return err
					}
				}
			}
			return nil
		},
	},
}

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&tracker.Activity{},
		&tracker.Update{},
		&tracker.Goal{},
		&schemaMigration{},
	)
}

func EnsureIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_updates_activity_created
		ON updates(activity_id, created_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_updates_activity_created: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_activities_status_priority
		ON activities(status, priority);
	`).Error; err != nil {
		return fmt.Errorf("create idx_activities_status_priority: %w", err)
	}
	return nil
}

func runVersionedSteps(db *gorm.DB) error {
	for _, step := range migrationSteps {
		var applied schemaMigration
		err := db.Where("version = ?", step.version).First(&applied).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("check migration %d: %w", step.version, err)
		}
		if err := db.Transaction(func(tx *gorm.DB) error {
			if err := step.run(tx); err != nil {
				return fmt.Errorf("migration %d (%s): %w", step.version, step.name, err)
			}
			return tx.Create(&schemaMigration{Version: step.version, AppliedAt: time.Now().UTC()}).Error
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteService) AutoMigrateAll() error {
	s.log.Info("Migrating SQLite tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureIndexes(s.db); err != nil {
		s.log.Error("Index migration failed", "error", err)
		return err
	}
	if err := runVersionedSteps(s.db); err != nil {
		s.log.Error("Versioned migration failed", "error", err)
		return err
	}
	return nil
}
