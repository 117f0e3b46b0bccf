package tracker

import (
	"time"

	"github.com/google/uuid"
)

// Update is one append-only log entry on an activity. BPSnapshot records the
// activity's blocking points as they stood after this entry was applied.
type Update struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActivityID     uuid.UUID `gorm:"type:uuid;not null;index:idx_updates_activity_id" json:"activity_id"`
	Text           string    `gorm:"not null" json:"text"`
	BlockingPoints string    `gorm:"not null;default:''" json:"blocking_points"`
	BPSnapshot     string    `gorm:"not null;default:''" json:"bp_snapshot"`
	CreatedAt      time.Time `gorm:"index:idx_updates_created_at" json:"created_at"`
}

func (Update) TableName() string { return "updates" }
