package tracker

import (
	"time"

	"github.com/google/uuid"
)

// Goal is a weekly intention. WeekOf is always normalized to the Monday of
// the week it belongs to.
type Goal struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Text      string    `gorm:"not null" json:"text"`
	WeekOf    time.Time `gorm:"not null;index:idx_goals_week_of" json:"week_of"`
	Completed bool      `gorm:"not null;default:false" json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Goal) TableName() string { return "goals" }

// WeekStart returns the Monday of t's week, truncated to midnight UTC.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// DayStart truncates t to midnight UTC.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
