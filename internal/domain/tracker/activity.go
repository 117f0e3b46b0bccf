package tracker

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusOngoing = "Ongoing"
	StatusClosed  = "Closed"
	StatusNA      = "NA"

	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Activity is a tracked work item. Observations caches the text of the most
// recent update so list views avoid a join. Status and Priority are
// constrained to the fixed vocabularies above both in Go validation and at
// the schema level.
type Activity struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Description    string     `gorm:"not null" json:"description"`
	Source         string     `gorm:"not null;default:''" json:"source"`
	StartDate      time.Time  `gorm:"not null;index:idx_activities_start_date" json:"start_date"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	BlockingPoints string     `gorm:"not null;default:''" json:"blocking_points"`
	Status         string     `gorm:"not null;default:Ongoing;index:idx_activities_status;check:chk_activities_status,status IN ('Ongoing','Closed','NA')" json:"status"`
	Observations   string     `gorm:"not null;default:''" json:"observations"`
	Priority       string     `gorm:"not null;default:Medium;check:chk_activities_priority,priority IN ('High','Medium','Low')" json:"priority"`
	Tags           string     `gorm:"not null;default:''" json:"tags"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Updates []Update `gorm:"foreignKey:ActivityID;constraint:OnDelete:CASCADE" json:"updates,omitempty"`
}

func (Activity) TableName() string { return "activities" }

func ValidStatus(s string) bool {
	switch s {
	case StatusOngoing, StatusClosed, StatusNA:
		return true
	}
	return false
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// PriorityRank orders priorities for sorting. Unknown values sort last.
func PriorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// SplitTags breaks a comma-separated tag string into trimmed, non-empty tags.
func SplitTags(tags string) []string {
	var out []string
	for _, raw := range strings.Split(tags, ",") {
		if tag := strings.TrimSpace(raw); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
