package model

import "time"

// SubtaskStatus is the completion state of a checklist item.
type SubtaskStatus string

const (
	SubtaskStatusPending   SubtaskStatus = "pending"
	SubtaskStatusCompleted SubtaskStatus = "completed"
)

// Subtask is a checklist item owned by exactly one task. ExternalID is a
// client-stable correlation key: mobile clients submit it back so edits can
// be matched to persisted rows even when database IDs are unknown to them.
type Subtask struct {
	ID           uint   `gorm:"primaryKey"`
	TaskID       uint   `gorm:"index"`
	ExternalID   string `gorm:"index;not null"`
	Title        string `gorm:"not null"`
	Description  string
	Note         string
	DisplayOrder int
	Status       SubtaskStatus `gorm:"default:pending"`
	Pictogram    string        // stored attachment path, empty when none
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
