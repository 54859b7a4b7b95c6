package model

import (
	"time"

	"github.com/fpagador/astrade-sub000/internal/recurrence"
)

// RecurrentTask is the recurrence definition shared by a family of task
// occurrences. EndDate nil means open-ended; occurrence generation then
// bounds itself to a default horizon.
type RecurrentTask struct {
	ID         uint `gorm:"primaryKey"`
	UserID     uint `gorm:"index"`
	StartDate  time.Time
	EndDate    *time.Time
	DaysOfWeek recurrence.Weekdays `gorm:"serializer:json"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
