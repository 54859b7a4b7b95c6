package model

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// Task is one unit of work assigned to a user. When RecurrentTaskID is set,
// the task is a single dated occurrence of that recurrence family.
type Task struct {
	ID                   uint   `gorm:"primaryKey"`
	UserID               uint   `gorm:"index"`
	AssignedByID         *uint  // manager who created the task on the user's behalf
	Title                string `gorm:"not null"`
	Description          string
	Color                string
	ScheduledDate        *time.Time `gorm:"index"`
	ScheduledTime        string     // HH:MM, empty when no time is set
	EstimatedMinutes     *int
	Pictogram            string // stored attachment path, empty when none
	DisplayOrder         int
	Status               TaskStatus `gorm:"default:pending"`
	RecurrentTaskID      *uint      `gorm:"index"`
	NotificationsEnabled bool       `gorm:"default:false"`
	ReminderMinutes      int
	ReminderSentAt       *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Subtasks      []Subtask      `gorm:"foreignKey:TaskID"`
	RecurrentTask *RecurrentTask `gorm:"foreignKey:RecurrentTaskID"`
}

// CloneForDate builds an unsaved copy of the task scheduled on a different
// day, linked to the same recurrence family. Subtasks are not copied here.
func (t Task) CloneForDate(date time.Time, familyID uint) Task {
	clone := t
	clone.ID = 0
	clone.ScheduledDate = &date
	clone.RecurrentTaskID = &familyID
	clone.ReminderSentAt = nil
	clone.Subtasks = nil
	clone.RecurrentTask = nil
	clone.CreatedAt = time.Time{}
	clone.UpdatedAt = time.Time{}
	return clone
}
