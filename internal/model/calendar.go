package model

import "time"

// WorkCalendar is a holiday template a user can be attached to.
type WorkCalendar struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Year      int
	CreatedAt time.Time
	UpdatedAt time.Time

	Days []CalendarDay `gorm:"foreignKey:WorkCalendarID"`
}

// CalendarDay is one holiday inside a work calendar.
type CalendarDay struct {
	ID             uint      `gorm:"primaryKey"`
	WorkCalendarID uint      `gorm:"index"`
	Date           time.Time `gorm:"index"`
	Description    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
