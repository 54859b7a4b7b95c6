package model

import "time"

// AbsenceType distinguishes vacation days from legally mandated absences.
type AbsenceType string

const (
	AbsenceVacation AbsenceType = "vacation"
	AbsenceLegal    AbsenceType = "legal"
)

// UserAbsence marks a user unavailable on a single calendar date.
type UserAbsence struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index"`
	Date      time.Time `gorm:"index"`
	Type      AbsenceType
	CreatedAt time.Time
	UpdatedAt time.Time
}
