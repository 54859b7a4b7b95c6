package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fpagador/astrade-sub000/internal/model"
)

// CalendarRepository is the read side of work-calendar holiday templates.
type CalendarRepository struct {
	db *gorm.DB
}

func NewCalendarRepository(db *gorm.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// HasHoliday reports whether the calendar marks the given day as a holiday.
func (r *CalendarRepository) HasHoliday(ctx context.Context, calendarID uint, day time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.CalendarDay{}).
		Where("work_calendar_id = ? AND date >= ? AND date < ?", calendarID, day, day.AddDate(0, 0, 1)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check holiday: %w", err)
	}
	return count > 0, nil
}
