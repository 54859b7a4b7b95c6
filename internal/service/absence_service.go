package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/fpagador/astrade-sub000/internal/clock"
	"github.com/fpagador/astrade-sub000/internal/recurrence"
	"github.com/fpagador/astrade-sub000/internal/repository"
)

// AbsenceService answers whether a user is unavailable on a given date.
type AbsenceService struct {
	absences  *repository.AbsenceRepository
	calendars *repository.CalendarRepository
	users     *repository.UserRepository
}

func NewAbsenceService(absences *repository.AbsenceRepository, calendars *repository.CalendarRepository, users *repository.UserRepository) *AbsenceService {
	return &AbsenceService{absences: absences, calendars: calendars, users: users}
}

// IsAbsent reports whether the user has a vacation or legal absence recorded
// on that exact date. Weekends and calendar holidays do not count here; see
// IsNonWorkingDay.
func (s *AbsenceService) IsAbsent(ctx context.Context, userID uint, date time.Time) (bool, error) {
	return s.absences.ExistsOnDate(ctx, userID, clock.DateOf(date))
}

// AbsentDates returns the user's absence days within [from, to] inclusive,
// keyed by calendar date, so range-wide checks need a single query.
func (s *AbsenceService) AbsentDates(ctx context.Context, userID uint, from, to time.Time) (map[time.Time]bool, error) {
	dates, err := s.absences.DatesBetween(ctx, userID, clock.DateOf(from), clock.DateOf(to))
	if err != nil {
		return nil, err
	}
	set := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		set[clock.DateOf(d)] = true
	}
	return set, nil
}

// IsNonWorkingDay layers weekend and work-calendar holiday checks on top of
// the absence check.
func (s *AbsenceService) IsNonWorkingDay(ctx context.Context, userID uint, date time.Time) (bool, error) {
	day := clock.DateOf(date)

	if iso := recurrence.ISOWeekday(day); iso == 6 || iso == 7 {
		return true, nil
	}

	absent, err := s.IsAbsent(ctx, userID, day)
	if err != nil || absent {
		return absent, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, NewNotFoundError("user", userID, err)
	}
	if err != nil {
		return false, err
	}
	if user.WorkCalendarID == nil {
		return false, nil
	}
	return s.calendars.HasHoliday(ctx, *user.WorkCalendarID, day)
}
