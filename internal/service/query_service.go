package service

import (
	"context"
	"time"

	"github.com/fpagador/astrade-sub000/internal/clock"
	"github.com/fpagador/astrade-sub000/internal/model"
	"github.com/fpagador/astrade-sub000/internal/repository"
)

// QueryService is the read side: per-day and planned task listings plus the
// dashboard aggregates.
type QueryService struct {
	tasks    *repository.TaskRepository
	users    *repository.UserRepository
	absences *repository.AbsenceRepository
	clock    clock.Clock
}

func NewQueryService(tasks *repository.TaskRepository, users *repository.UserRepository, absences *repository.AbsenceRepository, clk clock.Clock) *QueryService {
	return &QueryService{tasks: tasks, users: users, absences: absences, clock: clk}
}

// TodayTasks returns the user's tasks scheduled for the current date.
func (s *QueryService) TodayTasks(ctx context.Context, userID uint) ([]model.Task, error) {
	return s.tasks.ListForDay(ctx, userID, clock.Today(s.clock))
}

// PlannedTasks returns the user's tasks from today through today+days
// inclusive.
func (s *QueryService) PlannedTasks(ctx context.Context, userID uint, days int) ([]model.Task, error) {
	if days < 0 {
		return nil, NewValidationError("days must not be negative")
	}
	today := clock.Today(s.clock)
	return s.tasks.ListBetween(ctx, userID, today, today.AddDate(0, 0, days))
}

// TasksForDay returns the user's tasks scheduled on the given date.
func (s *QueryService) TasksForDay(ctx context.Context, userID uint, date time.Time) ([]model.Task, error) {
	return s.tasks.ListForDay(ctx, userID, clock.DateOf(date))
}

// DashboardCounts are the aggregate KPIs shown on the management dashboard.
type DashboardCounts struct {
	MobileUsers    int64 `json:"mobile_users"`
	TasksToday     int64 `json:"tasks_today"`
	CompletedToday int64 `json:"completed_today"`
	AbsencesToday  int64 `json:"absences_today"`
}

func (s *QueryService) Dashboard(ctx context.Context) (DashboardCounts, error) {
	today := clock.Today(s.clock)

	var counts DashboardCounts
	var err error
	if counts.MobileUsers, err = s.users.CountByRole(ctx, model.RoleUser); err != nil {
		return counts, err
	}
	if counts.TasksToday, err = s.tasks.CountOnDay(ctx, today, ""); err != nil {
		return counts, err
	}
	if counts.CompletedToday, err = s.tasks.CountOnDay(ctx, today, model.TaskStatusCompleted); err != nil {
		return counts, err
	}
	if counts.AbsencesToday, err = s.absences.CountOnDate(ctx, today); err != nil {
		return counts, err
	}
	return counts, nil
}
