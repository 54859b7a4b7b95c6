package service_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fpagador/astrade-sub000/internal/clock"
	"github.com/fpagador/astrade-sub000/internal/model"
	"github.com/fpagador/astrade-sub000/internal/recurrence"
	"github.com/fpagador/astrade-sub000/internal/repository"
	"github.com/fpagador/astrade-sub000/internal/service"
	"github.com/fpagador/astrade-sub000/internal/storage"
)

// testToday is a Monday; most fixtures hang off it.
var testToday = time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)

type env struct {
	db       *gorm.DB
	store    *storage.DiskStore
	storeDir string

	tasks    *service.TaskService
	subtasks *service.SubtaskService
	queries  *service.QueryService
	absences *service.AbsenceService

	taskRepo    *repository.TaskRepository
	subtaskRepo *repository.SubtaskRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	dir := t.TempDir()
	store, err := storage.NewDiskStore(dir)
	require.NoError(t, err)

	log := zap.NewNop()
	clk := clock.Fixed(testToday.Add(10 * time.Hour)) // 10:00 on testToday

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	subtaskRepo := repository.NewSubtaskRepository(db)
	recurrentRepo := repository.NewRecurrentTaskRepository(db)
	absenceRepo := repository.NewAbsenceRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)

	absenceSvc := service.NewAbsenceService(absenceRepo, calendarRepo, userRepo)

	return &env{
		db:          db,
		store:       store,
		storeDir:    dir,
		tasks:       service.NewTaskService(db, taskRepo, subtaskRepo, recurrentRepo, absenceSvc, store, clk, log),
		subtasks:    service.NewSubtaskService(db, subtaskRepo, taskRepo, log),
		queries:     service.NewQueryService(taskRepo, userRepo, absenceRepo, clk),
		absences:    absenceSvc,
		taskRepo:    taskRepo,
		subtaskRepo: subtaskRepo,
	}
}

func (e *env) seedUser(t *testing.T, role model.Role) *model.User {
	t.Helper()
	user := &model.User{
		Name:  "Test",
		Email: uuid.NewString() + "@example.org",
		Role:  role,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *env) seedAbsence(t *testing.T, userID uint, day time.Time, typ model.AbsenceType) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.UserAbsence{UserID: userID, Date: day, Type: typ}).Error)
}

// seedFamily persists a recurrence definition plus one occurrence per date,
// each carrying a single pending subtask.
func (e *env) seedFamily(t *testing.T, userID uint, start time.Time, end *time.Time, days recurrence.Weekdays, dates []time.Time) (*model.RecurrentTask, []model.Task) {
	t.Helper()

	rec := &model.RecurrentTask{UserID: userID, StartDate: start, EndDate: end, DaysOfWeek: days}
	require.NoError(t, e.db.Create(rec).Error)

	tasks := make([]model.Task, 0, len(dates))
	for _, d := range dates {
		day := d
		task := model.Task{
			UserID:          userID,
			Title:           "medication",
			ScheduledDate:   &day,
			Status:          model.TaskStatusPending,
			RecurrentTaskID: &rec.ID,
		}
		require.NoError(t, e.db.Create(&task).Error)
		require.NoError(t, e.db.Create(&model.Subtask{
			TaskID:     task.ID,
			ExternalID: uuid.NewString(),
			Title:      "take pills",
			Status:     model.SubtaskStatusPending,
		}).Error)
		tasks = append(tasks, task)
	}
	return rec, tasks
}

func (e *env) familyDates(t *testing.T, familyID uint) []string {
	t.Helper()
	var tasks []model.Task
	require.NoError(t, e.db.Where("recurrent_task_id = ?", familyID).Order("scheduled_date ASC").Find(&tasks).Error)
	dates := make([]string, 0, len(tasks))
	for _, task := range tasks {
		if task.ScheduledDate == nil {
			continue
		}
		dates = append(dates, task.ScheduledDate.Format("2006-01-02"))
	}
	return dates
}

func (e *env) taskCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&model.Task{}).Count(&count).Error)
	return count
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(d time.Time) *time.Time { return &d }

func strPtr(s string) *string { return &s }
