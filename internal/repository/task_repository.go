package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fpagador/astrade-sub000/internal/model"
)

// TaskRepository handles persistence for tasks, including the occurrence
// operations the recurrence engine drives.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *TaskRepository) WithTx(tx *gorm.DB) *TaskRepository {
	return &TaskRepository{db: tx}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// FindByID loads a task scoped to its owning user.
func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindWithRelations loads a task with its subtasks and recurrence definition.
func (r *TaskRepository) FindWithRelations(ctx context.Context, taskID uint) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Preload("Subtasks", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Preload("RecurrentTask").
		First(&task, taskID).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ListFamilyFrom returns the occurrences of a recurrence family dated on or
// after from, ascending.
func (r *TaskRepository) ListFamilyFrom(ctx context.Context, familyID uint, from time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("recurrent_task_id = ? AND scheduled_date >= ?", familyID, from).
		Order("scheduled_date ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list family occurrences: %w", err)
	}
	return tasks, nil
}

// ListFamilyFromWithRelations is ListFamilyFrom with subtasks and recurrence
// eager-loaded, for returning to callers after a series edit.
func (r *TaskRepository) ListFamilyFromWithRelations(ctx context.Context, familyID uint, from time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Preload("Subtasks", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Preload("RecurrentTask").
		Where("recurrent_task_id = ? AND scheduled_date >= ?", familyID, from).
		Order("scheduled_date ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list family occurrences: %w", err)
	}
	return tasks, nil
}

// DeleteWithSubtasks removes a task row together with its subtask rows.
// Attachment file cleanup is the caller's concern.
func (r *TaskRepository) DeleteWithSubtasks(ctx context.Context, taskID uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("task_id = ?", taskID).Delete(&model.Subtask{}).Error; err != nil {
		return fmt.Errorf("delete subtasks: %w", err)
	}
	if err := db.Delete(&model.Task{}, taskID).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// ListForDay returns a user's tasks scheduled on the given calendar day,
// subtasks eager-loaded, in display order.
func (r *TaskRepository) ListForDay(ctx context.Context, userID uint, day time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Preload("Subtasks", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Where("user_id = ? AND scheduled_date >= ? AND scheduled_date < ?", userID, day, day.AddDate(0, 0, 1)).
		Order("display_order ASC, scheduled_time ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list tasks for day: %w", err)
	}
	return tasks, nil
}

// ListBetween returns a user's tasks scheduled within [from, to] inclusive,
// ascending by date.
func (r *TaskRepository) ListBetween(ctx context.Context, userID uint, from, to time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Preload("Subtasks", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Where("user_id = ? AND scheduled_date >= ? AND scheduled_date < ?", userID, from, to.AddDate(0, 0, 1)).
		Order("scheduled_date ASC, display_order ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list tasks between: %w", err)
	}
	return tasks, nil
}

// ListDueForReminder returns pending tasks scheduled on day with
// notifications enabled, a concrete time and no reminder sent yet.
func (r *TaskRepository) ListDueForReminder(ctx context.Context, day time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("status = ? AND notifications_enabled = ? AND reminder_sent_at IS NULL", model.TaskStatusPending, true).
		Where("scheduled_date >= ? AND scheduled_date < ?", day, day.AddDate(0, 0, 1)).
		Where("scheduled_time <> ''").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list reminder candidates: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) MarkReminderSent(ctx context.Context, task *model.Task, at time.Time) error {
	task.ReminderSentAt = &at
	if err := r.db.WithContext(ctx).Model(task).Update("reminder_sent_at", at).Error; err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}

// CountOnDay counts tasks scheduled on a day, optionally narrowed by status.
func (r *TaskRepository) CountOnDay(ctx context.Context, day time.Time, status model.TaskStatus) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("scheduled_date >= ? AND scheduled_date < ?", day, day.AddDate(0, 0, 1))
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}
