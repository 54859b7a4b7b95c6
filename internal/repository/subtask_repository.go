package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/fpagador/astrade-sub000/internal/model"
)

// SubtaskRepository handles persistence for subtasks.
type SubtaskRepository struct {
	db *gorm.DB
}

func NewSubtaskRepository(db *gorm.DB) *SubtaskRepository {
	return &SubtaskRepository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *SubtaskRepository) WithTx(tx *gorm.DB) *SubtaskRepository {
	return &SubtaskRepository{db: tx}
}

func (r *SubtaskRepository) Create(ctx context.Context, subtask *model.Subtask) error {
	if err := r.db.WithContext(ctx).Create(subtask).Error; err != nil {
		return fmt.Errorf("create subtask: %w", err)
	}
	return nil
}

func (r *SubtaskRepository) Save(ctx context.Context, subtask *model.Subtask) error {
	if err := r.db.WithContext(ctx).Save(subtask).Error; err != nil {
		return fmt.Errorf("save subtask: %w", err)
	}
	return nil
}

func (r *SubtaskRepository) FindByID(ctx context.Context, subtaskID uint) (*model.Subtask, error) {
	var subtask model.Subtask
	if err := r.db.WithContext(ctx).First(&subtask, subtaskID).Error; err != nil {
		return nil, err
	}
	return &subtask, nil
}

// FindByExternalID resolves a subtask under a task by its client-stable
// identifier. Returns (nil, nil) when no row matches.
func (r *SubtaskRepository) FindByExternalID(ctx context.Context, taskID uint, externalID string) (*model.Subtask, error) {
	var subtask model.Subtask
	err := r.db.WithContext(ctx).Where("task_id = ? AND external_id = ?", taskID, externalID).First(&subtask).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find subtask by external id: %w", err)
	}
	return &subtask, nil
}

// ListByTask returns the subtasks of a task in display order.
func (r *SubtaskRepository) ListByTask(ctx context.Context, taskID uint) ([]model.Subtask, error) {
	var subtasks []model.Subtask
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("display_order ASC").
		Find(&subtasks).Error
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	return subtasks, nil
}

// ListNotIn returns a task's subtasks whose external identifier is absent
// from keep. An empty keep matches every subtask of the task.
func (r *SubtaskRepository) ListNotIn(ctx context.Context, taskID uint, keep []string) ([]model.Subtask, error) {
	q := r.db.WithContext(ctx).Where("task_id = ?", taskID)
	if len(keep) > 0 {
		q = q.Where("external_id NOT IN ?", keep)
	}
	var subtasks []model.Subtask
	if err := q.Find(&subtasks).Error; err != nil {
		return nil, fmt.Errorf("list removed subtasks: %w", err)
	}
	return subtasks, nil
}

// DeleteNotIn removes a task's subtasks whose external identifier is absent
// from keep.
func (r *SubtaskRepository) DeleteNotIn(ctx context.Context, taskID uint, keep []string) error {
	q := r.db.WithContext(ctx).Where("task_id = ?", taskID)
	if len(keep) > 0 {
		q = q.Where("external_id NOT IN ?", keep)
	}
	if err := q.Delete(&model.Subtask{}).Error; err != nil {
		return fmt.Errorf("delete removed subtasks: %w", err)
	}
	return nil
}

// CountPendingSiblings counts the not-completed subtasks of a task other
// than the one named by excludeID.
func (r *SubtaskRepository) CountPendingSiblings(ctx context.Context, taskID, excludeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Subtask{}).
		Where("task_id = ? AND id <> ? AND status <> ?", taskID, excludeID, model.SubtaskStatusCompleted).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count pending siblings: %w", err)
	}
	return count, nil
}
