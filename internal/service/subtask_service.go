package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fpagador/astrade-sub000/internal/model"
	"github.com/fpagador/astrade-sub000/internal/repository"
)

// SubtaskService owns the completion propagation state machine: a subtask
// status change may transition the parent task's status too.
type SubtaskService struct {
	db       *gorm.DB
	subtasks *repository.SubtaskRepository
	tasks    *repository.TaskRepository
	log      *zap.Logger
}

func NewSubtaskService(db *gorm.DB, subtasks *repository.SubtaskRepository, tasks *repository.TaskRepository, log *zap.Logger) *SubtaskService {
	return &SubtaskService{db: db, subtasks: subtasks, tasks: tasks, log: log}
}

// UpdateStatus transitions a subtask's status on behalf of the acting user.
// Completing the last pending subtask completes the parent task; reopening
// any subtask of a completed task reopens it. Both writes share one
// transaction.
func (s *SubtaskService) UpdateStatus(ctx context.Context, subtaskID uint, status model.SubtaskStatus, actingUserID uint) (*model.Subtask, error) {
	if status != model.SubtaskStatusPending && status != model.SubtaskStatusCompleted {
		return nil, NewValidationError("status must be pending or completed")
	}

	subtask, err := s.subtasks.FindByID(ctx, subtaskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewNotFoundError("subtask", subtaskID, err)
	}
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.FindByID(ctx, actingUserID, subtask.TaskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewPermissionError("subtask belongs to another user's task")
	}
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subtasks := s.subtasks.WithTx(tx)
		tasks := s.tasks.WithTx(tx)

		subtask.Status = status
		if err := subtasks.Save(ctx, subtask); err != nil {
			return err
		}

		switch {
		case status == model.SubtaskStatusCompleted:
			// This subtask's new status is already persisted, so the check
			// only needs its siblings.
			pending, err := subtasks.CountPendingSiblings(ctx, task.ID, subtask.ID)
			if err != nil {
				return err
			}
			if pending == 0 && task.Status != model.TaskStatusCompleted {
				task.Status = model.TaskStatusCompleted
				return tasks.Save(ctx, task)
			}
		case task.Status == model.TaskStatusCompleted:
			task.Status = model.TaskStatusPending
			return tasks.Save(ctx, task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("subtask status updated",
		zap.Uint("subtask_id", subtask.ID),
		zap.Uint("task_id", task.ID),
		zap.String("status", string(status)))
	return subtask, nil
}
