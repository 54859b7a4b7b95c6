package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fpagador/astrade-sub000/internal/clock"
	"github.com/fpagador/astrade-sub000/internal/model"
	"github.com/fpagador/astrade-sub000/internal/recurrence"
	"github.com/fpagador/astrade-sub000/internal/repository"
	"github.com/fpagador/astrade-sub000/internal/storage"
)

// Open-ended recurrences are generated up to this horizon past their start.
const recurrenceHorizonMonths = 6

// SubtaskInput is one submitted checklist row. An empty ExternalID marks a
// new subtask; a nil Pictogram keeps the stored attachment, a set one
// replaces it.
type SubtaskInput struct {
	ExternalID  string
	Title       string
	Description string
	Note        string
	Status      *model.SubtaskStatus
	Pictogram   *string
}

// CreateTaskInput carries validated form data for task creation.
type CreateTaskInput struct {
	Title                string
	Description          string
	Color                string
	ScheduledDate        *time.Time
	ScheduledTime        string
	EstimatedMinutes     *int
	Pictogram            string
	NotificationsEnabled bool
	ReminderMinutes      int
	AssignedByID         *uint
	Subtasks             []SubtaskInput

	IsRecurrent        bool
	DaysOfWeek         recurrence.Weekdays
	RecurrentStartDate *time.Time
	RecurrentEndDate   *time.Time
}

// UpdateTaskInput is a field-level patch: nil fields keep their persisted
// values. A nil Subtasks slice leaves the checklist alone; a non-nil one is
// the full desired set and is synchronized against it.
type UpdateTaskInput struct {
	Title                *string
	Description          *string
	Color                *string
	ScheduledDate        *time.Time
	ScheduledTime        *string
	EstimatedMinutes     *int
	Pictogram            *string
	Status               *model.TaskStatus
	NotificationsEnabled *bool
	ReminderMinutes      *int
	Subtasks             []SubtaskInput

	DaysOfWeek         recurrence.Weekdays
	RecurrentStartDate *time.Time
	RecurrentEndDate   *time.Time
}

// TaskService is the recurrence reconciliation engine: it keeps the set of
// persisted occurrences of a recurrence family consistent with its
// definition without disturbing historical rows.
type TaskService struct {
	db         *gorm.DB
	tasks      *repository.TaskRepository
	subtasks   *repository.SubtaskRepository
	recurrents *repository.RecurrentTaskRepository
	absences   *AbsenceService
	store      storage.AttachmentStore
	clock      clock.Clock
	log        *zap.Logger
}

func NewTaskService(
	db *gorm.DB,
	tasks *repository.TaskRepository,
	subtasks *repository.SubtaskRepository,
	recurrents *repository.RecurrentTaskRepository,
	absences *AbsenceService,
	store storage.AttachmentStore,
	clk clock.Clock,
	log *zap.Logger,
) *TaskService {
	return &TaskService{
		db:         db,
		tasks:      tasks,
		subtasks:   subtasks,
		recurrents: recurrents,
		absences:   absences,
		store:      store,
		clock:      clk,
		log:        log,
	}
}

// FindOwned loads a task scoped to its owning user.
func (s *TaskService) FindOwned(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewNotFoundError("task", taskID, err)
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// CreateTask persists a task with its subtasks and, for recurring tasks,
// expands the weekday pattern into sibling occurrences, skipping days the
// user is absent. All rows are written inside one transaction.
func (s *TaskService) CreateTask(ctx context.Context, userID uint, input CreateTaskInput) (*model.Task, error) {
	if !hasTitledSubtask(input.Subtasks) {
		return nil, NewValidationError("at least one subtask with a title is required")
	}

	today := clock.Today(s.clock)

	var schedDate *time.Time
	if input.ScheduledDate != nil {
		d := clock.DateOf(*input.ScheduledDate)
		schedDate = &d
		absent, err := s.absences.IsAbsent(ctx, userID, d)
		if err != nil {
			return nil, err
		}
		if absent {
			return nil, NewValidationError("scheduled date falls on an absence day")
		}
	}

	// Recurrence bounds and absence days are resolved before the transaction
	// so the write path stays single-store.
	var (
		start, genEnd time.Time
		endDate       *time.Time
		absentDays    map[string]bool
	)
	if input.IsRecurrent {
		start = today
		if input.RecurrentStartDate != nil {
			start = clock.DateOf(*input.RecurrentStartDate)
		} else if schedDate != nil {
			start = *schedDate
		}
		if input.RecurrentEndDate != nil {
			e := clock.DateOf(*input.RecurrentEndDate)
			endDate = &e
		}
		genEnd = recurrenceEnd(start, endDate)

		var err error
		absentDays, err = s.absentDateKeys(ctx, userID, start, genEnd)
		if err != nil {
			return nil, err
		}
	}

	var createdID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := s.tasks.WithTx(tx)
		subtasks := s.subtasks.WithTx(tx)

		task := model.Task{
			UserID:               userID,
			AssignedByID:         input.AssignedByID,
			Title:                input.Title,
			Description:          input.Description,
			Color:                input.Color,
			ScheduledDate:        schedDate,
			ScheduledTime:        input.ScheduledTime,
			EstimatedMinutes:     input.EstimatedMinutes,
			Pictogram:            input.Pictogram,
			Status:               model.TaskStatusPending,
			NotificationsEnabled: input.NotificationsEnabled,
			ReminderMinutes:      input.ReminderMinutes,
		}
		if err := tasks.Create(ctx, &task); err != nil {
			return err
		}

		var baseSubtasks []model.Subtask
		order := 0
		for _, in := range input.Subtasks {
			if strings.TrimSpace(in.Title) == "" {
				continue
			}
			st := model.Subtask{
				TaskID:       task.ID,
				ExternalID:   in.ExternalID,
				Title:        in.Title,
				Description:  in.Description,
				Note:         in.Note,
				DisplayOrder: order,
				Status:       model.SubtaskStatusPending,
			}
			if st.ExternalID == "" {
				st.ExternalID = uuid.NewString()
			}
			if in.Status != nil {
				st.Status = *in.Status
			}
			if in.Pictogram != nil {
				st.Pictogram = *in.Pictogram
			}
			if err := subtasks.Create(ctx, &st); err != nil {
				return err
			}
			baseSubtasks = append(baseSubtasks, st)
			order++
		}

		if input.IsRecurrent {
			rec := model.RecurrentTask{
				UserID:     userID,
				StartDate:  start,
				EndDate:    endDate,
				DaysOfWeek: input.DaysOfWeek,
			}
			if err := s.recurrents.WithTx(tx).Create(ctx, &rec); err != nil {
				return err
			}
			task.RecurrentTaskID = &rec.ID
			if err := tasks.Save(ctx, &task); err != nil {
				return err
			}

			for _, day := range recurrence.Generate(input.DaysOfWeek, start, genEnd) {
				if schedDate != nil && day.Equal(*schedDate) {
					continue
				}
				if absentDays[dateKey(day)] {
					continue
				}
				if err := s.replicateOccurrence(ctx, tasks, subtasks, task, baseSubtasks, day, rec.ID); err != nil {
					return err
				}
			}
		}

		createdID = task.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.tasks.FindWithRelations(ctx, createdID)
}

// UpdateTask applies a field patch to the task and, for a series edit,
// reconciles the family's future occurrences with the new definition: the
// desired occurrence dates are diffed against the persisted ones on or after
// the cutoff, obsolete rows deleted and missing ones created from the edited
// task. Rows dated before the cutoff are never touched.
//
// Returns the single updated task for instance edits, or the family's
// occurrences from the cutoff onward for series edits.
func (s *TaskService) UpdateTask(ctx context.Context, task *model.Task, input UpdateTaskInput, editSeries bool) ([]model.Task, error) {
	var (
		familyID uint
		cutoff   time.Time
		obsolete []string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := s.tasks.WithTx(tx)
		subtasks := s.subtasks.WithTx(tx)

		if input.Subtasks != nil {
			removed, err := s.syncSubtasks(ctx, tx, task, input.Subtasks)
			if err != nil {
				return err
			}
			obsolete = append(obsolete, removed...)
		}

		if replaced := applyTaskPatch(task, input, editSeries); replaced != "" {
			obsolete = append(obsolete, replaced)
		}
		if err := tasks.Save(ctx, task); err != nil {
			return err
		}

		if !editSeries || task.RecurrentTaskID == nil {
			return nil
		}

		rec, err := s.recurrents.WithTx(tx).FindByID(ctx, *task.RecurrentTaskID)
		if err != nil {
			return fmt.Errorf("load recurrence: %w", err)
		}

		prevStart := rec.StartDate
		prevEnd := rec.EndDate
		if input.RecurrentStartDate != nil {
			rec.StartDate = clock.DateOf(*input.RecurrentStartDate)
		}
		if input.RecurrentEndDate != nil {
			e := clock.DateOf(*input.RecurrentEndDate)
			rec.EndDate = &e
		}
		if input.DaysOfWeek != nil {
			rec.DaysOfWeek = input.DaysOfWeek
		}
		if err := s.recurrents.WithTx(tx).Save(ctx, rec); err != nil {
			return err
		}

		// The moved-range cutoff only fires when the prior definition was
		// fully bounded; a previously open-ended family reconciles from
		// today.
		rangeChanged := prevEnd != nil && rec.EndDate != nil &&
			(!prevStart.Equal(rec.StartDate) || !prevEnd.Equal(*rec.EndDate))

		today := clock.Today(s.clock)
		cutoff = today
		if rangeChanged && rec.StartDate.After(today) {
			cutoff = rec.StartDate
		}

		desired := recurrence.Generate(rec.DaysOfWeek, rec.StartDate, recurrenceEnd(rec.StartDate, rec.EndDate))
		desiredFuture := make(map[string]bool)
		for _, d := range desired {
			if !d.Before(cutoff) {
				desiredFuture[dateKey(d)] = true
			}
		}

		// Base subtasks are captured before the deletion pass: the edited
		// task itself may fall out of the desired set.
		baseSubtasks, err := subtasks.ListByTask(ctx, task.ID)
		if err != nil {
			return err
		}

		existing, err := tasks.ListFamilyFrom(ctx, rec.ID, cutoff)
		if err != nil {
			return err
		}
		existingDates := make(map[string]bool, len(existing))
		for _, occ := range existing {
			key := dateKey(*occ.ScheduledDate)
			existingDates[key] = true
			if desiredFuture[key] {
				continue
			}
			removed, err := s.deleteOccurrence(ctx, tasks, subtasks, occ)
			if err != nil {
				return err
			}
			obsolete = append(obsolete, removed...)
		}

		for _, d := range desired {
			if !desiredFuture[dateKey(d)] || existingDates[dateKey(d)] {
				continue
			}
			if err := s.replicateOccurrence(ctx, tasks, subtasks, *task, baseSubtasks, d, rec.ID); err != nil {
				return err
			}
		}

		familyID = rec.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Attachment files are removed only after the transaction committed, so
	// a rollback can never leave a row pointing at a deleted file.
	s.cleanupFiles(obsolete)

	if familyID != 0 {
		return s.tasks.ListFamilyFromWithRelations(ctx, familyID, cutoff)
	}
	updated, err := s.tasks.FindWithRelations(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	return []model.Task{*updated}, nil
}

// DeleteTask removes the named task, or — for a series delete — every
// occurrence of its family dated today or later. Past occurrences are never
// deleted. Subtask rows and attachment files go with their tasks.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uint, deleteSeries bool) error {
	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewNotFoundError("task", taskID, err)
	}
	if err != nil {
		return err
	}

	var obsolete []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := s.tasks.WithTx(tx)
		subtasks := s.subtasks.WithTx(tx)

		targets := []model.Task{*task}
		if deleteSeries && task.RecurrentTaskID != nil {
			family, err := tasks.ListFamilyFrom(ctx, *task.RecurrentTaskID, clock.Today(s.clock))
			if err != nil {
				return err
			}
			targets = family
		}
		for _, occ := range targets {
			removed, err := s.deleteOccurrence(ctx, tasks, subtasks, occ)
			if err != nil {
				return err
			}
			obsolete = append(obsolete, removed...)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cleanupFiles(obsolete)
	return nil
}

// replicateOccurrence copies the base task and its subtasks onto a new dated
// occurrence of the family. Attachment copies happen before commit; a
// rollback at worst leaves orphaned files.
func (s *TaskService) replicateOccurrence(
	ctx context.Context,
	tasks *repository.TaskRepository,
	subtasks *repository.SubtaskRepository,
	base model.Task,
	baseSubtasks []model.Subtask,
	day time.Time,
	familyID uint,
) error {
	occ := base.CloneForDate(day, familyID)
	if base.Pictogram != "" {
		path, err := s.store.Copy(base.Pictogram)
		if err != nil {
			return fmt.Errorf("copy task pictogram: %w", err)
		}
		occ.Pictogram = path
	}
	if err := tasks.Create(ctx, &occ); err != nil {
		return err
	}

	for _, st := range baseSubtasks {
		cp := model.Subtask{
			TaskID:       occ.ID,
			ExternalID:   st.ExternalID,
			Title:        st.Title,
			Description:  st.Description,
			Note:         st.Note,
			DisplayOrder: st.DisplayOrder,
			Status:       model.SubtaskStatusPending,
		}
		if st.Pictogram != "" {
			path, err := s.store.Copy(st.Pictogram)
			if err != nil {
				return fmt.Errorf("copy subtask pictogram: %w", err)
			}
			cp.Pictogram = path
		}
		if err := subtasks.Create(ctx, &cp); err != nil {
			return err
		}
	}
	return nil
}

// deleteOccurrence removes an occurrence's rows and reports the attachment
// paths the caller must clean up after commit.
func (s *TaskService) deleteOccurrence(
	ctx context.Context,
	tasks *repository.TaskRepository,
	subtasks *repository.SubtaskRepository,
	occ model.Task,
) ([]string, error) {
	var paths []string
	if occ.Pictogram != "" {
		paths = append(paths, occ.Pictogram)
	}
	sts, err := subtasks.ListByTask(ctx, occ.ID)
	if err != nil {
		return nil, err
	}
	for _, st := range sts {
		if st.Pictogram != "" {
			paths = append(paths, st.Pictogram)
		}
	}
	if err := tasks.DeleteWithSubtasks(ctx, occ.ID); err != nil {
		return nil, err
	}
	return paths, nil
}

// cleanupFiles is best-effort post-commit attachment removal; failures are
// logged, never surfaced.
func (s *TaskService) cleanupFiles(paths []string) {
	for _, p := range paths {
		if err := s.store.Delete(p); err != nil {
			s.log.Warn("attachment cleanup failed", zap.String("path", p), zap.Error(err))
		}
	}
}

func (s *TaskService) absentDateKeys(ctx context.Context, userID uint, from, to time.Time) (map[string]bool, error) {
	dates, err := s.absences.AbsentDates(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]bool, len(dates))
	for d := range dates {
		keys[dateKey(d)] = true
	}
	return keys, nil
}

// applyTaskPatch merges submitted fields over current values. ScheduledDate
// is only patchable outside series edits, so moving one instance never drags
// the rest of the family. Returns the replaced pictogram path, if any.
func applyTaskPatch(task *model.Task, input UpdateTaskInput, editSeries bool) string {
	var replaced string
	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Color != nil {
		task.Color = *input.Color
	}
	if input.ScheduledDate != nil && !editSeries {
		d := clock.DateOf(*input.ScheduledDate)
		task.ScheduledDate = &d
	}
	if input.ScheduledTime != nil {
		task.ScheduledTime = *input.ScheduledTime
	}
	if input.EstimatedMinutes != nil {
		task.EstimatedMinutes = input.EstimatedMinutes
	}
	if input.Pictogram != nil && *input.Pictogram != task.Pictogram {
		if task.Pictogram != "" {
			replaced = task.Pictogram
		}
		task.Pictogram = *input.Pictogram
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.NotificationsEnabled != nil {
		task.NotificationsEnabled = *input.NotificationsEnabled
	}
	if input.ReminderMinutes != nil {
		task.ReminderMinutes = *input.ReminderMinutes
	}
	return replaced
}

// recurrenceEnd bounds an open-ended recurrence to the default horizon.
func recurrenceEnd(start time.Time, end *time.Time) time.Time {
	if end != nil {
		return *end
	}
	return start.AddDate(0, recurrenceHorizonMonths, 0)
}

func hasTitledSubtask(inputs []SubtaskInput) bool {
	for _, in := range inputs {
		if strings.TrimSpace(in.Title) != "" {
			return true
		}
	}
	return false
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
