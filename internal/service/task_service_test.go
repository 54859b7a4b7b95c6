package service_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpagador/astrade-sub000/internal/model"
	"github.com/fpagador/astrade-sub000/internal/recurrence"
	"github.com/fpagador/astrade-sub000/internal/service"
)

func TestCreateTaskRequiresTitledSubtask(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, model.RoleUser)
	ctx := context.Background()

	tests := []struct {
		name     string
		subtasks []service.SubtaskInput
	}{
		{name: "no subtasks", subtasks: nil},
		{name: "only blank titles", subtasks: []service.SubtaskInput{{Title: "   "}, {Title: ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.tasks.CreateTask(ctx, user.ID, service.CreateTaskInput{
				Title:    "shower",
				Subtasks: tt.subtasks,
			})
			require.Error(t, err)
			assert.Equal(t, service.CodeValidation, service.ErrorCode(err))
		})
	}
	assert.Zero(t, e.taskCount(t), "validation failures must not write rows")
}

func TestCreateTaskRejectsAbsenceDate(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, model.RoleUser)
	e.seedAbsence(t, user.ID, day(2025, 2, 10), model.AbsenceVacation)

	_, err := e.tasks.CreateTask(context.Background(), user.ID, service.CreateTaskInput{
		Title:         "doctor visit",
		ScheduledDate: datePtr(day(2025, 2, 10)),
		Subtasks:      []service.SubtaskInput{{Title: "bring documents"}},
	})
	require.Error(t, err)
	assert.Equal(t, service.CodeValidation, service.ErrorCode(err))
	assert.Zero(t, e.taskCount(t))
}

func TestCreateTaskRecurringSkipsAbsences(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, model.RoleUser)
	e.seedAbsence(t, user.ID, day(2025, 2, 5), model.AbsenceLegal)

	task, err := e.tasks.CreateTask(context.Background(), user.ID, service.CreateTaskInput{
		Title:              "physio session",
		Subtasks:           []service.SubtaskInput{{Title: "warm up"}},
		IsRecurrent:        true,
		DaysOfWeek:         recurrence.Weekdays{recurrence.Wednesday},
		RecurrentStartDate: datePtr(day(2025, 2, 1)),
		RecurrentEndDate:   datePtr(day(2025, 2, 28)),
	})
	require.NoError(t, err)
	require.NotNil(t, task.RecurrentTaskID)

	// Wednesdays in range are Feb 5, 12, 19, 26; the absence on the 5th
	// must be skipped.
	assert.Equal(t, []string{"2025-02-12", "2025-02-19", "2025-02-26"}, e.familyDates(t, *task.RecurrentTaskID))
}

func TestCreateTaskOpenEndedBoundedToHorizon(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, model.RoleUser)

	task, err := e.tasks.CreateTask(context.Background(), user.ID, service.CreateTaskInput{
		Title:              "weekly laundry",
		Subtasks:           []service.SubtaskInput{{Title: "load washer"}},
		IsRecurrent:        true,
		DaysOfWeek:         recurrence.Weekdays{recurrence.Monday},
		RecurrentStartDate: datePtr(day(2025, 2, 3)),
	})
	require.NoError(t, err)
	require.NotNil(t, task.RecurrentTaskID)

	// No end date: occurrences stop at the six-month horizon (2025-08-03),
	// so the last Monday generated is Jul 28.
	dates := e.familyDates(t, *task.RecurrentTaskID)
	require.Len(t, dates, 26)
	assert.Equal(t, "2025-02-03", dates[0])
	assert.Equal(t, "2025-07-28", dates[len(dates)-1])
}

func TestCreateTaskRecurringReplicatesSubtasksAndAttachments(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, model.RoleUser)
	ctx := context.Background()

	picto, err := e.store.Store("task.png", strings.NewReader("task-image"))
	require.NoError(t, err)

	task, err := e.tasks.CreateTask(ctx, user.ID, service.CreateTaskInput{
		Title:         "breakfast",
		Pictogram:     picto,
		ScheduledDate: datePtr(day(2025, 2, 3)),
		Subtasks: []service.SubtaskInput{
			{Title: "set the table"},
			{Title: "make coffee"},
		},
		IsRecurrent:        true,
		DaysOfWeek:         recurrence.Weekdays{recurrence.Monday},
		RecurrentStartDate: datePtr(day(2025, 2, 3)),
		RecurrentEndDate:   datePtr(day(2025, 2, 17)),
	})
	require.NoError(t, err)
	require.NotNil(t, task.RecurrentTaskID)
	assert.Len(t, task.Subtasks, 2)

	// Base task covers Feb 3; siblings are created for Feb 10 and 17 only.
	assert.Equal(t, []string{"2025-02-03", "2025-02-10", "2025-02-17"}, e.familyDates(t, *task.RecurrentTaskID))

	var siblings []model.Task
	require.NoError(t, e.db.Where("recurrent_task_id = ? AND id <> ?", *task.RecurrentTaskID, task.ID).Find(&siblings).Error)
	require.Len(t, siblings, 2)
	for _, sib := range siblings {
		subtasks, err := e.subtaskRepo.ListByTask(ctx, sib.ID)
		require.NoError(t, err)
		assert.Len(t, subtasks, 2)

		assert.NotEmpty(t, sib.Pictogram)
		assert.NotEqual(t, task.Pictogram, sib.Pictogram, "each occurrence owns its attachment copy")
		_, err = os.Stat(filepath.Join(e.storeDir, sib.Pictogram))
		assert.NoError(t, err)
	}
}

func TestUpdateTaskSeriesCutoffInvariant(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, model.RoleUser)
	ctx := context.Background()

	// Mondays from Jan 6 through Feb 24; today is Feb 3.
	end := day(2025, 2, 24)
	rec, occurrences := e.seedFamily(t, user.ID, day(2025, 1, 6), &end,
		recurrence.Weekdays{recurrence.Monday},
		[]time.Time{
			day(2025, 1, 6), day(2025, 1, 13), day(2025, 1, 20), day(2025, 1, 27),
			day(2025, 2, 3), day(2025, 2, 10), day(2025, 2, 17), day(2025, 2, 24),
		})

	base, err := e.tasks.FindOwned(ctx, user.ID, occurrences[4].ID) // the Feb 3 one
	require.NoError(t, err)

	pastIDs := []uint{occurrences[0].ID, occurrences[1].ID, occurrences[2].ID, occurrences[3].ID}

	// Switch the weekday set entirely. Range unchanged, so cutoff = today.
	future, err := e.tasks.UpdateTask(ctx, base, service.UpdateTaskInput{
		DaysOfWeek: recurrence.Weekdays{recurrence.Wednesday},
	}, true)
	require.NoError(t, err)

	// Future Mondays were deleted, future Wednesdays created; the past four
	// Mondays are untouched.
	assert.Equal(t, []string{
		"2025-01-06", "2025-01-13", "2025-01-20", "2025-01-27",
		"2025-02-05", "2025-02-12", "2025-02-19",
	}, e.familyDates(t, rec.ID))

	for _, id := range pastIDs {
		var kept model.Task
		assert.NoError(t, e.db.First(&kept, id).Error, "historical occurrence %d must survive", id)
	}

	require.Len(t, future, 3)
	for _, occ := range future {
		subtasks, err := e.subtaskRepo.ListByTask(ctx, occ.ID)
		require.NoError(t, err)
		assert.Len(t, subtasks, 1, "new occurrences copy the base subtasks")
	}
}

func TestUpdateTaskSeriesIdempotent(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, model.RoleUser)
	ctx := context.Background()

	end := day(2025, 2, 24)
	rec, occurrences := e.seedFamily(t, user.ID, day(2025, 1, 6), &end,
		recurrence.Weekdays{recurrence.Monday},
		[]time.Time{
			day(2025, 1, 6), day(2025, 1, 13), day(2025, 1, 20), day(2025, 1, 27),
			day(2025, 2, 3), day(2025, 2, 10), day(2025, 2, 17), day(2025, 2, 24),
		})

	input := service.UpdateTaskInput{DaysOfWeek: recurrence.Weekdays{recurrence.Monday}}

	base, err := e.tasks.FindOwned(ctx, user.ID, occurrences[4].ID)
	require.NoError(t, err)
	first, err := e.tasks.UpdateTask(ctx, base, input, true)
	require.NoError(t, err)

	base, err = e.tasks.FindOwned(ctx, user.ID, occurrences[4].ID)
	require.NoError(t, err)
	second, err := e.tasks.UpdateTask(ctx, base, input, true)
	require.NoError(t, err)

	ids := func(tasks []model.Task) []uint {
		out := make([]uint, 0, len(tasks))
		for _, task := range tasks {
			out = append(out, task.ID)
		}
		return out
	}
	assert.Equal(t, ids(first), ids(second), "second identical edit must not create or delete rows")
	assert.Equal(t, int64(8), e.taskCount(t))
	_ = rec
}

func TestUpdateTaskMovedRangeUsesStartCutoff(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, model.RoleUser)
	ctx := context.Background()

	end := day(2025, 2, 24)
	rec, occurrences := e.seedFamily(t, user.ID, day(2025, 1, 6), &end,
		recurrence.Weekdays{recurrence.Monday},
		[]time.Time{
			day(2025, 1, 6), day(2025, 1, 13), day(2025, 1, 20), day(2025, 1, 27),
			day(2025, 2, 3), day(2025, 2, 10), day(2025, 2, 17), day(2025, 2, 24),
		})

	base, err := e.tasks.FindOwned(ctx, user.ID, occurrences[4].ID)
	require.NoError(t, err)
	feb3ID := base.ID

	// Move the bounded range forward: cutoff becomes the new start (Feb 10),
	// so even today's occurrence (Feb 3) is out of reach.
	_, err = e.tasks.UpdateTask(ctx, base, service.UpdateTaskInput{
		RecurrentStartDate: datePtr(day(2025, 2, 10)),
		RecurrentEndDate:   datePtr(day(2025, 3, 3)),
	}, true)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2025-01-06", "2025-01-13", "2025-01-20", "2025-01-27",
		"2025-02-03", "2025-02-10", "2025-02-17", "2025-02-24",
		"2025-03-03",
	}, e.familyDates(t, rec.ID))

	var feb3 model.Task
	assert.NoError(t, e.db.First(&feb3, feb3ID).Error, "occurrence before the cutoff must survive")
}

func TestUpdateTaskOpenEndedFamilyFallsBackToTodayCutoff(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, model.RoleUser)
	ctx := context.Background()

	// Open-ended family: no end date. Bounding it does NOT trigger the
	// moved-range cutoff; reconciliation runs from today.
	rec, occurrences := e.seedFamily(t, user.ID, day(2025, 1, 6), nil,
		recurrence.Weekdays{recurrence.Monday},
		[]time.Time{day(2025, 1, 27), day(2025, 2, 10), day(2025, 2, 17), day(2025, 2, 24)})

	base, err := e.tasks.FindOwned(ctx, user.ID, occurrences[1].ID)
	require.NoError(t, err)

	_, err = e.tasks.UpdateTask(ctx, base, service.UpdateTaskInput{
		RecurrentStartDate: datePtr(day(2025, 2, 10)),
		RecurrentEndDate:   datePtr(day(2025, 2, 17)),
	}, true)
	require.NoError(t, err)

	// Cutoff = today (Feb 3): Feb 24 falls outside the new bounded range and
	// is deleted; Feb 10 and 17 survive; the past Jan 27 row is untouched.
	assert.Equal(t, []string{"2025-01-27", "2025-02-10", "2025-02-17"}, e.familyDates(t, rec.ID))
}

func TestUpdateTaskSeriesNeverMovesScheduledDate(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, model.RoleUser)
	ctx := context.Background()

	end := day(2025, 2, 24)
	_, occurrences := e.seedFamily(t, user.ID, day(2025, 1, 6), &end,
		recurrence.Weekdays{recurrence.Monday},
		[]time.Time{day(2025, 2, 3), day(2025, 2, 10), day(2025, 2, 17), day(2025, 2, 24)})

	base, err := e.tasks.FindOwned(ctx, user.ID, occurrences[0].ID)
	require.NoError(t, err)

	_, err = e.tasks.UpdateTask(ctx, base, service.UpdateTaskInput{
		ScheduledDate: datePtr(day(2025, 2, 14)),
		Title:         strPtr("renamed"),
	}, true)
	require.NoError(t, err)

	var reloaded model.Task
	require.NoError(t, e.db.First(&reloaded, base.ID).Error)
	assert.Equal(t, "2025-02-03", reloaded.ScheduledDate.Format("2006-01-02"),
		"series edits must not move instance dates")
	assert.Equal(t, "renamed", reloaded.Title)
}

func TestUpdateTaskInstanceEditMovesOnlyItself(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, model.RoleUser)
	ctx := context.Background()

	end := day(2025, 2, 24)
	rec, occurrences := e.seedFamily(t, user.ID, day(2025, 1, 6), &end,
		recurrence.Weekdays{recurrence.Monday},
		[]time.Time{day(2025, 2, 10), day(2025, 2, 17), day(2025, 2, 24)})

	base, err := e.tasks.FindOwned(ctx, user.ID, occurrences[0].ID)
	require.NoError(t, err)

	updated, err := e.tasks.UpdateTask(ctx, base, service.UpdateTaskInput{
		ScheduledDate: datePtr(day(2025, 2, 14)),
	}, false)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, "2025-02-14", updated[0].ScheduledDate.Format("2006-01-02"))

	assert.Equal(t, []string{"2025-02-14", "2025-02-17", "2025-02-24"}, e.familyDates(t, rec.ID))
}

func TestUpdateTaskPatchKeepsUnsubmittedFields(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, model.RoleUser)
	ctx := context.Background()

	created, err := e.tasks.CreateTask(ctx, user.ID, service.CreateTaskInput{
		Title:       "lunch",
		Description: "at the cafeteria",
		Color:       "#ff8800",
		Subtasks:    []service.SubtaskInput{{Title: "wash hands"}},
	})
	require.NoError(t, err)

	base, err := e.tasks.FindOwned(ctx, user.ID, created.ID)
	require.NoError(t, err)
	updated, err := e.tasks.UpdateTask(ctx, base, service.UpdateTaskInput{
		Title: strPtr("late lunch"),
	}, false)
	require.NoError(t, err)
	require.Len(t, updated, 1)

	assert.Equal(t, "late lunch", updated[0].Title)
	assert.Equal(t, "at the cafeteria", updated[0].Description)
	assert.Equal(t, "#ff8800", updated[0].Color)
}

func TestDeleteTaskCascadesSubtasksAndFiles(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, model.RoleUser)
	ctx := context.Background()

	taskPicto, err := e.store.Store("t.png", strings.NewReader("t"))
	require.NoError(t, err)
	aPicto, err := e.store.Store("a.png", strings.NewReader("a"))
	require.NoError(t, err)
	bPicto, err := e.store.Store("b.png", strings.NewReader("b"))
	require.NoError(t, err)

	created, err := e.tasks.CreateTask(ctx, user.ID, service.CreateTaskInput{
		Title:     "hygiene",
		Pictogram: taskPicto,
		Subtasks: []service.SubtaskInput{
			{Title: "brush teeth", Pictogram: &aPicto},
			{Title: "comb hair", Pictogram: &bPicto},
		},
	})
	require.NoError(t, err)

	require.NoError(t, e.tasks.DeleteTask(ctx, user.ID, created.ID, false))

	assert.Zero(t, e.taskCount(t))
	var subtaskCount int64
	require.NoError(t, e.db.Model(&model.Subtask{}).Count(&subtaskCount).Error)
	assert.Zero(t, subtaskCount)

	for _, p := range []string{taskPicto, aPicto, bPicto} {
		_, err := os.Stat(filepath.Join(e.storeDir, p))
		assert.True(t, os.IsNotExist(err), "attachment %s must be removed", p)
	}
}

func TestDeleteTaskSeriesKeepsPastOccurrences(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, model.RoleUser)
	ctx := context.Background()

	end := day(2025, 2, 24)
	rec, occurrences := e.seedFamily(t, user.ID, day(2025, 1, 6), &end,
		recurrence.Weekdays{recurrence.Monday},
		[]time.Time{
			day(2025, 1, 20), day(2025, 1, 27),
			day(2025, 2, 3), day(2025, 2, 10), day(2025, 2, 17),
		})

	require.NoError(t, e.tasks.DeleteTask(ctx, user.ID, occurrences[2].ID, true))

	assert.Equal(t, []string{"2025-01-20", "2025-01-27"}, e.familyDates(t, rec.ID))
}

func TestDeleteTaskUnknownTask(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, model.RoleUser)

	err := e.tasks.DeleteTask(context.Background(), user.ID, 9999, false)
	require.Error(t, err)
	assert.Equal(t, service.CodeNotFound, service.ErrorCode(err))
}
