package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fpagador/astrade-sub000/internal/model"
)

// syncSubtasks reconciles a task's persisted subtasks with the submitted
// set. Rows are matched by external identifier: a submitted row without one
// is new and gets a fresh identifier, matched rows are updated in place, and
// persisted rows missing from the submission are deleted. Re-submitting the
// same set is a no-op. Returns the attachment paths made obsolete, to be
// deleted after commit.
func (s *TaskService) syncSubtasks(ctx context.Context, tx *gorm.DB, task *model.Task, inputs []SubtaskInput) ([]string, error) {
	subtasks := s.subtasks.WithTx(tx)

	var obsolete []string
	keep := make([]string, 0, len(inputs))

	for i, in := range inputs {
		externalID := in.ExternalID
		if externalID == "" {
			externalID = uuid.NewString()
		}
		keep = append(keep, externalID)

		existing, err := subtasks.FindByExternalID(ctx, task.ID, externalID)
		if err != nil {
			return nil, err
		}

		if existing == nil {
			st := model.Subtask{
				TaskID:       task.ID,
				ExternalID:   externalID,
				Title:        in.Title,
				Description:  in.Description,
				Note:         in.Note,
				DisplayOrder: i,
				Status:       model.SubtaskStatusPending,
			}
			if in.Status != nil {
				st.Status = *in.Status
			}
			if in.Pictogram != nil {
				st.Pictogram = *in.Pictogram
			}
			if err := subtasks.Create(ctx, &st); err != nil {
				return nil, err
			}
			continue
		}

		existing.Title = in.Title
		existing.Description = in.Description
		existing.Note = in.Note
		existing.DisplayOrder = i
		if in.Status != nil {
			existing.Status = *in.Status
		}
		if in.Pictogram != nil && *in.Pictogram != existing.Pictogram {
			if existing.Pictogram != "" {
				obsolete = append(obsolete, existing.Pictogram)
			}
			existing.Pictogram = *in.Pictogram
		}
		if err := subtasks.Save(ctx, existing); err != nil {
			return nil, err
		}
	}

	removed, err := subtasks.ListNotIn(ctx, task.ID, keep)
	if err != nil {
		return nil, err
	}
	for _, st := range removed {
		if st.Pictogram != "" {
			obsolete = append(obsolete, st.Pictogram)
		}
	}
	if err := subtasks.DeleteNotIn(ctx, task.ID, keep); err != nil {
		return nil, err
	}

	return obsolete, nil
}
