package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fpagador/astrade-sub000/internal/model"
	"github.com/fpagador/astrade-sub000/internal/recurrence"
	"github.com/fpagador/astrade-sub000/internal/service"
)

const dateLayout = "2006-01-02"

type subtaskRequest struct {
	ExternalID  string  `json:"external_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Note        string  `json:"note"`
	Status      *string `json:"status"`
	Pictogram   *string `json:"pictogram"`
}

type createTaskRequest struct {
	Title                string           `json:"title"`
	Description          string           `json:"description"`
	Color                string           `json:"color"`
	ScheduledDate        string           `json:"scheduled_date"`
	ScheduledTime        string           `json:"scheduled_time"`
	EstimatedMinutes     *int             `json:"estimated_duration_minutes"`
	Pictogram            string           `json:"pictogram"`
	NotificationsEnabled bool             `json:"notifications_enabled"`
	ReminderMinutes      int              `json:"reminder_minutes"`
	Subtasks             []subtaskRequest `json:"subtasks"`
	IsRecurrent          bool             `json:"is_recurrent"`
	DaysOfWeek           []string         `json:"days_of_week"`
	RecurrentStartDate   string           `json:"recurrent_start_date"`
	RecurrentEndDate     string           `json:"recurrent_end_date"`
}

type updateTaskRequest struct {
	Title                *string           `json:"title"`
	Description          *string           `json:"description"`
	Color                *string           `json:"color"`
	ScheduledDate        *string           `json:"scheduled_date"`
	ScheduledTime        *string           `json:"scheduled_time"`
	EstimatedMinutes     *int              `json:"estimated_duration_minutes"`
	Pictogram            *string           `json:"pictogram"`
	Status               *string           `json:"status"`
	NotificationsEnabled *bool             `json:"notifications_enabled"`
	ReminderMinutes      *int              `json:"reminder_minutes"`
	Subtasks             *[]subtaskRequest `json:"subtasks"`
	DaysOfWeek           []string          `json:"days_of_week"`
	RecurrentStartDate   *string           `json:"recurrent_start_date"`
	RecurrentEndDate     *string           `json:"recurrent_end_date"`
}

// CreateTask handles POST /api/users/{userID}/tasks.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	actorID, err := actingUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	userID, err := uintParam(r, "userID")
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, service.NewValidationError("invalid request body"))
		return
	}
	if req.Title == "" {
		h.respondError(w, service.NewValidationError("title is required"))
		return
	}

	input := service.CreateTaskInput{
		Title:                req.Title,
		Description:          req.Description,
		Color:                req.Color,
		ScheduledTime:        req.ScheduledTime,
		EstimatedMinutes:     req.EstimatedMinutes,
		Pictogram:            req.Pictogram,
		NotificationsEnabled: req.NotificationsEnabled,
		ReminderMinutes:      req.ReminderMinutes,
		Subtasks:             toSubtaskInputs(req.Subtasks),
		IsRecurrent:          req.IsRecurrent,
		DaysOfWeek:           toWeekdays(req.DaysOfWeek),
	}
	if actorID != userID {
		input.AssignedByID = &actorID
	}
	if input.ScheduledDate, err = parseDate(req.ScheduledDate); err != nil {
		h.respondError(w, err)
		return
	}
	if input.RecurrentStartDate, err = parseDate(req.RecurrentStartDate); err != nil {
		h.respondError(w, err)
		return
	}
	if input.RecurrentEndDate, err = parseDate(req.RecurrentEndDate); err != nil {
		h.respondError(w, err)
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), userID, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, task)
}

// UpdateTask handles PUT /api/tasks/{taskID}?series=true|false.
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actorID, err := actingUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	taskID, err := uintParam(r, "taskID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	editSeries := r.URL.Query().Get("series") == "true"

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, service.NewValidationError("invalid request body"))
		return
	}

	task, err := h.tasks.FindOwned(r.Context(), actorID, taskID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	input := service.UpdateTaskInput{
		Title:                req.Title,
		Description:          req.Description,
		Color:                req.Color,
		ScheduledTime:        req.ScheduledTime,
		EstimatedMinutes:     req.EstimatedMinutes,
		Pictogram:            req.Pictogram,
		NotificationsEnabled: req.NotificationsEnabled,
		ReminderMinutes:      req.ReminderMinutes,
		DaysOfWeek:           toWeekdays(req.DaysOfWeek),
	}
	if req.Status != nil {
		status := model.TaskStatus(*req.Status)
		input.Status = &status
	}
	if req.Subtasks != nil {
		input.Subtasks = toSubtaskInputs(*req.Subtasks)
		if input.Subtasks == nil {
			input.Subtasks = []service.SubtaskInput{}
		}
	}
	if input.ScheduledDate, err = parseDatePtr(req.ScheduledDate); err != nil {
		h.respondError(w, err)
		return
	}
	if input.RecurrentStartDate, err = parseDatePtr(req.RecurrentStartDate); err != nil {
		h.respondError(w, err)
		return
	}
	if input.RecurrentEndDate, err = parseDatePtr(req.RecurrentEndDate); err != nil {
		h.respondError(w, err)
		return
	}

	tasks, err := h.tasks.UpdateTask(r.Context(), task, input, editSeries)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if editSeries {
		h.respondJSON(w, http.StatusOK, tasks)
		return
	}
	h.respondJSON(w, http.StatusOK, tasks[0])
}

// DeleteTask handles DELETE /api/tasks/{taskID}?series=true|false.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actorID, err := actingUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	taskID, err := uintParam(r, "taskID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	deleteSeries := r.URL.Query().Get("series") == "true"

	if err := h.tasks.DeleteTask(r.Context(), actorID, taskID, deleteSeries); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusNoContent, nil)
}

func toSubtaskInputs(reqs []subtaskRequest) []service.SubtaskInput {
	inputs := make([]service.SubtaskInput, 0, len(reqs))
	for _, sr := range reqs {
		in := service.SubtaskInput{
			ExternalID:  sr.ExternalID,
			Title:       sr.Title,
			Description: sr.Description,
			Note:        sr.Note,
			Pictogram:   sr.Pictogram,
		}
		if sr.Status != nil {
			status := model.SubtaskStatus(*sr.Status)
			in.Status = &status
		}
		inputs = append(inputs, in)
	}
	if len(inputs) == 0 {
		return nil
	}
	return inputs
}

func toWeekdays(names []string) recurrence.Weekdays {
	if names == nil {
		return nil
	}
	days := make(recurrence.Weekdays, 0, len(names))
	for _, n := range names {
		days = append(days, recurrence.Weekday(n))
	}
	return days
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, service.NewValidationError("invalid date " + raw + ", expected YYYY-MM-DD")
	}
	return &d, nil
}

func parseDatePtr(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	return parseDate(*raw)
}
