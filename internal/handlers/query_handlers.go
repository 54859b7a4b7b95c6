package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fpagador/astrade-sub000/internal/service"
)

// TodayTasks handles GET /api/users/{userID}/tasks/today.
func (h *Handlers) TodayTasks(w http.ResponseWriter, r *http.Request) {
	userID, err := uintParam(r, "userID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	tasks, err := h.queries.TodayTasks(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, tasks)
}

// PlannedTasks handles GET /api/users/{userID}/tasks/planned?days=N.
func (h *Handlers) PlannedTasks(w http.ResponseWriter, r *http.Request) {
	userID, err := uintParam(r, "userID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil {
			h.respondError(w, service.NewValidationError("invalid days parameter"))
			return
		}
	}
	tasks, err := h.queries.PlannedTasks(r.Context(), userID, days)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, tasks)
}

// TasksForDay handles GET /api/users/{userID}/tasks/day?date=YYYY-MM-DD.
func (h *Handlers) TasksForDay(w http.ResponseWriter, r *http.Request) {
	userID, err := uintParam(r, "userID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		h.respondError(w, service.NewValidationError("invalid date parameter, expected YYYY-MM-DD"))
		return
	}
	tasks, err := h.queries.TasksForDay(r.Context(), userID, date)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, tasks)
}

// Dashboard handles GET /api/dashboard.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := h.queries.Dashboard(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, counts)
}
