package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fpagador/astrade-sub000/internal/service"
	"github.com/fpagador/astrade-sub000/internal/storage"
)

// Handlers wires the HTTP surface to the service layer. Authentication is
// handled upstream; the acting user arrives in the X-User-ID header.
type Handlers struct {
	tasks    *service.TaskService
	subtasks *service.SubtaskService
	queries  *service.QueryService
	store    storage.AttachmentStore
	log      *zap.Logger
}

func New(tasks *service.TaskService, subtasks *service.SubtaskService, queries *service.QueryService, store storage.AttachmentStore, log *zap.Logger) *Handlers {
	return &Handlers{tasks: tasks, subtasks: subtasks, queries: queries, store: store, log: log}
}

// Router builds the chi route tree.
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/attachments", h.UploadAttachment)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Post("/tasks", h.CreateTask)
			r.Get("/tasks/today", h.TodayTasks)
			r.Get("/tasks/planned", h.PlannedTasks)
			r.Get("/tasks/day", h.TasksForDay)
		})

		r.Route("/tasks/{taskID}", func(r chi.Router) {
			r.Put("/", h.UpdateTask)
			r.Delete("/", h.DeleteTask)
		})

		r.Patch("/subtasks/{subtaskID}/status", h.UpdateSubtaskStatus)

		r.Get("/dashboard", h.Dashboard)
	})

	r.Get("/health", h.Health)
	return r
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// actingUser resolves the authenticated user set by the upstream auth layer.
func actingUser(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.Header.Get("X-User-ID"), 10, 32)
	if err != nil {
		return 0, service.NewPermissionError("missing or invalid X-User-ID header")
	}
	return uint(id), nil
}

func uintParam(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 32)
	if err != nil {
		return 0, service.NewValidationError("invalid " + name)
	}
	return uint(id), nil
}
