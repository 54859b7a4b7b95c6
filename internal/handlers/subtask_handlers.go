package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fpagador/astrade-sub000/internal/model"
	"github.com/fpagador/astrade-sub000/internal/service"
)

type updateSubtaskStatusRequest struct {
	Status string `json:"status"`
}

// UpdateSubtaskStatus handles PATCH /api/subtasks/{subtaskID}/status, the
// completion endpoint the mobile app calls.
func (h *Handlers) UpdateSubtaskStatus(w http.ResponseWriter, r *http.Request) {
	actorID, err := actingUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	subtaskID, err := uintParam(r, "subtaskID")
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req updateSubtaskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, service.NewValidationError("invalid request body"))
		return
	}

	subtask, err := h.subtasks.UpdateStatus(r.Context(), subtaskID, model.SubtaskStatus(req.Status), actorID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, subtask)
}
