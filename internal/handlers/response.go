package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fpagador/astrade-sub000/internal/service"
)

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("encode response", zap.Error(err))
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// respondError maps business error codes onto HTTP status classes; anything
// without a code is an unexpected persistence error and becomes a 500.
func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	code := service.ErrorCode(err)
	if code == "" && errors.Is(err, gorm.ErrRecordNotFound) {
		code = service.CodeNotFound
	}

	status := http.StatusInternalServerError
	switch code {
	case service.CodeValidation:
		status = http.StatusUnprocessableEntity
	case service.CodePermission:
		status = http.StatusForbidden
	case service.CodeNotFound:
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.Error(err))
		h.respondJSON(w, status, errorResponse{Error: "INTERNAL", Message: "internal error"})
		return
	}

	h.log.Warn("request rejected", zap.String("code", code), zap.Error(err))
	h.respondJSON(w, status, errorResponse{Error: code, Message: err.Error()})
}
