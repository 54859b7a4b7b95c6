package handlers

import (
	"net/http"

	"github.com/fpagador/astrade-sub000/internal/service"
)

const maxAttachmentSize = 5 << 20 // 5 MiB

// UploadAttachment handles POST /api/attachments (multipart, field
// "pictogram"). The returned path is referenced from task and subtask
// payloads.
func (h *Handlers) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	if _, err := actingUser(r); err != nil {
		h.respondError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		h.respondError(w, service.NewValidationError("invalid multipart body"))
		return
	}
	file, header, err := r.FormFile("pictogram")
	if err != nil {
		h.respondError(w, service.NewValidationError("missing pictogram file"))
		return
	}
	defer file.Close()

	path, err := h.store.Store(header.Filename, file)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]string{"path": path})
}
