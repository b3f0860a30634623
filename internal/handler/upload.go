package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/ghost-atlas/internal/apperror"
	"github.com/sakif/ghost-atlas/internal/auth"
	"github.com/sakif/ghost-atlas/internal/storage"
)

// UploadHandler receives sighting images and hands them to the object
// store. The returned URL goes into the sighting form's image_link
// field; the image itself is served statically at /media/.
type UploadHandler struct {
	store  storage.Store
	logger *slog.Logger
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(store storage.Store, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{store: store, logger: logger}
}

// HandleUpload stores one image.
//
// HTTP: POST /api/images, multipart form, file field "image".
// RESPONSE: 201 {"success":true,"data":{"url":...}}
//
// Type and size are rejected before any disk write (the store enforces
// both). The caller identity namespaces the stored key: authenticated
// contributors get their user ID, everyone else shares "anonymous".
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	// ParseMultipartForm's argument is only the in-memory threshold;
	// larger parts spill to temp files. The real size cap is enforced
	// per-file by the store, and MaxBytesReader backstops the whole body.
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeError(w, apperror.ValidationFailed("image", "Request must be multipart form data with an image field"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, apperror.ValidationFailed("image", "Missing image file field"))
		return
	}
	defer file.Close()

	callerID, _ := auth.UserIDFromContext(r.Context()) // blank → anonymous namespace

	obj, err := h.store.Upload(r.Context(), callerID, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("image uploaded",
		slog.String("key", obj.Key),
		slog.Int64("size", obj.Size),
	)

	writeJSON(w, http.StatusCreated, createdResponse{Success: true, Data: obj})
}
