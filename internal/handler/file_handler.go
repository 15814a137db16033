package handler

import (
	"io"
	"net/http"
	"strconv"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/logger"
	"ohshop-admin/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// FileOpener opens stored uploads.
type FileOpener interface {
	Open(id string) (io.ReadCloser, *data.StoredFile, error)
}

// FileHandler streams stored uploads.
type FileHandler struct {
	files FileOpener
	log   logger.Logger
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(files FileOpener, log logger.Logger) *FileHandler {
	return &FileHandler{files: files, log: log}
}

// serve streams GET /files/{id} with its stored content type.
func (h *FileHandler) serve(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	rc, meta, err := h.files.Open(chi.URLParam(r, "id"))
	if err != nil {
		return fail(err)
	}
	defer rc.Close()

	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, rc); err != nil {
		// Headers are already out; all that is left is to log.
		h.log.Error(err, "Failed to stream file "+meta.ID)
	}
	return nil
}
