package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/middleware"
	"ohshop-admin/internal/pagination"
	"ohshop-admin/internal/service"

	"github.com/go-chi/chi/v5"
)

// MigrationRunner is what the migration routes need.
type MigrationRunner interface {
	Available() []service.MigrationInfo
	Start(ctx context.Context, name string, opts service.StartOptions) (data.MigrationHistoryEntry, error)
	Cancel(name string) error
	Stats(ctx context.Context) (service.MigrationStats, error)
	History(ctx context.Context, name string, p pagination.Params) (pagination.Page[*data.MigrationHistoryEntry], error)
}

// MigrationHandler serves the backfill utilities.
type MigrationHandler struct {
	runner MigrationRunner
}

// NewMigrationHandler creates a new MigrationHandler.
func NewMigrationHandler(runner MigrationRunner) *MigrationHandler {
	return &MigrationHandler{runner: runner}
}

func (h *MigrationHandler) list(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return respond(w, http.StatusOK, map[string]interface{}{"data": h.runner.Available()})
}

// run starts a migration. The body is optional.
func (h *MigrationHandler) run(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var opts service.StartOptions
	if r.ContentLength != 0 {
		if appErr := decode(w, r, &opts); appErr != nil && !errors.Is(appErr.Error, io.EOF) {
			return appErr
		}
	}
	opts.StartedBy = middleware.GetUserInfo(r.Context()).Email
	entry, err := h.runner.Start(r.Context(), chi.URLParam(r, "name"), opts)
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusAccepted, entry)
}

func (h *MigrationHandler) cancel(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.runner.Cancel(chi.URLParam(r, "name")); err != nil {
		return fail(err)
	}
	w.WriteHeader(http.StatusAccepted)
	return nil
}

// stats is polled by the dashboard while runs are in progress.
func (h *MigrationHandler) stats(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	stats, err := h.runner.Stats(r.Context())
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, stats)
}

func (h *MigrationHandler) history(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	page, err := h.runner.History(r.Context(), r.URL.Query().Get("migration"), params(r))
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, page)
}
