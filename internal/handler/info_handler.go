package handler

import (
	"context"
	"net/http"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/middleware"
	"ohshop-admin/internal/pagination"
	"ohshop-admin/internal/service"
)

// ImmigrationServicer is what the immigration service routes need.
type ImmigrationServicer interface {
	entityService[*data.ImmigrationService, service.ImmigrationInput]
	toggleService
	List(ctx context.Context, country string, p pagination.Params) (pagination.Page[*data.ImmigrationService], error)
}

// TickerServicer is what the news ticker routes need.
type TickerServicer interface {
	entityService[*data.NewsTicker, service.TickerInput]
	toggleService
	List(ctx context.Context, p pagination.Params) (pagination.Page[*data.NewsTicker], error)
	Visible(ctx context.Context) ([]*data.NewsTicker, error)
}

// InfoHandler serves immigration services and news tickers.
type InfoHandler struct {
	immigration ImmigrationServicer
	tickers     TickerServicer
}

// NewInfoHandler creates a new InfoHandler.
func NewInfoHandler(immigration ImmigrationServicer, tickers TickerServicer) *InfoHandler {
	return &InfoHandler{immigration: immigration, tickers: tickers}
}

func (h *InfoHandler) listImmigration(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	page, err := h.immigration.List(r.Context(), r.URL.Query().Get("country"), params(r))
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, page)
}

func (h *InfoHandler) listTickers(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	page, err := h.tickers.List(r.Context(), params(r))
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, page)
}

func (h *InfoHandler) visibleTickers(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	items, err := h.tickers.Visible(r.Context())
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, map[string]interface{}{"data": items})
}
