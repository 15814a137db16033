package handler

import (
	"net/http"

	"ohshop-admin/internal/middleware"
	"ohshop-admin/internal/service"
)

// Renderer renders HTML pages.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) error
}

// DiscoveryStatser reports the last discovery summary.
type DiscoveryStatser interface {
	Stats() (service.DiscoveryStats, bool)
}

type dashboardSection struct {
	Title       string
	Path        string
	Description string
}

var dashboardSections = []dashboardSection{
	{"Categories", "/api/categories", "Main categories, logos and pinned content"},
	{"Content", "/api/content", "Videos, series and their episodes"},
	{"Clients", "/api/clients", "Advertising clients and point persons"},
	{"Products", "/api/products", "Client products and rental specs"},
	{"Members", "/api/members", "People registered under clients"},
	{"Immigration", "/api/immigration-services", "Visa and relocation services"},
	{"News tickers", "/api/tickers", "Storefront headlines"},
	{"Migrations", "/api/migrations", "Company backfills and their history"},
	{"Collections", "/api/collections", "Database collections and fields"},
}

// PageHandler serves the HTML shell of the dashboard.
type PageHandler struct {
	view      Renderer
	discovery DiscoveryStatser
	sso       bool
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(view Renderer, discovery DiscoveryStatser, ssoEnabled bool) *PageHandler {
	return &PageHandler{view: view, discovery: discovery, sso: ssoEnabled}
}

func (h *PageHandler) loginPage(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if !middleware.GetUserInfo(r.Context()).Anonymous() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil
	}
	if err := h.view.Render(w, r, "login.html", map[string]interface{}{"SSOEnabled": h.sso}); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render login page", Code: http.StatusInternalServerError}
	}
	return nil
}

func (h *PageHandler) dashboard(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	data := map[string]interface{}{"Sections": dashboardSections}
	if stats, ok := h.discovery.Stats(); ok {
		data["Discovery"] = stats
	}
	if err := h.view.Render(w, r, "dashboard.html", data); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render dashboard", Code: http.StatusInternalServerError}
	}
	return nil
}
