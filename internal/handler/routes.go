package handler

import (
	"io/fs"
	"net/http"
	"time"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/middleware"
	"ohshop-admin/internal/service"
	"ohshop-admin/internal/session"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries everything the router wires together.
type RouterConfig struct {
	Catalog     *CatalogHandler
	Clients     *ClientHandler
	Info        *InfoHandler
	Migrations  *MigrationHandler
	Collections *CollectionHandler
	Files       *FileHandler
	Auth        *AuthHandler
	Pages       *PageHandler

	Categories  CategoryServicer
	Content     ContentServicer
	Companies   CompanyServicer
	Products    ProductServicer
	Members     MemberServicer
	Immigration ImmigrationServicer
	Tickers     TickerServicer

	Sessions session.Manager
	// StreamSessions loads the session for websocket routes without buffering the response.
	StreamSessions func(http.Handler) http.Handler
	Authorizer     func(http.Handler) http.Handler
	Errors         func(middleware.AppHandler) http.Handler
	StaticFS       fs.FS

	CORSOrigins []string
	LoginRate   int // attempts per IP per minute
}

// NewRouter creates and configures a new chi router.
func NewRouter(c RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	h := c.Errors

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   c.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if c.StaticFS != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(c.StaticFS))))
	}

	r.Group(func(r chi.Router) {
		r.Use(c.StreamSessions)
		r.Use(c.Authorizer)
		r.Get("/api/collections/events", c.Collections.events)
	})

	// Everything below needs the session and passes the authorizer.
	r.Group(func(r chi.Router) {
		r.Use(c.Sessions.LoadAndSave)
		r.Use(c.Authorizer)

		r.Method(http.MethodGet, "/login", h(c.Pages.loginPage))
		r.Method(http.MethodGet, "/", h(c.Pages.dashboard))
		r.Method(http.MethodGet, "/logout", h(c.Auth.logoutPage))
		r.Method(http.MethodPost, "/logout", h(c.Auth.logoutPage))
		r.Method(http.MethodGet, "/auth/login", h(c.Auth.handleLogin))
		r.Method(http.MethodGet, "/auth/callback", h(c.Auth.handleCallback))
		r.Method(http.MethodGet, "/files/{id}", h(c.Files.serve))
		r.Handle("/metrics", promhttp.Handler())

		r.Route("/api", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				limit := c.LoginRate
				if limit <= 0 {
					limit = 10
				}
				r.With(httprate.LimitByIP(limit, time.Minute)).Method(http.MethodPost, "/login", h(c.Auth.login))
				r.Method(http.MethodPost, "/logout", h(c.Auth.logout))
			})
			r.Method(http.MethodGet, "/profile", h(c.Auth.me))
			r.Method(http.MethodPut, "/profile", h(c.Auth.updateProfile))
			r.Method(http.MethodPut, "/profile/password", h(c.Auth.changePassword))

			r.Route("/categories", func(r chi.Router) {
				cr := crud[*data.Category, service.CategoryInput]{svc: c.Categories}
				r.Method(http.MethodGet, "/", h(c.Catalog.listCategories))
				r.Method(http.MethodPost, "/", h(cr.create))
				r.Method(http.MethodPut, "/reorder", h(c.Catalog.reorderCategories))
				r.Route("/{id}", func(r chi.Router) {
					r.Method(http.MethodGet, "/", h(cr.get))
					r.Method(http.MethodPut, "/", h(cr.update))
					r.Method(http.MethodDelete, "/", h(cr.delete))
					r.Method(http.MethodPost, "/toggle", h(toggleHandler(data.CategoriesCollection, c.Categories)))
					r.Method(http.MethodPost, "/pins", h(c.Catalog.pinContent))
					r.Method(http.MethodPost, "/logo", h(c.Catalog.uploadLogo))
				})
			})

			r.Route("/content", func(r chi.Router) {
				cr := crud[*data.ContentMedia, service.ContentInput]{svc: c.Content}
				r.Method(http.MethodGet, "/", h(c.Catalog.listContent))
				r.Method(http.MethodPost, "/", h(cr.create))
				r.Route("/{id}", func(r chi.Router) {
					r.Method(http.MethodGet, "/", h(cr.get))
					r.Method(http.MethodPut, "/", h(cr.update))
					r.Method(http.MethodDelete, "/", h(cr.delete))
					r.Method(http.MethodPost, "/toggle", h(toggleHandler(data.ContentMediaCollection, c.Content)))
					r.Method(http.MethodPost, "/thumbnail", h(c.Catalog.uploadThumbnail))
					r.Method(http.MethodPost, "/episodes", h(c.Catalog.addEpisode))
					r.Method(http.MethodDelete, "/episodes/{number}", h(c.Catalog.removeEpisode))
				})
			})

			r.Route("/clients", func(r chi.Router) {
				cr := crud[*data.Company, service.CompanyInput]{svc: c.Companies}
				r.Method(http.MethodGet, "/", h(c.Clients.listClients))
				r.Method(http.MethodPost, "/", h(cr.create))
				r.Method(http.MethodGet, "/{id}", h(cr.get))
				r.Method(http.MethodPut, "/{id}", h(cr.update))
				r.Method(http.MethodDelete, "/{id}", h(cr.delete))
			})

			r.Route("/products", func(r chi.Router) {
				cr := crud[*data.Product, service.ProductInput]{svc: c.Products}
				r.Method(http.MethodGet, "/", h(c.Clients.listProducts))
				r.Method(http.MethodPost, "/", h(cr.create))
				r.Method(http.MethodGet, "/{id}", h(cr.get))
				r.Method(http.MethodPut, "/{id}", h(cr.update))
				r.Method(http.MethodDelete, "/{id}", h(cr.delete))
			})

			r.Route("/members", func(r chi.Router) {
				cr := crud[*data.Member, service.MemberInput]{svc: c.Members}
				r.Method(http.MethodGet, "/", h(c.Clients.listMembers))
				r.Method(http.MethodPost, "/", h(cr.create))
				r.Method(http.MethodGet, "/{id}", h(cr.get))
				r.Method(http.MethodPut, "/{id}", h(cr.update))
				r.Method(http.MethodDelete, "/{id}", h(cr.delete))
				r.Method(http.MethodPost, "/{id}/toggle", h(toggleHandler(data.MembersCollection, c.Members)))
			})

			r.Route("/immigration-services", func(r chi.Router) {
				cr := crud[*data.ImmigrationService, service.ImmigrationInput]{svc: c.Immigration}
				r.Method(http.MethodGet, "/", h(c.Info.listImmigration))
				r.Method(http.MethodPost, "/", h(cr.create))
				r.Method(http.MethodGet, "/{id}", h(cr.get))
				r.Method(http.MethodPut, "/{id}", h(cr.update))
				r.Method(http.MethodDelete, "/{id}", h(cr.delete))
				r.Method(http.MethodPost, "/{id}/toggle", h(toggleHandler(data.ImmigrationCollection, c.Immigration)))
			})

			r.Route("/tickers", func(r chi.Router) {
				cr := crud[*data.NewsTicker, service.TickerInput]{svc: c.Tickers}
				r.Method(http.MethodGet, "/", h(c.Info.listTickers))
				r.Method(http.MethodGet, "/visible", h(c.Info.visibleTickers))
				r.Method(http.MethodPost, "/", h(cr.create))
				r.Method(http.MethodGet, "/{id}", h(cr.get))
				r.Method(http.MethodPut, "/{id}", h(cr.update))
				r.Method(http.MethodDelete, "/{id}", h(cr.delete))
				r.Method(http.MethodPost, "/{id}/toggle", h(toggleHandler(data.NewsTickersCollection, c.Tickers)))
			})

			r.Route("/custom-fields", func(r chi.Router) {
				r.Method(http.MethodGet, "/", h(c.Clients.listCustomFields))
				r.Method(http.MethodPost, "/", h(c.Clients.createCustomField))
				r.Method(http.MethodPut, "/{id}", h(c.Clients.updateCustomField))
				r.Method(http.MethodDelete, "/{id}", h(c.Clients.deleteCustomField))
			})

			r.Method(http.MethodGet, "/phone/countries/{region}", h(c.Clients.countryCode))

			r.Route("/migrations", func(r chi.Router) {
				r.Method(http.MethodGet, "/", h(c.Migrations.list))
				r.Method(http.MethodGet, "/stats", h(c.Migrations.stats))
				r.Method(http.MethodGet, "/history", h(c.Migrations.history))
				r.Method(http.MethodPost, "/{name}/run", h(c.Migrations.run))
				r.Method(http.MethodPost, "/{name}/cancel", h(c.Migrations.cancel))
			})

			r.Route("/collections", func(r chi.Router) {
				r.Method(http.MethodGet, "/", h(c.Collections.discover))
				r.Method(http.MethodPost, "/{name}/refresh", h(c.Collections.refresh))
			})
		})
	})

	return r
}
