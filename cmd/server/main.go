package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ohshop-admin/internal/auth"
	"ohshop-admin/internal/cache"
	"ohshop-admin/internal/config"
	"ohshop-admin/internal/data"
	"ohshop-admin/internal/handler"
	"ohshop-admin/internal/logger"
	"ohshop-admin/internal/middleware"
	"ohshop-admin/internal/service"
	"ohshop-admin/internal/session"
	"ohshop-admin/internal/view"
	"ohshop-admin/web"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Platform Database ---
	log.Info("Connecting to MongoDB...")
	client, err := data.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		log.Fatal(err, "Failed to connect to MongoDB")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(cfg.Mongo.Database)
	log.Info("MongoDB connection successful.")
	if err := data.EnsureIndexes(ctx, db); err != nil {
		// Existing duplicates block the index; the services still check before writing.
		log.Error(err, "Failed to ensure unique indexes")
	}

	// --- State Database and Migration ---
	log.Info("Connecting to the state database...")
	stateDB, err := data.NewStateDB(cfg.State)
	if err != nil {
		log.Fatal(err, "Failed to connect to state database")
	}
	defer stateDB.Close()

	log.Info("Applying state database migrations...")
	if err := data.ApplyMigrations(stateDB, cfg.State.Driver); err != nil {
		log.Fatal(err, "Failed to apply migrations")
	}
	log.Info("Migrations applied successfully.")

	// --- Session Management Setup ---
	sessionManager, err := session.New(stateDB, cfg.State.Driver, cfg.Session, cfg.Server.TLS.Enabled)
	if err != nil {
		log.Fatal(err, "Failed to initialize sessions")
	}

	// --- Authentication and Authorization Setup ---
	log.Info("Initializing authentication and authorization...")
	enforcer, err := auth.NewEnforcer(cfg.State.Driver, cfg.State.DSN)
	if err != nil {
		log.Fatal(err, "Failed to initialize enforcer")
	}
	auth.SeedDefaultPolicies(enforcer, log)

	var sso handler.IdentityProvider
	if cfg.OIDC.IssuerURL != "" {
		authenticator, err := auth.NewAuthenticator(ctx, &cfg.OIDC)
		if err != nil {
			log.Fatal(err, "Failed to initialize authenticator")
		}
		sso = authenticator
		log.Info("Single sign-on enabled.")
	}

	// --- View Template Initialization ---
	viewService, err := view.New(web.TemplateFS)
	if err != nil {
		log.Fatal(err, "Failed to initialize view templates")
	}
	staticFS, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		log.Fatal(err, "Failed to open static assets")
	}

	// --- Cache Initialization ---
	metaCache, err := cache.New(cfg.Cache.FilePath)
	if err != nil {
		log.Fatal(err, "Failed to initialize cache")
	}
	defer metaCache.Close()
	if n, err := metaCache.PurgeExpired(); err != nil {
		log.Warn("Failed to purge cache: " + err.Error())
	} else if n > 0 {
		log.Debug(fmt.Sprintf("Purged %d expired cache entries", n))
	}

	// --- Repositories ---
	categoryRepository := data.NewCategoryRepository(client, db)
	contentRepository := data.NewContentRepository(db)
	companyRepository := data.NewCompanyRepository(db)
	productRepository := data.NewProductRepository(db)
	memberRepository := data.NewMemberRepository(db)
	immigrationRepository := data.NewImmigrationRepository(db)
	tickerRepository := data.NewTickerRepository(db)
	customFieldRepository := data.NewCustomFieldRepository(db)
	historyRepository := data.NewMigrationHistoryRepository(db)
	adminUserRepository := data.NewAdminUserRepository(db)
	fileStore, err := data.NewFileStore(db)
	if err != nil {
		log.Fatal(err, "Failed to open file store")
	}

	if n, err := historyRepository.MarkInterrupted(ctx); err != nil {
		log.Error(err, "Failed to mark interrupted migrations")
	} else if n > 0 {
		log.Warn(fmt.Sprintf("Marked %d interrupted migration runs as failed", n))
	}

	// --- Services ---
	text := service.NewTextPolicy()
	phone := service.NewPhoneNormalizer(cfg.Phone.DefaultRegion)
	categoryService := service.NewCategoryService(categoryRepository, text)
	contentService := service.NewContentService(contentRepository, categoryRepository, text)
	companyService := service.NewCompanyService(companyRepository, phone, text)
	customFieldService := service.NewCustomFieldService(customFieldRepository)
	productService := service.NewProductService(productRepository, companyRepository, customFieldService, text)
	memberService := service.NewMemberService(memberRepository, companyRepository, phone, text)
	immigrationService := service.NewImmigrationService(immigrationRepository, text)
	tickerService := service.NewTickerService(tickerRepository, text)
	uploadService := service.NewUploadService(fileStore)
	accountService := service.NewAccountService(adminUserRepository, phone, text)
	migrationService := service.NewMigrationService(historyRepository, data.NewBackfillRepository(db), companyRepository, log, cfg.Migration.StepInterval)
	discoveryService := service.NewDiscoveryService(data.NewCollectionInspector(db), metaCache, cfg.Cache.TTL, log)

	if created, err := accountService.Bootstrap(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		log.Error(err, "Failed to bootstrap admin account")
	} else if created {
		log.Info("Created initial admin account " + cfg.Bootstrap.AdminEmail)
	}

	// --- Handlers and Router ---
	authHandler := handler.NewAuthHandler(accountService, sso, sessionManager, log)
	router := handler.NewRouter(handler.RouterConfig{
		Catalog:     handler.NewCatalogHandler(categoryService, contentService, uploadService),
		Clients:     handler.NewClientHandler(companyService, productService, memberService, customFieldService, phone),
		Info:        handler.NewInfoHandler(immigrationService, tickerService),
		Migrations:  handler.NewMigrationHandler(migrationService),
		Collections: handler.NewCollectionHandler(discoveryService, cfg.Server.CORSOrigins, log),
		Files:       handler.NewFileHandler(uploadService, log),
		Auth:        authHandler,
		Pages:       handler.NewPageHandler(viewService, discoveryService, authHandler.SSOEnabled()),

		Categories:  categoryService,
		Content:     contentService,
		Companies:   companyService,
		Products:    productService,
		Members:     memberService,
		Immigration: immigrationService,
		Tickers:     tickerService,

		Sessions:       sessionManager,
		StreamSessions: session.ReadOnly(sessionManager),
		Authorizer:     middleware.Authorizer(enforcer, sessionManager, log),
		Errors:         middleware.Error(log, viewService),
		StaticFS:       staticFS,
		CORSOrigins:    cfg.Server.CORSOrigins,
		LoginRate:      cfg.Server.LoginRate,
	})

	// Warm the discovery cache without holding up startup.
	go func() {
		if _, err := discoveryService.Discover(ctx, false); err != nil && !errors.Is(err, context.Canceled) {
			log.Error(err, "Initial collection discovery failed")
		}
	}()

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()

	<-ctx.Done()
	log.Warn("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}
	if err := migrationService.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "Migrations did not stop in time")
	}
	log.Info("Server exiting")
}
