package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memories-backend/internal/config"
	"memories-backend/internal/geo"
	"memories-backend/internal/guard"
	"memories-backend/internal/handlers"
	"memories-backend/internal/memstore"
	"memories-backend/internal/middleware"
	"memories-backend/internal/notify"
	"memories-backend/internal/repository"
	"memories-backend/internal/services"
	"memories-backend/internal/session"
	"memories-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/gorilla/sessions"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const blobPath = "/blobs"

// stores is the document database behind the services
type stores struct {
	users    services.UserStore
	tokens   services.TokenStore
	photos   services.PhotoStore
	messages services.MessageStore
	memories services.MemoryStore
	events   services.EventStore
	close    func()
}

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := openStores(context.Background(), cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.close()

	// Connect to blob store
	var blobs services.BlobStore
	var memoryBlobs *storage.MemoryStore
	switch cfg.AWS.Driver {
	case "memory":
		memoryBlobs = storage.NewMemoryStore(blobPath)
		blobs = memoryBlobs
		log.Warn().Msg("Using in-memory blob store, uploads are lost on restart")
	default:
		s3Store, err := storage.NewS3Store(context.Background(), cfg.AWS)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create blob store")
		}
		blobs = s3Store
	}

	// Optional integrations
	var geocoder services.Geocoder
	if cfg.Geocoding.APIKey != "" {
		geocoder = geo.NewKakaoGeocoder(cfg.Geocoding)
	}
	var notifier services.Notifier = notify.Nop{}
	if cfg.APNs.KeyPath != "" {
		apns, err := notify.NewAPNsNotifier(cfg.APNs)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create push notifier")
		}
		notifier = apns
	}

	// Initialize services
	wsHub := services.NewWSHub()
	authService := services.NewAuthService(db.users, db.tokens, cfg.JWT)
	prefService := services.NewPreferenceService(db.users)
	gallery := services.NewGalleryService(db.photos, blobs, wsHub, cfg.Pagination.Photos)
	messageService := services.NewMessageService(db.messages, db.users, blobs, notifier, wsHub, cfg.Pagination.Messages)
	memoryService := services.NewMemoryService(db.memories, geocoder, wsHub, cfg.Map, cfg.Pagination.Memories)
	timeline := services.NewTimelineService(db.events, blobs, wsHub, cfg.Pagination.Events)
	dashboard := services.NewDashboardService(db.users, db.photos, db.messages, db.memories, db.events, cfg.Pagination.Recent)

	sessionStore := session.NewStore(authService)
	unsubscribe := sessionStore.Subscribe(wsHub.HandleSessionChange)
	defer unsubscribe()

	cookies := sessions.NewCookieStore([]byte(cfg.Session.CookieSecret))
	cookies.MaxAge(cfg.Session.MaxAgeDays * 24 * 60 * 60)
	cookies.Options.Path = "/"
	cookies.Options.HttpOnly = true
	cookies.Options.Secure = cfg.Session.Secure
	cookies.Options.SameSite = http.SameSiteLaxMode

	policy := guard.DefaultPolicy()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(sessionStore, cookies, policy)
	userHandler := handlers.NewUserHandler(authService, prefService, sessionStore)
	photoHandler := handlers.NewPhotoHandler(gallery, cfg.Upload.MaxBytes)
	messageHandler := handlers.NewMessageHandler(messageService, cfg.Upload.MaxBytes)
	memoryHandler := handlers.NewMemoryHandler(memoryService)
	eventHandler := handlers.NewEventHandler(timeline, cfg.Upload.MaxBytes)
	dashboardHandler := handlers.NewDashboardHandler(dashboard)
	shellHandler := handlers.NewShellHandler(sessionStore, prefService, cookies, policy)
	wsHandler := handlers.NewWebSocketHandler(wsHub, sessionStore, cookies,
		handlers.CollectionViews(gallery, messageService, memoryService, timeline))

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.Limit(
			cfg.RateLimit.RequestsPerMinute,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		))

		// Public routes
		r.Post("/auth/signup", authHandler.SignUp)
		r.Post("/auth/signin", authHandler.SignIn)
		r.Get("/route", shellHandler.Route)
		r.Get("/map/config", memoryHandler.MapConfig)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(sessionStore, cookies))
			r.Post("/auth/signout", authHandler.SignOut)
			r.Get("/nav", shellHandler.Nav)

			r.Get("/me", userHandler.Me)
			r.Patch("/me/profile", userHandler.UpdateProfile)
			r.Put("/me/password", userHandler.UpdatePassword)
			r.Get("/me/preferences", userHandler.GetPreferences)
			r.Patch("/me/preferences", userHandler.UpdatePreferences)
			r.Put("/me/push-token", userHandler.UpdatePushToken)

			r.Get("/dashboard", dashboardHandler.GetDashboard)

			r.Get("/photos", photoHandler.GetPhotos)
			r.Post("/photos", photoHandler.UploadPhotos)
			r.Patch("/photos/{id}", photoHandler.UpdateDescription)
			r.Delete("/photos/{id}", photoHandler.DeletePhoto)

			r.Get("/messages", messageHandler.GetMessages)
			r.Post("/messages", messageHandler.CreateMessage)
			r.Delete("/messages/{id}", messageHandler.DeleteMessage)

			r.Get("/memories", memoryHandler.GetMemories)
			r.Post("/memories", memoryHandler.CreateMemory)
			r.Patch("/memories/{id}", memoryHandler.UpdateMemory)
			r.Get("/map/geocode", memoryHandler.Geocode)

			r.Get("/events", eventHandler.GetEvents)
			r.Post("/events", eventHandler.CreateEvent)
		})
	})

	// Client views
	for _, path := range handlers.PagePaths {
		r.Get(path, shellHandler.Page)
	}
	r.Post("/signout", authHandler.SignOutPage)

	// Locally stored blobs
	if memoryBlobs != nil {
		r.Handle(blobPath+"/*", memoryBlobs)
	}

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("database", cfg.Database.Driver).
			Str("blobs", cfg.AWS.Driver).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Close WebSocket connections
	wsHub.Close()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// openStores connects the configured database driver
func openStores(ctx context.Context, cfg config.DatabaseConfig) (*stores, error) {
	if cfg.Driver == "memory" {
		log.Warn().Msg("Using in-memory database, data is lost on restart")
		return &stores{
			users:    memstore.NewUsers(),
			tokens:   memstore.NewTokens(),
			photos:   memstore.NewPhotos(),
			messages: memstore.NewMessages(),
			memories: memstore.NewMemories(),
			events:   memstore.NewEvents(),
			close:    func() {},
		}, nil
	}

	db, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	// Test database connection
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Msg("Database connection established")

	return &stores{
		users:    repository.NewUserRepository(db),
		tokens:   repository.NewTokenRepository(db),
		photos:   repository.NewPhotoRepository(db),
		messages: repository.NewMessageRepository(db),
		memories: repository.NewMemoryRepository(db),
		events:   repository.NewEventRepository(db),
		close:    db.Close,
	}, nil
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept-Language")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
