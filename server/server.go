package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"soundbay/config"
	"soundbay/core/session"
	"soundbay/db"
	"soundbay/logger"
	"soundbay/repository"
	"soundbay/storage"
)

// Routes builds the router for the five core operations, the profile
// surface, and static serving of uploaded files. The single authorization
// gate: creating a song and rating one require an active session;
// registration, login and listing are open.
func (h *APIHandler) Routes() *mux.Router {
	router := mux.NewRouter()

	router.Use(corsMiddleware)

	router.HandleFunc("/api/register", h.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/login", h.LoginHandler).Methods(http.MethodPost)

	router.HandleFunc("/api/songs", h.GetSongsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs", h.AuthMiddleware(h.UploadSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}/rate", h.AuthMiddleware(h.RateSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}/ratings", h.GetRatingsHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/me", h.AuthMiddleware(h.MeHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/profile", h.AuthMiddleware(h.UpdateProfileHandler)).Methods(http.MethodPut)

	router.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)

	// Uploaded binaries are served back by reference.
	router.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", h.uploads.Handler()))

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Start initializes every component and runs the HTTP server until
// SIGINT/SIGTERM.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	conn, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer conn.Close()

	if err := db.InitDB(conn, cfg.DBDriver); err != nil {
		logger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}

	var sessions session.Store
	switch cfg.SessionStore {
	case "redis":
		sessions, err = session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTTL)
		if err != nil {
			logger.Fatal("Failed to connect to Redis session store", logger.ErrorField(err))
		}
	default:
		sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	var uploads storage.Store
	switch cfg.StorageBackend {
	case "minio":
		uploads, err = storage.NewMinioStore(cfg)
		if err != nil {
			logger.Fatal("Failed to initialize MinIO storage", logger.ErrorField(err))
		}
	default:
		uploads, err = storage.NewFSStore(cfg.UploadDir)
		if err != nil {
			logger.Fatal("Failed to initialize upload directory", logger.ErrorField(err))
		}
	}

	handler := NewAPIHandler(
		repository.NewSQLUserRepository(conn),
		repository.NewSQLSongRepository(conn),
		repository.NewSQLRatingRepository(conn),
		sessions,
		uploads,
		cfg,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting",
			logger.String("port", cfg.Port),
			logger.String("dbDriver", cfg.DBDriver),
			logger.String("storage", cfg.StorageBackend),
			logger.String("sessionStore", cfg.SessionStore))

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}
