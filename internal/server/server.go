// Package server assembles the backend proxy: router, middleware chain and
// the HTTP server itself. Handlers are stateless; the only process-wide state
// is the provider session cache owned by the storage gateway.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/savevault/savevault/internal/config"
	"github.com/savevault/savevault/internal/handlers"
	"github.com/savevault/savevault/internal/middleware"
	"github.com/savevault/savevault/internal/provider"
)

const (
	readTimeout = 10 * time.Second
	idleTimeout = 30 * time.Second

	// Write timeout stays generous: downloads stream whole archives through.
	writeTimeout = 5 * time.Minute

	requestsPerSecond = 5
	requestBurst      = 10
)

// NewRouter wires the API routes and the uniform middleware chain. The guard,
// CORS and rate limiting apply to every /api route; the original applied them
// unevenly, which is resolved here on purpose.
func NewRouter(cfg *config.Config, storage provider.Storage, logger *zap.Logger) *chi.Mux {
	backupHandler := handlers.NewBackupHandler(storage, logger)
	limiter := middleware.NewRateLimiter(rate.Limit(requestsPerSecond), requestBurst)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.AllowedOrigins))
		r.Use(limiter.Limit)
		r.Use(middleware.SharedSecret(cfg.AppToken))

		r.Get("/backups", backupHandler.List)
		r.Post("/upload-url", backupHandler.UploadURL)
		r.Get("/download/{name}", backupHandler.Download)
	})

	if cfg.StaticDir != "" {
		fs := http.FileServer(http.Dir(cfg.StaticDir))
		r.Handle("/*", fs)
	}

	return r
}

// New builds the HTTP server around the router.
func New(cfg *config.Config, storage provider.Storage, logger *zap.Logger) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      NewRouter(cfg, storage, logger),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}
