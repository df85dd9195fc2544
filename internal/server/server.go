package server

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kartoza/citylens/internal/api"
	"github.com/kartoza/citylens/internal/assistant"
	"github.com/kartoza/citylens/internal/config"
	"github.com/kartoza/citylens/internal/earthobs"
	"github.com/kartoza/citylens/internal/fetch"
	"github.com/kartoza/citylens/internal/history"
	"github.com/kartoza/citylens/internal/reports"
	"github.com/kartoza/citylens/internal/simulate"
	"github.com/kartoza/citylens/internal/weather"
)

//go:embed static/*
var staticFS embed.FS

// backfillDays is how much synthetic history seeds an empty store so the
// trend charts have data on first launch
const backfillDays = 365

// Server holds all the components for the web application
type Server struct {
	cfg        config.Config
	logger     *zap.Logger
	httpServer *http.Server
	router     *mux.Router

	weather   *weather.Client
	obs       *earthobs.Client
	sim       *simulate.Generator
	history   *history.Store
	reports   *reports.Store
	assistant *assistant.Assistant
	refresher *refresher
}

// New creates a Server with all components initialized. Stores that fail
// to open are logged and skipped; their endpoints answer 503.
func New(cfg config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		router: mux.NewRouter(),
		sim:    simulate.NewDefault(),
	}

	fetcher := fetch.New(
		time.Duration(cfg.Feed.TimeoutSeconds)*time.Second,
		cfg.Feed.MaxRetries,
		logger,
	)
	s.weather = weather.NewClient(&cfg, fetcher, s.sim, logger)
	s.obs = earthobs.NewClient(os.Getenv("NASA_API_KEY"), "", fetcher, logger)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Warn("data directory not writable, running without stores",
			zap.String("dir", cfg.DataDir), zap.Error(err))
	} else {
		s.openStores()
	}

	sessions := assistant.NewSessionStore(0, 0)
	s.assistant = assistant.New(s.weather, s.obs, sessions, buildResponder(cfg, fetcher), logger)

	if cfg.Refresh.Enabled && s.history != nil {
		s.refresher = newRefresher(cfg.Refresh.Schedule, s.weather, s.history, sessions, logger)
	}

	s.setupRoutes()
	return s, nil
}

// openStores opens the SQLite stores and seeds them on first run
func (s *Server) openStores() {
	historyStore, err := history.NewStore(filepath.Join(s.cfg.DataDir, "history.db"), s.logger)
	if err != nil {
		s.logger.Warn("history store not available", zap.Error(err))
	} else {
		s.history = historyStore
		if err := historyStore.Backfill(s.sim, backfillDays); err != nil {
			s.logger.Warn("history backfill failed", zap.Error(err))
		}
	}

	reportStore, err := reports.NewStore(filepath.Join(s.cfg.DataDir, "reports.db"), s.logger)
	if err != nil {
		s.logger.Warn("report store not available", zap.Error(err))
	} else {
		s.reports = reportStore
		if err := reportStore.SeedSamples(); err != nil {
			s.logger.Warn("report samples not seeded", zap.Error(err))
		}
	}
}

// buildResponder selects the assistant provider from configuration.
// Returns nil for the canned provider, which needs no API access.
func buildResponder(cfg config.Config, fetcher *fetch.Client) assistant.Responder {
	a := cfg.Assistant
	switch a.Provider {
	case "gemini":
		return assistant.NewGeminiResponder(a.GeminiAPIKey, a.GeminiModel, a.GeminiProModel, a.MaxOutputTokens, fetcher)
	case "openai":
		return assistant.NewOpenAIResponder(a.OpenAIAPIKey, a.OpenAIModel, a.MaxOutputTokens)
	default:
		return nil
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// API routes
	apiRouter := s.router.PathPrefix("/api").Subrouter()
	apiHandler := api.NewHandler(s.cfg, s.weather, s.obs, s.sim, s.history, s.reports, s.assistant, s.logger)
	apiHandler.RegisterRoutes(apiRouter)

	// Static frontend files (embedded)
	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		s.logger.Warn("embedded static files not available", zap.Error(err))
		return
	}

	// SPA fallback: serve index.html for any non-API route
	fileServer := http.FileServer(http.FS(staticContent))
	s.router.PathPrefix("/").Handler(spaHandler{staticContent: staticContent, fileServer: fileServer})
}

// Start begins listening for HTTP connections
func (s *Server) Start() error {
	if s.refresher != nil {
		s.refresher.Start()
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("server listening",
		zap.String("url", fmt.Sprintf("http://localhost:%d", s.cfg.Port)))
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.refresher != nil {
		s.refresher.Stop()
	}
	if s.history != nil {
		s.history.Close()
	}
	if s.reports != nil {
		s.reports.Close()
	}

	return s.httpServer.Shutdown(ctx)
}

// spaHandler serves the SPA, falling back to index.html for client-side routing
type spaHandler struct {
	staticContent fs.FS
	fileServer    http.Handler
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/" {
		path = "index.html"
	}

	// fs.FS paths must not have a leading slash
	cleanPath := strings.TrimPrefix(path, "/")

	_, err := fs.Stat(h.staticContent, cleanPath)
	if err != nil {
		// File not found, serve index.html for SPA routing
		r.URL.Path = "/"
	}

	h.fileServer.ServeHTTP(w, r)
}
