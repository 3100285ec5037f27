// convoscore - conversation quality scoring server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/ashureev/convoscore/internal/analysis"
	"github.com/ashureev/convoscore/internal/api"
	"github.com/ashureev/convoscore/internal/config"
	"github.com/ashureev/convoscore/internal/lexicon"
	"github.com/ashureev/convoscore/internal/metrics"
	"github.com/ashureev/convoscore/internal/middleware"
	"github.com/ashureev/convoscore/internal/scoring"
	"github.com/ashureev/convoscore/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting server", "port", cfg.Port, "db_driver", cfg.DBDriver)

	// Initialize dependencies.
	repo, err := store.Open(cfg.DBDriver, cfg.DBPath, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	lex := lexicon.Default()
	if cfg.LexiconPath != "" {
		if lex, err = lexicon.Load(cfg.LexiconPath); err != nil {
			slog.Error("Failed to load lexicon", "error", err, "path", cfg.LexiconPath)
			os.Exit(1)
		}
		slog.Info("Lexicon loaded", "path", cfg.LexiconPath)
	}

	svc := analysis.NewService(repo, scoring.NewEngine(lex), cfg.SweepWorkers)

	// Initialize handlers.
	apiHandler := api.NewHandler(repo, svc)
	healthHandler := api.NewHealthHandler(repo)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	if cfg.MetricsEnabled {
		metrics.Init()
		r.Use(middleware.Metrics)
		r.Handle("/metrics", metrics.Handler())
	}

	healthHandler.RegisterHealth(r)
	apiHandler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second, // POST /api/sweep runs synchronously
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start sweep worker.
	if cfg.SweepEnabled() {
		analysis.StartSweepWorker(ctx, svc, cfg.SweepInterval)
	} else {
		slog.Info("Sweep worker disabled (SWEEP_INTERVAL=0)")
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
