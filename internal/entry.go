// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/taskmark/internal/analytics"
	"github.com/starford/taskmark/internal/api"
	"github.com/starford/taskmark/internal/calendar"
	"github.com/starford/taskmark/internal/generator"
	"github.com/starford/taskmark/internal/index"
	"github.com/starford/taskmark/internal/mcpserver"
	"github.com/starford/taskmark/internal/projectservice"
	"github.com/starford/taskmark/internal/sse"
	"github.com/starford/taskmark/internal/storage"
	"github.com/starford/taskmark/internal/timer"
)

// runtime is the opened storage, index and services shared by the HTTP
// server and the MCP server.
type runtime struct {
	cfg       *Config
	logger    *slog.Logger
	store     *storage.FS
	db        *index.DB
	projects  *projectservice.Service
	calendar  *calendar.Service
	analytics *analytics.Service
	timer     *timer.Service
	generator *generator.Client
}

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// open initializes logging, storage and the index, runs the initial sync
// and builds the services. The caller must close rt.db.
func open(app *application) (*runtime, error) {
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_path", cfg.Data.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()),
		slog.Bool("generator_enabled", cfg.Generator.Enabled()))

	// Ensure data directory exists.
	if err := os.MkdirAll(cfg.Data.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Data.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	// Documents edited while the server was down are picked up here.
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	projects := projectservice.NewService(store, db)
	return &runtime{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		db:        db,
		projects:  projects,
		calendar:  calendar.NewService(projects, db),
		analytics: analytics.NewService(projects, db),
		timer: timer.NewService(db, timer.Durations{
			Work:           cfg.Timer.Work,
			Break:          cfg.Timer.Break,
			LongBreak:      cfg.Timer.LongBreak,
			LongBreakEvery: cfg.Timer.LongBreakEvery,
		}),
		generator: generator.NewClient(generator.Config{
			BaseURL:     cfg.Generator.BaseURL,
			APIKey:      cfg.Generator.APIKey,
			Model:       cfg.Generator.Model,
			MaxTokens:   cfg.Generator.MaxTokens,
			Temperature: cfg.Generator.Temperature,
			Timeout:     cfg.Generator.Timeout,
		}),
	}, nil
}

func (rt *runtime) deps() api.Deps {
	return api.Deps{
		Projects:  rt.projects,
		Calendar:  rt.calendar,
		Analytics: rt.analytics,
		Timer:     rt.timer,
		Generator: rt.generator,
		ShareTTL:  rt.cfg.Share.TTL,
	}
}

// handler builds the root chi router.
func (rt *runtime) handler(broker *sse.Broker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		stats, err := rt.db.Stats()
		if err != nil {
			rt.logger.Error("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "counts": stats})
	})

	deps := rt.deps()
	r.Mount("/api", api.NewRouter(deps, rt.cfg.Auth.AuthEnabled(), rt.cfg.Auth.Token, broker))
	r.Mount("/shared", api.NewPublicRouter(deps))
	return r
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := open(app)
	if err != nil {
		return err
	}
	defer rt.db.Close()
	logger := rt.logger
	cfg := rt.cfg

	broker := sse.NewBroker(2*time.Second, 25*time.Second)
	defer broker.Close()

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           rt.handler(broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		if err := index.Watch(gCtx, rt.db, rt.store, cfg.Data.Path, logger, broker.PublishProjectEvent); err != nil {
			logger.Error("watcher failed", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown ends the errgroup once the server has been shut down, which
// also stops the watcher.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdio until stdin closes. Logs go to
// stderr.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	rt, err := open(app)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	rt.logger.Info("MCP server starting on stdio")
	return mcpserver.New(rt.projects, rt.calendar).ServeStdio()
}
