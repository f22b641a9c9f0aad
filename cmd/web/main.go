package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"olist-dashboard/internal/config"
	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/handlers"
	"olist-dashboard/internal/middleware"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/server"
	"olist-dashboard/internal/services"
	"olist-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	cacheMaxAge   = "public, max-age=300"
)

// dashboardHandler renders the full document for the page and filter in the
// query string. Pages that cannot be computed still render the shell.
func dashboardHandler(dashboard *services.Dashboard, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		requestID := observability.GetRequestID(r.Context())

		page, err := services.ParsePage(r.URL.Query().Get("page"))
		if err != nil {
			errors.WriteError(w, logger, err, requestID)
			return
		}
		filter, err := handlers.ParseFilter(r)
		if err != nil {
			errors.WriteError(w, logger, err, requestID)
			return
		}

		first, last := dashboard.Bounds()
		shell := templates.Shell{
			Pages:   services.Pages(),
			MinDate: first,
			MaxDate: last,
		}

		data, err := dashboard.BuildPage(ctx, page, filter)
		if err != nil {
			shell.Current = services.PageData{Page: page, Title: page.Title(), Filter: dashboard.Resolve(filter)}
			shell.Error = "The page could not be computed."
			if errors.CodeOf(err) == errors.CodeEmptyAggregation {
				shell.Error = "No orders in the selected period."
			}
		} else {
			shell.Current = data
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := templates.Dashboard(shell).Render(ctx, w); err != nil {
			logger.Error("render dashboard", "error", err, "request_id", requestID)
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Dataset.LoadTimeout)
	defer cancel()

	start := time.Now()
	dashboard, err := services.Load(ctx, cfg.Dataset.Path,
		dataset.Options{
			Table:         cfg.Dataset.Table,
			SkipMalformed: cfg.Dataset.SkipMalformed,
			CacheDir:      cfg.Dataset.CacheDir,
			Logger:        logger,
		},
		services.Options{
			TopN:   cfg.Dashboard.TopN,
			Logger: logger,
		})
	if err != nil {
		logger.Error("failed to load dataset", "path", cfg.Dataset.Path, "error", err)
		os.Exit(1)
	}
	logger.Info("dataset loaded successfully",
		"records", len(dashboard.Records()),
		"duration", time.Since(start))

	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(dashboard, logger),
	}

	srv := server.NewServer(dashboard, logger, templateHandlers, cfg.Metrics)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)
	unthrottled := []string{"/health"}
	if cfg.Metrics.Enabled {
		unthrottled = append(unthrottled, cfg.Metrics.Path)
	}

	chain := []middleware.Middleware{
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger, unthrottled...),
	}
	if cfg.Metrics.Enabled {
		chain = append(chain, middleware.Metrics())
	}

	handler := middleware.Chain(chain...)(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down dashboard service", "stats", dashboard.Stats())
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
