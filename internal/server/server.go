package server

import (
	"log/slog"
	"net/http"

	"olist-dashboard/internal/config"
	"olist-dashboard/internal/handlers"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/services"
)

type Server struct {
	dashboard   *services.Dashboard
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(dashboard *services.Dashboard, logger *slog.Logger, templateHandlers *TemplateHandlers, metrics config.MetricsConfig) *Server {
	s := &Server{
		dashboard:   dashboard,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(dashboard, logger),
		sseHandlers: handlers.NewSSEHandlers(dashboard, logger),
	}
	s.setupRoutes(templateHandlers, metrics)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers, metrics config.MetricsConfig) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/pages", s.apiHandlers.HandlePages)
	s.mux.HandleFunc("GET /api/pages/{page}", s.apiHandlers.HandlePage)
	s.mux.HandleFunc("GET /api/aggregations/{name}", s.apiHandlers.HandleAggregation)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/pages/{page}", s.sseHandlers.HandlePage)

	if metrics.Enabled {
		s.mux.Handle("GET "+metrics.Path, observability.MetricsHandler())
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
