package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/services"
)

const cacheControl = "public, max-age=300"

type APIHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewAPIHandlers(dashboard *services.Dashboard, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

type pageInfo struct {
	Slug         string                 `json:"slug"`
	Title        string                 `json:"title"`
	Aggregations []services.Aggregation `json:"aggregations"`
}

func (h *APIHandlers) HandlePages(w http.ResponseWriter, r *http.Request) {
	pages := services.Pages()
	data := make([]pageInfo, len(pages))
	for i, p := range pages {
		data[i] = pageInfo{
			Slug:         string(p),
			Title:        p.Title(),
			Aggregations: p.Aggregations(),
		}
	}

	errors.WriteSuccessWithHeaders(w, data, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	page, err := services.ParsePage(r.PathValue("page"))
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}
	filter, err := ParseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	data, err := h.dashboard.BuildPage(r.Context(), page, filter)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	errors.WriteSuccessWithHeaders(w, data, map[string]string{
		"Cache-Control": cacheControl,
	})
}

type aggregationResponse struct {
	services.Result
	Filter services.Filter `json:"filter"`
}

func (h *APIHandlers) HandleAggregation(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	agg, err := services.ParseAggregation(r.PathValue("name"))
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}
	filter, err := ParseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	result, effective, err := h.dashboard.Aggregate(r.Context(), agg, filter)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	errors.WriteSuccessWithHeaders(w, aggregationResponse{Result: result, Filter: effective}, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
		"records":   len(h.dashboard.Records()),
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.dashboard.Stats())
}
