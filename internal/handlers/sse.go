package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/services"
	"olist-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewSSEHandlers(dashboard *services.Dashboard, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

// HandlePage streams one page: the rendered content replaces #page-content
// and the effective filter is sent back as signals.
func (h *SSEHandlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	// Lookup and input errors are answered before the stream is opened so
	// they keep their HTTP status.
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

	sse := datastar.NewSSE(w, r)

	data, err := h.dashboard.BuildPage(r.Context(), page, filter)
	if err != nil {
		h.logger.Warn("build page", "page", page, "error", err, "request_id", requestID)
		h.patchError(r.Context(), sse, page, err)
		return
	}

	html, err := templates.RenderString(r.Context(), templates.Page(data))
	if err != nil {
		h.logger.Error("render page", "page", page, "error", err, "request_id", requestID)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Error("patch page", "page", page, "error", err, "request_id", requestID)
		return
	}

	signals, err := json.Marshal(templates.SignalsFor(data))
	if err != nil {
		h.logger.Error("marshal signals", "error", err, "request_id", requestID)
		return
	}
	if err := sse.PatchSignals(signals); err != nil {
		h.logger.Error("patch signals", "error", err, "request_id", requestID)
	}
}

func (h *SSEHandlers) patchError(ctx context.Context, sse *datastar.ServerSentEventGenerator, page services.Page, err error) {
	message := "The page could not be computed."
	if errors.CodeOf(err) == errors.CodeEmptyAggregation {
		message = "No orders in the selected period."
	}

	html, renderErr := templates.RenderString(ctx, templates.ErrorPanel(page.Title(), message))
	if renderErr != nil {
		h.logger.Error("render error panel", "error", renderErr)
		return
	}
	if patchErr := sse.PatchElements(html); patchErr != nil {
		h.logger.Error("patch error panel", "error", patchErr)
	}
}
