package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/happyleetw/obsidian-photos-bridge-app/internal/exporter"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/library"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/models"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/observability"
)

// ExportHandler handles the export endpoint
type ExportHandler struct {
	index    *library.Index
	exporter *exporter.Exporter
	metrics  *observability.BridgeMetrics
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(index *library.Index, ex *exporter.Exporter, metrics *observability.BridgeMetrics) *ExportHandler {
	return &ExportHandler{index: index, exporter: ex, metrics: metrics}
}

// Export writes one asset to a caller-chosen directory. The outcome
// travels in the response body's success flag; only a malformed
// request or an unknown identifier produce an error status.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid export request body")
		return
	}
	if req.Destination == "" {
		respondError(w, http.StatusBadRequest, "Missing export destination")
		return
	}

	asset := h.index.Lookup(id)
	if asset == nil {
		respondError(w, http.StatusNotFound, "Asset not found")
		return
	}

	ctx, span := observability.StartServiceSpan(r.Context(), "exporter", "export")
	span.SetAttributes(observability.AssetID(id), observability.MediaKind(string(asset.MediaType)))
	defer span.End()

	result := h.exporter.Export(ctx, *asset, req.Destination, req.Filename)
	h.metrics.RecordExport(ctx, string(asset.MediaType), result.Success)
	if result.Success {
		observability.SetSuccess(span)
	}

	respondJSON(w, http.StatusOK, result)
}
