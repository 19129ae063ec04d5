package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/happyleetw/obsidian-photos-bridge-app/internal/library"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/models"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/observability"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/resolver"
)

// AssetHandler serves thumbnail and original-asset bytes
type AssetHandler struct {
	index    *library.Index
	resolver *resolver.Resolver
	metrics  *observability.BridgeMetrics
}

// NewAssetHandler creates a new AssetHandler
func NewAssetHandler(index *library.Index, res *resolver.Resolver, metrics *observability.BridgeMetrics) *AssetHandler {
	return &AssetHandler{index: index, resolver: res, metrics: metrics}
}

// Thumbnail resolves and serves a JPEG thumbnail for the asset.
func (h *AssetHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	asset := h.index.Lookup(id)
	if asset == nil {
		respondError(w, http.StatusNotFound, "Asset not found")
		return
	}

	ctx, span := observability.StartServiceSpan(r.Context(), "resolver", "thumbnail")
	span.SetAttributes(observability.AssetID(id))
	defer span.End()

	start := time.Now()
	data, err := h.resolver.Thumbnail(ctx, id)
	h.metrics.RecordThumbnail(ctx, time.Since(start), err == nil)

	if err != nil {
		observability.RecordError(span, err)
		if errors.Is(err, context.Canceled) {
			// Client went away; nothing useful to write.
			return
		}
		respondError(w, http.StatusInternalServerError, models.ErrFetchFailed.Error())
		return
	}
	observability.SetSuccess(span)

	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(data)
}

// Original serves the full-resolution bytes for an image asset. Videos
// report an unsupported-media failure; they are only exported by copy.
func (h *AssetHandler) Original(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	asset := h.index.Lookup(id)
	if asset == nil {
		respondError(w, http.StatusNotFound, "Asset not found")
		return
	}

	ctx, span := observability.StartServiceSpan(r.Context(), "resolver", "original")
	span.SetAttributes(observability.AssetID(id), observability.MediaKind(string(asset.MediaType)))
	defer span.End()

	data, contentType, err := h.resolver.Original(ctx, *asset)
	if err != nil {
		observability.RecordError(span, err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	observability.SetSuccess(span)

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}
