package handlers

import (
	"net/http"
	"strconv"

	"github.com/happyleetw/obsidian-photos-bridge-app/internal/library"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/models"
)

// PhotoHandler handles the listing endpoints
type PhotoHandler struct {
	index *library.Index
}

// NewPhotoHandler creates a new PhotoHandler
func NewPhotoHandler(index *library.Index) *PhotoHandler {
	return &PhotoHandler{index: index}
}

// List returns one page of the library, newest first. Query
// parameters: page, pageSize, mediaType, refresh. Malformed numbers
// fall back to defaults instead of erroring.
func (h *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagingParams(r)
	kind := models.ParseMediaType(r.URL.Query().Get("mediaType"))
	refresh := boolParam(r, "refresh")

	respondJSON(w, http.StatusOK, h.index.List(page, pageSize, kind, refresh))
}

// Search filters the library by filename or creation date substring.
// A non-empty q is required.
func (h *PhotoHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "Missing search query parameter 'q'")
		return
	}

	page, pageSize := pagingParams(r)
	respondJSON(w, http.StatusOK, h.index.Search(query, page, pageSize))
}

// ByDate returns assets created on one local-calendar day. The date
// parameter uses the YYYY/MM/DD form and is required.
func (h *PhotoHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	dateString := r.URL.Query().Get("date")
	if dateString == "" {
		respondError(w, http.StatusBadRequest, "Missing date parameter")
		return
	}

	page, pageSize := pagingParams(r)
	result, err := h.index.ByDate(r.Context(), dateString, page, pageSize)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to query assets by date")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// pagingParams parses page and pageSize permissively: non-numeric or
// missing values fall back to the defaults, and the index clamps the
// final values.
func pagingParams(r *http.Request) (int, int) {
	page := 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page = v
	}

	pageSize := library.DefaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("pageSize")); err == nil {
		pageSize = v
	}

	return page, pageSize
}

func boolParam(r *http.Request, name string) bool {
	v := r.URL.Query().Get(name)
	return v == "true" || v == "1"
}
