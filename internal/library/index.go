// Package library maintains an in-memory snapshot of the media store's
// enumeration and serves paged, searchable views over it.
package library

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/happyleetw/obsidian-photos-bridge-app/internal/models"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/observability"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/store"
)

const (
	// DefaultStaleness is how old a snapshot may be before a listing
	// call triggers a background reload.
	DefaultStaleness = 5 * time.Minute

	// DefaultPageSize applies when the caller supplies no page size.
	DefaultPageSize = 50

	// MaxPageSize is the hard upper bound on page size.
	MaxPageSize = 200
)

// searchDateFormat is the "medium" style date rendering that queries
// are matched against, e.g. "Mar 15, 2024".
const searchDateFormat = "Jan 2, 2006"

// ReloadListener is notified after each successful snapshot reload.
type ReloadListener func(count int, loadedAt time.Time)

type snapshot struct {
	assets   []models.Asset
	loadedAt time.Time
}

// Index caches an ordered snapshot of the store enumeration. The
// snapshot is replaced wholesale through an atomic pointer, so readers
// never observe a half-replaced state. Reloads run in the background
// and never block an in-flight listing call.
type Index struct {
	store     store.MediaStore
	staleness time.Duration

	snap      atomic.Pointer[snapshot]
	reloading atomic.Bool
	listener  ReloadListener
}

// New creates an Index over the given store. A non-positive staleness
// falls back to DefaultStaleness.
func New(st store.MediaStore, staleness time.Duration) *Index {
	if staleness <= 0 {
		staleness = DefaultStaleness
	}
	return &Index{store: st, staleness: staleness}
}

// OnReload registers the reload listener. Call before the index starts
// serving requests; registration is not synchronized.
func (ix *Index) OnReload(fn ReloadListener) {
	ix.listener = fn
}

// Reload fetches a fresh enumeration and atomically publishes it.
func (ix *Index) Reload(ctx context.Context) error {
	assets, err := ix.store.Assets(ctx)
	if err != nil {
		observability.Errorf("Library reload failed: %v", err)
		return err
	}

	snap := &snapshot{assets: assets, loadedAt: time.Now()}
	ix.snap.Store(snap)
	observability.Infof("Library loaded: %d assets", len(assets))

	if ix.listener != nil {
		ix.listener(len(assets), snap.loadedAt)
	}
	return nil
}

// reloadAsync starts a background reload unless one is already
// running.
func (ix *Index) reloadAsync() {
	if !ix.reloading.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer ix.reloading.Store(false)
		_ = ix.Reload(context.Background())
	}()
}

// List returns one page of the library, newest first.
//
// A reload is triggered when forced, when no snapshot exists yet, or
// when the snapshot is older than the staleness threshold; the call
// itself proceeds against whatever snapshot is currently live (empty
// on first run) and the fresh snapshot becomes visible to later calls.
//
// Paging offsets are computed over the unfiltered snapshot and the
// kind filter is applied inside the selected window, so a filtered
// page may hold fewer than pageSize items even when more matches exist
// beyond the window. The Obsidian plugin depends on this paging
// arithmetic, so it is kept wire-compatible.
func (ix *Index) List(page, pageSize int, kind models.MediaType, forceReload bool) models.PhotoListResponse {
	page, pageSize = normalizePaging(page, pageSize)

	snap := ix.snap.Load()
	if forceReload || snap == nil || time.Since(snap.loadedAt) > ix.staleness {
		ix.reloadAsync()
	}
	if snap == nil {
		return models.EmptyPage(page, pageSize, 0)
	}

	total := len(snap.assets)
	start := (page - 1) * pageSize
	if start >= total {
		return models.EmptyPage(page, pageSize, total)
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	items := make([]models.Asset, 0, end-start)
	for _, a := range snap.assets[start:end] {
		if filterableKind(kind) && a.MediaType != kind {
			continue
		}
		items = append(items, a.WithThumbnailURL())
	}

	return models.PhotoListResponse{
		Photos:   items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  end < total,
	}
}

// Search returns assets whose filename or medium-style creation date
// contains the query, case-insensitively. Unlike List, matches are
// collected first and paging applies to the filtered sequence, so
// total and hasMore reflect the match count.
func (ix *Index) Search(query string, page, pageSize int) models.PhotoListResponse {
	page, pageSize = normalizePaging(page, pageSize)

	snap := ix.snap.Load()
	if snap == nil {
		return models.EmptyPage(page, pageSize, 0)
	}

	q := strings.ToLower(query)
	var matched []models.Asset
	for _, a := range snap.assets {
		if matchesQuery(a, q) {
			matched = append(matched, a)
		}
	}

	return paginate(matched, page, pageSize)
}

func matchesQuery(a models.Asset, lowerQuery string) bool {
	if strings.Contains(strings.ToLower(a.Filename), lowerQuery) {
		return true
	}
	if a.CreatedDate != nil {
		dateString := a.CreatedDate.Local().Format(searchDateFormat)
		if strings.Contains(strings.ToLower(dateString), lowerQuery) {
			return true
		}
	}
	return false
}

// ByDate returns assets created on the given local-calendar day. The
// date string uses the "YYYY/MM/DD" form; anything unparsable yields
// an empty result rather than an error. The day range is queried
// directly against the store, bypassing the cached snapshot.
func (ix *Index) ByDate(ctx context.Context, dateString string, page, pageSize int) (models.PhotoListResponse, error) {
	page, pageSize = normalizePaging(page, pageSize)

	day, err := time.ParseInLocation("2006/01/02", dateString, time.Local)
	if err != nil {
		observability.Warnf("Invalid date query: %q", dateString)
		return models.EmptyPage(page, pageSize, 0), nil
	}

	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local)
	endOfDay := startOfDay.AddDate(0, 0, 1)

	assets, err := ix.store.AssetsBetween(ctx, startOfDay, endOfDay)
	if err != nil {
		return models.PhotoListResponse{}, err
	}

	return paginate(assets, page, pageSize), nil
}

// Lookup finds an asset by identifier in the current snapshot. A nil
// result means the identifier is unknown, which is a normal outcome.
func (ix *Index) Lookup(id string) *models.Asset {
	snap := ix.snap.Load()
	if snap == nil {
		return nil
	}
	for i := range snap.assets {
		if snap.assets[i].ID == id {
			a := snap.assets[i]
			return &a
		}
	}
	return nil
}

// LoadedAt returns the live snapshot's load time, or zero when no
// snapshot exists yet.
func (ix *Index) LoadedAt() time.Time {
	if snap := ix.snap.Load(); snap != nil {
		return snap.loadedAt
	}
	return time.Time{}
}

func paginate(assets []models.Asset, page, pageSize int) models.PhotoListResponse {
	total := len(assets)
	start := (page - 1) * pageSize
	if start >= total {
		return models.EmptyPage(page, pageSize, total)
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	items := make([]models.Asset, 0, end-start)
	for _, a := range assets[start:end] {
		items = append(items, a.WithThumbnailURL())
	}

	return models.PhotoListResponse{
		Photos:   items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  end < total,
	}
}

func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func filterableKind(kind models.MediaType) bool {
	switch kind {
	case models.MediaTypeImage, models.MediaTypeVideo, models.MediaTypeAudio:
		return true
	default:
		return false
	}
}
