package store

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/jdeng/goheif"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/happyleetw/obsidian-photos-bridge-app/internal/models"
)

// FileStore is a MediaStore backed by a directory tree of media files.
// Metadata extracted during scans is cached in SQLite so unchanged
// files are not re-read on subsequent scans.
type FileStore struct {
	root  string
	cache *MetadataCache

	mu      sync.RWMutex
	entries map[string]fileEntry // asset ID -> backing file

	nextRequestID atomic.Int64
	requestsMu    sync.Mutex
	requests      map[RequestID]context.CancelFunc
}

type fileEntry struct {
	path  string
	asset models.Asset
}

// NewFileStore creates a FileStore rooted at the given directory.
// The cache may be nil, in which case every scan reads metadata from
// the files themselves.
func NewFileStore(root string, cache *MetadataCache) (*FileStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("media library path cannot be empty")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("media library path not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("media library path is not a directory: %s", absRoot)
	}

	return &FileStore{
		root:     absRoot,
		cache:    cache,
		entries:  make(map[string]fileEntry),
		requests: make(map[RequestID]context.CancelFunc),
	}, nil
}

// Assets scans the library directory and returns all non-hidden assets,
// newest creation first.
func (s *FileStore) Assets(ctx context.Context) ([]models.Asset, error) {
	assets, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	visible := make([]models.Asset, 0, len(assets))
	for _, a := range assets {
		if !a.IsHidden {
			visible = append(visible, a)
		}
	}
	return visible, nil
}

// AssetsBetween returns non-hidden assets created in [start, end),
// newest first, from a fresh scan.
func (s *FileStore) AssetsBetween(ctx context.Context, start, end time.Time) ([]models.Asset, error) {
	assets, err := s.Assets(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]models.Asset, 0)
	for _, a := range assets {
		if a.CreatedDate == nil {
			continue
		}
		created := *a.CreatedDate
		if !created.Before(start) && created.Before(end) {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

func (s *FileStore) scan(ctx context.Context) ([]models.Asset, error) {
	var assets []models.Asset
	entries := make(map[string]fileEntry)

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			// Directories named like dotfiles (.thumbs etc.) hold derived
			// data, not library content.
			if d.Name() != "." && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		mediaType := classifyExtension(filepath.Ext(path))
		if mediaType == models.MediaTypeUnknown {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		asset := s.assetForFile(path, info, mediaType)
		assets = append(assets, asset)
		entries[asset.ID] = fileEntry{path: path, asset: asset}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("library scan failed: %w", err)
	}

	sort.SliceStable(assets, func(i, j int) bool {
		return creationOrZero(assets[i]).After(creationOrZero(assets[j]))
	})

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	return assets, nil
}

func creationOrZero(a models.Asset) time.Time {
	if a.CreatedDate != nil {
		return *a.CreatedDate
	}
	return time.Time{}
}

// assetForFile builds the asset snapshot for one file, consulting the
// metadata cache first. Cache keys include mtime and size so edited
// files are re-read.
func (s *FileStore) assetForFile(path string, info fs.FileInfo, mediaType models.MediaType) models.Asset {
	if s.cache != nil {
		if cached, ok := s.cache.Get(path, info.ModTime().Unix(), info.Size()); ok {
			return cached
		}
	}

	asset := s.readMetadata(path, info, mediaType)

	if s.cache != nil {
		// A failed cache write only costs a re-read next scan.
		_ = s.cache.Put(path, info.ModTime().Unix(), info.Size(), asset)
	}
	return asset
}

func (s *FileStore) readMetadata(path string, info fs.FileInfo, mediaType models.MediaType) models.Asset {
	name := filepath.Base(path)
	modified := info.ModTime().UTC()
	created := modified

	asset := models.Asset{
		ID:           uuid.New().String(),
		Filename:     name,
		MediaType:    mediaType,
		MediaSubtype: detectSubtype(name),
		IsHidden:     strings.HasPrefix(name, "."),
	}

	if mediaType == models.MediaTypeImage {
		if data, err := os.ReadFile(path); err == nil {
			if w, h, ok := decodeDimensions(path, data); ok {
				asset.Width = w
				asset.Height = h
			}
			if x, err := exif.Decode(bytes.NewReader(data)); err == nil {
				if taken, err := x.DateTime(); err == nil {
					created = taken.UTC()
				}
				if lat, long, err := x.LatLong(); err == nil {
					asset.Location = &models.Location{Latitude: lat, Longitude: long}
				}
			}
		}
	}

	asset.CreatedDate = &created
	asset.ModifiedDate = &modified
	return asset
}

func decodeDimensions(path string, data []byte) (int, int, bool) {
	if isHEIC(path) {
		img, err := goheif.Decode(bytes.NewReader(data))
		if err != nil {
			return 0, 0, false
		}
		b := img.Bounds()
		return b.Dx(), b.Dy(), true
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

func detectSubtype(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.Contains(lower, "screenshot"), strings.Contains(lower, "screen shot"):
		return models.SubtypeScreenshot
	case strings.Contains(lower, "pano"):
		return models.SubtypePanorama
	case strings.Contains(lower, "timelapse"):
		return models.SubtypeTimelapse
	default:
		return ""
	}
}

// RequestImage starts an asynchronous fetch on a store goroutine and
// returns immediately. Opportunistic requests deliver a fast degraded
// preview before the final result.
func (s *FileStore) RequestImage(req ImageRequest, fn ImageCallback) RequestID {
	id := RequestID(s.nextRequestID.Add(1))
	ctx, cancel := context.WithCancel(context.Background())

	s.requestsMu.Lock()
	s.requests[id] = cancel
	s.requestsMu.Unlock()

	go func() {
		defer func() {
			s.requestsMu.Lock()
			delete(s.requests, id)
			s.requestsMu.Unlock()
			cancel()
		}()
		s.serveImageRequest(ctx, req, fn)
	}()

	return id
}

// CancelImageRequest cancels the request if it is still in flight.
func (s *FileStore) CancelImageRequest(id RequestID) {
	s.requestsMu.Lock()
	cancel, ok := s.requests[id]
	s.requestsMu.Unlock()
	if ok {
		cancel()
	}
}

func (s *FileStore) serveImageRequest(ctx context.Context, req ImageRequest, fn ImageCallback) {
	entry, ok := s.lookupEntry(req.AssetID)
	if !ok {
		fn(nil, ImageResultInfo{Err: models.ErrAssetNotFound})
		return
	}
	if entry.asset.MediaType != models.MediaTypeImage {
		fn(nil, ImageResultInfo{Err: models.ErrUnsupportedMedia})
		return
	}

	data, err := os.ReadFile(entry.path)
	if err != nil {
		fn(nil, ImageResultInfo{Err: err})
		return
	}
	if cancelled(ctx) {
		fn(nil, ImageResultInfo{Cancelled: true})
		return
	}

	img, err := decodeImage(entry.path, data)
	if err != nil {
		fn(nil, ImageResultInfo{Err: err})
		return
	}

	if req.Mode == DeliveryOpportunistic {
		// Fast preview first: cheap nearest-neighbor fill at the target
		// size, delivered as degraded.
		preview := imaging.Fill(img, req.Size.Width, req.Size.Height, imaging.Center, imaging.NearestNeighbor)
		fn(preview, ImageResultInfo{Degraded: true})
	}

	if cancelled(ctx) {
		fn(nil, ImageResultInfo{Cancelled: true})
		return
	}

	final := imaging.Fill(img, req.Size.Width, req.Size.Height, imaging.Center, imaging.Lanczos)
	if cancelled(ctx) {
		fn(nil, ImageResultInfo{Cancelled: true})
		return
	}
	fn(final, ImageResultInfo{})
}

func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// ImageData returns the raw file bytes and a format tag for an image
// asset.
func (s *FileStore) ImageData(ctx context.Context, assetID string) ([]byte, string, error) {
	entry, ok := s.lookupEntry(assetID)
	if !ok {
		return nil, "", models.ErrAssetNotFound
	}

	data, err := os.ReadFile(entry.path)
	if err != nil {
		return nil, "", fmt.Errorf("reading asset file: %w", err)
	}
	return data, FormatTag(entry.path), nil
}

// VideoFile returns the backing file path for a video asset.
func (s *FileStore) VideoFile(ctx context.Context, assetID string) (string, error) {
	entry, ok := s.lookupEntry(assetID)
	if !ok {
		return "", models.ErrAssetNotFound
	}
	if entry.asset.MediaType != models.MediaTypeVideo {
		return "", models.ErrUnsupportedMedia
	}
	return entry.path, nil
}

func (s *FileStore) lookupEntry(assetID string) (fileEntry, bool) {
	s.mu.RLock()
	entry, ok := s.entries[assetID]
	s.mu.RUnlock()
	return entry, ok
}

func decodeImage(path string, data []byte) (image.Image, error) {
	if isHEIC(path) {
		return goheif.Decode(bytes.NewReader(data))
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

func isHEIC(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".heic" || ext == ".heif"
}

// FormatTag derives the store format tag from a file path.
func FormatTag(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	case "":
		return "bin"
	default:
		return ext
	}
}

func classifyExtension(ext string) models.MediaType {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tiff", ".tif", ".heic", ".heif":
		return models.MediaTypeImage
	case ".mov", ".mp4", ".m4v", ".avi", ".3gp":
		return models.MediaTypeVideo
	case ".mp3", ".m4a", ".wav", ".aac", ".flac":
		return models.MediaTypeAudio
	default:
		return models.MediaTypeUnknown
	}
}
