// Package storetest provides a scriptable MediaStore for tests.
package storetest

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/happyleetw/obsidian-photos-bridge-app/internal/models"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/store"
)

// Fake implements store.MediaStore with per-method hooks. Unset hooks
// fall back to serving the configured Library slice.
type Fake struct {
	Library []models.Asset

	AssetsFunc        func(ctx context.Context) ([]models.Asset, error)
	AssetsBetweenFunc func(ctx context.Context, start, end time.Time) ([]models.Asset, error)
	RequestImageFunc  func(req store.ImageRequest, fn store.ImageCallback) store.RequestID
	ImageDataFunc     func(ctx context.Context, assetID string) ([]byte, string, error)
	VideoFileFunc     func(ctx context.Context, assetID string) (string, error)

	nextID       atomic.Int64
	mu           sync.Mutex
	assetsCalls  int
	requests     []store.ImageRequest
	cancelledIDs []store.RequestID
}

var _ store.MediaStore = (*Fake)(nil)

func (f *Fake) Assets(ctx context.Context) ([]models.Asset, error) {
	f.mu.Lock()
	f.assetsCalls++
	f.mu.Unlock()

	if f.AssetsFunc != nil {
		return f.AssetsFunc(ctx)
	}
	return append([]models.Asset(nil), f.Library...), nil
}

func (f *Fake) AssetsBetween(ctx context.Context, start, end time.Time) ([]models.Asset, error) {
	if f.AssetsBetweenFunc != nil {
		return f.AssetsBetweenFunc(ctx, start, end)
	}

	var matched []models.Asset
	for _, a := range f.Library {
		if a.CreatedDate == nil {
			continue
		}
		if !a.CreatedDate.Before(start) && a.CreatedDate.Before(end) {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

func (f *Fake) RequestImage(req store.ImageRequest, fn store.ImageCallback) store.RequestID {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.RequestImageFunc != nil {
		return f.RequestImageFunc(req, fn)
	}

	id := store.RequestID(f.nextID.Add(1))
	go fn(TestImage(8, 8), store.ImageResultInfo{})
	return id
}

func (f *Fake) CancelImageRequest(id store.RequestID) {
	f.mu.Lock()
	f.cancelledIDs = append(f.cancelledIDs, id)
	f.mu.Unlock()
}

func (f *Fake) ImageData(ctx context.Context, assetID string) ([]byte, string, error) {
	if f.ImageDataFunc != nil {
		return f.ImageDataFunc(ctx, assetID)
	}
	return []byte("image-bytes-" + assetID), "jpeg", nil
}

func (f *Fake) VideoFile(ctx context.Context, assetID string) (string, error) {
	if f.VideoFileFunc != nil {
		return f.VideoFileFunc(ctx, assetID)
	}
	return "", models.ErrAssetNotFound
}

// NextRequestID hands out request ids for custom RequestImageFunc hooks.
func (f *Fake) NextRequestID() store.RequestID {
	return store.RequestID(f.nextID.Add(1))
}

// AssetsCalls reports how many times Assets ran.
func (f *Fake) AssetsCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assetsCalls
}

// Requests returns every image request issued so far.
func (f *Fake) Requests() []store.ImageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.ImageRequest(nil), f.requests...)
}

// Cancelled returns the ids passed to CancelImageRequest.
func (f *Fake) Cancelled() []store.RequestID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.RequestID(nil), f.cancelledIDs...)
}

// TestImage returns a plain RGBA image of the given size.
func TestImage(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}
