package store

import (
	"context"
	"image"
	"time"

	"github.com/happyleetw/obsidian-photos-bridge-app/internal/models"
)

// RequestID identifies one in-flight image request so it can be
// cancelled from another goroutine.
type RequestID int64

// DeliveryMode selects the fetch strategy for an image request.
type DeliveryMode int

const (
	// DeliveryHighQuality delivers only the final, full-fidelity result.
	// It may take arbitrarily long for assets that must be pulled from
	// remote storage.
	DeliveryHighQuality DeliveryMode = iota

	// DeliveryOpportunistic may deliver a degraded preview first, then a
	// better result. The first delivery is fast.
	DeliveryOpportunistic
)

// ThumbSize is the target pixel size for an image request. Results are
// aspect-filled to exactly this size.
type ThumbSize struct {
	Width  int
	Height int
}

// ImageRequest describes an asynchronous image fetch.
type ImageRequest struct {
	AssetID string
	Size    ThumbSize
	Mode    DeliveryMode
}

// ImageResultInfo accompanies every image callback invocation.
// A Degraded result with a nil Err is not final; the same request will
// deliver again unless it is cancelled.
type ImageResultInfo struct {
	Degraded  bool
	Cancelled bool
	Err       error
}

// ImageCallback receives image request results. It may be invoked more
// than once per request (degraded preview, then final) and always runs
// on a store-owned goroutine.
type ImageCallback func(img image.Image, info ImageResultInfo)

// MediaStore is the read-only capability over the device media library.
// Implementations must be safe for concurrent use; the bridge issues
// parallel fetches without external locking.
type MediaStore interface {
	// Assets enumerates all non-hidden assets, newest creation first.
	Assets(ctx context.Context) ([]models.Asset, error)

	// AssetsBetween enumerates assets with creation time in the
	// half-open range [start, end), newest first. It always queries the
	// underlying library, never a cached snapshot.
	AssetsBetween(ctx context.Context, start, end time.Time) ([]models.Asset, error)

	// RequestImage starts an asynchronous image fetch and returns
	// immediately. The returned id can be passed to CancelImageRequest.
	RequestImage(req ImageRequest, fn ImageCallback) RequestID

	// CancelImageRequest cancels an in-flight request. The callback
	// receives one final invocation with Cancelled set.
	CancelImageRequest(id RequestID)

	// ImageData returns the full-resolution byte payload and a format
	// tag (e.g. "jpeg", "png", "heic") for an image asset.
	ImageData(ctx context.Context, assetID string) ([]byte, string, error)

	// VideoFile returns the path of the backing file for a video asset,
	// for byte-for-byte copy export.
	VideoFile(ctx context.Context, assetID string) (string, error)
}
