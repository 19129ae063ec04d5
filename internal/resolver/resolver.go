// Package resolver turns asset identifiers into byte payloads. The
// thumbnail path implements a tiered quality negotiation: a
// high-quality fetch races a hard timeout, and on failure or timeout a
// single lower-fidelity opportunistic fetch decides the outcome.
package resolver

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/happyleetw/obsidian-photos-bridge-app/internal/models"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/observability"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/store"
)

const (
	// DefaultTimeout bounds how long a high-quality fetch may run
	// before the opportunistic fallback takes over.
	DefaultTimeout = 8 * time.Second

	// DefaultJPEGQuality is the output quality for served thumbnails.
	DefaultJPEGQuality = 80
)

// DefaultThumbSize is the fixed, aspect-filled thumbnail size.
var DefaultThumbSize = store.ThumbSize{Width: 200, Height: 200}

// Resolver converts resolution requests into bytes by driving the
// store's asynchronous image API from a synchronous call boundary.
type Resolver struct {
	store       store.MediaStore
	timeout     time.Duration
	thumbSize   store.ThumbSize
	jpegQuality int
}

// New creates a Resolver. Non-positive timeout and quality fall back
// to the defaults; a zero size falls back to DefaultThumbSize.
func New(st store.MediaStore, timeout time.Duration, size store.ThumbSize, jpegQuality int) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if size.Width <= 0 || size.Height <= 0 {
		size = DefaultThumbSize
	}
	if jpegQuality <= 0 {
		jpegQuality = DefaultJPEGQuality
	}
	return &Resolver{store: st, timeout: timeout, thumbSize: size, jpegQuality: jpegQuality}
}

// imageEvent bridges store callbacks onto the resolving goroutine.
type imageEvent struct {
	img  image.Image
	info store.ImageResultInfo
}

// Thumbnail resolves a JPEG thumbnail for the asset.
//
// The high-quality request and the timeout are armed together and the
// first decisive event wins: a non-degraded success completes the
// call; an error or cancellation falls back immediately; the timeout
// cancels the in-flight request and falls back. Degraded previews from
// the high-quality request are not decisive and keep the race alive.
// The select loop is the single delivery point, so exactly one outcome
// reaches the caller no matter how callbacks and the timer interleave.
func (r *Resolver) Thumbnail(ctx context.Context, assetID string) ([]byte, error) {
	events := make(chan imageEvent, 8)
	reqID := r.store.RequestImage(store.ImageRequest{
		AssetID: assetID,
		Size:    r.thumbSize,
		Mode:    store.DeliveryHighQuality,
	}, func(img image.Image, info store.ImageResultInfo) {
		select {
		case events <- imageEvent{img, info}:
		default:
		}
	})

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	for {
		select {
		case ev := <-events:
			switch {
			case ev.info.Err != nil || ev.info.Cancelled:
				observability.Warnf("High quality thumbnail failed for asset %s, trying opportunistic mode", assetID)
				return r.opportunistic(ctx, assetID)
			case ev.img != nil && !ev.info.Degraded:
				return r.encodeJPEG(ev.img)
			}
			// Degraded but not final: wait for a better delivery or
			// the timeout.
		case <-timer.C:
			observability.Warnf("High quality thumbnail request timed out for asset %s, trying opportunistic mode", assetID)
			r.store.CancelImageRequest(reqID)
			return r.opportunistic(ctx, assetID)
		case <-ctx.Done():
			r.store.CancelImageRequest(reqID)
			return nil, ctx.Err()
		}
	}
}

// opportunistic issues the single fallback fetch and returns whatever
// it yields first: any delivered image (degraded included) succeeds,
// any terminal failure ends the resolution. There is no further
// fallback behind it.
func (r *Resolver) opportunistic(ctx context.Context, assetID string) ([]byte, error) {
	events := make(chan imageEvent, 8)
	reqID := r.store.RequestImage(store.ImageRequest{
		AssetID: assetID,
		Size:    r.thumbSize,
		Mode:    store.DeliveryOpportunistic,
	}, func(img image.Image, info store.ImageResultInfo) {
		select {
		case events <- imageEvent{img, info}:
		default:
		}
	})

	for {
		select {
		case ev := <-events:
			if ev.img != nil {
				return r.encodeJPEG(ev.img)
			}
			if ev.info.Err != nil {
				return nil, fmt.Errorf("%w: %v", models.ErrFetchFailed, ev.info.Err)
			}
			if ev.info.Cancelled {
				return nil, models.ErrFetchFailed
			}
		case <-ctx.Done():
			r.store.CancelImageRequest(reqID)
			return nil, ctx.Err()
		}
	}
}

// Original resolves the full-resolution payload and content type for
// an image asset. Videos are never served as original bytes; they are
// exported by copy instead.
func (r *Resolver) Original(ctx context.Context, asset models.Asset) ([]byte, string, error) {
	if asset.IsVideo() {
		return nil, "", models.ErrUnsupportedMedia
	}

	data, formatTag, err := r.store.ImageData(ctx, asset.ID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", models.ErrFetchFailed, err)
	}
	return data, MIMEType(formatTag), nil
}

func (r *Resolver) encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.jpegQuality}); err != nil {
		return nil, fmt.Errorf("%w: encoding thumbnail: %v", models.ErrFetchFailed, err)
	}
	return buf.Bytes(), nil
}

// MIMEType maps a store format tag to a Content-Type. Unknown tags
// fall back to a generic binary type.
func MIMEType(formatTag string) string {
	switch formatTag {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "tiff":
		return "image/tiff"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	case "heif":
		return "image/heif"
	case "heic":
		return "image/heic"
	case "mov":
		return "video/quicktime"
	case "mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}
