package resolver

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happyleetw/obsidian-photos-bridge-app/internal/models"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/store"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/store/storetest"
)

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func requestModes(f *storetest.Fake) []store.DeliveryMode {
	reqs := f.Requests()
	modes := make([]store.DeliveryMode, len(reqs))
	for i, r := range reqs {
		modes[i] = r.Mode
	}
	return modes
}

func TestThumbnailHighQualitySuccess(t *testing.T) {
	fake := &storetest.Fake{}
	fake.RequestImageFunc = func(req store.ImageRequest, fn store.ImageCallback) store.RequestID {
		go fn(storetest.TestImage(200, 200), store.ImageResultInfo{})
		return fake.NextRequestID()
	}

	r := New(fake, time.Second, DefaultThumbSize, DefaultJPEGQuality)
	data, err := r.Thumbnail(context.Background(), "a1")
	require.NoError(t, err)

	img := decodeJPEG(t, data)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, []store.DeliveryMode{store.DeliveryHighQuality}, requestModes(fake))
	assert.Empty(t, fake.Cancelled())
}

func TestThumbnailDegradedKeepsWaiting(t *testing.T) {
	fake := &storetest.Fake{}
	fake.RequestImageFunc = func(req store.ImageRequest, fn store.ImageCallback) store.RequestID {
		go func() {
			fn(storetest.TestImage(10, 10), store.ImageResultInfo{Degraded: true})
			time.Sleep(50 * time.Millisecond)
			fn(storetest.TestImage(200, 200), store.ImageResultInfo{})
		}()
		return fake.NextRequestID()
	}

	r := New(fake, time.Second, DefaultThumbSize, DefaultJPEGQuality)
	data, err := r.Thumbnail(context.Background(), "a1")
	require.NoError(t, err)

	// The degraded preview must not have been served.
	img := decodeJPEG(t, data)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, []store.DeliveryMode{store.DeliveryHighQuality}, requestModes(fake))
}

func TestThumbnailErrorFallsBackImmediately(t *testing.T) {
	fake := &storetest.Fake{}
	fake.RequestImageFunc = func(req store.ImageRequest, fn store.ImageCallback) store.RequestID {
		switch req.Mode {
		case store.DeliveryHighQuality:
			go fn(nil, store.ImageResultInfo{Err: fmt.Errorf("network unavailable")})
		case store.DeliveryOpportunistic:
			go fn(storetest.TestImage(50, 50), store.ImageResultInfo{Degraded: true})
		}
		return fake.NextRequestID()
	}

	// A generous timeout proves the fallback does not wait it out.
	r := New(fake, time.Hour, DefaultThumbSize, DefaultJPEGQuality)

	start := time.Now()
	data, err := r.Thumbnail(context.Background(), "a1")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, []store.DeliveryMode{store.DeliveryHighQuality, store.DeliveryOpportunistic}, requestModes(fake))
}

func TestThumbnailTimeoutCancelsAndFallsBack(t *testing.T) {
	fake := &storetest.Fake{}
	var highQualityID store.RequestID
	fake.RequestImageFunc = func(req store.ImageRequest, fn store.ImageCallback) store.RequestID {
		id := fake.NextRequestID()
		switch req.Mode {
		case store.DeliveryHighQuality:
			highQualityID = id // never delivers
		case store.DeliveryOpportunistic:
			go fn(storetest.TestImage(50, 50), store.ImageResultInfo{})
		}
		return id
	}

	r := New(fake, 50*time.Millisecond, DefaultThumbSize, DefaultJPEGQuality)
	data, err := r.Thumbnail(context.Background(), "a1")
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	require.Len(t, fake.Cancelled(), 1)
	assert.Equal(t, highQualityID, fake.Cancelled()[0])
	assert.Equal(t, []store.DeliveryMode{store.DeliveryHighQuality, store.DeliveryOpportunistic}, requestModes(fake))
}

func TestThumbnailSingleDeliveryUnderRace(t *testing.T) {
	// The high-quality request errors and then a late success callback
	// fires anyway. Exactly one opportunistic fetch may run and the
	// caller sees exactly one outcome.
	fake := &storetest.Fake{}
	fake.RequestImageFunc = func(req store.ImageRequest, fn store.ImageCallback) store.RequestID {
		switch req.Mode {
		case store.DeliveryHighQuality:
			go func() {
				fn(nil, store.ImageResultInfo{Err: fmt.Errorf("transient")})
				fn(storetest.TestImage(200, 200), store.ImageResultInfo{})
			}()
		case store.DeliveryOpportunistic:
			go fn(storetest.TestImage(50, 50), store.ImageResultInfo{})
		}
		return fake.NextRequestID()
	}

	r := New(fake, time.Second, DefaultThumbSize, DefaultJPEGQuality)
	data, err := r.Thumbnail(context.Background(), "a1")
	require.NoError(t, err)

	img := decodeJPEG(t, data)
	assert.Equal(t, 50, img.Bounds().Dx(), "fallback result expected, not the late success")

	opportunistic := 0
	for _, mode := range requestModes(fake) {
		if mode == store.DeliveryOpportunistic {
			opportunistic++
		}
	}
	assert.Equal(t, 1, opportunistic)
}

func TestThumbnailOpportunisticOutcomes(t *testing.T) {
	t.Run("degraded fallback image is good enough", func(t *testing.T) {
		fake := &storetest.Fake{}
		fake.RequestImageFunc = func(req store.ImageRequest, fn store.ImageCallback) store.RequestID {
			switch req.Mode {
			case store.DeliveryHighQuality:
				go fn(nil, store.ImageResultInfo{Err: fmt.Errorf("boom")})
			case store.DeliveryOpportunistic:
				go fn(storetest.TestImage(20, 20), store.ImageResultInfo{Degraded: true})
			}
			return fake.NextRequestID()
		}

		r := New(fake, time.Second, DefaultThumbSize, DefaultJPEGQuality)
		data, err := r.Thumbnail(context.Background(), "a1")
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	})

	t.Run("definitive fallback failure ends the resolution", func(t *testing.T) {
		fake := &storetest.Fake{}
		fake.RequestImageFunc = func(req store.ImageRequest, fn store.ImageCallback) store.RequestID {
			go fn(nil, store.ImageResultInfo{Err: fmt.Errorf("unreadable")})
			return fake.NextRequestID()
		}

		r := New(fake, time.Second, DefaultThumbSize, DefaultJPEGQuality)
		_, err := r.Thumbnail(context.Background(), "a1")
		assert.ErrorIs(t, err, models.ErrFetchFailed)

		// One high-quality attempt, one fallback, nothing after.
		assert.Equal(t, []store.DeliveryMode{store.DeliveryHighQuality, store.DeliveryOpportunistic}, requestModes(fake))
	})

	t.Run("cancelled fallback reports fetch failure", func(t *testing.T) {
		fake := &storetest.Fake{}
		fake.RequestImageFunc = func(req store.ImageRequest, fn store.ImageCallback) store.RequestID {
			switch req.Mode {
			case store.DeliveryHighQuality:
				go fn(nil, store.ImageResultInfo{Err: fmt.Errorf("boom")})
			case store.DeliveryOpportunistic:
				go fn(nil, store.ImageResultInfo{Cancelled: true})
			}
			return fake.NextRequestID()
		}

		r := New(fake, time.Second, DefaultThumbSize, DefaultJPEGQuality)
		_, err := r.Thumbnail(context.Background(), "a1")
		assert.ErrorIs(t, err, models.ErrFetchFailed)
	})
}

func TestThumbnailContextCancellation(t *testing.T) {
	fake := &storetest.Fake{}
	fake.RequestImageFunc = func(req store.ImageRequest, fn store.ImageCallback) store.RequestID {
		return fake.NextRequestID() // never delivers
	}

	r := New(fake, time.Hour, DefaultThumbSize, DefaultJPEGQuality)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := r.Thumbnail(ctx, "a1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, fake.Cancelled(), 1)
}

func TestOriginal(t *testing.T) {
	t.Run("image yields bytes and content type", func(t *testing.T) {
		fake := &storetest.Fake{}
		fake.ImageDataFunc = func(ctx context.Context, assetID string) ([]byte, string, error) {
			return []byte("full-res"), "png", nil
		}

		r := New(fake, time.Second, DefaultThumbSize, DefaultJPEGQuality)
		data, contentType, err := r.Original(context.Background(), models.Asset{ID: "a1", MediaType: models.MediaTypeImage})
		require.NoError(t, err)
		assert.Equal(t, []byte("full-res"), data)
		assert.Equal(t, "image/png", contentType)
	})

	t.Run("video is unsupported by design", func(t *testing.T) {
		r := New(&storetest.Fake{}, time.Second, DefaultThumbSize, DefaultJPEGQuality)

		_, _, err := r.Original(context.Background(), models.Asset{ID: "v1", MediaType: models.MediaTypeVideo})
		assert.ErrorIs(t, err, models.ErrUnsupportedMedia)
	})

	t.Run("store failure maps to fetch failure", func(t *testing.T) {
		fake := &storetest.Fake{}
		fake.ImageDataFunc = func(ctx context.Context, assetID string) ([]byte, string, error) {
			return nil, "", fmt.Errorf("disk error")
		}

		r := New(fake, time.Second, DefaultThumbSize, DefaultJPEGQuality)
		_, _, err := r.Original(context.Background(), models.Asset{ID: "a1", MediaType: models.MediaTypeImage})
		assert.ErrorIs(t, err, models.ErrFetchFailed)
	})
}

func TestMIMEType(t *testing.T) {
	assert.Equal(t, "image/jpeg", MIMEType("jpeg"))
	assert.Equal(t, "image/png", MIMEType("png"))
	assert.Equal(t, "image/heic", MIMEType("heic"))
	assert.Equal(t, "video/quicktime", MIMEType("mov"))
	assert.Equal(t, "application/octet-stream", MIMEType("weird"))
	assert.Equal(t, "application/octet-stream", MIMEType(""))
}
