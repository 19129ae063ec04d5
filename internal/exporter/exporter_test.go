package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happyleetw/obsidian-photos-bridge-app/internal/models"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/store/storetest"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestExportImage(t *testing.T) {
	t.Run("uses original filename when none supplied", func(t *testing.T) {
		fake := &storetest.Fake{}
		destDir := t.TempDir()

		ex := New(fake)
		res := ex.Export(context.Background(), models.Asset{ID: "a1", Filename: "IMG_0042.jpg", MediaType: models.MediaTypeImage}, destDir, "")

		require.True(t, res.Success, res.Error)
		assert.Equal(t, filepath.Join(destDir, "IMG_0042.jpg"), res.FilePath)
		assert.Equal(t, "IMG_0042.jpg", res.OriginalFilename)

		data, err := os.ReadFile(res.FilePath)
		require.NoError(t, err)
		assert.Equal(t, []byte("image-bytes-a1"), data)
	})

	t.Run("synthesizes kind-prefixed name from creation time", func(t *testing.T) {
		fake := &storetest.Fake{}
		destDir := t.TempDir()
		created := time.Date(2024, 3, 15, 10, 30, 0, 0, time.Local)

		ex := New(fake)
		res := ex.Export(context.Background(), models.Asset{ID: "a1", MediaType: models.MediaTypeImage, CreatedDate: timePtr(created)}, destDir, "")

		require.True(t, res.Success, res.Error)
		assert.Equal(t, filepath.Join(destDir, "IMG_2024-03-15_10-30-00.jpg"), res.FilePath)
	})

	t.Run("appends extension to an explicit filename", func(t *testing.T) {
		fake := &storetest.Fake{}
		destDir := t.TempDir()

		ex := New(fake)
		res := ex.Export(context.Background(), models.Asset{ID: "a1", MediaType: models.MediaTypeImage}, destDir, "vacation-cover")

		require.True(t, res.Success, res.Error)
		assert.Equal(t, filepath.Join(destDir, "vacation-cover.jpg"), res.FilePath)
	})

	t.Run("keeps an explicit filename that already has the extension", func(t *testing.T) {
		fake := &storetest.Fake{}
		destDir := t.TempDir()

		ex := New(fake)
		res := ex.Export(context.Background(), models.Asset{ID: "a1", MediaType: models.MediaTypeImage}, destDir, "cover.JPG")

		require.True(t, res.Success, res.Error)
		assert.Equal(t, filepath.Join(destDir, "cover.JPG"), res.FilePath)
	})

	t.Run("unknown format tag falls back to a binary extension", func(t *testing.T) {
		fake := &storetest.Fake{}
		fake.ImageDataFunc = func(ctx context.Context, assetID string) ([]byte, string, error) {
			return []byte("mystery"), "", nil
		}
		destDir := t.TempDir()
		created := time.Date(2024, 3, 15, 10, 30, 0, 0, time.Local)

		ex := New(fake)
		res := ex.Export(context.Background(), models.Asset{ID: "a1", MediaType: models.MediaTypeUnknown, CreatedDate: timePtr(created)}, destDir, "")

		require.True(t, res.Success, res.Error)
		assert.Equal(t, filepath.Join(destDir, "MEDIA_2024-03-15_10-30-00.bin"), res.FilePath)
	})

	t.Run("store failure is reported not panicked", func(t *testing.T) {
		fake := &storetest.Fake{}
		fake.ImageDataFunc = func(ctx context.Context, assetID string) ([]byte, string, error) {
			return nil, "", fmt.Errorf("asset unreadable")
		}

		ex := New(fake)
		res := ex.Export(context.Background(), models.Asset{ID: "a1", MediaType: models.MediaTypeImage}, t.TempDir(), "")

		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "asset unreadable")
		assert.Empty(t, res.FilePath)
	})
}

func TestExportVideo(t *testing.T) {
	newVideoFake := func(t *testing.T, content string) *storetest.Fake {
		t.Helper()
		srcDir := t.TempDir()
		srcPath := filepath.Join(srcDir, "clip.mov")
		require.NoError(t, os.WriteFile(srcPath, []byte(content), 0o644))

		fake := &storetest.Fake{}
		fake.VideoFileFunc = func(ctx context.Context, assetID string) (string, error) {
			return srcPath, nil
		}
		return fake
	}

	t.Run("copies backing file", func(t *testing.T) {
		fake := newVideoFake(t, "video-bytes")
		destDir := t.TempDir()

		ex := New(fake)
		res := ex.Export(context.Background(), models.Asset{ID: "v1", Filename: "clip.mov", MediaType: models.MediaTypeVideo}, destDir, "")

		require.True(t, res.Success, res.Error)
		data, err := os.ReadFile(filepath.Join(destDir, "clip.mov"))
		require.NoError(t, err)
		assert.Equal(t, []byte("video-bytes"), data)
	})

	t.Run("overwrites an existing destination file", func(t *testing.T) {
		fake := newVideoFake(t, "new")
		destDir := t.TempDir()
		destPath := filepath.Join(destDir, "clip.mov")
		require.NoError(t, os.WriteFile(destPath, []byte("old-and-much-longer-content"), 0o644))

		ex := New(fake)
		res := ex.Export(context.Background(), models.Asset{ID: "v1", Filename: "clip.mov", MediaType: models.MediaTypeVideo}, destDir, "")

		require.True(t, res.Success, res.Error)
		data, err := os.ReadFile(destPath)
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), data, "old bytes must be fully replaced")
	})

	t.Run("synthesized name takes extension from the source file", func(t *testing.T) {
		fake := newVideoFake(t, "video-bytes")
		destDir := t.TempDir()
		created := time.Date(2024, 3, 15, 10, 30, 0, 0, time.Local)

		ex := New(fake)
		res := ex.Export(context.Background(), models.Asset{ID: "v1", MediaType: models.MediaTypeVideo, CreatedDate: timePtr(created)}, destDir, "")

		require.True(t, res.Success, res.Error)
		assert.Equal(t, filepath.Join(destDir, "VID_2024-03-15_10-30-00.mov"), res.FilePath)
	})

	t.Run("missing backing file is reported", func(t *testing.T) {
		fake := &storetest.Fake{}

		ex := New(fake)
		res := ex.Export(context.Background(), models.Asset{ID: "v1", MediaType: models.MediaTypeVideo}, t.TempDir(), "")

		assert.False(t, res.Success)
		assert.NotEmpty(t, res.Error)
	})
}

func TestExportBadDestination(t *testing.T) {
	fake := &storetest.Fake{}
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	ex := New(fake)
	res := ex.Export(context.Background(), models.Asset{ID: "a1", MediaType: models.MediaTypeImage}, filepath.Join(blocker, "photos"), "")

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "failed to create destination directory")
}

func TestExportAll(t *testing.T) {
	t.Run("returns one result per asset including failures", func(t *testing.T) {
		fake := &storetest.Fake{}
		fake.ImageDataFunc = func(ctx context.Context, assetID string) ([]byte, string, error) {
			if assetID == "bad" {
				return nil, "", fmt.Errorf("unreadable")
			}
			return []byte("data-" + assetID), "jpeg", nil
		}

		assets := []models.Asset{
			{ID: "a1", Filename: "one.jpg", MediaType: models.MediaTypeImage},
			{ID: "bad", Filename: "two.jpg", MediaType: models.MediaTypeImage},
			{ID: "a3", Filename: "three.jpg", MediaType: models.MediaTypeImage},
		}

		ex := New(fake)
		results := ex.ExportAll(context.Background(), assets, t.TempDir())

		require.Len(t, results, 3)
		succeeded := 0
		for _, res := range results {
			if res.Success {
				succeeded++
			}
		}
		assert.Equal(t, 2, succeeded)
	})

	t.Run("waits for every sub-export", func(t *testing.T) {
		var started sync.WaitGroup
		started.Add(3)
		release := make(chan struct{})

		fake := &storetest.Fake{}
		fake.ImageDataFunc = func(ctx context.Context, assetID string) ([]byte, string, error) {
			started.Done()
			<-release
			return []byte("data"), "jpeg", nil
		}

		assets := []models.Asset{
			{ID: "a1", Filename: "one.jpg", MediaType: models.MediaTypeImage},
			{ID: "a2", Filename: "two.jpg", MediaType: models.MediaTypeImage},
			{ID: "a3", Filename: "three.jpg", MediaType: models.MediaTypeImage},
		}

		ex := New(fake)
		done := make(chan []models.ExportResponse, 1)
		go func() {
			done <- ex.ExportAll(context.Background(), assets, t.TempDir())
		}()

		started.Wait()
		select {
		case <-done:
			t.Fatal("ExportAll returned before sub-exports completed")
		case <-time.After(50 * time.Millisecond):
		}

		close(release)
		select {
		case results := <-done:
			require.Len(t, results, 3)
			for _, res := range results {
				assert.True(t, res.Success, res.Error)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("ExportAll did not finish after release")
		}
	})
}
