// Package exporter writes library assets out to the local filesystem.
// Images are exported from resolved full-resolution bytes, videos by a
// byte-for-byte copy of the store's backing file.
package exporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/happyleetw/obsidian-photos-bridge-app/internal/models"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/observability"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/store"
)

// timestampFormat names synthesized export files down to the second.
const timestampFormat = "2006-01-02_15-04-05"

// Exporter performs single and batch asset exports.
type Exporter struct {
	store store.MediaStore
}

func New(st store.MediaStore) *Exporter {
	return &Exporter{store: st}
}

// Export writes one asset into destDir and reports the outcome. An
// empty filename lets the exporter derive one: the store's original
// filename when known, a kind-prefixed timestamp name otherwise. An
// explicit filename missing the derived extension gets it appended,
// keeping whatever suffix the caller wrote.
func (e *Exporter) Export(ctx context.Context, asset models.Asset, destDir, filename string) models.ExportResponse {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		observability.Errorf("Export destination unusable for asset %s: %v", asset.ID, err)
		return e.failure(asset, fmt.Sprintf("%v: %v", models.ErrInvalidDestination, err))
	}

	if asset.IsVideo() {
		return e.exportVideo(ctx, asset, destDir, filename)
	}
	return e.exportImage(ctx, asset, destDir, filename)
}

// ExportAll exports every asset concurrently and returns one result per
// asset. It does not return until all sub-exports have finished.
func (e *Exporter) ExportAll(ctx context.Context, assets []models.Asset, destDir string) []models.ExportResponse {
	results := make([]models.ExportResponse, len(assets))

	var wg sync.WaitGroup
	for i, asset := range assets {
		wg.Add(1)
		go func(i int, asset models.Asset) {
			defer wg.Done()
			results[i] = e.Export(ctx, asset, destDir, "")
		}(i, asset)
	}
	wg.Wait()

	return results
}

func (e *Exporter) exportImage(ctx context.Context, asset models.Asset, destDir, filename string) models.ExportResponse {
	data, formatTag, err := e.store.ImageData(ctx, asset.ID)
	if err != nil {
		observability.Errorf("Export failed to fetch data for asset %s: %v", asset.ID, err)
		return e.failure(asset, fmt.Sprintf("failed to fetch asset data: %v", err))
	}

	destPath := filepath.Join(destDir, deriveFilename(asset, filename, ExtensionForTag(formatTag)))
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return e.failure(asset, fmt.Sprintf("failed to write file: %v", err))
	}

	observability.Infof("Exported asset %s to %s", asset.ID, destPath)
	return e.success(asset, destPath)
}

// exportVideo copies the backing file without re-encoding. An existing
// file at the destination is removed first, so a retried export
// replaces the old bytes instead of appending to them.
func (e *Exporter) exportVideo(ctx context.Context, asset models.Asset, destDir, filename string) models.ExportResponse {
	srcPath, err := e.store.VideoFile(ctx, asset.ID)
	if err != nil {
		observability.Errorf("Export failed to locate video for asset %s: %v", asset.ID, err)
		return e.failure(asset, fmt.Sprintf("failed to fetch asset data: %v", err))
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(srcPath)), ".")
	if ext == "" {
		ext = "mov"
	}

	destPath := filepath.Join(destDir, deriveFilename(asset, filename, ext))
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return e.failure(asset, fmt.Sprintf("failed to replace existing file: %v", err))
		}
	}

	if err := copyFile(srcPath, destPath); err != nil {
		return e.failure(asset, fmt.Sprintf("failed to copy video: %v", err))
	}

	observability.Infof("Exported asset %s to %s", asset.ID, destPath)
	return e.success(asset, destPath)
}

func (e *Exporter) success(asset models.Asset, path string) models.ExportResponse {
	return models.ExportResponse{
		Success:          true,
		FilePath:         path,
		OriginalFilename: asset.Filename,
	}
}

func (e *Exporter) failure(asset models.Asset, message string) models.ExportResponse {
	return models.ExportResponse{
		OriginalFilename: asset.Filename,
		Error:            message,
	}
}

func deriveFilename(asset models.Asset, explicit, ext string) string {
	if explicit != "" {
		if !strings.HasSuffix(strings.ToLower(explicit), "."+ext) {
			return explicit + "." + ext
		}
		return explicit
	}
	if asset.Filename != "" {
		return asset.Filename
	}

	created := time.Now()
	if asset.CreatedDate != nil {
		created = *asset.CreatedDate
	}
	return fmt.Sprintf("%s_%s.%s", asset.FilenamePrefix(), created.Local().Format(timestampFormat), ext)
}

// ExtensionForTag maps a store format tag to a file extension. Unknown
// tags get a generic binary extension.
func ExtensionForTag(formatTag string) string {
	switch formatTag {
	case "jpeg":
		return "jpg"
	case "png":
		return "png"
	case "gif":
		return "gif"
	case "tiff":
		return "tif"
	case "bmp":
		return "bmp"
	case "webp":
		return "webp"
	case "heic":
		return "heic"
	case "heif":
		return "heif"
	default:
		return "bin"
	}
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
