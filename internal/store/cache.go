package store

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/happyleetw/obsidian-photos-bridge-app/internal/models"
)

// MetadataCache persists per-file scan results in SQLite so unchanged
// files keep their asset identity and metadata across scans without
// re-reading EXIF. Rows are keyed by file path; mtime and size changes
// invalidate the row.
type MetadataCache struct {
	db *sql.DB
}

// NewMetadataCache opens (creating if needed) the cache database.
func NewMetadataCache(dbPath string) (*MetadataCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS asset_metadata (
		path TEXT PRIMARY KEY,
		mtime INTEGER NOT NULL,
		size INTEGER NOT NULL,
		id TEXT NOT NULL,
		filename TEXT NOT NULL,
		created_date DATETIME,
		modified_date DATETIME,
		media_type TEXT NOT NULL,
		media_subtype TEXT NOT NULL DEFAULT '',
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		duration REAL,
		latitude REAL,
		longitude REAL,
		altitude REAL,
		is_favorite INTEGER NOT NULL DEFAULT 0,
		is_hidden INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_asset_metadata_id ON asset_metadata(id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &MetadataCache{db: db}, nil
}

// Close closes the underlying database.
func (c *MetadataCache) Close() error {
	return c.db.Close()
}

// Get returns the cached asset for a file if the row matches the
// current mtime and size.
func (c *MetadataCache) Get(path string, mtime, size int64) (models.Asset, bool) {
	row := c.db.QueryRow(`
		SELECT id, filename, created_date, modified_date, media_type, media_subtype,
		       width, height, duration, latitude, longitude, altitude, is_favorite, is_hidden
		FROM asset_metadata
		WHERE path = ? AND mtime = ? AND size = ?`,
		path, mtime, size,
	)

	var a models.Asset
	var created, modified sql.NullTime
	var duration, latitude, longitude, altitude sql.NullFloat64
	var mediaType string

	err := row.Scan(
		&a.ID, &a.Filename, &created, &modified, &mediaType, &a.MediaSubtype,
		&a.Width, &a.Height, &duration, &latitude, &longitude, &altitude,
		&a.IsFavorite, &a.IsHidden,
	)
	if err != nil {
		return models.Asset{}, false
	}

	a.MediaType = models.MediaType(mediaType)
	if created.Valid {
		t := created.Time.UTC()
		a.CreatedDate = &t
	}
	if modified.Valid {
		t := modified.Time.UTC()
		a.ModifiedDate = &t
	}
	if duration.Valid {
		a.Duration = &duration.Float64
	}
	if latitude.Valid && longitude.Valid {
		loc := &models.Location{Latitude: latitude.Float64, Longitude: longitude.Float64}
		if altitude.Valid {
			loc.Altitude = &altitude.Float64
		}
		a.Location = loc
	}
	return a, true
}

// Put inserts or replaces the cached row for a file.
func (c *MetadataCache) Put(path string, mtime, size int64, a models.Asset) error {
	var created, modified interface{}
	if a.CreatedDate != nil {
		created = a.CreatedDate.UTC()
	}
	if a.ModifiedDate != nil {
		modified = a.ModifiedDate.UTC()
	}

	var duration, latitude, longitude, altitude interface{}
	if a.Duration != nil {
		duration = *a.Duration
	}
	if a.Location != nil {
		latitude = a.Location.Latitude
		longitude = a.Location.Longitude
		if a.Location.Altitude != nil {
			altitude = *a.Location.Altitude
		}
	}

	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO asset_metadata
			(path, mtime, size, id, filename, created_date, modified_date, media_type,
			 media_subtype, width, height, duration, latitude, longitude, altitude,
			 is_favorite, is_hidden)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		path, mtime, size, a.ID, a.Filename, created, modified, string(a.MediaType),
		a.MediaSubtype, a.Width, a.Height, duration, latitude, longitude, altitude,
		a.IsFavorite, a.IsHidden,
	)
	return err
}

// Prune removes rows for files not seen since the given time. Intended
// for periodic maintenance; scans never rely on it for correctness.
func (c *MetadataCache) Prune(olderThan time.Time) (int64, error) {
	res, err := c.db.Exec(`DELETE FROM asset_metadata WHERE mtime < ?`, olderThan.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
