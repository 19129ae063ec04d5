package models

import "time"

// MediaType classifies an asset by its primary content.
type MediaType string

const (
	MediaTypeImage   MediaType = "image"
	MediaTypeVideo   MediaType = "video"
	MediaTypeAudio   MediaType = "audio"
	MediaTypeUnknown MediaType = "unknown"
)

// ParseMediaType converts a query-parameter value to a MediaType.
// Unrecognized values map to MediaTypeUnknown.
func ParseMediaType(s string) MediaType {
	switch MediaType(s) {
	case MediaTypeImage, MediaTypeVideo, MediaTypeAudio:
		return MediaType(s)
	default:
		return MediaTypeUnknown
	}
}

// Media subtype tags exposed in the API.
const (
	SubtypeLive          = "live"
	SubtypeHDR           = "hdr"
	SubtypePanorama      = "panorama"
	SubtypeScreenshot    = "screenshot"
	SubtypeHighFrameRate = "highFrameRate"
	SubtypeTimelapse     = "timelapse"
)

// Location is an optional geotag attached to an asset.
type Location struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

// Asset is an immutable snapshot of one media item from the store.
// The bridge never owns or mutates assets; it only reads them.
type Asset struct {
	ID           string     `json:"id"`
	Filename     string     `json:"filename,omitempty"`
	CreatedDate  *time.Time `json:"createdDate,omitempty"`
	ModifiedDate *time.Time `json:"modifiedDate,omitempty"`
	MediaType    MediaType  `json:"mediaType"`
	MediaSubtype string     `json:"mediaSubtype,omitempty"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	Duration     *float64   `json:"duration,omitempty"`
	Location     *Location  `json:"location,omitempty"`
	IsFavorite   bool       `json:"isFavorite"`
	ThumbnailURL string     `json:"thumbnailUrl"`
	IsHidden     bool       `json:"isHidden"`
}

// WithThumbnailURL returns a copy of the asset with the API thumbnail
// URL filled in. Stored assets carry an empty URL; it is derived at the
// serving boundary so the store stays transport-agnostic.
func (a Asset) WithThumbnailURL() Asset {
	a.ThumbnailURL = "/api/thumbnails/" + a.ID
	return a
}

// IsVideo reports whether the asset is a video.
func (a Asset) IsVideo() bool {
	return a.MediaType == MediaTypeVideo
}

// FilenamePrefix returns the synthetic-filename prefix for the asset's
// media type (IMG, VID, AUD or MEDIA).
func (a Asset) FilenamePrefix() string {
	switch a.MediaType {
	case MediaTypeImage:
		return "IMG"
	case MediaTypeVideo:
		return "VID"
	case MediaTypeAudio:
		return "AUD"
	default:
		return "MEDIA"
	}
}
