package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaType(t *testing.T) {
	t.Run("accepts known types", func(t *testing.T) {
		assert.Equal(t, MediaTypeImage, ParseMediaType("image"))
		assert.Equal(t, MediaTypeVideo, ParseMediaType("video"))
		assert.Equal(t, MediaTypeAudio, ParseMediaType("audio"))
	})

	t.Run("maps unrecognized values to unknown", func(t *testing.T) {
		assert.Equal(t, MediaTypeUnknown, ParseMediaType("gif"))
		assert.Equal(t, MediaTypeUnknown, ParseMediaType(""))
		assert.Equal(t, MediaTypeUnknown, ParseMediaType("IMAGE"))
	})
}

func TestAssetFilenamePrefix(t *testing.T) {
	cases := []struct {
		mediaType MediaType
		prefix    string
	}{
		{MediaTypeImage, "IMG"},
		{MediaTypeVideo, "VID"},
		{MediaTypeAudio, "AUD"},
		{MediaTypeUnknown, "MEDIA"},
	}

	for _, c := range cases {
		assert.Equal(t, c.prefix, Asset{MediaType: c.mediaType}.FilenamePrefix())
	}
}

func TestAssetWithThumbnailURL(t *testing.T) {
	a := Asset{ID: "abc-123"}.WithThumbnailURL()
	assert.Equal(t, "/api/thumbnails/abc-123", a.ThumbnailURL)
}

func TestAssetJSONShape(t *testing.T) {
	t.Run("omits optional fields when absent", func(t *testing.T) {
		a := Asset{ID: "x", MediaType: MediaTypeImage, Width: 100, Height: 50}

		data, err := json.Marshal(a)
		require.NoError(t, err)

		var fields map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &fields))

		assert.NotContains(t, fields, "filename")
		assert.NotContains(t, fields, "createdDate")
		assert.NotContains(t, fields, "duration")
		assert.NotContains(t, fields, "location")
		assert.Contains(t, fields, "isFavorite")
		assert.Contains(t, fields, "isHidden")
	})

	t.Run("dates are ISO 8601", func(t *testing.T) {
		created := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
		a := Asset{ID: "x", MediaType: MediaTypeImage, CreatedDate: &created}

		data, err := json.Marshal(a)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"createdDate":"2024-03-15T10:30:00Z"`)
	})

	t.Run("location altitude is optional", func(t *testing.T) {
		a := Asset{
			ID:        "x",
			MediaType: MediaTypeImage,
			Location:  &Location{Latitude: 25.03, Longitude: 121.56},
		}

		data, err := json.Marshal(a)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"latitude":25.03`)
		assert.NotContains(t, string(data), "altitude")
	})
}
