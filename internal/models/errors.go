package models

// BridgeError is a sentinel error used across the request pipeline.
type BridgeError struct {
	Message string
}

func (e BridgeError) Error() string {
	return e.Message
}

var (
	// ErrAssetNotFound means the identifier is absent from the library
	// index. Absence is a normal outcome, not a store failure.
	ErrAssetNotFound = BridgeError{"asset not found"}

	// ErrFetchFailed means the store could not deliver bytes even after
	// the opportunistic fallback ran.
	ErrFetchFailed = BridgeError{"failed to fetch asset data"}

	// ErrUnsupportedMedia means the operation is not defined for the
	// asset's media type, e.g. serving original bytes for video.
	ErrUnsupportedMedia = BridgeError{"operation not supported for this media type"}

	// ErrInvalidDestination means the export destination directory could
	// not be created.
	ErrInvalidDestination = BridgeError{"failed to create destination directory"}
)
