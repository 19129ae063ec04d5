package models

import "time"

// PhotoListResponse is the page envelope for all listing endpoints.
type PhotoListResponse struct {
	Photos   []Asset `json:"photos"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
	HasMore  bool    `json:"hasMore"`
}

// EmptyPage returns an envelope with no items for the given paging
// parameters. Total may be non-zero when the page start is out of range.
func EmptyPage(page, pageSize, total int) PhotoListResponse {
	return PhotoListResponse{
		Photos:   []Asset{},
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  false,
	}
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the JSON error envelope for all failures.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// ExportRequest is the POST body for the export endpoint.
// KeepOriginalName is accepted for wire compatibility with the plugin
// but is not consulted by filename resolution.
type ExportRequest struct {
	Destination      string `json:"destination"`
	Filename         string `json:"filename,omitempty"`
	KeepOriginalName *bool  `json:"keepOriginalName,omitempty"`
}

// ExportResponse reports the outcome of one export.
type ExportResponse struct {
	Success          bool   `json:"success"`
	FilePath         string `json:"filePath,omitempty"`
	OriginalFilename string `json:"originalFilename,omitempty"`
	Error            string `json:"error,omitempty"`
}
