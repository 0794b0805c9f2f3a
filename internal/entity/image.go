package entity

import (
	"path/filepath"
	"strings"
	"time"
)

type UploadStatus string

const (
	StatusReady     UploadStatus = "ready"
	StatusAnalyzing UploadStatus = "analyzing"
	StatusDone      UploadStatus = "done"
)

// UploadedImage is a staged upload. It lives only as long as the session that
// created it and is addressed by ID.
type UploadedImage struct {
	ID          string          `json:"id"`
	FileName    string          `json:"file_name"`
	Extension   string          `json:"extension"`
	ContentType string          `json:"content_type"`
	Size        int64           `json:"size"`
	Data        []byte          `json:"data"`
	Status      UploadStatus    `json:"status"`
	Result      *AnalysisResult `json:"result,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

// NormalizeExtension returns the lower-cased extension of name including the dot.
func NormalizeExtension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// ContentTypeFor maps an accepted extension to the MIME type used in the data URI.
func ContentTypeFor(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}

type UploadResponse struct {
	ID         string       `json:"id"`
	FileName   string       `json:"file_name"`
	Size       int64        `json:"size"`
	Status     UploadStatus `json:"status"`
	PreviewURL string       `json:"preview_url"`
}

type ImageResponse struct {
	ID         string          `json:"id"`
	FileName   string          `json:"file_name"`
	Status     UploadStatus    `json:"status"`
	PreviewURL string          `json:"preview_url"`
	ExpiresAt  time.Time       `json:"expires_at"`
	Result     *AnalysisResult `json:"result,omitempty"`
}
