package model

import "time"

// Photo represents a managed image record owned by a single user.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Photo struct {
	ID               string     `json:"id"`
	OwnerID          string     `json:"owner_id"`
	Filename         string     `json:"filename"`
	OriginalFilename string     `json:"original_filename"`
	StoragePath      string     `json:"storage_path"`
	ThumbnailPath    string     `json:"thumbnail_path"`
	Width            int        `json:"width"`
	Height           int        `json:"height"`
	FileSize         int64      `json:"file_size"`
	MimeType         string     `json:"mime_type"`
	CameraMake       string     `json:"camera_make,omitempty"`
	CameraModel      string     `json:"camera_model,omitempty"`
	// TakenAt is the capture timestamp sourced from embedded metadata only.
	// It stays nil when the image carries no parseable capture time; it is
	// never backfilled from upload or file-system times.
	TakenAt      *time.Time `json:"taken_at,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	LocationName string     `json:"location,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
