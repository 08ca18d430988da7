package model

import "time"

// TagOrigin classifies how a tag came into existence.
type TagOrigin string

const (
	// TagOriginAuto marks tags derived by the system (EXIF rules or the
	// external analysis provider).
	TagOriginAuto TagOrigin = "auto"
	// TagOriginCustom marks tags entered by a user.
	TagOriginCustom TagOrigin = "custom"
)

// Tag is a named label in a global namespace. Names are unique and
// case-sensitive; two owners sharing an auto tag reuse the same row.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Origin    TagOrigin `json:"origin"`
	CreatedAt time.Time `json:"created_at"`
}
