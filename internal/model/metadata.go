package model

import "time"

// Metadata is the normalized attribute set extracted from an image's
// embedded metadata block. Every field is optional: pointer fields are nil
// and string/number fields are zero when the source image does not carry
// the attribute or it could not be parsed.
type Metadata struct {
	CapturedAt   *time.Time
	CameraMake   string
	CameraModel  string
	ISO          int
	Aperture     float64 // f-number
	ExposureTime float64 // seconds
	FocalLength  float64 // millimetres
	WhiteBalance string
	FlashFired   bool
	ExposureMode string
	MeteringMode string
	Latitude     *float64 // signed decimal degrees
	Longitude    *float64
}

// HasLocation reports whether both coordinates are present.
func (m Metadata) HasLocation() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// IsEmpty reports whether nothing at all was extracted.
func (m Metadata) IsEmpty() bool {
	return m == Metadata{}
}
