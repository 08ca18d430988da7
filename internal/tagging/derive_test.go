package tagging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"photovault/internal/model"
)

func ptrF(v float64) *float64 { return &v }

func TestDerive_CameraAndDateScenario(t *testing.T) {
	captured := time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)
	md := model.Metadata{
		CapturedAt:  &captured,
		CameraMake:  "Canon",
		CameraModel: "EOS R5",
		ISO:         100,
	}

	got := Derive(md, 0, 0)

	assert.Equal(t, []string{
		"date:2024-03-15",
		"year:2024",
		"month:2024-03",
		"weekday:friday",
		"morning",
		"camera:Canon EOS R5",
		"brand:Canon",
		"iso:100",
		"iso:low",
	}, got)
}

func TestDerive_Deterministic(t *testing.T) {
	captured := time.Date(2023, 7, 2, 19, 12, 44, 0, time.UTC)
	md := model.Metadata{
		CapturedAt:   &captured,
		CameraMake:   "Sony",
		CameraModel:  "A7 IV",
		ISO:          1600,
		Aperture:     1.8,
		ExposureTime: 1.0 / 250,
		FocalLength:  85,
		Latitude:     ptrF(48.8566),
		Longitude:    ptrF(2.3522),
	}

	first := Derive(md, 3840, 2160)
	second := Derive(md, 3840, 2160)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestDerive_TimeOfDayBuckets(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{4, "late-night"},
		{5, "morning"},
		{11, "morning"},
		{12, "noon"},
		{13, "noon"},
		{14, "afternoon"},
		{17, "afternoon"},
		{18, "evening"},
		{21, "evening"},
		{22, "late-night"},
		{0, "late-night"},
	}

	for _, tt := range tests {
		captured := time.Date(2024, 1, 1, tt.hour, 0, 0, 0, time.UTC)
		got := Derive(model.Metadata{CapturedAt: &captured}, 0, 0)
		assert.Contains(t, got, tt.want, "hour %d", tt.hour)
	}
}

func TestDerive_CameraFallbacks(t *testing.T) {
	got := Derive(model.Metadata{CameraModel: "EOS R5"}, 0, 0)
	assert.Equal(t, []string{"camera:EOS R5"}, got)

	got = Derive(model.Metadata{CameraMake: "Canon"}, 0, 0)
	assert.Equal(t, []string{"camera-brand:Canon"}, got)
}

func TestDerive_ExposureBands(t *testing.T) {
	got := Derive(model.Metadata{ISO: 6400}, 0, 0)
	assert.Equal(t, []string{"iso:6400", "iso:ultra-high"}, got)

	got = Derive(model.Metadata{Aperture: 2.8}, 0, 0)
	assert.Equal(t, []string{"aperture:f/2.8", "aperture:wide"}, got)

	got = Derive(model.Metadata{Aperture: 8}, 0, 0)
	assert.Equal(t, []string{"aperture:f/8.0", "aperture:narrow"}, got)

	got = Derive(model.Metadata{ExposureTime: 1.0 / 500}, 0, 0)
	assert.Equal(t, []string{"shutter:1/500s", "shutter:fast"}, got)

	got = Derive(model.Metadata{ExposureTime: 2}, 0, 0)
	assert.Equal(t, []string{"shutter:2.0s", "shutter:slow"}, got)

	got = Derive(model.Metadata{FocalLength: 50}, 0, 0)
	assert.Equal(t, []string{"focal:50mm", "focal:normal"}, got)

	got = Derive(model.Metadata{FocalLength: 16}, 0, 0)
	assert.Equal(t, []string{"focal:16mm", "focal:ultra-wide"}, got)
}

func TestDerive_GeoTags(t *testing.T) {
	got := Derive(model.Metadata{Latitude: ptrF(48.86), Longitude: ptrF(2.35)}, 0, 0)

	assert.Equal(t, []string{
		"has-location",
		"geo:(48.86,2.35)",
		"region:western-europe",
		"north-hemisphere-mid-latitude",
	}, got)

	// Southern hemisphere, no region match.
	got = Derive(model.Metadata{Latitude: ptrF(-60.0), Longitude: ptrF(-60.0)}, 0, 0)
	assert.Equal(t, []string{
		"has-location",
		"geo:(-60.00,-60.00)",
		"south-hemisphere-high-latitude",
	}, got)

	// One coordinate alone emits nothing.
	got = Derive(model.Metadata{Latitude: ptrF(48.86)}, 0, 0)
	assert.Empty(t, got)
}

func TestDerive_DimensionScenario(t *testing.T) {
	got := Derive(model.Metadata{}, 1920, 1080)
	assert.Equal(t, []string{"1080p", "16:9", "landscape"}, got)

	got = Derive(model.Metadata{}, 3840, 2160)
	assert.Equal(t, []string{"4k", "16:9", "landscape"}, got)

	got = Derive(model.Metadata{}, 1080, 1920)
	assert.Equal(t, []string{"1080p", "9:16", "portrait"}, got)

	got = Derive(model.Metadata{}, 800, 800)
	assert.Equal(t, []string{"sd", "1:1", "square"}, got)

	got = Derive(model.Metadata{}, 1280, 960)
	assert.Equal(t, []string{"720p", "4:3", "landscape"}, got)
}

func TestSplitCompound(t *testing.T) {
	got := SplitCompound([]string{"sunset、beach、ocean", "city", " 、", ""})
	assert.Equal(t, []string{"sunset", "beach", "ocean", "city"}, got)

	// No sub-delimiter: input passes through untouched.
	got = SplitCompound([]string{"a", "b"})
	assert.Equal(t, []string{"a", "b"}, got)
}
