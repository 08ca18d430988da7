// Package tagging turns normalized image metadata and pixel dimensions into
// a deterministic, ordered list of descriptive tag names. Derive is a pure
// function: identical input always yields the identical, identically-ordered
// output, which keeps re-derivation idempotent and testable.
package tagging

import (
	"fmt"
	"math"
	"strings"

	"photovault/internal/model"
)

// Derive maps metadata and dimensions to tag names. Each rule group is
// gated only by the presence of its own fields, so partial metadata still
// produces the tags it can support.
func Derive(md model.Metadata, width, height int) []string {
	var names []string

	names = append(names, dateTags(md)...)
	names = append(names, cameraTags(md)...)
	names = append(names, exposureTags(md)...)
	names = append(names, geoTags(md)...)
	names = append(names, dimensionTags(width, height)...)

	return SplitCompound(names)
}

func dateTags(md model.Metadata) []string {
	if md.CapturedAt == nil {
		return nil
	}
	t := *md.CapturedAt

	names := []string{
		"date:" + t.Format("2006-01-02"),
		fmt.Sprintf("year:%d", t.Year()),
		"month:" + t.Format("2006-01"),
		"weekday:" + strings.ToLower(t.Weekday().String()),
	}

	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		names = append(names, "morning")
	case h >= 12 && h < 14:
		names = append(names, "noon")
	case h >= 14 && h < 18:
		names = append(names, "afternoon")
	case h >= 18 && h < 22:
		names = append(names, "evening")
	default:
		names = append(names, "late-night")
	}

	return names
}

func cameraTags(md model.Metadata) []string {
	maker := strings.TrimSpace(md.CameraMake)
	body := strings.TrimSpace(md.CameraModel)

	switch {
	case maker != "" && body != "":
		return []string{"camera:" + maker + " " + body, "brand:" + maker}
	case body != "":
		return []string{"camera:" + body}
	case maker != "":
		return []string{"camera-brand:" + maker}
	}
	return nil
}

func exposureTags(md model.Metadata) []string {
	var names []string

	if md.ISO > 0 {
		names = append(names, fmt.Sprintf("iso:%d", md.ISO))
		switch {
		case md.ISO < 200:
			names = append(names, "iso:low")
		case md.ISO < 800:
			names = append(names, "iso:medium")
		case md.ISO < 3200:
			names = append(names, "iso:high")
		default:
			names = append(names, "iso:ultra-high")
		}
	}

	if md.Aperture > 0 {
		names = append(names, fmt.Sprintf("aperture:f/%.1f", md.Aperture))
		switch {
		case md.Aperture <= 2.8:
			names = append(names, "aperture:wide")
		case md.Aperture <= 5.6:
			names = append(names, "aperture:medium")
		default:
			names = append(names, "aperture:narrow")
		}
	}

	if md.ExposureTime > 0 {
		if md.ExposureTime < 1 {
			names = append(names, fmt.Sprintf("shutter:1/%ds", int(math.Round(1/md.ExposureTime))))
		} else {
			names = append(names, fmt.Sprintf("shutter:%.1fs", md.ExposureTime))
		}
		switch {
		case md.ExposureTime < 1.0/60:
			names = append(names, "shutter:fast")
		case md.ExposureTime < 1.0/15:
			names = append(names, "shutter:medium")
		default:
			names = append(names, "shutter:slow")
		}
	}

	if md.FocalLength > 0 {
		names = append(names, fmt.Sprintf("focal:%dmm", int(math.Round(md.FocalLength))))
		switch {
		case md.FocalLength < 24:
			names = append(names, "focal:ultra-wide")
		case md.FocalLength < 35:
			names = append(names, "focal:wide")
		case md.FocalLength < 85:
			names = append(names, "focal:normal")
		case md.FocalLength < 135:
			names = append(names, "focal:tele")
		default:
			names = append(names, "focal:long-tele")
		}
	}

	return names
}

// geoRegion is a named bounding box. Latitude bounds are inclusive at the
// minimum and exclusive at the maximum; same for longitude.
type geoRegion struct {
	name           string
	minLat, maxLat float64
	minLon, maxLon float64
}

// geoRegions is the fixed region table; first match wins.
var geoRegions = []geoRegion{
	{"western-europe", 36, 60, -10, 20},
	{"eastern-europe", 44, 60, 20, 45},
	{"north-america", 25, 60, -130, -60},
	{"central-america", 7, 25, -95, -60},
	{"south-america", -55, 10, -82, -35},
	{"east-asia", 20, 50, 100, 146},
	{"southeast-asia", -10, 20, 95, 141},
	{"south-asia", 5, 36, 60, 95},
	{"middle-east", 12, 42, 35, 60},
	{"africa", -35, 36, -18, 52},
	{"oceania", -47, -10, 110, 180},
}

func geoTags(md model.Metadata) []string {
	if !md.HasLocation() {
		return nil
	}
	lat, lon := *md.Latitude, *md.Longitude

	names := []string{
		"has-location",
		fmt.Sprintf("geo:(%.2f,%.2f)", lat, lon),
	}

	for _, r := range geoRegions {
		if lat >= r.minLat && lat < r.maxLat && lon >= r.minLon && lon < r.maxLon {
			names = append(names, "region:"+r.name)
			break
		}
	}

	hemisphere := "north"
	if lat < 0 {
		hemisphere = "south"
	}
	band := "low"
	switch abs := math.Abs(lat); {
	case abs >= 50:
		band = "high"
	case abs >= 30:
		band = "mid"
	}
	names = append(names, hemisphere+"-hemisphere-"+band+"-latitude")

	return names
}

func dimensionTags(width, height int) []string {
	if width <= 0 || height <= 0 {
		return nil
	}

	long, short := width, height
	if height > width {
		long, short = height, width
	}

	var names []string
	switch {
	case long >= 3840 || short >= 2160:
		names = append(names, "4k")
	case long >= 1920 || short >= 1080:
		names = append(names, "1080p")
	case long >= 1280 || short >= 720:
		names = append(names, "720p")
	default:
		names = append(names, "sd")
	}

	// Canonical aspect ratios, matched within a fixed tolerance.
	const aspectTolerance = 0.1
	ratio := float64(width) / float64(height)
	aspects := []struct {
		name  string
		ratio float64
	}{
		{"16:9", 16.0 / 9.0},
		{"4:3", 4.0 / 3.0},
		{"1:1", 1.0},
		{"9:16", 9.0 / 16.0},
	}
	for _, a := range aspects {
		if math.Abs(ratio-a.ratio) < aspectTolerance {
			names = append(names, a.name)
			break
		}
	}

	switch {
	case width > height:
		names = append(names, "landscape")
	case width < height:
		names = append(names, "portrait")
	default:
		names = append(names, "square")
	}

	return names
}

// subDelimiter is the secondary list separator some provider responses use
// inside a single tag. It is distinct from the primary comma separator and
// any tag carrying it is split into independent tags before persistence.
// TODO: move this normalization onto the provider response parser once the
// provider payloads are schema-validated.
const subDelimiter = "、"

// SplitCompound expands every name containing the sub-delimiter into
// independent trimmed tags, dropping empties. Applies uniformly to derived
// tags and to tags from the external analysis provider.
func SplitCompound(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		for _, part := range strings.Split(name, subDelimiter) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
