// Package exif normalizes an image's embedded metadata block into the
// domain Metadata type. Extraction is best-effort: every field is parsed
// independently and malformed or missing entries leave the field unset.
// Extract never returns an error to the caller.
package exif

import (
	"encoding/json"
	"io"
	"log"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"

	"photovault/internal/model"
)

func init() {
	// Register maker note parsers for better camera support.
	exif.RegisterParsers(mknote.All...)
}

// timestampLayouts are the known textual encodings of capture timestamps.
// The first layout that parses wins.
var timestampLayouts = []string{
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Extract decodes the embedded metadata from r and returns the normalized
// attribute set. A corrupt or metadata-free image yields a zero Metadata;
// diagnostics are logged, never surfaced.
func Extract(r io.Reader) model.Metadata {
	var md model.Metadata

	x, err := exif.Decode(r)
	if err != nil {
		if err != io.EOF {
			logDiag("exif_decode_failed", err)
		}
		return md
	}

	// Capture time: DateTimeOriginal is preferred, DateTime only fills in
	// when the original is absent or unparseable. Never fall back to any
	// file-system time.
	for _, field := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTime} {
		if md.CapturedAt != nil {
			break
		}
		if s, ok := stringField(x, field); ok {
			if ts, ok := ParseTimestamp(s); ok {
				md.CapturedAt = &ts
			}
		}
	}

	if s, ok := stringField(x, exif.Make); ok {
		md.CameraMake = s
	}
	if s, ok := stringField(x, exif.Model); ok {
		md.CameraModel = s
	}

	if v, ok := intField(x, exif.ISOSpeedRatings); ok {
		md.ISO = v
	}
	if v, ok := ratField(x, exif.FNumber); ok {
		md.Aperture = v
	}
	if v, ok := ratField(x, exif.ExposureTime); ok {
		md.ExposureTime = v
	}
	if v, ok := ratField(x, exif.FocalLength); ok {
		md.FocalLength = v
	}

	if v, ok := intField(x, exif.Flash); ok {
		// Bit 0 signals that the flash fired.
		md.FlashFired = v&1 == 1
	}
	if v, ok := intField(x, exif.WhiteBalance); ok {
		md.WhiteBalance = whiteBalanceNames[v]
	}
	if v, ok := intField(x, exif.ExposureMode); ok {
		md.ExposureMode = exposureModeNames[v]
	}
	if v, ok := intField(x, exif.MeteringMode); ok {
		md.MeteringMode = meteringModeNames[v]
	}

	if lat, ok := coordinate(x, exif.GPSLatitude, exif.GPSLatitudeRef); ok {
		if lon, ok := coordinate(x, exif.GPSLongitude, exif.GPSLongitudeRef); ok {
			md.Latitude = &lat
			md.Longitude = &lon
		}
	}

	return md
}

// ParseTimestamp tries the known textual timestamp encodings in order and
// accepts the first that parses.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// DMSToDecimal converts a degrees/minutes/seconds triple with a hemisphere
// reference into signed decimal degrees. Southern and western references
// negate the result.
func DMSToDecimal(deg, min, sec float64, ref string) float64 {
	dd := deg + min/60 + sec/3600
	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "S", "W":
		return -dd
	}
	return dd
}

// coordinate reads one GPS axis as a DMS rational triple plus its
// hemisphere reference tag.
func coordinate(x *exif.Exif, field, refField exif.FieldName) (float64, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return 0, false
	}

	var dms [3]float64
	for i := range dms {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return 0, false
		}
		dms[i] = float64(num) / float64(den)
	}

	ref := ""
	if refTag, err := x.Get(refField); err == nil {
		if s, err := refTag.StringVal(); err == nil {
			ref = s
		}
	}

	return DMSToDecimal(dms[0], dms[1], dms[2], ref), true
}

func stringField(x *exif.Exif, field exif.FieldName) (string, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return "", false
	}
	s, err := tag.StringVal()
	if err != nil {
		return "", false
	}
	s = strings.TrimRight(strings.TrimSpace(s), "\x00")
	return s, s != ""
}

func intField(x *exif.Exif, field exif.FieldName) (int, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return 0, false
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0, false
	}
	return v, true
}

func ratField(x *exif.Exif, field exif.FieldName) (float64, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return 0, false
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0, false
	}
	return float64(num) / float64(den), true
}

var whiteBalanceNames = map[int]string{
	0: "auto",
	1: "manual",
}

var exposureModeNames = map[int]string{
	0: "auto",
	1: "manual",
	2: "auto-bracket",
}

var meteringModeNames = map[int]string{
	1: "average",
	2: "center-weighted",
	3: "spot",
	4: "multi-spot",
	5: "pattern",
	6: "partial",
}

func logDiag(event string, err error) {
	entry := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     "debug",
		"component": "exif",
		"event":     event,
		"error":     err.Error(),
	}
	if b, mErr := json.Marshal(entry); mErr == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
