// Package imaging contains the pixel-level helpers for the photo pipeline:
// format sniffing, dimension probing, thumbnail generation and the edit
// transforms (crop, rotate, flip). All operations work on in-memory byte
// slices; no local disk is used.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"net/http"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrBadEdit marks edit parameters the caller got wrong, as opposed to
// broken image data.
var ErrBadEdit = errors.New("invalid edit parameters")

// JPEGQuality is the compression quality for generated thumbnails.
const JPEGQuality = 85

// EditJPEGQuality is the compression quality used when re-encoding after an
// edit operation.
const EditJPEGQuality = 95

// Info holds the basic properties probed from raw image bytes.
type Info struct {
	MimeType string
	Width    int
	Height   int
}

// Probe sniffs the MIME type from the bytes themselves (never trusting
// client headers) and decodes the pixel dimensions.
func Probe(data []byte) (Info, error) {
	mime := http.DetectContentType(data)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("decode image config: %w", err)
	}

	return Info{MimeType: mime, Width: cfg.Width, Height: cfg.Height}, nil
}

// Thumbnail decodes the image, downscales it so neither dimension exceeds
// maxDim (keeping the aspect ratio) and re-encodes as JPEG.
func Thumbnail(data []byte, maxDim int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img = downscale(img, maxDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// CropRect describes a crop region in source pixel coordinates.
type CropRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// EditOptions describes the edit transforms to apply, in order: crop, then
// rotation (clockwise, 90 degree steps), then flips.
type EditOptions struct {
	Crop           *CropRect
	RotationDeg    int
	FlipHorizontal bool
	FlipVertical   bool
}

// Edit applies the requested transforms and re-encodes the result as JPEG.
// The returned dimensions are those of the transformed image.
func Edit(data []byte, opts EditOptions) ([]byte, int, int, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	if opts.Crop != nil {
		img, err = crop(img, *opts.Crop)
		if err != nil {
			return nil, 0, 0, err
		}
	}

	switch rot := ((opts.RotationDeg % 360) + 360) % 360; rot {
	case 0:
	case 90, 180, 270:
		img = rotate(img, rot)
	default:
		return nil, 0, 0, fmt.Errorf("%w: rotation must be a multiple of 90 degrees, got %d", ErrBadEdit, opts.RotationDeg)
	}

	if opts.FlipHorizontal {
		img = flip(img, true)
	}
	if opts.FlipVertical {
		img = flip(img, false)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: EditJPEGQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode edited image: %w", err)
	}

	b := img.Bounds()
	return buf.Bytes(), b.Dx(), b.Dy(), nil
}

// downscale resizes the image so neither dimension exceeds maxDim.
// Uses high-quality Catmull-Rom interpolation.
// Returns the original image if already within bounds.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(w)
	if h > w {
		scale = float64(maxDim) / float64(h)
	}
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}

func crop(img image.Image, r CropRect) (image.Image, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("%w: crop dimensions must be positive", ErrBadEdit)
	}
	region := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return nil, fmt.Errorf("%w: crop region is outside the image bounds", ErrBadEdit)
	}

	dst := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Draw(dst, dst.Bounds(), img, region.Min, draw.Src)
	return dst, nil
}

// rotate turns the image clockwise by deg, which must be 90, 180 or 270.
func rotate(img image.Image, deg int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var dst *image.RGBA
	if deg == 180 {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			switch deg {
			case 90:
				dst.Set(h-1-y, x, c)
			case 180:
				dst.Set(w-1-x, h-1-y, c)
			case 270:
				dst.Set(y, w-1-x, c)
			}
		}
	}
	return dst
}

func flip(img image.Image, horizontal bool) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			if horizontal {
				dst.Set(w-1-x, y, c)
			} else {
				dst.Set(x, h-1-y, c)
			}
		}
	}
	return dst
}
