// Package imaging normalizes uploaded pictures: EXIF orientation is applied,
// the image is scaled down and re-encoded as JPEG.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedType = errors.New("only JPEG, PNG and WebP images are allowed")
	ErrDecode          = errors.New("invalid image format")
)

// Spec describes how an upload of one kind is normalized.
type Spec struct {
	Kind string
	// MaxWidth scales wider images down keeping the aspect ratio.
	MaxWidth int
	// Square, when set, center-crops and scales to Square x Square.
	Square  int
	Quality int
}

var (
	CoverSpec  = Spec{Kind: "cover", MaxWidth: 800, Quality: 65}
	AvatarSpec = Spec{Kind: "avatar", Square: 256, Quality: 80}
)

// Result is a processed JPEG.
type Result struct {
	Data   []byte
	Width  int
	Height int
}

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Process sniffs, decodes, orients, resizes and encodes data.
func Process(data []byte, spec Spec) (Result, error) {
	if !allowedTypes[sniff(data)] {
		return Result{}, ErrUnsupportedType
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	img = Orient(img, Orientation(data))

	switch {
	case spec.Square > 0:
		img = Square(img, spec.Square)
	case spec.MaxWidth > 0:
		img = FitWidth(img, spec.MaxWidth)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: spec.Quality}); err != nil {
		return Result{}, fmt.Errorf("encode jpeg: %w", err)
	}

	b := img.Bounds()
	return Result{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// sniff works around http.DetectContentType not knowing every WebP variant.
func sniff(data []byte) string {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg"
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "image/png"
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp"
	}
	return ""
}

// Orientation reads the EXIF orientation tag, 1 when absent.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil || o < 1 || o > 8 {
		return 1
	}
	return o
}

// Orient applies an EXIF orientation so the image displays upright.
func Orient(img image.Image, orientation int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	// dst maps source pixel (x, y) to its destination.
	var dst func(x, y int) (int, int)
	swap := false
	switch orientation {
	case 2:
		dst = func(x, y int) (int, int) { return w - 1 - x, y }
	case 3:
		dst = func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }
	case 4:
		dst = func(x, y int) (int, int) { return x, h - 1 - y }
	case 5:
		dst, swap = func(x, y int) (int, int) { return y, x }, true
	case 6:
		dst, swap = func(x, y int) (int, int) { return h - 1 - y, x }, true
	case 7:
		dst, swap = func(x, y int) (int, int) { return h - 1 - y, w - 1 - x }, true
	case 8:
		dst, swap = func(x, y int) (int, int) { return y, w - 1 - x }, true
	default:
		return img
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	if swap {
		out = image.NewRGBA(image.Rect(0, 0, h, w))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := dst(x, y)
			out.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

// FitWidth scales img down to maxWidth; narrower images are returned as is.
func FitWidth(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxWidth {
		return img
	}
	h := b.Dy() * maxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	out := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(out, out.Bounds(), img, b, draw.Over, nil)
	return out
}

// Square center-crops img and scales it to size x size.
func Square(img image.Image, size int) image.Image {
	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	crop := image.Rect(x0, y0, x0+side, y0+side)

	out := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(out, out.Bounds(), img, crop, draw.Over, nil)
	return out
}
