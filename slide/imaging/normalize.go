// Package imaging normalises headshots to an exact pixel size.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Quality is the JPEG quality of normalised images.
const Quality = 95

var ErrInvalidSize = errors.New("target size must be positive")

// Normalize is NormalizeImage that falls back to the original bytes on any failure. Callers
// must tolerate the original size in that case.
func Normalize(data []byte, width, height int) []byte {
	out, err := NormalizeImage(data, width, height)
	if err != nil {
		return data
	}
	return out
}

// NormalizeImage centre-crops data to the width:height aspect ratio, scales the crop to
// exactly width x height and encodes it as JPEG. Transparency is flattened onto white.
func NormalizeImage(data []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if src.Bounds().Empty() {
		return nil, errors.New("decode image: empty bounds")
	}

	rgb := flatten(src)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), rgb, CenterCrop(rgb.Bounds(), width, height), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// CenterCrop returns the largest centred rectangle of b with the width:height aspect ratio.
func CenterCrop(b image.Rectangle, width, height int) image.Rectangle {
	sw, sh := int64(b.Dx()), int64(b.Dy())
	tw, th := int64(width), int64(height)

	if sw*th > tw*sh {
		cw := max(sh*tw/th, 1)
		x0 := int64(b.Min.X) + (sw-cw)/2
		return image.Rect(int(x0), b.Min.Y, int(x0+cw), b.Max.Y)
	}
	ch := max(sw*th/tw, 1)
	y0 := int64(b.Min.Y) + (sh-ch)/2
	return image.Rect(b.Min.X, int(y0), b.Max.X, int(y0+ch))
}

func flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, b, src, b.Min, draw.Over)
	return dst
}
