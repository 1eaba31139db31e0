package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Compose stacks PNG images vertically on a white canvas as wide as the widest image
func Compose(images ...[]byte) ([]byte, error) {
	if len(images) == 0 {
		return nil, errors.New("chart: no images to compose")
	}

	decoded := make([]image.Image, len(images))
	var width, height int
	for i, data := range images {
		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("chart: decode image %d: %w", i, err)
		}
		decoded[i] = img
		b := img.Bounds()
		if b.Dx() > width {
			width = b.Dx()
		}
		height += b.Dy()
	}

	canvas := imaging.New(width, height, color.White)
	y := 0
	for _, img := range decoded {
		canvas = imaging.Paste(canvas, img, image.Pt(0, y))
		y += img.Bounds().Dy()
	}
	return encode(canvas)
}

// Resize scales a PNG image to the given width, keeping its aspect ratio.
// Images already narrower are returned unchanged.
func Resize(data []byte, width int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("chart: decode image: %w", err)
	}
	if width <= 0 || img.Bounds().Dx() <= width {
		return data, nil
	}
	return encode(imaging.Resize(img, width, 0, imaging.Lanczos))
}

func encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("chart: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
