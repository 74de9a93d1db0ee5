package extract

import (
	"bytes"
	"image"
	"image/png"
	"os"

	"github.com/hyperjump/mediatext/internal/models"
	"golang.org/x/image/draw"
)

// flatten composites img onto an opaque white canvas.
func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// fitWidth scales img down to maxWidth, keeping the aspect ratio. Narrower images and a
// zero maxWidth return img unchanged.
func fitWidth(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	h := b.Dy() * maxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// pngPreview encodes a width-capped PNG preview, or nil when img is nil or encoding fails.
func pngPreview(img image.Image, maxWidth int) *models.Preview {
	if img == nil {
		return nil
	}
	data, err := encodePNG(fitWidth(img, maxWidth))
	if err != nil {
		return nil
	}
	return models.NewPreview("image/png", data)
}

// filePreview reads a produced preview file, or returns nil when it is missing.
func filePreview(path, mime string) *models.Preview {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return models.NewPreview(mime, data)
}
