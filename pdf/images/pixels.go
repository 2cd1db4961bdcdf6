package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// DefaultWhiteThreshold is the channel value at and above which a pixel
// counts as paper white.
const DefaultWhiteThreshold = 250

// ToNRGBA copies img into an owned, zero-origin NRGBA buffer.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// WhiteKey returns a copy of img in which every pixel whose red, green and
// blue channels are all >= threshold is fully transparent and every other
// pixel is fully opaque.
func WhiteKey(img image.Image, threshold uint8) *image.NRGBA {
	buf := ToNRGBA(img)
	w, h := buf.Rect.Dx(), buf.Rect.Dy()
	for y := 0; y < h; y++ {
		row := buf.Pix[y*buf.Stride : y*buf.Stride+w*4]
		for x := 0; x < w; x++ {
			px := row[x*4 : x*4+4 : x*4+4]
			if px[0] >= threshold && px[1] >= threshold && px[2] >= threshold {
				px[3] = 0
			} else {
				px[3] = 0xff
			}
		}
	}
	return buf
}

// FlattenOnWhite composites img over an opaque white canvas of the same
// size, dropping any transparency.
func FlattenOnWhite(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// EncodeJPEG encodes img as baseline JPEG at the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
