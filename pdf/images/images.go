// Package images handles the raster inputs of the compositing engine:
// stamp and signature payloads, rendered page bitmaps and the encoded
// images written back into PDF pages.
package images

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
)

// Common errors
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrDecodeFailed      = errors.New("image decode failed")
	ErrInvalidDimensions = errors.New("invalid image dimensions")
	ErrInvalidPayload    = errors.New("invalid base64 image payload")
)

// ImageFormat represents an image format.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "PNG"
	FormatJPEG ImageFormat = "JPEG"
)

// FPDFType returns the image type name used by the PDF writer.
func (f ImageFormat) FPDFType() string {
	switch f {
	case FormatJPEG:
		return "JPG"
	case FormatPNG:
		return "PNG"
	default:
		return ""
	}
}

// Image is an encoded stamp or signature together with its native pixel
// size.
type Image struct {
	Data   []byte
	Format ImageFormat
	Width  int
	Height int
}

// AspectRatio returns width/height in pixels.
func (img *Image) AspectRatio() float64 {
	if img.Height == 0 {
		return 0
	}
	return float64(img.Width) / float64(img.Height)
}

// Parse sniffs the format of data and reads its dimensions. Only PNG and
// JPEG are accepted since those are the formats a PDF page can embed
// without re-encoding. The whole body is decoded, so a payload with a
// valid header but truncated or corrupt data fails with ErrDecodeFailed.
func Parse(data []byte) (*Image, error) {
	format := detectFormat(data)
	if format == "" {
		return nil, ErrUnsupportedFormat
	}
	decoded, err := Decode(data)
	if err != nil {
		return nil, err
	}
	b := decoded.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrInvalidDimensions
	}
	return &Image{Data: data, Format: format, Width: b.Dx(), Height: b.Dy()}, nil
}

// ParseBase64 decodes a base64 payload, optionally prefixed with a data
// URI header such as "data:image/png;base64,", and parses the result.
func ParseBase64(payload string) (*Image, error) {
	data, err := DecodePayload(payload)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Normalize re-encodes PNG data the PDF writer cannot embed as is
// (16-bit samples or Adam7 interlacing) into 8-bit non-interlaced PNG.
// Other images are returned unchanged.
func Normalize(img *Image) (*Image, error) {
	if img.Format != FormatPNG || len(img.Data) < 29 {
		return img, nil
	}
	bitDepth, interlace := img.Data[24], img.Data[28]
	if bitDepth <= 8 && interlace == 0 {
		return img, nil
	}
	decoded, err := Decode(img.Data)
	if err != nil {
		return nil, err
	}
	data, err := EncodePNG(ToNRGBA(decoded))
	if err != nil {
		return nil, err
	}
	return &Image{Data: data, Format: FormatPNG, Width: img.Width, Height: img.Height}, nil
}

// DecodePayload strips everything up to and including the first comma, if
// any, and decodes the remainder as standard base64.
func DecodePayload(payload string) ([]byte, error) {
	if i := strings.IndexByte(payload, ','); i >= 0 {
		payload = payload[i+1:]
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, ErrInvalidPayload
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return data, nil
}

// detectFormat detects the image format from the file header.
func detectFormat(data []byte) ImageFormat {
	if len(data) < 8 {
		return ""
	}

	// PNG signature
	if bytes.Equal(data[0:8], []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}) {
		return FormatPNG
	}

	// JPEG signature
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return FormatJPEG
	}

	return ""
}

// Decode decodes a PNG or JPEG image.
func Decode(data []byte) (image.Image, error) {
	var (
		img image.Image
		err error
	)
	switch detectFormat(data) {
	case FormatPNG:
		img, err = png.Decode(bytes.NewReader(data))
	case FormatJPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return img, nil
}
