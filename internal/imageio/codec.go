package imageio

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Output encodings supported by Encode.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// ErrEmptyImage is returned when there is no image payload at all.
var ErrEmptyImage = errors.New("empty image payload")

// ErrTooLarge is returned by DecodeBytesLimit when the header declares more
// pixels than allowed. The pixel data is never decoded in that case.
var ErrTooLarge = errors.New("image too large")

// Decode decodes any registered image format (png, jpeg, gif, bmp, tiff, webp).
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// DecodeBytes is Decode over an in-memory buffer.
func DecodeBytes(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}
	return Decode(bytes.NewReader(data))
}

// DecodeBytesLimit reads the image header first and refuses to decode
// images with more than maxPixels pixels. maxPixels <= 0 disables the check.
func DecodeBytesLimit(data []byte, maxPixels int) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}
	if maxPixels > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, "", fmt.Errorf("decode image header: %w", err)
		}
		if cfg.Width <= 0 || cfg.Height <= 0 {
			return nil, "", fmt.Errorf("decode image header: invalid size %dx%d", cfg.Width, cfg.Height)
		}
		if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
			return nil, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
		}
	}
	return Decode(bytes.NewReader(data))
}

// ParseDataURI extracts the raw bytes of a base64 data URI. A bare base64
// string without the "data:" prefix is accepted too.
func ParseDataURI(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyImage
	}
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, errors.New("malformed data URI: missing comma")
		}
		meta := s[len("data:"):comma]
		if !strings.HasSuffix(meta, ";base64") {
			return nil, errors.New("malformed data URI: only base64 payloads are supported")
		}
		s = s[comma+1:]
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// tolerate unpadded input
		if b2, err2 := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); err2 == nil {
			return b2, nil
		}
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return b, nil
}

// DecodeDataURI parses a data URI and decodes the embedded image.
func DecodeDataURI(s string) (image.Image, error) {
	return DecodeDataURILimit(s, 0)
}

// DecodeDataURILimit is DecodeDataURI with the pixel cap of DecodeBytesLimit.
func DecodeDataURILimit(s string, maxPixels int) (image.Image, error) {
	b, err := ParseDataURI(s)
	if err != nil {
		return nil, err
	}
	img, _, err := DecodeBytesLimit(b, maxPixels)
	return img, err
}

// Encode writes img as png or jpeg. An empty format means png.
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "", FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG, "jpg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// EncodeDataURI encodes img and wraps it in a base64 data URI.
func EncodeDataURI(img image.Image, format string) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, format); err != nil {
		return "", err
	}
	mime := "image/png"
	if f := strings.ToLower(format); f == FormatJPEG || f == "jpg" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
