package imagehash

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/webp"
)

// ErrEmptyImage is returned when there are no bytes to decode.
var ErrEmptyImage = errors.New("empty image data")

// DecodeError describes an artwork that could not be decoded.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	format := e.Format
	if format == "" {
		format = "unknown format"
	}
	return fmt.Sprintf("decode image (%s): %v", format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode decodes PNG, JPEG, GIF or WebP data. format is a hint such as
// "webp" or ".png"; when empty or unrecognized the format is sniffed.
func Decode(data []byte, format string) (image.Image, error) {
	format = normalizeFormat(format)
	if len(data) == 0 {
		return nil, &DecodeError{Format: format, Err: ErrEmptyImage}
	}
	reader := bytes.NewReader(data)
	var (
		img image.Image
		err error
	)
	switch format {
	case "png":
		img, err = png.Decode(reader)
	case "jpeg":
		img, err = jpeg.Decode(reader)
	case "gif":
		img, err = gif.Decode(reader)
	case "webp":
		img, err = webp.Decode(reader)
	default:
		img, format, err = image.Decode(reader)
	}
	if err != nil {
		return nil, &DecodeError{Format: format, Err: err}
	}
	return img, nil
}

// HashBytes decodes data and returns its fingerprint.
func HashBytes(data []byte, format string) (string, error) {
	img, err := Decode(data, format)
	if err != nil {
		return "", err
	}
	return Hash(img), nil
}

// HashFile reads, decodes and fingerprints the image at path. The format is
// sniffed from the content; stored artwork may not match its extension.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image %s: %w", path, err)
	}
	return HashBytes(data, "")
}

// FormatFromPath returns the format hint for a file name or URL.
func FormatFromPath(path string) string {
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	return normalizeFormat(filepath.Ext(path))
}

func normalizeFormat(format string) string {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "png":
		return "png"
	case "jpg", "jpeg":
		return "jpeg"
	case "gif":
		return "gif"
	case "webp":
		return "webp"
	default:
		return ""
	}
}
