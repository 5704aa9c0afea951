package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// PNGBytes renders a small card-shaped image. Different seeds give images far
// apart in fingerprint distance; the same seed always gives the same bytes.
func PNGBytes(t testing.TB, seed uint64) []byte {
	t.Helper()

	const cell = 8
	img := image.NewRGBA(image.Rect(0, 0, 8*cell, 11*cell))
	state := seed*6364136223846793005 + 1442695040888963407
	for by := 0; by < 11; by++ {
		for bx := 0; bx < 8; bx++ {
			state = state*6364136223846793005 + 1442695040888963407
			c := color.RGBA{R: uint8(state >> 56), G: uint8(state >> 48), B: uint8(state >> 40), A: 255}
			for y := by * cell; y < (by+1)*cell; y++ {
				for x := bx * cell; x < (bx+1)*cell; x++ {
					img.SetRGBA(x, y, c)
				}
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
