package imagehash

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand/v2"
	"strings"
	"testing"
)

func gradientImage(width, height int, flip bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(x * 255 / width)
			if flip {
				v = 255 - v
			}
			img.Set(x, y, color.RGBA{R: v, G: uint8(y * 255 / height), B: 255 - v, A: 255})
		}
	}
	return img
}

func fingerprint(channels ...[]byte) string {
	parts := make([]string, len(channels))
	for i, c := range channels {
		parts[i] = base64.StdEncoding.EncodeToString(c)
	}
	return strings.Join(parts, "|")
}

func TestHashIsDeterministicAndWellFormed(t *testing.T) {
	img := gradientImage(744, 1040, false)
	first := Hash(img)
	second := Hash(img)
	if first != second {
		t.Fatalf("hash not deterministic: %q vs %q", first, second)
	}
	parts := strings.Split(first, "|")
	if len(parts) != Channels {
		t.Fatalf("expected %d channels, got %d", Channels, len(parts))
	}
	for _, part := range parts {
		raw, err := base64.StdEncoding.DecodeString(part)
		if err != nil {
			t.Fatalf("channel %q is not base64: %v", part, err)
		}
		if len(raw) != 8 {
			t.Fatalf("expected 64-bit channel hash, got %d bytes", len(raw))
		}
	}
}

// blockImage paints an 18x16 grid of pseudo-random cells scaled by cell
// pixels, so the same seed yields the same artwork at any size.
func blockImage(seed uint64, cell int) *image.RGBA {
	rng := rand.New(rand.NewPCG(seed, seed))
	colors := make([]color.RGBA, 18*16)
	for i := range colors {
		colors[i] = color.RGBA{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256)), A: 255}
	}
	img := image.NewRGBA(image.Rect(0, 0, 18*cell, 16*cell))
	for y := 0; y < 16*cell; y++ {
		for x := 0; x < 18*cell; x++ {
			img.Set(x, y, colors[(y/cell)*18+x/cell])
		}
	}
	return img
}

func TestHashSeparatesDifferentArtwork(t *testing.T) {
	a := Hash(blockImage(1, 10))
	scaled := Hash(blockImage(1, 20))
	other := Hash(blockImage(2, 10))

	if Distance(a, scaled) >= Distance(a, other) {
		t.Fatalf("expected rescaled artwork (%d) closer than different artwork (%d)",
			Distance(a, scaled), Distance(a, other))
	}
}

func TestDistanceIdentityIsOne(t *testing.T) {
	h := Hash(gradientImage(64, 64, false))
	if d := Distance(h, h); d != 1 {
		t.Fatalf("expected self distance 1, got %d", d)
	}
	if !Valid(h) {
		t.Fatal("expected hash to be valid")
	}
}

func TestDistanceFloorsSmallChannelDifferences(t *testing.T) {
	zero := make([]byte, 8)
	oneBit := []byte{1, 0, 0, 0, 0, 0, 0, 0}
	a := fingerprint(zero, zero, zero, zero)
	b := fingerprint(zero, zero, zero, oneBit)
	if d := Distance(a, b); d != 1 {
		t.Fatalf("expected product of floored channels to be 1, got %d", d)
	}

	threeBits := []byte{7, 0, 0, 0, 0, 0, 0, 0}
	fiveBits := []byte{0x1f, 0, 0, 0, 0, 0, 0, 0}
	c := fingerprint(threeBits, fiveBits, zero, zero)
	if d := Distance(a, c); d != 15 {
		t.Fatalf("expected 3*5*1*1 = 15, got %d", d)
	}
	if Distance(a, c) != Distance(c, a) {
		t.Fatal("distance must be symmetric")
	}
}

func TestDistanceRejectsIncompatibleFingerprints(t *testing.T) {
	zero := make([]byte, 8)
	valid := fingerprint(zero, zero, zero, zero)
	cases := map[string]string{
		"empty":          "",
		"channel count":  fingerprint(zero, zero, zero),
		"not base64":     "!!|!!|!!|!!",
		"length differs": fingerprint(zero, zero, zero, make([]byte, 4)),
		"empty channel":  "|||",
	}
	for name, other := range cases {
		if d := Distance(valid, other); d != MaxDistance {
			t.Fatalf("%s: expected MaxDistance, got %d", name, d)
		}
	}
}

func TestDistanceSaturates(t *testing.T) {
	zero := make([]byte, 32)
	full := bytes.Repeat([]byte{0xff}, 32)
	a := fingerprint(zero, zero, zero, zero, zero, zero, zero, zero, zero, zero, zero, zero, zero)
	b := fingerprint(full, full, full, full, full, full, full, full, full, full, full, full, full)
	if d := Distance(a, b); d != math.MaxUint64 {
		t.Fatalf("expected saturation, got %d", d)
	}
}

func TestDecodeAndHashBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradientImage(40, 56, false)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	fromHint, err := HashBytes(buf.Bytes(), ".png")
	if err != nil {
		t.Fatalf("hash with hint: %v", err)
	}
	sniffed, err := HashBytes(buf.Bytes(), "")
	if err != nil {
		t.Fatalf("hash sniffed: %v", err)
	}
	if fromHint != sniffed {
		t.Fatal("format hint changed the fingerprint")
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte("not an image"), "webp")
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Format != "webp" {
		t.Fatalf("expected webp format, got %q", decodeErr.Format)
	}

	_, err = Decode(nil, "png")
	if !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]string{
		"https://example.com/cards/hBP01-001_OSR.webp?v=2": "webp",
		"hSD01-001.PNG": "png",
		"a.jpg":         "jpeg",
		"noext":         "",
	}
	for in, want := range cases {
		if got := FormatFromPath(in); got != want {
			t.Fatalf("FormatFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}
