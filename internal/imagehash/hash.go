package imagehash

import (
	"encoding/base64"
	"image"
	"math"
	"strings"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/mat"
)

const (
	blockWidth  = 9
	blockHeight = 8

	sampleWidth  = blockWidth * 2
	sampleHeight = blockHeight * 2

	// Channels is the number of channel hashes in a fingerprint.
	Channels = 4

	separator = "|"
)

var (
	dctRows = dctMatrix(sampleHeight)
	dctCols = dctMatrix(sampleWidth)
)

// Hash returns the fingerprint of img. Hash is pure: equal pixels always
// produce the same fingerprint.
func Hash(img image.Image) string {
	sample := image.NewRGBA(image.Rect(0, 0, sampleWidth, sampleHeight))
	draw.CatmullRom.Scale(sample, sample.Bounds(), img, img.Bounds(), draw.Src, nil)

	planes := splitPlanes(sample)
	parts := make([]string, len(planes))
	for i, plane := range planes {
		parts[i] = base64.StdEncoding.EncodeToString(channelHash(plane))
	}
	return strings.Join(parts, separator)
}

// splitPlanes returns the red, green, blue and inverse saturation planes of
// img as row-major matrices.
func splitPlanes(img *image.RGBA) [Channels]*mat.Dense {
	var planes [Channels]*mat.Dense
	for i := range planes {
		planes[i] = mat.NewDense(sampleHeight, sampleWidth, nil)
	}
	for y := 0; y < sampleHeight; y++ {
		for x := 0; x < sampleWidth; x++ {
			offset := img.PixOffset(x, y)
			r := float64(img.Pix[offset])
			g := float64(img.Pix[offset+1])
			b := float64(img.Pix[offset+2])
			planes[0].Set(y, x, r)
			planes[1].Set(y, x, g)
			planes[2].Set(y, x, b)
			planes[3].Set(y, x, 255*(1-saturation(r, g, b)))
		}
	}
	return planes
}

// saturation is the HSV saturation of an RGB triple.
func saturation(r, g, b float64) float64 {
	hi := math.Max(r, math.Max(g, b))
	if hi == 0 {
		return 0
	}
	lo := math.Min(r, math.Min(g, b))
	return (hi - lo) / hi
}

// channelHash applies the 2D DCT-II, keeps the low-frequency block and sets
// one bit per horizontally increasing pair, most significant bit first.
func channelHash(plane *mat.Dense) []byte {
	var tmp, coeffs mat.Dense
	tmp.Mul(dctRows, plane)
	coeffs.Mul(&tmp, dctCols.T())

	out := make([]byte, blockHeight*(blockWidth-1)/8)
	bit := 0
	for y := 0; y < blockHeight; y++ {
		for x := 0; x < blockWidth-1; x++ {
			if coeffs.At(y, x) < coeffs.At(y, x+1) {
				out[bit/8] |= 0x80 >> (bit % 8)
			}
			bit++
		}
	}
	return out
}

// dctMatrix builds the orthonormal n×n DCT-II basis.
func dctMatrix(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	scale0 := math.Sqrt(1 / float64(n))
	scale := math.Sqrt(2 / float64(n))
	for k := 0; k < n; k++ {
		s := scale
		if k == 0 {
			s = scale0
		}
		for i := 0; i < n; i++ {
			m.Set(k, i, s*math.Cos(math.Pi*float64(2*i+1)*float64(k)/float64(2*n)))
		}
	}
	return m
}
