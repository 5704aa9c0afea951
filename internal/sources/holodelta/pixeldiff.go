package holodelta

import (
	"image"

	"golang.org/x/image/draw"
)

// Card scans are 744x1040; comparisons run on a 1/20 thumbnail with the
// rounded corners cropped away.
const (
	thumbWidth  = 744 / 20
	thumbHeight = 1040 / 20
	corner      = 1
	cropWidth   = thumbWidth - 2*corner
	cropHeight  = thumbHeight - 2*corner
	samples     = cropWidth * cropHeight * 3

	// DiffTolerance lets several illustrations share one art when their
	// scores are within six channel samples of the best one.
	DiffTolerance = 6.0 / samples * 100
	// MaxDiff rejects pairs that are too different to be the same art.
	MaxDiff = 50.0

	bigDelta   = 50
	smallDelta = 5
)

// thumbnail holds the red, green and blue planes of a cropped thumbnail.
type thumbnail [3][]uint8

var neighbours = [...][2]int{
	{0, 0}, {1, 0}, {0, 1}, {-1, 0}, {0, -1},
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
}

func prepare(img image.Image) thumbnail {
	scaled := image.NewRGBA(image.Rect(0, 0, thumbWidth, thumbHeight))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	var t thumbnail
	for c := range t {
		t[c] = make([]uint8, cropWidth*cropHeight)
	}
	for y := range cropHeight {
		for x := range cropWidth {
			off := scaled.PixOffset(x+corner, y+corner)
			i := y*cropWidth + x
			t[0][i] = scaled.Pix[off]
			t[1][i] = scaled.Pix[off+1]
			t[2][i] = scaled.Pix[off+2]
		}
	}
	return t
}

// penalty scores one plane. Each pixel takes the closest value in the 3x3
// neighbourhood of the other plane, which absorbs a one pixel shift.
func penalty(card, art []uint8) int {
	total := 0
	for y := range cropHeight {
		for x := range cropWidth {
			c := int(card[y*cropWidth+x])
			best := -1
			for _, n := range neighbours {
				nx, ny := x+n[0], y+n[1]
				if nx < 0 || ny < 0 || nx >= cropWidth || ny >= cropHeight {
					continue
				}
				d := int(art[ny*cropWidth+nx]) - c
				if d < 0 {
					d = -d
				}
				if best < 0 || d < best {
					best = d
				}
			}
			switch {
			case best > bigDelta:
				total += 2
			case best > smallDelta:
				total++
			}
		}
	}
	return total
}

// diff returns the penalty of card against art as a percentage of the
// sample count. Identical thumbnails score 0.
func diff(card, art thumbnail) float64 {
	total := 0
	for c := range card {
		total += penalty(card[c], art[c])
	}
	return float64(total) / samples * 100
}
