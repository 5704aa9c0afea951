package imagehash

import (
	"encoding/base64"
	"math"
	"math/bits"
	"strings"
)

// MaxDistance marks fingerprints that cannot be compared. It never passes a
// tolerance check.
const MaxDistance uint64 = math.MaxUint64

// Distance returns the product of the per-channel Hamming distances between
// two fingerprints. Channel distances of 2 or less count as 1 so that
// near-identical channels do not zero out the product. Malformed or
// incompatible fingerprints yield MaxDistance.
func Distance(a, b string) uint64 {
	if a == "" || b == "" {
		return MaxDistance
	}
	partsA := strings.Split(a, separator)
	partsB := strings.Split(b, separator)
	if len(partsA) != len(partsB) {
		return MaxDistance
	}

	total := uint64(1)
	for i := range partsA {
		d, ok := channelDistance(partsA[i], partsB[i])
		if !ok {
			return MaxDistance
		}
		hi, lo := bits.Mul64(total, d)
		if hi != 0 || lo == MaxDistance {
			return MaxDistance
		}
		total = lo
	}
	return total
}

func channelDistance(a, b string) (uint64, bool) {
	bytesA, err := base64.StdEncoding.DecodeString(a)
	if err != nil || len(bytesA) == 0 {
		return 0, false
	}
	bytesB, err := base64.StdEncoding.DecodeString(b)
	if err != nil || len(bytesB) != len(bytesA) {
		return 0, false
	}
	var d uint64
	for i := range bytesA {
		d += uint64(bits.OnesCount8(bytesA[i] ^ bytesB[i]))
	}
	if d <= 2 {
		d = 1
	}
	return d, true
}

// Valid reports whether fingerprint can be compared with itself.
func Valid(fingerprint string) bool {
	return Distance(fingerprint, fingerprint) != MaxDistance
}
