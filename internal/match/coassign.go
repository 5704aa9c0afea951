package match

import (
	"cmp"
	"slices"
)

// Number is a distance type accepted by CoAssign.
type Number interface {
	~int | ~int64 | ~uint64 | ~float64
}

// Pair scores one source reference against one item.
type Pair[S comparable, D Number] struct {
	Source   S
	Item     int
	Distance D
	// Tie orders pairs at equal distance.
	Tie uint64
}

// CoAssign walks pairs from best to worst and gives each item at most one
// source. A source may be given to several items while each later distance
// stays within tolerance of the best distance recorded for that source.
func CoAssign[S comparable, D Number](pairs []Pair[S, D], tolerance D) map[int]S {
	sorted := slices.Clone(pairs)
	slices.SortStableFunc(sorted, func(a, b Pair[S, D]) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Tie, b.Tie)
	})

	assigned := make(map[int]S)
	best := make(map[S]D)
	for _, p := range sorted {
		if _, taken := assigned[p.Item]; taken {
			continue
		}
		if low, seen := best[p.Source]; seen {
			if p.Distance > low && p.Distance-low > tolerance {
				continue
			}
			if p.Distance < low {
				best[p.Source] = p.Distance
			}
		} else {
			best[p.Source] = p.Distance
		}
		assigned[p.Item] = p.Source
	}
	return assigned
}
