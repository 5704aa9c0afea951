package match

import "strings"

// Tolerances are the distance bands used by Assign.
type Tolerances struct {
	// SameRarity bounds matches against a released slot of the same rarity.
	SameRarity uint64
	// DiffRarity bounds matches against an unreleased slot of another rarity.
	DiffRarity uint64
	// CoAssign lets an already claimed slot absorb another query whose
	// distance is within this much of the first claim.
	CoAssign uint64
	// ProxyRarity is exempt from the unreleased same-rarity trust and must
	// pass the SameRarity band.
	ProxyRarity string
	// TrustUnreleasedSameRarity accepts any distance against an unreleased
	// slot of the same rarity.
	TrustUnreleasedSameRarity bool
}

// DefaultTolerances returns the bands tuned against scanned card artwork.
func DefaultTolerances() Tolerances {
	return Tolerances{
		SameRarity:                256,
		DiffRarity:                4096,
		CoAssign:                  0,
		ProxyRarity:               "P",
		TrustUnreleasedSameRarity: true,
	}
}

func (t Tolerances) normalized() Tolerances {
	d := DefaultTolerances()
	if t.SameRarity == 0 {
		t.SameRarity = d.SameRarity
	}
	if t.DiffRarity == 0 {
		t.DiffRarity = d.DiffRarity
	}
	t.ProxyRarity = strings.TrimSpace(t.ProxyRarity)
	if t.ProxyRarity == "" {
		t.ProxyRarity = d.ProxyRarity
	}
	return t
}

// accepts applies the tolerance gate. ok is false when the target is not
// eligible for the query at all.
func (t Tolerances) accepts(q Query, target Target, distance uint64) (accepted, eligible bool) {
	sameRarity := strings.EqualFold(q.Rarity, target.Rarity)
	switch {
	case target.Released && !sameRarity:
		return false, false
	case distance == maxDistance:
		return false, true
	case target.Released:
		return distance <= t.SameRarity, true
	case sameRarity:
		if strings.EqualFold(q.Rarity, t.ProxyRarity) {
			return distance <= t.SameRarity, true
		}
		return t.TrustUnreleasedSameRarity || distance <= t.SameRarity, true
	default:
		return distance <= t.DiffRarity, true
	}
}
