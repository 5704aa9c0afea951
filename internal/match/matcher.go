package match

import (
	"cmp"
	"fmt"
	"slices"

	"hocgassets/internal/imagehash"
	"hocgassets/internal/model"
)

const maxDistance = imagehash.MaxDistance

// Outcome is how a query was resolved.
type Outcome int

const (
	// OutcomeNew means no slot matched and a new illustration is needed.
	OutcomeNew Outcome = iota
	// OutcomeBound means the query identifier is already held by a slot.
	OutcomeBound
	// OutcomeMatched means the query was paired with a slot by image.
	OutcomeMatched
	// OutcomeUnmatched means the query conflicts with another card and needs
	// review.
	OutcomeUnmatched
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBound:
		return "bound"
	case OutcomeMatched:
		return "matched"
	case OutcomeUnmatched:
		return "unmatched"
	default:
		return "new"
	}
}

// Query is one observed artwork.
type Query struct {
	Key         string
	Fingerprint string
	Rarity      string
	Language    model.Language
	Identifier  model.Field[uint32]
}

// Target is an existing illustration slot of the card.
type Target struct {
	Index       int
	CardNumber  string
	Fingerprint string
	Rarity      string
	Released    bool
	// IDs holds the slot identifiers per language.
	IDs model.Localized[[]uint32]
	// Order is the slot sort key; unset for unreleased slots.
	Order model.Field[uint32]
}

// TargetsFrom builds the target pool for card.
func TargetsFrom(card *model.Card) []Target {
	targets := make([]Target, len(card.Illustrations))
	for i := range card.Illustrations {
		illust := &card.Illustrations[i]
		target := Target{
			Index:       i,
			CardNumber:  illust.CardNumber,
			Fingerprint: illust.ImgHash,
			Rarity:      illust.Rarity,
			Released:    illust.Released(),
			IDs:         illust.ManageID,
		}
		if key, ok := illust.SortKey(); ok {
			target.Order = model.Known(key)
		}
		targets[i] = target
	}
	return targets
}

// HolderFunc reports which card, other than the one being matched, holds an
// identifier.
type HolderFunc func(lang model.Language, id uint32) (cardNumber string, ok bool)

// Request is the input of Assign.
type Request struct {
	CardNumber string
	Queries    []Query
	Targets    []Target
	Tolerances Tolerances
	// Holder is optional. Without it identifier conflicts across cards are
	// not detected.
	Holder HolderFunc
}

// Assignment is the resolution of one query.
type Assignment struct {
	Query    int
	Key      string
	Outcome  Outcome
	Target   int
	Distance uint64
	// Holder is the card holding the identifier of an unmatched query.
	Holder string
}

func (a Assignment) String() string {
	switch a.Outcome {
	case OutcomeMatched:
		return fmt.Sprintf("%s -> slot %d (distance %d)", a.Key, a.Target, a.Distance)
	case OutcomeBound:
		return fmt.Sprintf("%s -> slot %d (identifier)", a.Key, a.Target)
	case OutcomeUnmatched:
		return fmt.Sprintf("%s unmatched (held by %s)", a.Key, a.Holder)
	default:
		return fmt.Sprintf("%s -> new slot", a.Key)
	}
}

// Result lists one assignment per query, in query order.
type Result struct {
	Assignments []Assignment
}

// Count returns how many assignments ended with outcome.
func (r Result) Count(outcome Outcome) int {
	n := 0
	for _, a := range r.Assignments {
		if a.Outcome == outcome {
			n++
		}
	}
	return n
}

type candidate struct {
	query    int
	target   int
	distance uint64
}

// Assign resolves every query against the target pool. The result depends
// only on the request: ties fall back to the oldest slot, then slot order,
// then query order.
func Assign(req Request) Result {
	tol := req.Tolerances.normalized()
	assignments := make([]Assignment, len(req.Queries))
	claims := make(map[int]uint64, len(req.Targets))
	done := make([]bool, len(req.Queries))

	for qi, q := range req.Queries {
		assignments[qi] = Assignment{Query: qi, Key: q.Key, Outcome: OutcomeNew, Target: -1}
		id, ok := q.Identifier.Get()
		if !ok {
			continue
		}
		for ti, target := range req.Targets {
			if slices.Contains(target.IDs.Value(q.Language), id) {
				assignments[qi].Outcome = OutcomeBound
				assignments[qi].Target = target.Index
				claims[ti] = 0
				done[qi] = true
				break
			}
		}
	}

	var candidates []candidate
	for qi, q := range req.Queries {
		if done[qi] {
			continue
		}
		for ti, target := range req.Targets {
			if req.CardNumber != "" && target.CardNumber != "" && target.CardNumber != req.CardNumber {
				continue
			}
			d := imagehash.Distance(q.Fingerprint, target.Fingerprint)
			accepted, eligible := tol.accepts(q, target, d)
			if !eligible || !accepted {
				continue
			}
			candidates = append(candidates, candidate{query: qi, target: ti, distance: d})
		}
	}

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		if c := cmp.Compare(a.distance, b.distance); c != 0 {
			return c
		}
		if c := compareOrder(req.Targets[a.target].Order, req.Targets[b.target].Order); c != 0 {
			return c
		}
		if c := cmp.Compare(req.Targets[a.target].Index, req.Targets[b.target].Index); c != 0 {
			return c
		}
		return cmp.Compare(a.query, b.query)
	})

	for _, c := range candidates {
		if done[c.query] {
			continue
		}
		if first, claimed := claims[c.target]; claimed && !withinCoAssign(first, c.distance, tol.CoAssign) {
			continue
		}
		if _, claimed := claims[c.target]; !claimed {
			claims[c.target] = c.distance
		}
		assignments[c.query].Outcome = OutcomeMatched
		assignments[c.query].Target = req.Targets[c.target].Index
		assignments[c.query].Distance = c.distance
		done[c.query] = true
	}

	if req.Holder != nil {
		for qi, q := range req.Queries {
			if done[qi] {
				continue
			}
			id, ok := q.Identifier.Get()
			if !ok {
				continue
			}
			if holder, held := req.Holder(q.Language, id); held && holder != req.CardNumber {
				assignments[qi].Outcome = OutcomeUnmatched
				assignments[qi].Holder = holder
			}
		}
	}

	return Result{Assignments: assignments}
}

// compareOrder sorts older slots first and unreleased slots last.
func compareOrder(a, b model.Field[uint32]) int {
	ka, okA := a.Get()
	kb, okB := b.Get()
	switch {
	case okA && okB:
		return cmp.Compare(ka, kb)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return 0
	}
}

func withinCoAssign(first, distance, tolerance uint64) bool {
	if distance <= first {
		return true
	}
	return distance-first <= tolerance
}
