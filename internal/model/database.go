package model

import (
	"cmp"
	"slices"
	"strings"
)

// Database maps card numbers to canonical cards.
type Database map[string]*Card

// Numbers returns the card numbers in lexical order.
func (d Database) Numbers() []string {
	numbers := make([]string, 0, len(d))
	for number := range d {
		numbers = append(numbers, number)
	}
	slices.Sort(numbers)
	return numbers
}

// Clone deep-copies every card.
func (d Database) Clone() Database {
	out := make(Database, len(d))
	for number, card := range d {
		out[number] = card.Clone()
	}
	return out
}

// Ordered returns the cards in display order: card type, colors, member,
// bloom level, buzz, then card number.
func (d Database) Ordered() []*Card {
	cards := make([]*Card, 0, len(d))
	for _, number := range d.Numbers() {
		cards = append(cards, d[number])
	}
	slices.SortStableFunc(cards, CompareCards)
	return cards
}

// CompareCards implements the display ordering used by Ordered.
func CompareCards(a, b *Card) int {
	ta, tb := a.CardType.Or(TypeOther), b.CardType.Or(TypeOther)
	if c := cmp.Compare(ta.rank(), tb.rank()); c != 0 {
		return c
	}
	if c := compareColors(a.Colors.Or(nil), b.Colors.Or(nil)); c != 0 {
		return c
	}
	if c := cmp.Compare(MemberOrder(a.Name.Value(Japanese)), MemberOrder(b.Name.Value(Japanese))); c != 0 {
		return c
	}
	if c := compareBloom(a.BloomLevel, b.BloomLevel); c != 0 {
		return c
	}
	if c := compareBool(a.Buzz.Or(false), b.Buzz.Or(false)); c != 0 {
		return c
	}
	if ta.Kind == KindSupport && (ta.Support == SupportTool || ta.Support == SupportMascot || ta.Support == SupportFan) {
		if c := cmp.Compare(MemberOrder(a.AbilityText.Value(Japanese)), MemberOrder(b.AbilityText.Value(Japanese))); c != 0 {
			return c
		}
	}
	return strings.Compare(a.CardNumber, b.CardNumber)
}

func compareColors(a, b []Color) int {
	return slices.CompareFunc(a, b, func(x, y Color) int {
		return cmp.Compare(x.Rank(), y.Rank())
	})
}

// compareBloom sorts cards without a bloom level first.
func compareBloom(a, b Field[BloomLevel]) int {
	la, okA := a.Get()
	lb, okB := b.Get()
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	}
	return cmp.Compare(la.rank(), lb.rank())
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
