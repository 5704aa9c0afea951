package model

import (
	"slices"
)

// Card is the canonical, deduplicated record for one card number.
type Card struct {
	CardNumber    string             `json:"card_number"`
	Name          Text               `json:"name"`
	CardType      Field[CardType]    `json:"card_type,omitzero"`
	Colors        Field[[]Color]     `json:"colors,omitzero"`
	Life          Field[uint32]      `json:"life,omitzero"`
	HP            Field[uint32]      `json:"hp,omitzero"`
	BloomLevel    Field[BloomLevel]  `json:"bloom_level,omitzero"`
	Buzz          Field[bool]        `json:"buzz,omitzero"`
	Limited       Field[bool]        `json:"limited,omitzero"`
	AbilityText   Text               `json:"ability_text,omitzero"`
	Extra         Field[Text]        `json:"extra,omitzero"`
	Tags          Field[[]Text]      `json:"tags,omitzero"`
	OshiSkills    Field[[]OshiSkill] `json:"oshi_skills,omitzero"`
	Keywords      Field[[]Keyword]   `json:"keywords,omitzero"`
	Arts          Field[[]Art]       `json:"arts,omitzero"`
	BatonPass     Field[[]Color]     `json:"baton_pass,omitzero"`
	MaxAmount     Field[uint32]      `json:"max_amount,omitzero"`
	Illustrations []Illustration     `json:"illustrations"`
}

// OshiSkill is an oshi card skill.
type OshiSkill struct {
	Special     bool   `json:"special"`
	HoloPower   string `json:"holo_power"`
	Name        Text   `json:"name"`
	AbilityText Text   `json:"ability_text"`
}

// Keyword is a named collab, bloom or gift effect.
type Keyword struct {
	Effect      KeywordEffect `json:"effect"`
	Name        Text          `json:"name"`
	AbilityText Text          `json:"ability_text"`
}

// Advantage is the bonus damage an art deals against a color.
type Advantage struct {
	Color  Color  `json:"color"`
	Amount uint32 `json:"amount"`
}

// Art is a holomem attack.
type Art struct {
	Cheers      []Color    `json:"cheers"`
	Name        Text       `json:"name"`
	Power       string     `json:"power"`
	Advantage   *Advantage `json:"advantage,omitempty"`
	AbilityText *Text      `json:"ability_text,omitempty"`
}

// NewCard returns an empty card for number.
func NewCard(number string) *Card {
	return &Card{CardNumber: number}
}

// Released reports whether any illustration carries an identifier.
func (c *Card) Released() bool {
	for i := range c.Illustrations {
		if c.Illustrations[i].Released() {
			return true
		}
	}
	return false
}

// SortIllustrations restores the oldest-first order. The sort is stable so
// unreleased entries keep their insertion order.
func (c *Card) SortIllustrations() {
	slices.SortStableFunc(c.Illustrations, func(a, b Illustration) int {
		return CompareIllustrations(&a, &b)
	})
}

// FindByID returns the index of the illustration holding id for lang, or -1.
func (c *Card) FindByID(lang Language, id uint32) int {
	for i := range c.Illustrations {
		if c.Illustrations[i].HasID(lang, id) {
			return i
		}
	}
	return -1
}

// StripID removes id for lang from every illustration except keep (-1 strips
// all). It returns how many illustrations lost the identifier.
func (c *Card) StripID(lang Language, id uint32, keep int) int {
	removed := 0
	for i := range c.Illustrations {
		if i == keep {
			continue
		}
		if c.Illustrations[i].RemoveID(lang, id) {
			removed++
		}
	}
	return removed
}

// Clone returns a deep copy of the card.
func (c *Card) Clone() *Card {
	if c == nil {
		return nil
	}
	out := *c
	if v, ok := c.Colors.Get(); ok {
		out.Colors = Known(slices.Clone(v))
	}
	if v, ok := c.BatonPass.Get(); ok {
		out.BatonPass = Known(slices.Clone(v))
	}
	if v, ok := c.Tags.Get(); ok {
		out.Tags = Known(slices.Clone(v))
	}
	if v, ok := c.OshiSkills.Get(); ok {
		out.OshiSkills = Known(slices.Clone(v))
	}
	if v, ok := c.Keywords.Get(); ok {
		out.Keywords = Known(slices.Clone(v))
	}
	if v, ok := c.Arts.Get(); ok {
		arts := make([]Art, len(v))
		for i, art := range v {
			arts[i] = art.Clone()
		}
		out.Arts = Known(arts)
	}
	if c.Illustrations != nil {
		out.Illustrations = make([]Illustration, len(c.Illustrations))
		for i := range c.Illustrations {
			out.Illustrations[i] = c.Illustrations[i].Clone()
		}
	}
	return &out
}

// Clone returns a deep copy of the art.
func (a Art) Clone() Art {
	out := a
	out.Cheers = slices.Clone(a.Cheers)
	if a.Advantage != nil {
		adv := *a.Advantage
		out.Advantage = &adv
	}
	if a.AbilityText != nil {
		text := *a.AbilityText
		out.AbilityText = &text
	}
	return out
}
