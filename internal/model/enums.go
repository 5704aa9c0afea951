package model

import (
	"encoding/json"
	"fmt"
)

// CardKind is the top-level card category.
type CardKind string

const (
	KindOshi    CardKind = "oshi_holomem"
	KindHoloMem CardKind = "holomem"
	KindSupport CardKind = "support"
	KindCheer   CardKind = "cheer"
	KindOther   CardKind = "other"
)

// SupportType refines support cards.
type SupportType string

const (
	SupportStaff  SupportType = "staff"
	SupportItem   SupportType = "item"
	SupportEvent  SupportType = "event"
	SupportTool   SupportType = "tool"
	SupportMascot SupportType = "mascot"
	SupportFan    SupportType = "fan"
)

// CardType combines the kind with the support subtype. It encodes as a bare
// string ("holomem") or, for support cards, as {"support":"staff"}.
type CardType struct {
	Kind    CardKind
	Support SupportType
}

var (
	TypeOshi    = CardType{Kind: KindOshi}
	TypeHoloMem = CardType{Kind: KindHoloMem}
	TypeCheer   = CardType{Kind: KindCheer}
	TypeOther   = CardType{Kind: KindOther}
)

// SupportCard builds a support card type.
func SupportCard(support SupportType) CardType {
	return CardType{Kind: KindSupport, Support: support}
}

func (t CardType) String() string {
	if t.Kind == KindSupport {
		return string(t.Kind) + "/" + string(t.Support)
	}
	return string(t.Kind)
}

func (t CardType) MarshalJSON() ([]byte, error) {
	if t.Kind == KindSupport {
		return json.Marshal(map[string]SupportType{string(KindSupport): t.Support})
	}
	kind := t.Kind
	if kind == "" {
		kind = KindOther
	}
	return json.Marshal(string(kind))
}

func (t *CardType) UnmarshalJSON(data []byte) error {
	var kind string
	if err := json.Unmarshal(data, &kind); err == nil {
		switch CardKind(kind) {
		case KindOshi, KindHoloMem, KindCheer, KindOther:
			*t = CardType{Kind: CardKind(kind)}
			return nil
		}
		return fmt.Errorf("unknown card type %q", kind)
	}
	var tagged map[string]SupportType
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("decode card type: %w", err)
	}
	support, ok := tagged[string(KindSupport)]
	if !ok || len(tagged) != 1 {
		return fmt.Errorf("unknown card type %s", data)
	}
	*t = SupportCard(support)
	return nil
}

// rank orders card types for display.
func (t CardType) rank() int {
	switch t.Kind {
	case KindOshi:
		return 0
	case KindHoloMem:
		return 1
	case KindSupport:
		for i, s := range []SupportType{SupportStaff, SupportItem, SupportEvent, SupportTool, SupportMascot, SupportFan} {
			if s == t.Support {
				return 2 + i
			}
		}
		return 8
	case KindCheer:
		return 9
	default:
		return 10
	}
}

// Color is a card or cheer color.
type Color string

const (
	White     Color = "white"
	Green     Color = "green"
	Red       Color = "red"
	Blue      Color = "blue"
	Purple    Color = "purple"
	Yellow    Color = "yellow"
	Colorless Color = "colorless"
)

var colorOrder = map[Color]int{White: 0, Green: 1, Red: 2, Blue: 3, Purple: 4, Yellow: 5, Colorless: 6}

// Rank returns the canonical position of the color.
func (c Color) Rank() int {
	if r, ok := colorOrder[c]; ok {
		return r
	}
	return len(colorOrder)
}

// BloomLevel is the holomem bloom stage.
type BloomLevel string

const (
	BloomDebut  BloomLevel = "debut"
	BloomFirst  BloomLevel = "1st"
	BloomSecond BloomLevel = "2nd"
	BloomSpot   BloomLevel = "spot"
)

func (b BloomLevel) rank() int {
	switch b {
	case BloomDebut:
		return 0
	case BloomFirst:
		return 1
	case BloomSecond:
		return 2
	case BloomSpot:
		return 3
	default:
		return 4
	}
}

// KeywordEffect is the kind of a keyword ability.
type KeywordEffect string

const (
	EffectCollab KeywordEffect = "collab"
	EffectBloom  KeywordEffect = "bloom"
	EffectGift   KeywordEffect = "gift"
)
