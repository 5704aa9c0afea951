package merge

import (
	"strings"

	"hocgassets/internal/model"
)

// Placement is an identifier-bearing image reference that arrives without
// image bytes, such as a deck-builder listing.
type Placement struct {
	CardNumber string
	Language   model.Language
	Identifier uint32
	Rarity     string
	ImgPath    string
}

// Placed describes where Place put a reference.
type Placed struct {
	// Index is the illustration position after re-sorting.
	Index   int
	Created bool
	// Stripped counts other illustrations of the card that lost the identifier.
	Stripped int
}

// Place binds p to an illustration of card. It looks for the illustration
// already holding the identifier, then one showing the same image path, then
// the oldest unreleased slot, and appends a new illustration otherwise. The
// identifier is removed from every other illustration of the card and the
// list is re-sorted. Holders on other cards are the caller's concern.
func Place(card *model.Card, p Placement) Placed {
	lang := p.Language
	if lang == "" {
		lang = model.Japanese
	}
	if card.CardNumber == "" {
		card.CardNumber = p.CardNumber
	}
	img := strings.TrimSpace(p.ImgPath)

	idx := card.FindByID(lang, p.Identifier)
	if idx < 0 && img != "" {
		for i := range card.Illustrations {
			if card.Illustrations[i].ImgPath.Value(lang) == img {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		for i := range card.Illustrations {
			if !card.Illustrations[i].Released() {
				idx = i
				break
			}
		}
	}

	var out Placed
	if idx < 0 {
		card.Illustrations = append(card.Illustrations, model.Illustration{CardNumber: card.CardNumber})
		idx = len(card.Illustrations) - 1
		out.Created = true
	}

	illust := &card.Illustrations[idx]
	illust.CardNumber = card.CardNumber
	illust.AddID(lang, p.Identifier)
	if p.Rarity != "" {
		illust.Rarity = p.Rarity
	}
	if img != "" {
		illust.ImgPath.Set(lang, img)
	}
	out.Stripped = card.StripID(lang, p.Identifier, idx)

	card.SortIllustrations()
	out.Index = card.FindByID(lang, p.Identifier)
	return out
}
