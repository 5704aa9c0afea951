package model

import (
	"slices"
)

// Illustration is one artwork variant of a card.
type Illustration struct {
	CardNumber      string              `json:"card_number"`
	ManageID        Localized[[]uint32] `json:"manage_id,omitzero"`
	Rarity          string              `json:"rarity"`
	ImgPath         Text                `json:"img_path,omitzero"`
	ImgHash         string              `json:"img_hash,omitempty"`
	ImgLastModified string              `json:"img_last_modified,omitempty"`
	YuyuteiSellURL  string              `json:"yuyutei_sell_url,omitempty"`
	DeltaArtIndex   *uint32             `json:"delta_art_index,omitempty"`
	Illustrator     Field[string]       `json:"illustrator,omitzero"`
}

// Released reports whether any language carries an identifier.
func (i *Illustration) Released() bool {
	for _, lang := range Languages {
		if len(i.ManageID.Value(lang)) > 0 {
			return true
		}
	}
	return false
}

// IDs returns the identifiers recorded for lang.
func (i *Illustration) IDs(lang Language) []uint32 {
	return i.ManageID.Value(lang)
}

// HasID reports whether the illustration holds id for lang.
func (i *Illustration) HasID(lang Language, id uint32) bool {
	return slices.Contains(i.ManageID.Value(lang), id)
}

// AddID records id for lang, keeping the list sorted and unique.
func (i *Illustration) AddID(lang Language, id uint32) {
	current := i.ManageID.Value(lang)
	if slices.Contains(current, id) {
		return
	}
	ids := append(slices.Clone(current), id)
	slices.Sort(ids)
	i.ManageID.Set(lang, ids)
}

// RemoveID drops id for lang. It reports whether anything was removed.
func (i *Illustration) RemoveID(lang Language, id uint32) bool {
	current := i.ManageID.Value(lang)
	idx := slices.Index(current, id)
	if idx < 0 {
		return false
	}
	ids := slices.Delete(slices.Clone(current), idx, idx+1)
	if len(ids) == 0 {
		i.ManageID.Clear(lang)
	} else {
		i.ManageID.Set(lang, ids)
	}
	return true
}

// SortKey returns the identifier used to order illustrations: the smallest
// Japanese identifier, falling back to the smallest English one.
func (i *Illustration) SortKey() (uint32, bool) {
	for _, lang := range Languages {
		if ids := i.ManageID.Value(lang); len(ids) > 0 {
			return slices.Min(ids), true
		}
	}
	return 0, false
}

// SetDeltaArtIndex records the third-party art index; nil clears it.
func (i *Illustration) SetDeltaArtIndex(index *uint32) {
	if index == nil {
		i.DeltaArtIndex = nil
		return
	}
	v := *index
	i.DeltaArtIndex = &v
}

// Clone returns a copy that shares no mutable state.
func (i Illustration) Clone() Illustration {
	out := i
	for _, lang := range Languages {
		if ids, ok := i.ManageID.Get(lang); ok {
			out.ManageID.Set(lang, slices.Clone(ids))
		}
	}
	out.SetDeltaArtIndex(i.DeltaArtIndex)
	return out
}

// CompareIllustrations orders illustrations oldest first. Unreleased entries
// have no identifier and sort before released ones.
func CompareIllustrations(a, b *Illustration) int {
	ka, okA := a.SortKey()
	kb, okB := b.SortKey()
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	default:
		return 0
	}
}
