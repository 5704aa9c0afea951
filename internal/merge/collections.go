package merge

import (
	"fmt"
	"slices"

	"hocgassets/internal/model"
)

// copyLang sets dst's lang text from src, leaving dst alone when src has none.
func copyLang(dst *model.Text, src model.Text, lang model.Language) {
	if v, ok := src.Get(lang); ok {
		dst.Set(lang, v)
	}
}

// fillLang copies lang text from old into dst only where dst has none.
func fillLang(dst *model.Text, old model.Text, lang model.Language) {
	if dst.Has(lang) {
		return
	}
	copyLang(dst, old, lang)
}

func mergeOshiSkills(r *recorder, card *model.Card, src model.Field[[]model.OshiSkill], lang model.Language, onlyText bool) {
	incoming, ok := src.Get()
	if !ok {
		return
	}
	current, known := card.OshiSkills.Get()
	if !known {
		card.OshiSkills = model.Known(slices.Clone(incoming))
		return
	}
	if len(incoming) != len(current) {
		r.count("oshi_skills", len(incoming), len(current), onlyText)
	}
	compare := func(i int, observed, kept model.OshiSkill) {
		if observed.Special != kept.Special {
			r.mismatch(fmt.Sprintf("oshi_skills[%d].special", i), fmt.Sprint(observed.Special), fmt.Sprint(kept.Special))
		}
		if observed.HoloPower != kept.HoloPower {
			r.mismatch(fmt.Sprintf("oshi_skills[%d].holo_power", i), observed.HoloPower, kept.HoloPower)
		}
	}

	if onlyText {
		merged := slices.Clone(current)
		for i := range min(len(merged), len(incoming)) {
			compare(i, incoming[i], merged[i])
			copyLang(&merged[i].Name, incoming[i].Name, lang)
			copyLang(&merged[i].AbilityText, incoming[i].AbilityText, lang)
		}
		card.OshiSkills = model.Known(merged)
		return
	}

	replaced := slices.Clone(incoming)
	other := lang.Other()
	for i := range min(len(replaced), len(current)) {
		compare(i, replaced[i], current[i])
		fillLang(&replaced[i].Name, current[i].Name, other)
		fillLang(&replaced[i].AbilityText, current[i].AbilityText, other)
	}
	card.OshiSkills = model.Known(replaced)
}

func mergeKeywords(r *recorder, card *model.Card, src model.Field[[]model.Keyword], lang model.Language, onlyText bool) {
	incoming, ok := src.Get()
	if !ok {
		return
	}
	current, known := card.Keywords.Get()
	if !known {
		card.Keywords = model.Known(slices.Clone(incoming))
		return
	}
	if len(incoming) != len(current) {
		r.count("keywords", len(incoming), len(current), onlyText)
	}
	compare := func(i int, observed, kept model.Keyword) {
		if observed.Effect != kept.Effect {
			r.mismatch(fmt.Sprintf("keywords[%d].effect", i), string(observed.Effect), string(kept.Effect))
		}
	}

	if onlyText {
		merged := slices.Clone(current)
		for i := range min(len(merged), len(incoming)) {
			compare(i, incoming[i], merged[i])
			copyLang(&merged[i].Name, incoming[i].Name, lang)
			copyLang(&merged[i].AbilityText, incoming[i].AbilityText, lang)
		}
		card.Keywords = model.Known(merged)
		return
	}

	replaced := slices.Clone(incoming)
	other := lang.Other()
	for i := range min(len(replaced), len(current)) {
		compare(i, replaced[i], current[i])
		fillLang(&replaced[i].Name, current[i].Name, other)
		fillLang(&replaced[i].AbilityText, current[i].AbilityText, other)
	}
	card.Keywords = model.Known(replaced)
}

func mergeArts(r *recorder, card *model.Card, src model.Field[[]model.Art], lang model.Language, onlyText bool) {
	incoming, ok := src.Get()
	if !ok {
		return
	}
	current, known := card.Arts.Get()
	if !known {
		card.Arts = model.Known(cloneArts(incoming))
		return
	}
	if len(incoming) != len(current) {
		r.count("arts", len(incoming), len(current), onlyText)
	}
	compare := func(i int, observed, kept model.Art) {
		if !slices.Equal(observed.Cheers, kept.Cheers) {
			r.mismatch(fmt.Sprintf("arts[%d].cheers", i), formatColors(observed.Cheers), formatColors(kept.Cheers))
		}
		if observed.Power != kept.Power {
			r.mismatch(fmt.Sprintf("arts[%d].power", i), observed.Power, kept.Power)
		}
		if formatAdvantage(observed.Advantage) != formatAdvantage(kept.Advantage) {
			r.mismatch(fmt.Sprintf("arts[%d].advantage", i), formatAdvantage(observed.Advantage), formatAdvantage(kept.Advantage))
		}
		if (observed.AbilityText == nil) != (kept.AbilityText == nil) {
			r.mismatch(fmt.Sprintf("arts[%d].ability_text", i), presence(observed.AbilityText != nil), presence(kept.AbilityText != nil))
		}
	}

	if onlyText {
		merged := cloneArts(current)
		for i := range min(len(merged), len(incoming)) {
			compare(i, incoming[i], merged[i])
			copyLang(&merged[i].Name, incoming[i].Name, lang)
			if merged[i].AbilityText != nil && incoming[i].AbilityText != nil {
				copyLang(merged[i].AbilityText, *incoming[i].AbilityText, lang)
			}
		}
		card.Arts = model.Known(merged)
		return
	}

	replaced := cloneArts(incoming)
	other := lang.Other()
	for i := range min(len(replaced), len(current)) {
		compare(i, replaced[i], current[i])
		fillLang(&replaced[i].Name, current[i].Name, other)
		if replaced[i].AbilityText != nil && current[i].AbilityText != nil {
			fillLang(replaced[i].AbilityText, *current[i].AbilityText, other)
		}
	}
	card.Arts = model.Known(replaced)
}

func mergeTags(r *recorder, card *model.Card, src model.Field[[]model.Text], lang model.Language, onlyText bool) {
	incoming, ok := src.Get()
	if !ok {
		return
	}
	current, known := card.Tags.Get()
	if !known {
		card.Tags = model.Known(slices.Clone(incoming))
		return
	}
	if len(incoming) != len(current) {
		r.count("tags", len(incoming), len(current), onlyText)
	}

	if onlyText {
		merged := slices.Clone(current)
		for i := range min(len(merged), len(incoming)) {
			copyLang(&merged[i], incoming[i], lang)
		}
		card.Tags = model.Known(merged)
		return
	}

	replaced := slices.Clone(incoming)
	other := lang.Other()
	for i := range min(len(replaced), len(current)) {
		fillLang(&replaced[i], current[i], other)
	}
	card.Tags = model.Known(replaced)
}

// mergeExtra treats extra as a collection of at most one element. A known
// empty Text means the source saw no extra text.
func mergeExtra(r *recorder, card *model.Card, src model.Field[model.Text], lang model.Language, onlyText bool) {
	incoming, ok := src.Get()
	if !ok {
		return
	}
	current, known := card.Extra.Get()
	if !known {
		card.Extra = src
		return
	}
	if incoming.IsZero() != current.IsZero() {
		r.mismatch("extra", presence(!incoming.IsZero()), presence(!current.IsZero()))
	}

	if onlyText {
		if !current.IsZero() && !incoming.IsZero() {
			copyLang(&current, incoming, lang)
			card.Extra = model.Known(current)
		}
		return
	}

	if !incoming.IsZero() && !current.IsZero() {
		fillLang(&incoming, current, lang.Other())
	}
	card.Extra = model.Known(incoming)
}

func cloneArts(arts []model.Art) []model.Art {
	out := make([]model.Art, len(arts))
	for i, art := range arts {
		out[i] = art.Clone()
	}
	return out
}

func formatAdvantage(a *model.Advantage) string {
	if a == nil {
		return "none"
	}
	return fmt.Sprintf("+%d vs %s", a.Amount, a.Color)
}

func presence(present bool) string {
	if present {
		return "present"
	}
	return "absent"
}
