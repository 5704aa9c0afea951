package merge

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"hocgassets/internal/model"
)

// ErrInvalidObservation marks an observation too broken to merge. The caller
// logs it and moves on to the next record.
var ErrInvalidObservation = errors.New("invalid observation")

// anyNumberExtra is the English extra text of holomem that ignore the deck limit.
const anyNumberExtra = "You may include any number of this holomem in the deck"

// Merger folds normalized observations into canonical cards.
type Merger struct {
	Sink WarningSink
}

// New returns a Merger reporting to sink. A nil sink drops warnings; they are
// still returned from Merge.
func New(sink WarningSink) *Merger {
	return &Merger{Sink: sink}
}

// Merge applies obs to card in place and returns the mismatches it found.
// Scalars only overwrite unset values or unreleased cards. Collections follow
// obs.OnlyText: text-only merges keep the stored structure and replace the
// observation language's text, full merges take the observed structure and
// carry the other language's text across by position.
func (m *Merger) Merge(ctx context.Context, card *model.Card, obs model.Observation) ([]Warning, error) {
	if card == nil {
		return nil, fmt.Errorf("%w: nil card", ErrInvalidObservation)
	}
	number := strings.TrimSpace(obs.Card.CardNumber)
	if number == "" {
		return nil, fmt.Errorf("%w: %s observation without card number", ErrInvalidObservation, obs.Source)
	}
	lang := obs.Language
	if lang == "" {
		lang = model.Japanese
	}

	r := &recorder{card: card.CardNumber, source: obs.Source}
	if r.card == "" {
		r.card = number
	}
	released := card.Released()
	in := &obs.Card

	switch {
	case card.CardNumber == "" || !released:
		card.CardNumber = number
	case card.CardNumber != number:
		r.mismatch("card_number", number, card.CardNumber)
	}

	mergeText(r, "name", &card.Name, in.Name, lang, released)
	mergeScalar(r, "card_type", &card.CardType, in.CardType, released, model.CardType.String)
	mergeColors(r, "colors", &card.Colors, in.Colors, released)
	mergeScalar(r, "life", &card.Life, in.Life, released, formatUint)
	mergeScalar(r, "hp", &card.HP, in.HP, released, formatUint)
	mergeScalar(r, "bloom_level", &card.BloomLevel, in.BloomLevel, released, func(b model.BloomLevel) string { return string(b) })
	mergeScalar(r, "buzz", &card.Buzz, in.Buzz, released, strconv.FormatBool)
	mergeScalar(r, "limited", &card.Limited, in.Limited, released, strconv.FormatBool)
	mergeColors(r, "baton_pass", &card.BatonPass, in.BatonPass, released)
	mergeScalar(r, "max_amount", &card.MaxAmount, in.MaxAmount, released, formatUint)
	mergeText(r, "ability_text", &card.AbilityText, in.AbilityText, lang, released)

	mergeOshiSkills(r, card, in.OshiSkills, lang, obs.OnlyText)
	mergeKeywords(r, card, in.Keywords, lang, obs.OnlyText)
	mergeArts(r, card, in.Arts, lang, obs.OnlyText)
	mergeTags(r, card, in.Tags, lang, obs.OnlyText)
	mergeExtra(r, card, in.Extra, lang, obs.OnlyText)

	if !in.MaxAmount.IsKnown() && (!card.MaxAmount.IsKnown() || !released) {
		card.MaxAmount = model.Known(DefaultMaxAmount(card))
	}

	if m != nil && m.Sink != nil {
		for _, w := range r.warnings {
			m.Sink.Warn(ctx, w)
		}
	}
	return r.warnings, nil
}

// DefaultMaxAmount is the deck limit implied by the card type and extra text.
func DefaultMaxAmount(card *model.Card) uint32 {
	if extra, ok := card.Extra.Get(); ok && extra.Value(model.English) == anyNumberExtra {
		return 50
	}
	kind, _ := card.CardType.Get()
	switch kind.Kind {
	case model.KindOshi:
		return 1
	case model.KindCheer:
		return 20
	default:
		return 4
	}
}

type recorder struct {
	card     string
	source   string
	warnings []Warning
}

func (r *recorder) mismatch(field, observed, kept string) {
	r.warnings = append(r.warnings, Warning{CardNumber: r.card, Source: r.source, Field: field, Observed: observed, Kept: kept})
}

func (r *recorder) detail(field, format string, args ...any) {
	r.warnings = append(r.warnings, Warning{CardNumber: r.card, Source: r.source, Field: field, Detail: fmt.Sprintf(format, args...)})
}

func (r *recorder) count(field string, observed, kept int, onlyText bool) {
	verb := "kept"
	if !onlyText {
		verb = "replaced"
	}
	r.warnings = append(r.warnings, Warning{
		CardNumber: r.card,
		Source:     r.source,
		Field:      field,
		Observed:   strconv.Itoa(observed),
		Kept:       strconv.Itoa(kept),
		Detail:     fmt.Sprintf("count mismatch: observed %d, %s %d", observed, verb, kept),
	})
}

func mergeScalar[T comparable](r *recorder, field string, dst *model.Field[T], src model.Field[T], released bool, format func(T) string) {
	incoming, ok := src.Get()
	if !ok {
		return
	}
	current, known := dst.Get()
	if !known || !released {
		*dst = src
		return
	}
	if current != incoming {
		r.mismatch(field, format(incoming), format(current))
	}
}

func mergeColors(r *recorder, field string, dst *model.Field[[]model.Color], src model.Field[[]model.Color], released bool) {
	incoming, ok := src.Get()
	if !ok {
		return
	}
	current, known := dst.Get()
	if !known || !released {
		*dst = model.Known(slices.Clone(incoming))
		return
	}
	if !slices.Equal(sortedColors(incoming), sortedColors(current)) {
		r.mismatch(field, formatColors(incoming), formatColors(current))
	}
}

// mergeText always takes the observation language. Other languages fill gaps
// and only overwrite on unreleased cards.
func mergeText(r *recorder, field string, dst *model.Text, src model.Text, lang model.Language, released bool) {
	for _, l := range model.Languages {
		incoming, ok := src.Get(l)
		if !ok {
			continue
		}
		current, has := dst.Get(l)
		if l == lang || !has || !released {
			dst.Set(l, incoming)
			continue
		}
		if current != incoming {
			r.mismatch(field+"."+string(l), quote(incoming), quote(current))
		}
	}
}

func sortedColors(colors []model.Color) []model.Color {
	out := slices.Clone(colors)
	slices.SortFunc(out, func(a, b model.Color) int { return a.Rank() - b.Rank() })
	return out
}

func formatColors(colors []model.Color) string {
	if len(colors) == 0 {
		return "[]"
	}
	parts := make([]string, len(colors))
	for i, c := range colors {
		parts[i] = string(c)
	}
	return strings.Join(parts, "/")
}

func formatUint(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}

func quote(s string) string {
	const limit = 60
	if len([]rune(s)) > limit {
		s = string([]rune(s)[:limit]) + "…"
	}
	return strconv.Quote(s)
}
