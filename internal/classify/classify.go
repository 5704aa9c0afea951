// Package classify maps the raw labels used by the card sources onto the
// card model enums. Input is normalized (NFKC, case folded) before matching,
// so full-width and mixed-case labels classify the same as their plain forms.
package classify

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"hocgassets/internal/model"
)

// Normalize returns the matching form of a raw label.
func Normalize(raw string) string {
	// Casers carry state; one per call keeps Normalize safe across goroutines.
	return strings.TrimSpace(cases.Fold().String(norm.NFKC.String(raw)))
}

type typeRule struct {
	needle string
	exact  bool
	typ    model.CardType
}

var japaneseTypes = []typeRule{
	{needle: "推し", typ: model.TypeOshi},
	{needle: "ホロメン", typ: model.TypeHoloMem},
	{needle: "スタッフ", typ: model.SupportCard(model.SupportStaff)},
	{needle: "アイテム", typ: model.SupportCard(model.SupportItem)},
	{needle: "イベント", typ: model.SupportCard(model.SupportEvent)},
	{needle: "ツール", typ: model.SupportCard(model.SupportTool)},
	{needle: "マスコット", typ: model.SupportCard(model.SupportMascot)},
	{needle: "ファン", typ: model.SupportCard(model.SupportFan)},
	{needle: "エール", exact: true, typ: model.TypeCheer},
}

var englishTypes = []typeRule{
	{needle: "oshi", typ: model.TypeOshi},
	{needle: "holomem", typ: model.TypeHoloMem},
	{needle: "staff", typ: model.SupportCard(model.SupportStaff)},
	{needle: "item", typ: model.SupportCard(model.SupportItem)},
	{needle: "event", typ: model.SupportCard(model.SupportEvent)},
	{needle: "tool", typ: model.SupportCard(model.SupportTool)},
	{needle: "mascot", typ: model.SupportCard(model.SupportMascot)},
	{needle: "fan", typ: model.SupportCard(model.SupportFan)},
	{needle: "cheer", exact: true, typ: model.TypeCheer},
}

// CardType classifies a card kind label in lang. Unknown labels are
// model.TypeOther.
func CardType(lang model.Language, raw string) model.CardType {
	rules := japaneseTypes
	if lang == model.English {
		rules = englishTypes
	}
	value := Normalize(raw)
	for _, rule := range rules {
		if rule.exact && value == rule.needle {
			return rule.typ
		}
		if !rule.exact && strings.Contains(value, rule.needle) {
			return rule.typ
		}
	}
	return model.TypeOther
}

var bloomLevels = []struct {
	needle string
	level  model.BloomLevel
}{
	{"1st", model.BloomFirst},
	{"2nd", model.BloomSecond},
	{"debut", model.BloomDebut},
	{"spot", model.BloomSpot},
}

// BloomLevel extracts the bloom stage from a label. Labels without one yield
// an observed-but-absent level.
func BloomLevel(raw string) (model.BloomLevel, bool) {
	value := Normalize(raw)
	for _, b := range bloomLevels {
		if strings.Contains(value, b.needle) {
			return b.level, true
		}
	}
	return "", false
}

// Buzz reports whether a card kind label marks a buzz holomem.
func Buzz(raw string) bool {
	return strings.Contains(Normalize(raw), "buzz")
}

// Limited reports whether a card kind label marks a limited support card.
func Limited(raw string) bool {
	return strings.Contains(Normalize(raw), "limited")
}

// LimitedText reports whether ability text carries the "LIMITED:" line.
func LimitedText(raw string) bool {
	return strings.Contains(Normalize(raw), "limited:")
}

var englishColors = map[string]model.Color{
	"white":     model.White,
	"green":     model.Green,
	"red":       model.Red,
	"blue":      model.Blue,
	"purple":    model.Purple,
	"yellow":    model.Yellow,
	"none":      model.Colorless,
	"colorless": model.Colorless,
}

var japaneseColors = map[rune]model.Color{
	'白': model.White,
	'緑': model.Green,
	'赤': model.Red,
	'青': model.Blue,
	'紫': model.Purple,
	'黄': model.Yellow,
	'◇': model.Colorless,
}

// Color classifies a single English color word. Anything unknown is
// colorless, matching how cheer costs are written.
func Color(raw string) model.Color {
	if c, ok := englishColors[Normalize(raw)]; ok {
		return c
	}
	return model.Colorless
}

// Colors splits an English "White/Green" label. Unknown words are dropped.
func Colors(raw string) []model.Color {
	var out []model.Color
	for part := range strings.SplitSeq(raw, "/") {
		if c, ok := englishColors[Normalize(part)]; ok {
			out = append(out, c)
		}
	}
	return out
}

// ColorsJP reads one color per symbol from a Japanese label such as "白緑".
func ColorsJP(raw string) []model.Color {
	var out []model.Color
	for _, r := range raw {
		if c, ok := japaneseColors[r]; ok {
			out = append(out, c)
		}
	}
	return out
}

// KeywordEffect classifies the heading of a keyword section in lang.
func KeywordEffect(lang model.Language, raw string) (model.KeywordEffect, bool) {
	value := Normalize(raw)
	if lang == model.Japanese {
		switch value {
		case "コラボエフェクト":
			return model.EffectCollab, true
		case "ブルームエフェクト":
			return model.EffectBloom, true
		case "ギフト":
			return model.EffectGift, true
		}
		return "", false
	}
	switch value {
	case "collab effect":
		return model.EffectCollab, true
	case "bloom effect":
		return model.EffectBloom, true
	case "gift", "gift effect":
		return model.EffectGift, true
	}
	return "", false
}
