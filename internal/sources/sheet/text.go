package sheet

import (
	"strconv"
	"strings"

	"hocgassets/internal/classify"
	"hocgassets/internal/model"
)

var (
	oshiSkillStarts = []string{"Oshi Skill", "SP Oshi Skill"}
	keywordStarts   = []string{"Collab Effect", "Bloom Effect", "Gift"}
	artStarts       = []string{"Arts"}
	extraStarts     = []string{"Extra"}
)

// cardText is the English card text split into its sections.
type cardText struct {
	oshiSkills []model.OshiSkill
	keywords   []model.Keyword
	arts       []model.Art
	extra      string
	ability    string
	problems   []string
}

// textLines trims every line and drops the LIMITED reminder and bracketed
// translator notes.
func textLines(raw string) []string {
	var lines []string
	for line := range strings.SplitSeq(raw, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(line), "limited:") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			continue
		}
		lines = append(lines, line)
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// extractSections removes every block that opens with one of starts and runs
// until the next blank line. The remaining lines are returned as rest.
func extractSections(lines []string, starts []string) (sections [][]string, rest []string) {
	var current []string
	inSection := false
	for _, line := range lines {
		if !inSection && hasAnyPrefix(line, starts) {
			inSection = true
		}
		if !inSection {
			rest = append(rest, line)
			continue
		}
		if line == "" {
			inSection = false
			if len(current) > 0 {
				sections = append(sections, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, current)
	}
	return sections, rest
}

func hasAnyPrefix(line string, prefixes []string) bool {
	lower := strings.ToLower(line)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func parseText(raw string) cardText {
	var out cardText
	lines := textLines(raw)

	sections, lines := extractSections(lines, oshiSkillStarts)
	for _, s := range sections {
		if skill, ok := oshiSkill(s); ok {
			out.oshiSkills = append(out.oshiSkills, skill)
		} else {
			out.problems = append(out.problems, "oshi skill: "+s[0])
		}
	}

	sections, lines = extractSections(lines, keywordStarts)
	for _, s := range sections {
		if kw, ok := keyword(s); ok {
			out.keywords = append(out.keywords, kw)
		} else {
			out.problems = append(out.problems, "keyword: "+s[0])
		}
	}

	sections, lines = extractSections(lines, artStarts)
	for _, s := range sections {
		if art, ok := parseArt(s); ok {
			out.arts = append(out.arts, art)
		} else {
			out.problems = append(out.problems, "art: "+s[0])
		}
	}

	sections, lines = extractSections(lines, extraStarts)
	for _, s := range sections {
		if _, value, ok := strings.Cut(s[0], ":"); ok {
			out.extra = strings.TrimSpace(value)
			break
		}
		out.problems = append(out.problems, "extra: "+s[0])
	}

	out.ability = strings.TrimSpace(strings.Join(lines, "\n"))
	return out
}

// unquote strips one pair of surrounding double quotes from a section title.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return strings.TrimSpace(s)
}

func body(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func oshiSkill(lines []string) (model.OshiSkill, bool) {
	head, name, ok := strings.Cut(lines[0], ":")
	if !ok {
		return model.OshiSkill{}, false
	}
	special := false
	switch {
	case strings.HasPrefix(head, "Oshi Skill"):
		head = strings.TrimPrefix(head, "Oshi Skill")
	case strings.HasPrefix(head, "SP Oshi Skill"):
		special = true
		head = strings.TrimPrefix(head, "SP Oshi Skill")
	}
	head = strings.TrimSpace(head)
	head = strings.TrimSpace(strings.TrimPrefix(head, "holo Power"))
	head = strings.TrimPrefix(head, "-")
	return model.OshiSkill{
		Special:     special,
		HoloPower:   strings.TrimSpace(head),
		Name:        model.Loc(model.English, unquote(name)),
		AbilityText: model.Loc(model.English, body(lines[1:])),
	}, true
}

func keyword(lines []string) (model.Keyword, bool) {
	head, name, ok := strings.Cut(lines[0], ":")
	if !ok {
		return model.Keyword{}, false
	}
	effect, ok := classify.KeywordEffect(model.English, head)
	if !ok {
		return model.Keyword{}, false
	}
	return model.Keyword{
		Effect:      effect,
		Name:        model.Loc(model.English, unquote(name)),
		AbilityText: model.Loc(model.English, body(lines[1:])),
	}, true
}

// parseArt reads a three line header:
//
//	Arts: "Name"
//	Cost: 1 White, 1 Colorless
//	Power: 30, +20 vs Red
//
// followed by optional ability text.
func parseArt(lines []string) (model.Art, bool) {
	if len(lines) < 3 {
		return model.Art{}, false
	}
	_, name, ok := strings.Cut(lines[0], ":")
	if !ok {
		return model.Art{}, false
	}
	_, cost, ok := strings.Cut(lines[1], ":")
	if !ok {
		return model.Art{}, false
	}
	_, power, ok := strings.Cut(lines[2], ":")
	if !ok {
		return model.Art{}, false
	}

	art := model.Art{
		Cheers: cheers(cost),
		Name:   model.Loc(model.English, unquote(name)),
	}
	if value, advantage, found := strings.Cut(power, ","); found {
		art.Power = strings.TrimSpace(value)
		if amount, color, vs := strings.Cut(advantage, "vs"); vs {
			n, _ := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(amount), "+"), 10, 32)
			art.Advantage = &model.Advantage{Color: classify.Color(color), Amount: uint32(n)}
		}
	} else {
		art.Power = strings.TrimSpace(power)
	}
	if rest := body(lines[3:]); rest != "" {
		text := model.Loc(model.English, rest)
		art.AbilityText = &text
	}
	return art, true
}

// cheers expands "2 White, 1 Colorless" into one color per cheer.
func cheers(cost string) []model.Color {
	var out []model.Color
	for part := range strings.SplitSeq(cost, ",") {
		amount, color, ok := strings.Cut(strings.TrimSpace(part), " ")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(amount)
		if err != nil {
			continue
		}
		c := classify.Color(color)
		for range n {
			out = append(out, c)
		}
	}
	return out
}

// splitName separates the "JP\n(EN)" name cell. A single name is used for
// both languages.
func splitName(raw string) (jp, en string) {
	if before, after, ok := strings.Cut(raw, "\n("); ok {
		return strings.TrimSpace(before), strings.TrimSpace(strings.TrimSuffix(after, ")"))
	}
	name := strings.TrimSpace(raw)
	return name, name
}

func splitTags(raw string) []model.Text {
	var tags []model.Text
	for part := range strings.SplitSeq(raw, "#") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tags = append(tags, model.Loc(model.English, "#"+part))
	}
	return tags
}
