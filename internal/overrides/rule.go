package overrides

import (
	"errors"
	"fmt"
	"strings"

	"hocgassets/internal/model"
)

// Action names the change a rule makes.
type Action string

const (
	ActionMove  Action = "move"
	ActionExtra Action = "extra"
	ActionSkip  Action = "skip"
)

// Rule is one curated fix for a known upstream data error.
//
// Selectors: CardNumber, or ManageID with Lang. Exactly one action must be
// set: MoveTo relocates the illustration holding ManageID, Extra replaces the
// extra text of CardNumber in Lang, and Skip drops scraped images matched by
// Fingerprint or by CardNumber and Rarity (optionally limited to Source).
type Rule struct {
	Name        string         `json:"name,omitempty" yaml:"name,omitempty"`
	CardNumber  string         `json:"card_number,omitempty" yaml:"card_number,omitempty"`
	ManageID    *uint32        `json:"manage_id,omitempty" yaml:"manage_id,omitempty"`
	Lang        model.Language `json:"lang,omitempty" yaml:"lang,omitempty"`
	Rarity      string         `json:"rarity,omitempty" yaml:"rarity,omitempty"`
	Source      string         `json:"source,omitempty" yaml:"source,omitempty"`
	MoveTo      string         `json:"move_to,omitempty" yaml:"move_to,omitempty"`
	Extra       *string        `json:"extra,omitempty" yaml:"extra,omitempty"`
	Skip        bool           `json:"skip,omitempty" yaml:"skip,omitempty"`
	Fingerprint string         `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
}

const downedLifeMinusTwo = "If this holomem is downed, you get Life-2"

// Builtin returns the fixes shipped with the tool.
func Builtin() []Rule {
	id := uint32(532)
	extra := func(number, text string) Rule {
		return Rule{
			Name:       number + " extra",
			CardNumber: number,
			Lang:       model.English,
			Extra:      &text,
		}
	}
	return []Rule{
		{Name: "manage_id 532 belongs to hSD06-001", ManageID: &id, Lang: model.Japanese, MoveTo: "hSD06-001"},
		extra("hSD09-003", downedLifeMinusTwo),
		extra("hBP05-029", downedLifeMinusTwo),
		extra("hBP05-039", downedLifeMinusTwo),
		extra("hSD10-010", "This holomem cannot Bloom"),
		{Name: "hBP05-079 P sheet image is poor quality", CardNumber: "hBP05-079", Rarity: "P", Source: "sheet", Skip: true},
	}
}

// Action returns the single action the rule performs.
func (r Rule) Action() Action {
	switch {
	case r.MoveTo != "":
		return ActionMove
	case r.Extra != nil:
		return ActionExtra
	case r.Skip || r.Fingerprint != "":
		return ActionSkip
	default:
		return ""
	}
}

// Label identifies the rule in logs and reports.
func (r Rule) Label() string {
	if r.Name != "" {
		return r.Name
	}
	switch r.Action() {
	case ActionMove:
		return fmt.Sprintf("move %s %d to %s", r.Lang, r.id(), r.MoveTo)
	case ActionExtra:
		return fmt.Sprintf("%s extra (%s)", r.CardNumber, r.Lang)
	default:
		if r.Fingerprint != "" {
			return "skip fingerprint " + shorten(r.Fingerprint)
		}
		return fmt.Sprintf("skip %s %s", r.CardNumber, r.Rarity)
	}
}

func (r Rule) id() uint32 {
	if r.ManageID == nil {
		return 0
	}
	return *r.ManageID
}

func (r *Rule) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.CardNumber = strings.TrimSpace(r.CardNumber)
	r.MoveTo = strings.TrimSpace(r.MoveTo)
	r.Rarity = strings.TrimSpace(r.Rarity)
	r.Source = strings.ToLower(strings.TrimSpace(r.Source))
	r.Fingerprint = strings.TrimSpace(r.Fingerprint)
	if r.Fingerprint != "" {
		r.Skip = true
	}
	if r.Lang == "" {
		switch r.Action() {
		case ActionMove:
			r.Lang = model.Japanese
		case ActionExtra:
			r.Lang = model.English
		}
		return
	}
	if lang, err := model.ParseLanguage(strings.TrimSpace(string(r.Lang))); err == nil {
		r.Lang = lang
	}
}

func (r Rule) validate() error {
	actions := 0
	if r.MoveTo != "" {
		actions++
	}
	if r.Extra != nil {
		actions++
	}
	if r.Skip {
		actions++
	}
	if actions != 1 {
		return errors.New("exactly one of move_to, extra or skip must be set")
	}
	if r.Lang != "" && r.Lang != model.Japanese && r.Lang != model.English {
		return fmt.Errorf("unknown lang %q", r.Lang)
	}
	switch r.Action() {
	case ActionMove:
		if r.ManageID == nil {
			return errors.New("move_to requires manage_id")
		}
	case ActionExtra:
		if r.CardNumber == "" {
			return errors.New("extra requires card_number")
		}
	case ActionSkip:
		if r.Fingerprint == "" && (r.CardNumber == "" || r.Rarity == "") {
			return errors.New("skip requires fingerprint or card_number with rarity")
		}
	}
	return nil
}

func shorten(value string) string {
	if len(value) <= 16 {
		return value
	}
	return value[:16] + "…"
}
