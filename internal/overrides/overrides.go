package overrides

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"hocgassets/internal/logging"
	"hocgassets/internal/model"
	"hocgassets/internal/store"
)

// Applied records one rule that changed the database.
type Applied struct {
	Rule       string
	Action     Action
	CardNumber string
	Detail     string
}

func (a Applied) String() string {
	return fmt.Sprintf("%s: %s %s (%s)", a.Rule, a.Action, a.CardNumber, a.Detail)
}

// Overrides combines the built-in rules with an optional catalog.
type Overrides struct {
	builtin []Rule
	catalog *Catalog
	logger  *slog.Logger
}

// New returns the built-in rules plus whatever catalog provides.
func New(catalog *Catalog, logger *slog.Logger) *Overrides {
	return FromRules(catalog, logger, Builtin()...)
}

// FromRules uses rules in place of the built-in table.
func FromRules(catalog *Catalog, logger *slog.Logger, rules ...Rule) *Overrides {
	if logger == nil {
		logger = logging.NewNop()
	}
	builtin := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		rule.normalize()
		builtin = append(builtin, rule)
	}
	return &Overrides{builtin: builtin, catalog: catalog, logger: logging.NewComponentLogger(logger, "overrides")}
}

// Rules returns the built-in rules followed by the catalog rules.
func (o *Overrides) Rules() ([]Rule, error) {
	if o == nil {
		return nil, nil
	}
	extra, err := o.catalog.Rules()
	if err != nil {
		return nil, err
	}
	return append(slices.Clone(o.builtin), extra...), nil
}

// Index returns the lookups the engine consults while importing.
func (o *Overrides) Index() (Index, error) {
	rules, err := o.Rules()
	if err != nil {
		return Index{}, err
	}
	return newIndex(rules), nil
}

type moveKey struct {
	lang model.Language
	id   uint32
}

// Index answers per-item override questions. The zero value matches nothing.
type Index struct {
	moves      map[moveKey]string
	skipHashes map[string]struct{}
	skipImages []Rule
}

func newIndex(rules []Rule) Index {
	idx := Index{moves: map[moveKey]string{}, skipHashes: map[string]struct{}{}}
	for _, rule := range rules {
		switch rule.Action() {
		case ActionMove:
			idx.moves[moveKey{rule.Lang, rule.id()}] = rule.MoveTo
		case ActionSkip:
			if rule.Fingerprint != "" {
				idx.skipHashes[rule.Fingerprint] = struct{}{}
			} else {
				idx.skipImages = append(idx.skipImages, rule)
			}
		}
	}
	return idx
}

// Redirect returns the card an identifier must live on, if a rule pins it.
func (x Index) Redirect(lang model.Language, id uint32) (string, bool) {
	number, ok := x.moves[moveKey{lang, id}]
	return number, ok
}

// Skip reports whether a scraped image must be ignored.
func (x Index) Skip(img model.ImageObservation, fingerprint string) bool {
	if _, ok := x.skipHashes[fingerprint]; ok && fingerprint != "" {
		return true
	}
	for _, rule := range x.skipImages {
		if rule.CardNumber != img.CardNumber || !strings.EqualFold(rule.Rarity, img.Rarity) {
			continue
		}
		if rule.Source == "" || strings.EqualFold(rule.Source, img.Source) {
			return true
		}
	}
	return false
}

// Apply runs every rule against the store and reports the ones that changed
// something. Running it twice reports nothing the second time.
func (o *Overrides) Apply(ctx context.Context, s *store.Store) ([]Applied, error) {
	if o == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rules, err := o.Rules()
	if err != nil {
		return nil, err
	}

	var applied []Applied
	err = s.UpdateAll(func(db model.Database) error {
		for _, rule := range rules {
			switch rule.Action() {
			case ActionMove:
				applied = append(applied, relocate(db, rule)...)
			case ActionExtra:
				if a, ok := setExtra(db, rule); ok {
					applied = append(applied, a)
				}
			case ActionSkip:
				if rule.Fingerprint != "" {
					applied = append(applied, dropSkipped(db, rule)...)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, a := range applied {
		o.logger.Info("override applied",
			logging.String(logging.FieldEventType, "override_applied"),
			logging.String("rule", a.Rule),
			logging.String(logging.FieldCardNumber, a.CardNumber),
			logging.String("detail", a.Detail))
	}
	return applied, nil
}

// relocate moves the illustration holding the rule identifier to MoveTo. A
// source card left without illustrations is removed.
func relocate(db model.Database, rule Rule) []Applied {
	var applied []Applied
	id := rule.id()
	for _, number := range db.Numbers() {
		if number == rule.MoveTo {
			continue
		}
		card := db[number]
		i := card.FindByID(rule.Lang, id)
		if i < 0 {
			continue
		}
		illust := card.Illustrations[i]
		card.Illustrations = slices.Delete(card.Illustrations, i, i+1)

		target, ok := db[rule.MoveTo]
		if !ok {
			target = model.NewCard(rule.MoveTo)
			db[rule.MoveTo] = target
		}
		detail := "moved from " + number
		if target.FindByID(rule.Lang, id) >= 0 {
			detail = "dropped duplicate from " + number
		} else {
			illust.CardNumber = rule.MoveTo
			target.Illustrations = append(target.Illustrations, illust)
		}
		if len(card.Illustrations) == 0 {
			delete(db, number)
			detail += " (card removed)"
		}
		applied = append(applied, Applied{Rule: rule.Label(), Action: ActionMove, CardNumber: rule.MoveTo, Detail: detail})
	}
	return applied
}

func setExtra(db model.Database, rule Rule) (Applied, bool) {
	card, ok := db[rule.CardNumber]
	if !ok {
		return Applied{}, false
	}
	current, known := card.Extra.Get()
	if known && current.Has(rule.Lang) && current.Value(rule.Lang) == *rule.Extra {
		return Applied{}, false
	}
	previous := current.Value(rule.Lang)
	current.Set(rule.Lang, *rule.Extra)
	card.Extra = model.Known(current)
	detail := "set"
	if previous != "" {
		detail = fmt.Sprintf("replaced %q", previous)
	}
	return Applied{Rule: rule.Label(), Action: ActionExtra, CardNumber: rule.CardNumber, Detail: detail}, true
}

// dropSkipped removes unreleased illustrations carrying a skip-listed
// fingerprint. Released illustrations are kept and only lose the hash.
func dropSkipped(db model.Database, rule Rule) []Applied {
	var applied []Applied
	for _, number := range db.Numbers() {
		card := db[number]
		kept := card.Illustrations[:0]
		for _, illust := range card.Illustrations {
			if illust.ImgHash != rule.Fingerprint {
				kept = append(kept, illust)
				continue
			}
			if illust.Released() {
				illust.ImgHash = ""
				kept = append(kept, illust)
				applied = append(applied, Applied{Rule: rule.Label(), Action: ActionSkip, CardNumber: number, Detail: "cleared fingerprint on " + illust.Rarity})
				continue
			}
			applied = append(applied, Applied{Rule: rule.Label(), Action: ActionSkip, CardNumber: number, Detail: "removed unreleased " + illust.Rarity})
		}
		card.Illustrations = kept
	}
	return applied
}
