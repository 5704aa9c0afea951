package overrides

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hocgassets/internal/model"
	"hocgassets/internal/store"
)

func illustration(number, rarity string, lang model.Language, id uint32) model.Illustration {
	illust := model.Illustration{CardNumber: number, Rarity: rarity}
	if id != 0 {
		illust.AddID(lang, id)
	}
	return illust
}

func TestParseRulesAcceptsWrapperAndNormalizes(t *testing.T) {
	data := []byte("\xEF\xBB\xBF{\"overrides\":[{\"manage_id\":532,\"move_to\":\" hSD06-001 \"},{\"card_number\":\"hSD10-010\",\"extra\":\"x\",\"lang\":\"EN\"}]}")
	rules, err := parseRules(data, "json")
	if err != nil {
		t.Fatalf("parseRules returned error: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].MoveTo != "hSD06-001" || rules[0].Lang != model.Japanese {
		t.Fatalf("move rule not normalized: %+v", rules[0])
	}
	if rules[1].Lang != model.English || rules[1].Action() != ActionExtra {
		t.Fatalf("extra rule not normalized: %+v", rules[1])
	}
}

func TestParseRulesYAMLListAndWrapper(t *testing.T) {
	list := []byte("- card_number: hBP05-079\n  rarity: P\n  skip: true\n")
	rules, err := parseRules(list, "yaml")
	if err != nil || len(rules) != 1 || rules[0].Action() != ActionSkip {
		t.Fatalf("yaml list: %+v %v", rules, err)
	}
	wrapped := []byte("overrides:\n  - fingerprint: abc\n")
	rules, err = parseRules(wrapped, "yaml")
	if err != nil || len(rules) != 1 || !rules[0].Skip {
		t.Fatalf("yaml wrapper: %+v %v", rules, err)
	}
}

func TestParseRulesRejectsAmbiguousRule(t *testing.T) {
	if _, err := parseRules([]byte(`[{"card_number":"hSD01-001","extra":"x","skip":true,"rarity":"C"}]`), "json"); err == nil {
		t.Fatal("expected error for a rule with two actions")
	}
	if _, err := parseRules([]byte(`[{"move_to":"hSD01-001"}]`), "json"); err == nil {
		t.Fatal("expected error for move without manage_id")
	}
}

func TestCatalogReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.json")
	catalog := NewCatalog(path, nil)

	rules, err := catalog.Rules()
	if err != nil || len(rules) != 0 {
		t.Fatalf("missing file should yield no rules: %v %v", rules, err)
	}

	if err := os.WriteFile(path, []byte(`[{"fingerprint":"aaa"}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	rules, err = catalog.Rules()
	if err != nil || len(rules) != 1 {
		t.Fatalf("expected one rule, got %v %v", rules, err)
	}

	if err := os.WriteFile(path, []byte(`[{"fingerprint":"aaa"},{"fingerprint":"bbb"}]`), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	rules, err = catalog.Rules()
	if err != nil || len(rules) != 2 {
		t.Fatalf("expected reload to pick up two rules, got %v %v", rules, err)
	}
}

func TestNewCatalogEmptyPath(t *testing.T) {
	if NewCatalog("  ", nil) != nil {
		t.Fatal("expected nil catalog for empty path")
	}
	var c *Catalog
	if rules, err := c.Rules(); err != nil || rules != nil {
		t.Fatalf("nil catalog should be empty: %v %v", rules, err)
	}
}

func TestBuiltinRulesAreValid(t *testing.T) {
	for _, rule := range Builtin() {
		rule.normalize()
		if err := rule.validate(); err != nil {
			t.Fatalf("builtin %q invalid: %v", rule.Label(), err)
		}
	}
}

func TestIndexRedirectAndSkip(t *testing.T) {
	idx, err := New(nil, nil).Index()
	if err != nil {
		t.Fatalf("Index returned error: %v", err)
	}
	if number, ok := idx.Redirect(model.Japanese, 532); !ok || number != "hSD06-001" {
		t.Fatalf("expected 532 pinned to hSD06-001, got %q %v", number, ok)
	}
	if _, ok := idx.Redirect(model.English, 532); ok {
		t.Fatal("redirect must be language specific")
	}
	img := model.ImageObservation{Source: "sheet", CardNumber: "hBP05-079", Rarity: "P"}
	if !idx.Skip(img, "") {
		t.Fatal("expected sheet image to be skipped")
	}
	img.Source = "decklog"
	if idx.Skip(img, "") {
		t.Fatal("skip is limited to the sheet source")
	}
	var zero Index
	if zero.Skip(img, "") {
		t.Fatal("zero index must match nothing")
	}
}

// A misfiled identifier is moved to its pinned card and the empty source card
// disappears.
func TestApplyRelocatesPinnedIdentifier(t *testing.T) {
	wrong := model.NewCard("hSD05-001")
	wrong.Illustrations = []model.Illustration{illustration("hSD05-001", "OSR", model.Japanese, 532)}
	right := model.NewCard("hSD06-001")
	right.Illustrations = []model.Illustration{illustration("hSD06-001", "OSR", model.Japanese, 530)}
	s := store.New(model.Database{"hSD05-001": wrong, "hSD06-001": right})

	applied, err := New(nil, nil).Apply(context.Background(), s)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(applied) != 1 || applied[0].Action != ActionMove {
		t.Fatalf("expected one move, got %v", applied)
	}
	if _, ok := s.Get("hSD05-001"); ok {
		t.Fatal("empty source card should be removed")
	}
	card, _ := s.Get("hSD06-001")
	i := card.FindByID(model.Japanese, 532)
	if i < 0 || card.Illustrations[i].CardNumber != "hSD06-001" {
		t.Fatalf("532 not relocated: %+v", card.Illustrations)
	}
	if card.Illustrations[0].Rarity != "OSR" || !card.Illustrations[0].HasID(model.Japanese, 530) {
		t.Fatalf("illustrations not re-sorted: %+v", card.Illustrations)
	}

	again, err := New(nil, nil).Apply(context.Background(), s)
	if err != nil || len(again) != 0 {
		t.Fatalf("second apply should be a no-op, got %v %v", again, err)
	}
}

func TestApplySetsExtraOnExistingCardsOnly(t *testing.T) {
	card := model.NewCard("hSD09-003")
	card.Extra = model.Known(model.Loc(model.Japanese, "JP extra"))
	s := store.New(model.Database{"hSD09-003": card})

	applied, err := New(nil, nil).Apply(context.Background(), s)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(applied) != 1 || applied[0].CardNumber != "hSD09-003" {
		t.Fatalf("expected only the existing card to change, got %v", applied)
	}
	got, _ := s.Get("hSD09-003")
	extra, _ := got.Extra.Get()
	if extra.Value(model.English) != downedLifeMinusTwo || extra.Value(model.Japanese) != "JP extra" {
		t.Fatalf("unexpected extra: %+v", extra)
	}
	if _, ok := s.Get("hBP05-029"); ok {
		t.Fatal("extra rules must not create cards")
	}
}

func TestApplyDropsSkipListedFingerprints(t *testing.T) {
	card := model.NewCard("hBP01-001")
	unreleased := illustration("hBP01-001", "SEC", model.Japanese, 0)
	unreleased.ImgHash = "bad"
	released := illustration("hBP01-001", "C", model.Japanese, 5)
	released.ImgHash = "bad"
	card.Illustrations = []model.Illustration{unreleased, released}
	s := store.New(model.Database{"hBP01-001": card})

	applied, err := FromRules(nil, nil, Rule{Fingerprint: "bad"}).Apply(context.Background(), s)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(applied) != 2 {
		t.Fatalf("expected two changes, got %v", applied)
	}
	got, _ := s.Get("hBP01-001")
	if len(got.Illustrations) != 1 || got.Illustrations[0].ImgHash != "" || !got.Illustrations[0].Released() {
		t.Fatalf("unexpected illustrations: %+v", got.Illustrations)
	}
}

func TestApplyStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(nil, nil).Apply(ctx, store.New(nil)); err == nil {
		t.Fatal("expected context error")
	}
}
