package model_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"hocgassets/internal/model"
)

func released(number string, rarity string, ids ...uint32) model.Illustration {
	illust := model.Illustration{CardNumber: number, Rarity: rarity}
	for _, id := range ids {
		illust.AddID(model.Japanese, id)
	}
	return illust
}

func TestSortIllustrationsOldestFirst(t *testing.T) {
	card := model.NewCard("hBP01-001")
	card.Illustrations = []model.Illustration{
		released("hBP01-001", "SR", 900),
		{CardNumber: "hBP01-001", Rarity: "SEC"},
		released("hBP01-001", "C", 12),
		released("hBP01-001", "OSR", 40),
	}
	card.SortIllustrations()

	var rarities []string
	for _, illust := range card.Illustrations {
		rarities = append(rarities, illust.Rarity)
	}
	want := []string{"SEC", "C", "OSR", "SR"}
	if !reflect.DeepEqual(rarities, want) {
		t.Fatalf("unexpected order: got %v want %v", rarities, want)
	}
}

func TestStripIDKeepsOnlyOneHolder(t *testing.T) {
	card := model.NewCard("hSD01-001")
	card.Illustrations = []model.Illustration{
		released("hSD01-001", "OSR", 1, 7),
		released("hSD01-001", "OUR", 7),
	}
	if removed := card.StripID(model.Japanese, 7, 1); removed != 1 {
		t.Fatalf("expected one removal, got %d", removed)
	}
	if card.FindByID(model.Japanese, 7) != 1 {
		t.Fatal("expected identifier to remain on the kept illustration")
	}
	if !card.Illustrations[0].HasID(model.Japanese, 1) {
		t.Fatal("unrelated identifier must survive")
	}
}

func TestRemoveLastIDMakesIllustrationUnreleased(t *testing.T) {
	illust := released("hSD01-002", "C", 5)
	if !illust.Released() {
		t.Fatal("expected released illustration")
	}
	illust.RemoveID(model.Japanese, 5)
	if illust.Released() {
		t.Fatal("expected unreleased after removing the only identifier")
	}
	if illust.ManageID.Has(model.Japanese) {
		t.Fatal("empty identifier list should be cleared")
	}
}

func TestCloneSharesNoIdentifiers(t *testing.T) {
	card := model.NewCard("hSD01-003")
	card.Illustrations = []model.Illustration{released("hSD01-003", "C", 3)}
	clone := card.Clone()
	clone.Illustrations[0].AddID(model.Japanese, 4)
	if card.Illustrations[0].HasID(model.Japanese, 4) {
		t.Fatal("clone mutated the original")
	}
}

func TestCardJSONRoundTrip(t *testing.T) {
	idx := uint32(2)
	card := model.NewCard("hBP02-010")
	card.Name = model.Loc(model.Japanese, "白上フブキ")
	card.Name.Set(model.English, "Shirakami Fubuki")
	card.CardType = model.Known(model.TypeHoloMem)
	card.Colors = model.Known([]model.Color{model.White})
	card.HP = model.Known(uint32(120))
	card.BloomLevel = model.Known(model.BloomFirst)
	card.Buzz = model.Known(false)
	card.Keywords = model.Known([]model.Keyword{{
		Effect: model.EffectCollab,
		Name:   model.Loc(model.Japanese, "コラボ"),
	}})
	card.Arts = model.Known([]model.Art{{
		Cheers:    []model.Color{model.White, model.Colorless},
		Name:      model.Loc(model.English, "Hello"),
		Power:     "50+",
		Advantage: &model.Advantage{Color: model.Red, Amount: 50},
	}})
	card.Illustrations = []model.Illustration{
		{CardNumber: "hBP02-010", Rarity: "C", Illustrator: model.Known("")},
		released("hBP02-010", "R", 101),
	}
	card.Illustrations[1].DeltaArtIndex = &idx
	card.Illustrations[1].ImgPath = model.Loc(model.Japanese, "hBP02/hBP02-010_R.png")

	data, err := json.Marshal(card)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded model.Card
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(card, &decoded) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", decoded, *card)
	}
	if illustrator, ok := decoded.Illustrations[0].Illustrator.Get(); !ok || illustrator != "" {
		t.Fatal("known-empty illustrator must survive the round trip")
	}
	if decoded.Life.IsKnown() {
		t.Fatal("unset life must stay unset")
	}
}
