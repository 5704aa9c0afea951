package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"hocgassets/internal/model"
	"hocgassets/internal/store"
)

func illustration(number, rarity string, id uint32) model.Illustration {
	illust := model.Illustration{CardNumber: number, Rarity: rarity}
	if id != 0 {
		illust.AddID(model.Japanese, id)
	}
	return illust
}

func TestUpdateCreatesAndSorts(t *testing.T) {
	s := store.New(nil)
	err := s.Update("hSD01-001", func(card *model.Card) error {
		card.Illustrations = append(card.Illustrations,
			illustration("hSD01-001", "SR", 30),
			illustration("hSD01-001", "OSR", 2),
		)
		return nil
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	card, ok := s.Get("hSD01-001")
	if !ok {
		t.Fatal("expected card to be created")
	}
	if card.Illustrations[0].Rarity != "OSR" {
		t.Fatalf("expected illustrations re-sorted, got %+v", card.Illustrations)
	}

	card.Illustrations = nil
	again, _ := s.Get("hSD01-001")
	if len(again.Illustrations) != 2 {
		t.Fatal("Get must return a copy")
	}
}

func TestUpdateErrorDiscardsNewCard(t *testing.T) {
	s := store.New(nil)
	boom := errors.New("boom")
	if err := s.Update("hBP01-001", func(*model.Card) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected no card after failed update, got %d", s.Len())
	}
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	s := store.New(nil)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Update("hBP01-001", func(card *model.Card) error {
				card.Illustrations = append(card.Illustrations, illustration("hBP01-001", "C", uint32(i+1)))
				return nil
			})
			_, _ = s.Get("hBP01-001")
		}(i)
	}
	wg.Wait()
	card, _ := s.Get("hBP01-001")
	if len(card.Illustrations) != 50 {
		t.Fatalf("expected 50 illustrations, got %d", len(card.Illustrations))
	}
}

func TestRangeVisitsInOrderAndStops(t *testing.T) {
	s := store.New(model.Database{
		"hSD01-002": model.NewCard("hSD01-002"),
		"hBP01-001": model.NewCard("hBP01-001"),
		"hSD01-001": model.NewCard("hSD01-001"),
	})
	var seen []string
	s.Range(func(card *model.Card) bool {
		seen = append(seen, card.CardNumber)
		return len(seen) < 2
	})
	if strings.Join(seen, ",") != "hBP01-001,hSD01-001" {
		t.Fatalf("unexpected range order: %v", seen)
	}
}

func TestHolderSkipsOwnCard(t *testing.T) {
	a := model.NewCard("hSD06-001")
	a.Illustrations = []model.Illustration{illustration("hSD06-001", "OSR", 532)}
	s := store.New(model.Database{"hSD06-001": a, "hSD05-001": model.NewCard("hSD05-001")})

	if number, ok := s.Holder(model.Japanese, 532, "hSD05-001"); !ok || number != "hSD06-001" {
		t.Fatalf("expected hSD06-001 to hold 532, got %q %v", number, ok)
	}
	if _, ok := s.Holder(model.Japanese, 532, "hSD06-001"); ok {
		t.Fatal("holder lookup must skip the excepted card")
	}
}

func TestOpenSaveRoundTripAndLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets", "hocg_cards.json")
	s, err := store.Open(store.Options{Path: path})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, err := store.Open(store.Options{Path: path}); !errors.Is(err, store.ErrLocked) {
		t.Fatalf("expected ErrLocked for a second open, got %v", err)
	}

	err = s.Update("hSD01-001", func(card *model.Card) error {
		card.Name = model.Loc(model.Japanese, "ときのそら")
		card.Illustrations = []model.Illustration{illustration("hSD01-001", "OSR", 1)}
		return nil
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved database: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := store.Open(store.Options{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	card, ok := reopened.Get("hSD01-001")
	if !ok || card.Name.Value(model.Japanese) != "ときのそら" {
		t.Fatalf("round trip lost data: %+v", card)
	}
	if err := reopened.Save(); err != nil {
		t.Fatalf("second save: %v", err)
	}
	second, _ := os.ReadFile(path)
	if string(first) != string(second) {
		t.Fatalf("save is not deterministic:\n%s\nvs\n%s", first, second)
	}
}

func TestOpenCleanIgnoresExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hocg_cards.json")
	if err := os.WriteFile(path, []byte(`{"hSD01-001":{"card_number":"hSD01-001","name":{},"illustrations":[]}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := store.Open(store.Options{Path: path, Clean: true})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer s.Close()
	if s.Len() != 0 {
		t.Fatalf("clean open should start empty, got %d cards", s.Len())
	}
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hocg_cards.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Open(store.Options{Path: path}); err == nil {
		t.Fatal("expected parse error")
	}
	// The failed open must release its lock.
	s, err := store.Open(store.Options{Path: path, Clean: true})
	if err != nil {
		t.Fatalf("lock not released after failed open: %v", err)
	}
	s.Close()
}

func TestUpdateUnchangedDropsNewCard(t *testing.T) {
	s := store.New(nil)
	if err := s.Update("hSD01-001", func(*model.Card) error { return store.ErrUnchanged }); err != nil {
		t.Fatalf("ErrUnchanged must not surface, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatal("unchanged update must not create a card")
	}
}

func TestUpdateLinkedStripsOtherCards(t *testing.T) {
	other := model.NewCard("hSD05-001")
	other.Illustrations = []model.Illustration{
		illustration("hSD05-001", "OSR", 532),
		illustration("hSD05-001", "C", 10),
	}
	s := store.New(model.Database{"hSD05-001": other})

	err := s.UpdateLinked("hSD06-001", func(card *model.Card, link *store.Link) error {
		holder, ok := link.Holder(model.Japanese, 532)
		if !ok || holder != "hSD05-001" {
			t.Fatalf("expected hSD05-001 to hold 532, got %q", holder)
		}
		if touched := link.Strip(model.Japanese, 532); len(touched) != 1 {
			t.Fatalf("expected one stripped card, got %v", touched)
		}
		card.Illustrations = append(card.Illustrations, illustration("hSD06-001", "OSR", 532))
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateLinked returned error: %v", err)
	}
	if holder, ok := s.Holder(model.Japanese, 532, ""); !ok || holder != "hSD06-001" {
		t.Fatalf("expected hSD06-001 to be the only holder, got %q", holder)
	}
	stripped, _ := s.Get("hSD05-001")
	if stripped.Illustrations[0].Released() {
		t.Fatalf("stripped slot should sort first as unreleased: %+v", stripped.Illustrations)
	}
}
