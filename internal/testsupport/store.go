package testsupport

import (
	"testing"

	"hocgassets/internal/config"
	"hocgassets/internal/model"
	"hocgassets/internal/store"
)

// MustOpenStore opens the card store named by cfg and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(store.Options{Path: cfg.Paths.Database, LockPath: cfg.Paths.LockFile})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedDatabase writes cards to the database file named by cfg.
func SeedDatabase(t testing.TB, cfg *config.Config, cards ...*model.Card) {
	t.Helper()

	db := model.Database{}
	for _, card := range cards {
		db[card.CardNumber] = card
	}
	st, err := store.Open(store.Options{Path: cfg.Paths.Database, LockPath: cfg.Paths.LockFile, Clean: true})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()
	if err := st.UpdateAll(func(target model.Database) error {
		for number, card := range db {
			target[number] = card
		}
		return nil
	}); err != nil {
		t.Fatalf("seed cards: %v", err)
	}
	if err := st.Save(); err != nil {
		t.Fatalf("save seeded cards: %v", err)
	}
}

// Released builds an illustration holding a Japanese identifier.
func Released(number, rarity, imgPath string, id uint32) model.Illustration {
	illust := model.Illustration{
		CardNumber: number,
		Rarity:     rarity,
		ImgPath:    model.Loc(model.Japanese, imgPath),
	}
	if id > 0 {
		illust.AddID(model.Japanese, id)
	}
	return illust
}
