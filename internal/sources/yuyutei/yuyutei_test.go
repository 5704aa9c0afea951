package yuyutei

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hocgassets/internal/model"
	"hocgassets/internal/store"
)

func fp(bits int) string {
	parts := make([]string, 4)
	for i := range parts {
		raw := make([]byte, 8)
		for b := 0; b < bits; b++ {
			raw[7-b/8] |= 1 << (b % 8)
		}
		parts[i] = base64.StdEncoding.EncodeToString(raw)
	}
	return strings.Join(parts, "|")
}

func illustration(number, rarity, img string, id uint32, hash string) model.Illustration {
	illust := model.Illustration{
		CardNumber: number,
		Rarity:     rarity,
		ImgPath:    model.Loc(model.Japanese, img),
		ImgHash:    hash,
	}
	if id > 0 {
		illust.AddID(model.Japanese, id)
	}
	return illust
}

type fakeHasher map[string]string

func (f fakeHasher) Fingerprint(_ context.Context, url string) (string, error) {
	if fp, ok := f[url]; ok {
		return fp, nil
	}
	return "", errors.New("not found")
}

func TestQuickKeepsExistingAndFillsTheRest(t *testing.T) {
	card := model.NewCard("hBP01-001")
	kept := illustration("hBP01-001", "C", "hBP01/a.webp", 1, "")
	kept.YuyuteiSellURL = "https://shop.test/old"
	card.Illustrations = []model.Illustration{
		kept,
		illustration("hBP01-001", "C", "hBP01/a.webp", 2, ""),
		illustration("hBP01-001", "SR", "hBP01/b.webp", 3, ""),
	}
	st := store.New(model.Database{"hBP01-001": card})

	p := &Pairer{Store: st, Mode: ModeQuick, Lister: StaticLister{
		{URL: "https://shop.test/old", Number: "hBP01-001", Rarity: "C"},
		{URL: "https://shop.test/sr", Number: "hBP01-001", Rarity: "SR"},
		{URL: "https://shop.test/sr", Number: "hBP01-001", Rarity: "SR"},
		{URL: "https://shop.test/errata", Number: "hBP01-001", Rarity: "SR", Name: "ときのそら(エラッタ前)"},
		{URL: "https://shop.test/none", Number: "hBP99-001", Rarity: "C"},
	}}
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Listings != 3 || res.Kept != 1 || res.Assigned != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Unmatched) != 1 || res.Unmatched[0].URL != "https://shop.test/none" {
		t.Fatalf("unexpected unmatched listings: %+v", res.Unmatched)
	}

	got, _ := st.Get("hBP01-001")
	for _, illust := range got.Illustrations {
		want := "https://shop.test/old"
		if illust.Rarity == "SR" {
			want = "https://shop.test/sr"
		}
		if illust.YuyuteiSellURL != want {
			t.Fatalf("%s %v: got url %q, want %q", illust.Rarity, illust.IDs(model.Japanese), illust.YuyuteiSellURL, want)
		}
	}
}

func TestImagesModePairsByDistance(t *testing.T) {
	card := model.NewCard("hBP01-002")
	stale := illustration("hBP01-002", "C", "hBP01/c.webp", 5, fp(0))
	stale.YuyuteiSellURL = "https://shop.test/stale"
	card.Illustrations = []model.Illustration{
		stale,
		illustration("hBP01-002", "SR", "hBP01/sr1.webp", 10, fp(0)),
		illustration("hBP01-002", "SR", "hBP01/sr2.webp", 11, fp(8)),
	}
	st := store.New(model.Database{"hBP01-002": card})

	p := &Pairer{
		Store: st,
		Mode:  ModeImages,
		Lister: StaticLister{
			{URL: "https://shop.test/c", Number: "hBP01-002", Rarity: "C", ImageURL: "img-c"},
			{URL: "https://shop.test/sr-b", Number: "hBP01-002", Rarity: "SR", ImageURL: "img-b"},
			{URL: "https://shop.test/sr-a", Number: "hBP01-002", Rarity: "SR", ImageURL: "img-a"},
			{URL: "https://shop.test/sr-x", Number: "hBP01-002", Rarity: "SR", ImageURL: "img-broken"},
		},
		Hasher: fakeHasher{"img-a": fp(0), "img-b": fp(8)},
	}
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Assigned != 3 {
		t.Fatalf("expected 3 assignments, got %+v", res)
	}
	if len(res.Unmatched) != 1 || res.Unmatched[0].URL != "https://shop.test/sr-x" {
		t.Fatalf("unexpected unmatched: %+v", res.Unmatched)
	}

	got, _ := st.Get("hBP01-002")
	want := map[uint32]string{
		5:  "https://shop.test/c",
		10: "https://shop.test/sr-a",
		11: "https://shop.test/sr-b",
	}
	for _, illust := range got.Illustrations {
		id := illust.IDs(model.Japanese)[0]
		if illust.YuyuteiSellURL != want[id] {
			t.Fatalf("id %d: got %q, want %q", id, illust.YuyuteiSellURL, want[id])
		}
	}
}

func TestImagesModeNeedsHasher(t *testing.T) {
	p := &Pairer{Store: store.New(nil), Mode: ModeImages, Lister: StaticLister{}}
	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestFileListerAcceptsArrayAndWrapper(t *testing.T) {
	dir := t.TempDir()
	arr := filepath.Join(dir, "a.json")
	obj := filepath.Join(dir, "b.json")
	if err := os.WriteFile(arr, []byte(`[{"url":"u1","number":"hSD01-001","rarity":"OSR"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(obj, []byte(`{"listings":[{"url":"u2","number":"hSD01-002","rarity":"RR","image_url":"i2"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := FileLister{Path: arr}.Listings(context.Background())
	if err != nil || len(a) != 1 || a[0].Rarity != "OSR" {
		t.Fatalf("array listings: %+v %v", a, err)
	}
	b, err := FileLister{Path: obj}.Listings(context.Background())
	if err != nil || len(b) != 1 || b[0].ImageURL != "i2" {
		t.Fatalf("wrapped listings: %+v %v", b, err)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(" Images "); err != nil || m != ModeImages {
		t.Fatalf("ParseMode images: %v %v", m, err)
	}
	if m, err := ParseMode(""); err != nil || m != ModeQuick {
		t.Fatalf("ParseMode default: %v %v", m, err)
	}
	if _, err := ParseMode("fast"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
