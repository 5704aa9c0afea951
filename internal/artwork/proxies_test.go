package artwork

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hocgassets/internal/model"
	"hocgassets/internal/sources"
	"hocgassets/internal/store"
	"hocgassets/internal/testsupport"
)

func TestPrepareProxiesCopiesScansForReleasedIllustrations(t *testing.T) {
	root := t.TempDir()
	scans := filepath.Join(root, "scans")
	imagesEN := filepath.Join(root, "en")
	scan := testsupport.PNGBytes(t, 7)
	testsupport.WriteFile(t, filepath.Join(scans, "hSD01-001_OSR.png"), scan)
	testsupport.WriteFile(t, filepath.Join(scans, "Blanks", "hSD01-002_C.png"), scan)
	testsupport.WriteFile(t, filepath.Join(scans, "hSD01-003_C.jpg"), []byte("broken"))
	testsupport.WriteFile(t, filepath.Join(scans, "hSD01-004_C.png"), scan)
	testsupport.WriteFile(t, filepath.Join(scans, "hSD01-005_C.png"), scan)

	official := testsupport.Released("hSD01-004", "C", "hSD01/hSD01-004_C.webp", 4)
	official.ImgPath.Set(model.English, "hSD01/hSD01-004_C_EN.webp")
	db := model.Database{}
	for _, illust := range []model.Illustration{
		testsupport.Released("hSD01-001", "OSR", "hSD01/hSD01-001_OSR.webp", 1),
		testsupport.Released("hSD01-002", "C", "hSD01/hSD01-002_C.webp", 2),
		testsupport.Released("hSD01-003", "C", "hSD01/hSD01-003_C.webp", 3),
		official,
		testsupport.Released("hSD01-005", "C", "unreleased/hSD01-005_C.png", 0),
	} {
		card := model.NewCard(illust.CardNumber)
		card.Illustrations = []model.Illustration{illust}
		db[illust.CardNumber] = card
	}
	st := store.New(db)

	cfg := ProxyConfig{Dir: scans, ImagesDir: imagesEN}
	res, err := PrepareProxies(context.Background(), st, cfg, nil)
	if err != nil {
		t.Fatalf("PrepareProxies returned error: %v", err)
	}
	if res != (ProxyResult{Copied: 1, Missing: 1, Failed: 1}) {
		t.Fatalf("unexpected result: %+v", res)
	}

	english := func(number string) string {
		card, _ := st.Get(number)
		return card.Illustrations[0].ImgPath.Value(model.English)
	}
	if got := english("hSD01-001"); got != "proxies/hSD01/hSD01-001_OSR.png" {
		t.Fatalf("english path = %q", got)
	}
	saved, err := os.ReadFile(filepath.Join(imagesEN, "proxies", "hSD01", "hSD01-001_OSR.png"))
	if err != nil || !bytes.Equal(saved, scan) {
		t.Fatalf("proxy copy not written: %v", err)
	}
	if got := english("hSD01-004"); got != "hSD01/hSD01-004_C_EN.webp" {
		t.Fatalf("an official english image must be kept, got %q", got)
	}
	if got := english("hSD01-005"); got != "" {
		t.Fatalf("unreleased illustrations take no proxy, got %q", got)
	}
	if got := english("hSD01-002"); got != "" {
		t.Fatalf("scans under blank folders are ignored, got %q", got)
	}

	again, err := PrepareProxies(context.Background(), st, cfg, nil)
	if err != nil || again.Copied != 1 {
		t.Fatalf("a second pass should refresh the same proxy: %+v %v", again, err)
	}
}

func TestPrepareProxiesRequiresDirectories(t *testing.T) {
	st := store.New(model.Database{})
	if _, err := PrepareProxies(context.Background(), st, ProxyConfig{}, nil); !errors.Is(err, sources.ErrConfiguration) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}
