package sheet

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hocgassets/internal/model"
	"hocgassets/internal/sources"
)

const sampleCSV = `Hololive OCG translations,,,,,,,,,
Setcode,Card Name,Image,Type,Rarity,Color,LIFE/HP,Tags,Text,Language
hSD01-003,"ときのそら
(Tokino Sora)",IMG_A,Debut holomem,C,White,90,#JP #Gen 0,"Collab Effect: ""Let's Dance""
Draw 1 card.

Arts: ""Hello""
Cost: 1 Colorless
Power: 20

Arts: ""Sora Song""
Cost: 1 White, 1 Colorless
Power: 50, +20 vs Red
Deal 10 special damage.

[Translator's note: tentative]",en
hSD01-001,"ときのそら
(Tokino Sora)",IMG_B,Oshi,OSR,White,5,,"Oshi Skill holo Power -1: ""Replacement""
Once per turn.

SP Oshi Skill holo Power -2: ""So You're the Enemy?""
Once per game.",
hY01-001,"白エール
(White Cheer)",,Cheer,C,White,,,,
hY01-002,"白エール2
(White Cheer 2)",,Cheer,C,White,,,,
hSD01-016,"春先のどか
(Harusaki Nodoka)",,Support・Staff,C,,,,"LIMITED: Only one per turn.
Draw 2 cards.

Extra: This card cannot be discarded",
,,,,,,,,,
`

func TestParseFindsHeaderAndImages(t *testing.T) {
	rows, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	first := rows[0]
	if first.SetCode != "hSD01-003" || first.Language != model.English {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if len(first.Images) != 1 || first.Images[0].URL != "IMG_A" || first.Images[0].Rarity != "C" {
		t.Fatalf("unexpected images: %+v", first.Images)
	}
	if rows[1].Language != model.Japanese {
		t.Fatalf("expected Japanese default, got %q", rows[1].Language)
	}
	if len(rows[2].Images) != 0 {
		t.Fatal("rows without an image cell carry no images")
	}
}

func TestParseWithoutHeaderFails(t *testing.T) {
	if _, err := Parse(strings.NewReader("a,b,c\n1,2,3\n")); err == nil {
		t.Fatal("expected ErrNoHeader")
	}
}

func TestParseTextSections(t *testing.T) {
	rows, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	text := parseText(rows[0].Text)
	if len(text.keywords) != 1 || text.keywords[0].Effect != model.EffectCollab {
		t.Fatalf("unexpected keywords: %+v", text.keywords)
	}
	if got := text.keywords[0].Name.Value(model.English); got != "Let's Dance" {
		t.Fatalf("unexpected keyword name %q", got)
	}
	if len(text.arts) != 2 {
		t.Fatalf("expected 2 arts, got %d", len(text.arts))
	}
	art := text.arts[1]
	if len(art.Cheers) != 2 || art.Cheers[0] != model.White || art.Cheers[1] != model.Colorless {
		t.Fatalf("unexpected cheers: %v", art.Cheers)
	}
	if art.Power != "50" || art.Advantage == nil || art.Advantage.Color != model.Red || art.Advantage.Amount != 20 {
		t.Fatalf("unexpected power or advantage: %+v", art)
	}
	if art.AbilityText == nil || art.AbilityText.Value(model.English) != "Deal 10 special damage." {
		t.Fatalf("unexpected art text: %+v", art.AbilityText)
	}
	if text.arts[0].AbilityText != nil {
		t.Fatal("art without text must have nil ability text")
	}
	if text.ability != "" {
		t.Fatalf("translator notes must be dropped, got %q", text.ability)
	}

	oshi := parseText(rows[1].Text)
	if len(oshi.oshiSkills) != 2 {
		t.Fatalf("expected 2 oshi skills, got %+v", oshi.oshiSkills)
	}
	if oshi.oshiSkills[0].Special || oshi.oshiSkills[0].HoloPower != "1" {
		t.Fatalf("unexpected oshi skill: %+v", oshi.oshiSkills[0])
	}
	if !oshi.oshiSkills[1].Special || oshi.oshiSkills[1].HoloPower != "2" {
		t.Fatalf("unexpected sp oshi skill: %+v", oshi.oshiSkills[1])
	}

	staff := parseText(rows[4].Text)
	if staff.extra != "This card cannot be discarded" || staff.ability != "Draw 2 cards." {
		t.Fatalf("unexpected support text: %+v", staff)
	}
}

func TestObservationsFillFieldsAndCheerNames(t *testing.T) {
	rows, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	obs := Observations(rows, nil)
	if len(obs) != 5 {
		t.Fatalf("expected 5 observations, got %d", len(obs))
	}
	byNumber := map[string]model.Card{}
	for _, o := range obs {
		if o.Language != model.English || !o.OnlyText || o.Source != "sheet" {
			t.Fatalf("unexpected observation header: %+v", o)
		}
		byNumber[o.Card.CardNumber] = o.Card
	}

	holomem := byNumber["hSD01-003"]
	if holomem.Name.Value(model.English) != "Tokino Sora" {
		t.Fatalf("unexpected name %q", holomem.Name.Value(model.English))
	}
	if holomem.HP.Or(0) != 90 || holomem.Life.IsKnown() {
		t.Fatalf("unexpected hp/life: %+v %+v", holomem.HP, holomem.Life)
	}
	if holomem.BloomLevel.Or("") != model.BloomDebut {
		t.Fatal("bloom level not read from type")
	}
	tags, _ := holomem.Tags.Get()
	if len(tags) != 2 || tags[1].Value(model.English) != "#Gen 0" {
		t.Fatalf("unexpected tags: %+v", tags)
	}

	if byNumber["hSD01-001"].Life.Or(0) != 5 {
		t.Fatal("oshi life not read")
	}
	if byNumber["hY01-002"].Name.Value(model.English) != "White Cheer" {
		t.Fatalf("cheer name not propagated, got %q", byNumber["hY01-002"].Name.Value(model.English))
	}
	staff := byNumber["hSD01-016"]
	if !staff.Limited.Or(false) {
		t.Fatal("limited not detected from text")
	}
	if typ := staff.CardType.Or(model.TypeOther); typ != model.SupportCard(model.SupportStaff) {
		t.Fatalf("unexpected support type %v", typ)
	}
}

func pngData(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 56))
	for y := range 56 {
		for x := range 40 {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 4), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestFetchDownloadsArtworkWithoutSaving(t *testing.T) {
	data := pngData(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/export.csv":
			csv := strings.ReplaceAll(sampleCSV, "IMG_A", "http://"+r.Host+"/a.png")
			csv = strings.ReplaceAll(csv, "IMG_B", "http://"+r.Host+"/missing.png")
			_, _ = w.Write([]byte(csv))
		case "/a.png":
			w.Header().Set("Last-Modified", "Mon, 02 Jun 2025 10:00:00 GMT")
			_, _ = w.Write(data)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := New(Config{
		Files: []string{srv.URL + "/export.csv"},
	}, nil, sources.WithSleeper(func(context.Context, time.Duration) error { return nil }))

	batch, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(batch.Images) != 2 {
		t.Fatalf("expected 2 image observations, got %d", len(batch.Images))
	}
	ok, failed := batch.Images[0], batch.Images[1]
	if ok.FetchErr != nil || ok.Format != "png" || ok.ImgPath != "unreleased/hSD01-003_C.png" {
		t.Fatalf("unexpected downloaded image: %+v", ok)
	}
	if ok.LastModified == "" {
		t.Fatal("last modified header not recorded")
	}
	if !bytes.Equal(ok.Data, data) {
		t.Fatal("downloaded bytes not kept on the observation")
	}
	if failed.FetchErr == nil || failed.CardNumber != "hSD01-001" || failed.Rarity != "OSR" {
		t.Fatalf("expected a fetch error for the missing image, got %+v", failed)
	}
}

func TestStorageNamesCountRepeats(t *testing.T) {
	row := Row{SetCode: "hBP01-001", Language: model.Japanese}
	names := storageNames([]pending{
		{row: row, image: Image{Rarity: "SR"}},
		{row: row, image: Image{Rarity: "SR"}},
		{row: row, image: Image{Rarity: "P"}},
	})
	want := []string{"hBP01-001_SR", "hBP01-001_SR_2", "hBP01-001_P"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
