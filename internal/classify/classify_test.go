package classify

import (
	"slices"
	"testing"

	"hocgassets/internal/model"
)

func TestCardType(t *testing.T) {
	tests := []struct {
		lang model.Language
		raw  string
		want model.CardType
	}{
		{model.Japanese, "推しホロメン", model.TypeOshi},
		{model.Japanese, "Buzzホロメン", model.TypeHoloMem},
		{model.Japanese, "サポート・スタッフ・LIMITED", model.SupportCard(model.SupportStaff)},
		{model.Japanese, "サポート・ファン", model.SupportCard(model.SupportFan)},
		{model.Japanese, "エール", model.TypeCheer},
		{model.Japanese, "エール ", model.TypeCheer},
		{model.Japanese, "エールセット", model.TypeOther},
		{model.English, "1st Bloom holomem", model.TypeHoloMem},
		{model.English, "Oshi holomem", model.TypeOshi},
		{model.English, "Support - Mascot", model.SupportCard(model.SupportMascot)},
		{model.English, "Cheer", model.TypeCheer},
		{model.English, "", model.TypeOther},
	}
	for _, tt := range tests {
		if got := CardType(tt.lang, tt.raw); got != tt.want {
			t.Fatalf("CardType(%s, %q) = %v, want %v", tt.lang, tt.raw, got, tt.want)
		}
	}
}

func TestBloomLevel(t *testing.T) {
	tests := map[string]model.BloomLevel{
		"1st":          model.BloomFirst,
		"Buzz 1st":     model.BloomFirst,
		"２ｎｄ":          model.BloomSecond,
		"Debut":        model.BloomDebut,
		"Spot holomem": model.BloomSpot,
	}
	for raw, want := range tests {
		got, ok := BloomLevel(raw)
		if !ok || got != want {
			t.Fatalf("BloomLevel(%q) = %v, %v; want %v", raw, got, ok, want)
		}
	}
	if _, ok := BloomLevel("推しホロメン"); ok {
		t.Fatal("expected no bloom level for oshi")
	}
}

func TestFlags(t *testing.T) {
	if !Buzz("Buzzホロメン") || Buzz("ホロメン") {
		t.Fatal("unexpected buzz classification")
	}
	if !Limited("サポート・イベント・LIMITED") || Limited("サポート・イベント") {
		t.Fatal("unexpected limited classification")
	}
	if !LimitedText("Draw 2 cards.\nＬＩＭＩＴＥＤ：Only one can be used per turn.") {
		t.Fatal("expected full-width LIMITED line to be detected")
	}
}

func TestColors(t *testing.T) {
	if got := Colors("White/Green"); !slices.Equal(got, []model.Color{model.White, model.Green}) {
		t.Fatalf("unexpected colors %v", got)
	}
	if got := Colors("None"); !slices.Equal(got, []model.Color{model.Colorless}) {
		t.Fatalf("unexpected colors %v", got)
	}
	if got := Colors("Rainbow"); len(got) != 0 {
		t.Fatalf("expected unknown colors to be dropped, got %v", got)
	}
	if got := ColorsJP("白 緑◇"); !slices.Equal(got, []model.Color{model.White, model.Green, model.Colorless}) {
		t.Fatalf("unexpected jp colors %v", got)
	}
	if Color("mystery") != model.Colorless || Color(" Blue ") != model.Blue {
		t.Fatal("unexpected single color classification")
	}
}

func TestKeywordEffect(t *testing.T) {
	tests := []struct {
		lang model.Language
		raw  string
		want model.KeywordEffect
		ok   bool
	}{
		{model.English, "Collab Effect", model.EffectCollab, true},
		{model.English, "Bloom effect", model.EffectBloom, true},
		{model.English, "Gift Effect", model.EffectGift, true},
		{model.English, "Gift", model.EffectGift, true},
		{model.English, "Arts", "", false},
		{model.Japanese, "ギフト", model.EffectGift, true},
		{model.Japanese, "コラボエフェクト", model.EffectCollab, true},
	}
	for _, tt := range tests {
		got, ok := KeywordEffect(tt.lang, tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("KeywordEffect(%s, %q) = %v, %v; want %v, %v", tt.lang, tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}
