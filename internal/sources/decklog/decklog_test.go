package decklog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"hocgassets/internal/model"
)

func TestFlexUintAcceptsStringsAndNumbers(t *testing.T) {
	var payload struct {
		A flexUint `json:"a"`
		B flexUint `json:"b"`
		C flexUint `json:"c"`
		D flexUint `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"a":"532","b":4,"c":null,"d":""}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !payload.A.Valid || payload.A.Value != 532 {
		t.Fatalf("string number not decoded: %+v", payload.A)
	}
	if !payload.B.Valid || payload.B.Value != 4 {
		t.Fatalf("number not decoded: %+v", payload.B)
	}
	if payload.C.Valid || payload.D.Valid {
		t.Fatalf("null and empty must decode as absent: %+v %+v", payload.C, payload.D)
	}
	if err := json.Unmarshal([]byte(`{"a":"x1"}`), &payload); err == nil {
		t.Fatal("expected error for a non-numeric string")
	}
}

func TestFetchPagesEveryDeckType(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []searchRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != searchPath || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		mu.Lock()
		requests = append(requests, req)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if req.Page > 1 {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		switch req.Param.DeckType {
		case "OSHI":
			_, _ = w.Write([]byte(`[{"manage_id":"12","card_number":"hSD01-001","card_kind":"推しホロメン","name":"ときのそら","rare":"OSR","img":"hSD01/hSD01-001_OSR.png","bloom_level":"","max":"2"}]`))
		case "N":
			_, _ = w.Write([]byte(`[{"manage_id":30,"card_number":"hSD01-003","card_kind":"ホロメン Buzz","name":"ときのそら","rare":"RR","img":"hSD01/hSD01-003_RR.png","bloom_level":"1st","max":4},` +
				`{"manage_id":null,"card_number":"hSD01-016","card_kind":"サポート・スタッフ・LIMITED","name":"春先のどか","rare":"C","img":"","bloom_level":"","max":"4"}]`))
		default:
			_, _ = w.Write([]byte(`[{"manage_id":"90","card_number":"hY01-001","card_kind":"エール","name":"白エール","rare":"C","img":"hY01/hY01-001_C.png","bloom_level":"","max":"20"}]`))
		}
	}))
	defer srv.Close()

	src := New(Config{BaseURL: srv.URL + "/", Referer: "https://decklog.test/", Expansion: "hSD01"}, nil)
	batch, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(requests) != 6 {
		t.Fatalf("expected two pages per deck type, got %d requests", len(requests))
	}
	for _, req := range requests {
		if req.Param.Expansion != "hSD01" || req.Param.DeckParam1 != "S" || len(req.Param.KeywordType) != 1 {
			t.Fatalf("unexpected search params: %+v", req.Param)
		}
	}
	if len(batch.Observations) != 4 {
		t.Fatalf("expected 4 observations, got %d", len(batch.Observations))
	}
	if len(batch.Images) != 3 {
		t.Fatalf("expected 3 image references (one card has no manage_id), got %d", len(batch.Images))
	}

	byNumber := map[string]model.Observation{}
	for _, obs := range batch.Observations {
		byNumber[obs.Card.CardNumber] = obs
	}
	oshi := byNumber["hSD01-001"].Card
	if oshi.CardType.Or(model.TypeOther) != model.TypeOshi || oshi.MaxAmount.Or(0) != 1 {
		t.Fatalf("oshi not classified or limited: %+v", oshi)
	}
	holomem := byNumber["hSD01-003"].Card
	if holomem.BloomLevel.Or("") != model.BloomFirst || !holomem.Buzz.Or(false) {
		t.Fatalf("holomem flags wrong: %+v", holomem)
	}
	staff := byNumber["hSD01-016"].Card
	if !staff.Limited.Or(false) || staff.BloomLevel.IsKnown() {
		t.Fatalf("support flags wrong: %+v", staff)
	}
	if byNumber["hY01-001"].Card.CardType.Or(model.TypeOther) != model.TypeCheer {
		t.Fatal("cheer not classified")
	}

	for _, img := range batch.Images {
		if _, ok := img.Identifier.Get(); !ok {
			t.Fatalf("image without identifier: %+v", img)
		}
		if img.Data != nil {
			t.Fatal("deck-log images carry no bytes")
		}
	}
	if batch.Images[0].ImgPath != "hSD01/hSD01-003_RR.webp" {
		t.Fatalf("expected webp image path first in deck-type order, got %q", batch.Images[0].ImgPath)
	}
}

func TestFetchReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	if _, err := New(Config{BaseURL: srv.URL}, nil).Fetch(context.Background()); err == nil {
		t.Fatal("expected error for a failing search")
	}
	if _, err := New(Config{}, nil).Fetch(context.Background()); err == nil {
		t.Fatal("expected configuration error for an empty base url")
	}
}
