package sources_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hocgassets/internal/model"
	"hocgassets/internal/sources"
)

func noSleep(context.Context, time.Duration) error { return nil }

func TestClientRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Referer") != "https://example.test/" {
			t.Errorf("missing referer header, got %q", r.Header.Get("Referer"))
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"echo":` + string(body) + `}`))
	}))
	defer srv.Close()

	client := sources.NewClient(sources.ClientConfig{Referer: "https://example.test/"}, sources.WithSleeper(noSleep))
	var out struct {
		Echo struct {
			Page int `json:"page"`
		} `json:"echo"`
	}
	if err := client.PostJSON(context.Background(), srv.URL, map[string]int{"page": 2}, &out); err != nil {
		t.Fatalf("PostJSON returned error: %v", err)
	}
	if out.Echo.Page != 2 {
		t.Fatalf("unexpected payload: %+v", out)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestClientDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := sources.NewClient(sources.ClientConfig{}, sources.WithSleeper(noSleep))
	_, err := client.Get(context.Background(), srv.URL+"/missing.webp")
	if !sources.IsNotFound(err) {
		t.Fatalf("expected a 404 status error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("404 must not be retried, got %d calls", calls.Load())
	}
}

func TestClientGivesUpAfterMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var slept []time.Duration
	client := sources.NewClient(sources.ClientConfig{},
		sources.WithRetryMaxAttempts(2),
		sources.WithSleeper(func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}))
	_, err := client.Head(context.Background(), srv.URL)
	var statusErr *sources.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 status error, got %v", err)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected one Retry-After sleep, got %v", slept)
	}
}

type fakeSource struct {
	name  string
	batch model.Batch
	err   error
}

func (f fakeSource) Name() string { return f.name }

func (f fakeSource) Fetch(context.Context) (model.Batch, error) { return f.batch, f.err }

func TestCollectKeepsGoingAfterFailure(t *testing.T) {
	good := fakeSource{name: "sheet", batch: model.Batch{
		Observations: []model.Observation{{Source: "sheet", Card: model.Card{CardNumber: "hSD01-001"}}},
		Images:       []model.ImageObservation{{Source: "sheet", CardNumber: "hSD01-001"}},
	}}
	bad := fakeSource{name: "decklog", err: sources.Wrap(sources.ErrTransient, "decklog", "search", "page 1", errors.New("boom"))}

	batch, err := sources.Collect(context.Background(), nil, bad, good)
	if err == nil || !sources.Retryable(err) {
		t.Fatalf("expected a retryable joined error, got %v", err)
	}
	if batch.Len() != 2 {
		t.Fatalf("expected the good source's records, got %d", batch.Len())
	}
}

func TestCollectStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sources.Collect(ctx, nil, fakeSource{name: "sheet"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWrapTagsMarker(t *testing.T) {
	err := sources.Wrap(sources.ErrValidation, "sheet", "parse", "", nil)
	if !errors.Is(err, sources.ErrValidation) || err.Error() != "validation error: sheet: parse" {
		t.Fatalf("unexpected wrapped error: %v", err)
	}
}
