package yuyutei

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// beforeErrata marks listings of the pre-errata printing.
const beforeErrata = "エラッタ前"

// Listing is one marketplace sell page.
type Listing struct {
	URL      string `json:"url"`
	Number   string `json:"number"`
	Rarity   string `json:"rarity"`
	Name     string `json:"name,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Lister supplies the marketplace listings.
type Lister interface {
	Listings(ctx context.Context) ([]Listing, error)
}

// FileLister reads listings from a JSON file holding either an array or an
// object with a "listings" array.
type FileLister struct {
	Path string
}

// Listings implements Lister.
func (f FileLister) Listings(ctx context.Context) ([]Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read listings: %w", err)
	}
	data = bytes.TrimSpace(data)
	var listings []Listing
	if len(data) > 0 && data[0] == '{' {
		var wrapper struct {
			Listings []Listing `json:"listings"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("parse listings %s: %w", f.Path, err)
		}
		listings = wrapper.Listings
	} else if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("parse listings %s: %w", f.Path, err)
	}
	return listings, nil
}

// StaticLister serves a fixed list.
type StaticLister []Listing

// Listings implements Lister.
func (s StaticLister) Listings(context.Context) ([]Listing, error) {
	return s, nil
}

type groupKey struct {
	number string
	rarity string
}

// clean trims fields, drops pre-errata and incomplete listings, and keeps the
// first listing of each URL.
func clean(listings []Listing) []Listing {
	seen := make(map[string]struct{}, len(listings))
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		l.URL = strings.TrimSpace(l.URL)
		l.Number = strings.TrimSpace(l.Number)
		l.Rarity = strings.TrimSpace(l.Rarity)
		l.ImageURL = strings.TrimSpace(l.ImageURL)
		if l.URL == "" || l.Number == "" || strings.Contains(l.Name, beforeErrata) {
			continue
		}
		if _, dup := seen[l.URL]; dup {
			continue
		}
		seen[l.URL] = struct{}{}
		out = append(out, l)
	}
	return out
}
