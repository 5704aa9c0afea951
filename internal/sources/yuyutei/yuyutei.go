package yuyutei

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"hocgassets/internal/imagehash"
	"hocgassets/internal/logging"
	"hocgassets/internal/match"
	"hocgassets/internal/model"
	"hocgassets/internal/sources"
	"hocgassets/internal/store"
)

// Mode selects how listings are paired with illustrations.
type Mode string

const (
	// ModeQuick keeps existing URLs and hands out the remaining listings
	// first come first served.
	ModeQuick Mode = "quick"
	// ModeImages clears every URL and pairs listings by image distance.
	ModeImages Mode = "images"
)

// ParseMode accepts "quick" and "images".
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeQuick:
		return ModeQuick, nil
	case ModeImages:
		return ModeImages, nil
	default:
		return "", fmt.Errorf("unknown yuyutei mode %q", value)
	}
}

// Hasher fingerprints a listing image.
type Hasher interface {
	Fingerprint(ctx context.Context, imageURL string) (string, error)
}

// HTTPHasher downloads listing images and hashes them.
type HTTPHasher struct {
	client *sources.Client
}

// NewHTTPHasher returns a Hasher using a paced client.
func NewHTTPHasher(cfg sources.ClientConfig, opts ...sources.Option) *HTTPHasher {
	return &HTTPHasher{client: sources.NewClient(cfg, opts...)}
}

// Fingerprint implements Hasher.
func (h *HTTPHasher) Fingerprint(ctx context.Context, imageURL string) (string, error) {
	resp, err := h.client.Get(ctx, imageURL)
	if err != nil {
		return "", err
	}
	return imagehash.HashBytes(resp.Body, imagehash.FormatFromPath(imageURL))
}

// Result summarizes a pairing run.
type Result struct {
	Listings int
	// Kept counts listings already recorded on an illustration.
	Kept      int
	Assigned  int
	Unmatched []Listing
}

// Pairer records marketplace sell URLs on illustrations.
type Pairer struct {
	Store  *store.Store
	Lister Lister
	Mode   Mode
	// Hasher is required in image mode.
	Hasher  Hasher
	Workers int
	Logger  *slog.Logger
}

// Run pairs every listing it can and reports the rest.
func (p *Pairer) Run(ctx context.Context) (Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "yuyutei")

	raw, err := p.Lister.Listings(ctx)
	if err != nil {
		return Result{}, sources.Wrap(sources.ErrTransient, "yuyutei", "list", "", err)
	}
	listings := clean(raw)

	var res Result
	switch p.Mode {
	case ModeImages:
		if p.Hasher == nil {
			return Result{}, sources.Wrap(sources.ErrConfiguration, "yuyutei", "pair", "image mode needs a hasher", nil)
		}
		res, err = p.pairImages(ctx, listings, logger)
	default:
		res, err = p.pairQuick(listings)
	}
	if err != nil {
		return Result{}, err
	}
	res.Listings = len(listings)

	for _, l := range res.Unmatched {
		logger.Debug("listing not matched",
			logging.String(logging.FieldCardNumber, l.Number),
			logging.String("rarity", l.Rarity),
			logging.String("url", l.URL))
	}
	logger.Info("yuyutei urls paired",
		logging.String("mode", string(p.Mode)),
		logging.Int("listings", res.Listings),
		logging.Int("kept", res.Kept),
		logging.Int("assigned", res.Assigned),
		logging.Int("unmatched", len(res.Unmatched)))
	return res, nil
}

// groupListings keys listings by (number, rarity), keeping their order.
func groupListings(listings []Listing) map[groupKey][]Listing {
	groups := make(map[groupKey][]Listing)
	for _, l := range listings {
		key := groupKey{l.Number, l.Rarity}
		groups[key] = append(groups[key], l)
	}
	return groups
}

func remaining(groups map[groupKey][]Listing) []Listing {
	var out []Listing
	for _, group := range groups {
		out = append(out, group...)
	}
	slices.SortFunc(out, func(a, b Listing) int { return strings.Compare(a.URL, b.URL) })
	return out
}

func (p *Pairer) pairQuick(listings []Listing) (Result, error) {
	var res Result
	err := p.Store.UpdateAll(func(db model.Database) error {
		known := make(map[string]struct{})
		// Some listings repeat the same artwork under two pages; illustrations
		// showing the same image share the first URL.
		byImage := make(map[string]string)
		for _, card := range db.Ordered() {
			for _, illust := range card.Illustrations {
				if illust.YuyuteiSellURL == "" {
					continue
				}
				known[illust.YuyuteiSellURL] = struct{}{}
				if img := illust.ImgPath.Value(model.Japanese); img != "" {
					if _, ok := byImage[img]; !ok {
						byImage[img] = illust.YuyuteiSellURL
					}
				}
			}
		}
		fresh := listings[:0:0]
		for _, l := range listings {
			if _, ok := known[l.URL]; ok {
				res.Kept++
				continue
			}
			fresh = append(fresh, l)
		}
		groups := groupListings(fresh)

		for _, card := range db.Ordered() {
			for i := range card.Illustrations {
				illust := &card.Illustrations[i]
				if illust.YuyuteiSellURL != "" {
					continue
				}
				img := illust.ImgPath.Value(model.Japanese)
				if url, ok := byImage[img]; ok && img != "" {
					illust.YuyuteiSellURL = url
					continue
				}
				key := groupKey{illust.CardNumber, illust.Rarity}
				group := groups[key]
				if len(group) == 0 {
					continue
				}
				illust.YuyuteiSellURL = group[0].URL
				groups[key] = group[1:]
				if img != "" {
					byImage[img] = group[0].URL
				}
				res.Assigned++
			}
		}
		res.Unmatched = remaining(groups)
		return nil
	})
	return res, err
}

func (p *Pairer) pairImages(ctx context.Context, listings []Listing, logger *slog.Logger) (Result, error) {
	groups := groupListings(listings)

	// Fingerprints are fetched before taking the store lock. Only groups
	// that cannot bind directly need them.
	snapshot := p.Store.Snapshot()
	var wanted []string
	for _, card := range snapshot.Ordered() {
		counts := make(map[groupKey]int)
		for _, illust := range card.Illustrations {
			counts[groupKey{card.CardNumber, illust.Rarity}]++
		}
		for key, n := range counts {
			group := groups[key]
			if len(group) == 0 || (len(group) == 1 && n == 1) {
				continue
			}
			for _, l := range group {
				if l.ImageURL != "" {
					wanted = append(wanted, l.ImageURL)
				}
			}
		}
	}
	fingerprints, err := p.fingerprints(ctx, wanted, logger)
	if err != nil {
		return Result{}, err
	}

	var res Result
	err = p.Store.UpdateAll(func(db model.Database) error {
		for _, card := range db.Ordered() {
			byRarity := make(map[string][]int)
			var rarities []string
			for i := range card.Illustrations {
				card.Illustrations[i].YuyuteiSellURL = ""
				r := card.Illustrations[i].Rarity
				if _, ok := byRarity[r]; !ok {
					rarities = append(rarities, r)
				}
				byRarity[r] = append(byRarity[r], i)
			}
			for _, rarity := range rarities {
				key := groupKey{card.CardNumber, rarity}
				indexes := byRarity[rarity]
				group := groups[key]
				if len(group) == 0 {
					continue
				}
				if len(group) == 1 && len(indexes) == 1 {
					card.Illustrations[indexes[0]].YuyuteiSellURL = group[0].URL
					delete(groups, key)
					res.Assigned++
					continue
				}
				var pairs []match.Pair[string, uint64]
				for _, l := range group {
					fp, ok := fingerprints[l.ImageURL]
					if !ok {
						continue
					}
					for item, idx := range indexes {
						illust := card.Illustrations[idx]
						pairs = append(pairs, match.Pair[string, uint64]{
							Source:   l.URL,
							Item:     item,
							Distance: imagehash.Distance(fp, illust.ImgHash),
							Tie:      releaseOrder(illust)<<16 | uint64(item),
						})
					}
				}
				assigned := match.CoAssign(pairs, 0)
				used := make(map[string]struct{})
				for item, url := range assigned {
					card.Illustrations[indexes[item]].YuyuteiSellURL = url
					used[url] = struct{}{}
					res.Assigned++
				}
				left := group[:0:0]
				for _, l := range group {
					if _, ok := used[l.URL]; !ok {
						left = append(left, l)
					}
				}
				groups[key] = left
			}
		}
		res.Unmatched = remaining(groups)
		return nil
	})
	return res, err
}

// releaseOrder sorts unreleased illustrations first, then by their lowest
// Japanese identifier.
func releaseOrder(illust model.Illustration) uint64 {
	ids := illust.IDs(model.Japanese)
	if len(ids) == 0 {
		return 0
	}
	return uint64(ids[0]) + 1
}

func (p *Pairer) fingerprints(ctx context.Context, urls []string, logger *slog.Logger) (map[string]string, error) {
	slices.Sort(urls)
	urls = slices.Compact(urls)
	workers := p.Workers
	if workers <= 0 {
		workers = 4
	}
	var mu sync.Mutex
	out := make(map[string]string, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, u := range urls {
		g.Go(func() error {
			fp, err := p.Hasher.Fingerprint(gctx, u)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logging.WarnWithContext(logger, "listing image unavailable", "yuyutei_image_failed",
					logging.String("image_url", u),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the listing image URL"),
					logging.String(logging.FieldImpact, "listings with this image stay unmatched"))
				return nil
			}
			mu.Lock()
			out[u] = fp
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
