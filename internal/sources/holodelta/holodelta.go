package holodelta

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"hocgassets/internal/imagehash"
	"hocgassets/internal/logging"
	"hocgassets/internal/match"
	"hocgassets/internal/model"
	"hocgassets/internal/store"
)

const artQuery = `SELECT cardID, art_index, lang, art FROM cardHasArt WHERE lang = 'ja' ORDER BY cardID, art_index`

// Art is one Japanese artwork of the simulator database.
type Art struct {
	CardNumber string
	Index      uint32
	Data       []byte
}

// ReadArts loads every Japanese artwork from the simulator's SQLite file.
func ReadArts(ctx context.Context, path string) ([]Art, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("holodelta database: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, artQuery)
	if err != nil {
		return nil, fmt.Errorf("query arts: %w", err)
	}
	defer rows.Close()

	var arts []Art
	for rows.Next() {
		var (
			art  Art
			lang string
		)
		if err := rows.Scan(&art.CardNumber, &art.Index, &lang, &art.Data); err != nil {
			return nil, fmt.Errorf("scan art: %w", err)
		}
		arts = append(arts, art)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate arts: %w", err)
	}
	return arts, nil
}

// Result summarizes an import.
type Result struct {
	Arts       int
	Cards      int
	Assigned   int
	Missing    int
	Unreadable int
}

// Importer records which simulator art each illustration uses.
type Importer struct {
	Store *store.Store
	// ImagesDir is the Japanese images directory img_path is relative to.
	ImagesDir string
	Workers   int
	Logger    *slog.Logger
}

type cardResult struct {
	assigned   int
	missing    bool
	unreadable int
}

// Run reads the simulator database at path and assigns delta_art_index on
// every card it lists.
func (im *Importer) Run(ctx context.Context, path string) (Result, error) {
	arts, err := ReadArts(ctx, path)
	if err != nil {
		return Result{}, err
	}
	return im.Assign(ctx, arts)
}

// Assign matches arts against the stored illustration images, card by card.
// Each illustration gets at most one art; an art may serve several
// illustrations whose scores are within DiffTolerance of its best one.
func (im *Importer) Assign(ctx context.Context, arts []Art) (Result, error) {
	logger := im.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "holodelta")

	groups := make(map[string][]Art)
	for _, art := range arts {
		groups[art.CardNumber] = append(groups[art.CardNumber], art)
	}
	numbers := make([]string, 0, len(groups))
	for number := range groups {
		numbers = append(numbers, number)
	}
	slices.Sort(numbers)

	workers := im.Workers
	if workers <= 0 {
		workers = 4
	}
	results := make([]cardResult, len(numbers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, number := range numbers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := im.assignCard(number, groups[number], logger)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	out := Result{Arts: len(arts), Cards: len(numbers)}
	for _, r := range results {
		out.Assigned += r.assigned
		out.Unreadable += r.unreadable
		if r.missing {
			out.Missing++
		}
	}
	logger.Info("holodelta arts assigned",
		logging.Int("arts", out.Arts),
		logging.Int("cards", out.Cards),
		logging.Int("assigned", out.Assigned),
		logging.Int("missing_cards", out.Missing))
	return out, nil
}

func (im *Importer) assignCard(number string, arts []Art, logger *slog.Logger) (cardResult, error) {
	card, ok := im.Store.Get(number)
	if !ok {
		return cardResult{missing: true}, nil
	}
	var res cardResult

	artThumbs := make([]thumbnail, 0, len(arts))
	artIndexes := make([]uint32, 0, len(arts))
	for _, art := range arts {
		img, err := imagehash.Decode(art.Data, "")
		if err != nil {
			res.unreadable++
			logger.Debug("simulator art unreadable",
				logging.String(logging.FieldCardNumber, number),
				logging.Int("art_index", int(art.Index)),
				logging.Error(err))
			continue
		}
		artThumbs = append(artThumbs, prepare(img))
		artIndexes = append(artIndexes, art.Index)
	}

	// Illustrations are keyed by their Japanese image path so the update
	// below finds them again after re-sorting.
	var (
		paths  []string
		thumbs []thumbnail
	)
	for _, illust := range card.Illustrations {
		rel := illust.ImgPath.Value(model.Japanese)
		if rel == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(im.ImagesDir, filepath.FromSlash(rel)))
		if err != nil {
			res.unreadable++
			continue
		}
		img, err := imagehash.Decode(data, "")
		if err != nil {
			res.unreadable++
			continue
		}
		paths = append(paths, rel)
		thumbs = append(thumbs, prepare(img))
	}

	var pairs []match.Pair[uint32, float64]
	for a, at := range artThumbs {
		for i, ct := range thumbs {
			d := diff(ct, at)
			if d > MaxDiff {
				continue
			}
			pairs = append(pairs, match.Pair[uint32, float64]{
				Source:   artIndexes[a],
				Item:     i,
				Distance: d,
				Tie:      uint64(artIndexes[a])<<32 | uint64(i),
			})
		}
	}
	assigned := match.CoAssign(pairs, DiffTolerance)
	byPath := make(map[string]uint32, len(assigned))
	for item, artIndex := range assigned {
		byPath[paths[item]] = artIndex
	}
	res.assigned = len(byPath)

	// Only illustrations whose image was compared against at least one art
	// can lose a stale index.
	compared := make(map[string]bool, len(paths))
	if len(artThumbs) > 0 {
		for _, rel := range paths {
			compared[rel] = true
		}
	}

	err := im.Store.Update(number, func(c *model.Card) error {
		changed := false
		for i := range c.Illustrations {
			illust := &c.Illustrations[i]
			rel := illust.ImgPath.Value(model.Japanese)
			idx, ok := byPath[rel]
			switch {
			case ok && (illust.DeltaArtIndex == nil || *illust.DeltaArtIndex != idx):
				illust.DeltaArtIndex = &idx
				changed = true
			case !ok && compared[rel] && illust.DeltaArtIndex != nil:
				illust.DeltaArtIndex = nil
				changed = true
			}
		}
		if !changed {
			return store.ErrUnchanged
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("update %s: %w", number, err)
	}
	return res, nil
}
