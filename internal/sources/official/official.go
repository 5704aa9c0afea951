package official

import (
	"context"
	"log/slog"
	"slices"

	"hocgassets/internal/logging"
	"hocgassets/internal/model"
	"hocgassets/internal/sources"
	"hocgassets/internal/store"
)

const sourceName = "official"

// Result summarizes a credit run.
type Result struct {
	Credits  int `json:"credits"`
	Recorded int `json:"recorded"`
	// Known counts illustrations that already had a credit.
	Known     int      `json:"known"`
	Unmatched []uint32 `json:"unmatched,omitempty"`
}

// Recorder writes illustrator credits onto the illustrations holding their
// Japanese identifier.
type Recorder struct {
	Store  *store.Store
	Lister Lister
	Logger *slog.Logger
}

// Run records every credit it can place.
func (r *Recorder) Run(ctx context.Context) (Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, sourceName)

	if r.Lister == nil {
		return Result{}, sources.Wrap(sources.ErrConfiguration, sourceName, "credits", "no credit list configured", nil)
	}
	raw, err := r.Lister.Credits(ctx)
	if err != nil {
		return Result{}, sources.Wrap(sources.ErrTransient, sourceName, "credits", "", err)
	}
	credits := clean(raw)
	res := Result{Credits: len(credits)}

	err = r.Store.UpdateAll(func(db model.Database) error {
		type location struct {
			card  *model.Card
			index int
		}
		byID := make(map[uint32][]location)
		for _, card := range db.Ordered() {
			for i := range card.Illustrations {
				for _, id := range card.Illustrations[i].IDs(model.Japanese) {
					byID[id] = append(byID[id], location{card, i})
				}
			}
		}
		for _, c := range credits {
			locs := byID[c.ManageID]
			if len(locs) == 0 {
				res.Unmatched = append(res.Unmatched, c.ManageID)
				continue
			}
			for _, loc := range locs {
				illust := &loc.card.Illustrations[loc.index]
				if illust.Illustrator.IsKnown() {
					res.Known++
					continue
				}
				illust.Illustrator = model.Known(c.Illustrator)
				res.Recorded++
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	slices.Sort(res.Unmatched)

	for _, id := range res.Unmatched {
		logger.Debug("credit not matched", logging.Int64("manage_id", int64(id)))
	}
	logger.Info("illustrator credits recorded",
		logging.Int("credits", res.Credits),
		logging.Int("recorded", res.Recorded),
		logging.Int("known", res.Known),
		logging.Int("unmatched", len(res.Unmatched)))
	return res, nil
}
