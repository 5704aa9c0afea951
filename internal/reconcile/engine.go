package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"hocgassets/internal/fileutil"
	"hocgassets/internal/imagehash"
	"hocgassets/internal/logging"
	"hocgassets/internal/match"
	"hocgassets/internal/merge"
	"hocgassets/internal/model"
	"hocgassets/internal/overrides"
	"hocgassets/internal/store"
)

const defaultWorkers = 4

var errNoImage = errors.New("no image data or identifier")

// Engine folds source batches into the card store.
type Engine struct {
	Store      *store.Store
	Merger     *merge.Merger
	Overrides  *overrides.Overrides
	Tolerances match.Tolerances
	// ImageDirs maps a language to the images directory downloaded artwork
	// is written to once an illustration adopts its path. Languages without
	// a directory keep the bytes in memory only.
	ImageDirs map[model.Language]string
	Workers   int
	Logger    *slog.Logger
}

// group is everything a batch says about one card.
type group struct {
	number       string
	observations []model.Observation
	images       []model.ImageObservation
}

type groupResult struct {
	items    []Item
	warnings []merge.Warning
}

// Run reconciles batch into the store. Item failures are recorded in the
// report; only cancellation and store errors abort the run.
func (e *Engine) Run(ctx context.Context, batch model.Batch) (Report, error) {
	if e.Store == nil {
		return Report{}, errors.New("reconcile: store is required")
	}
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, e.logger())
	report := Report{RunID: runID}
	started := time.Now()

	index, err := e.Overrides.Index()
	if err != nil {
		return report, fmt.Errorf("load overrides: %w", err)
	}

	groups, rejected := groupBatch(batch, index)
	report.add(rejected...)
	logger.Info("reconcile started",
		logging.String(logging.FieldEventType, "reconcile_start"),
		logging.Int("observations", len(batch.Observations)),
		logging.Int("images", len(batch.Images)),
		logging.Int("cards", len(groups)))

	results := make([]groupResult, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for i, grp := range groups {
		g.Go(func() error {
			res, err := e.runGroup(gctx, grp, index)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	for _, res := range results {
		report.add(res.items...)
		report.Warnings = append(report.Warnings, res.warnings...)
	}
	report.Cards = len(groups)

	applied, err := e.Overrides.Apply(ctx, e.Store)
	if err != nil {
		return report, fmt.Errorf("apply overrides: %w", err)
	}
	report.Overrides = applied

	logger.Info("reconcile finished",
		logging.String(logging.FieldEventType, "reconcile_complete"),
		logging.Int("bound", report.Bound),
		logging.Int("matched", report.Matched),
		logging.Int("created", report.Created),
		logging.Int("unmatched", report.Unmatched),
		logging.Int("merged", report.Merged),
		logging.Int("failed", report.Failed),
		logging.Int("warnings", len(report.Warnings)),
		logging.Int("overrides", len(report.Overrides)),
		logging.Duration("elapsed", time.Since(started)))
	return report, nil
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return logging.NewNop()
	}
	return logging.NewComponentLogger(e.Logger, "reconcile")
}

func (e *Engine) workers() int {
	if e.Workers <= 0 {
		return defaultWorkers
	}
	return e.Workers
}

func (e *Engine) merger() *merge.Merger {
	if e.Merger == nil {
		return merge.New(nil)
	}
	return e.Merger
}

// groupBatch buckets the batch per card number, in card-number order, after
// redirecting pinned identifiers. Records without a card number are rejected.
func groupBatch(batch model.Batch, index overrides.Index) ([]*group, []Item) {
	byNumber := map[string]*group{}
	get := func(number string) *group {
		grp, ok := byNumber[number]
		if !ok {
			grp = &group{number: number}
			byNumber[number] = grp
		}
		return grp
	}

	var rejected []Item
	for _, obs := range batch.Observations {
		number := strings.TrimSpace(obs.Card.CardNumber)
		if number == "" {
			rejected = append(rejected, Item{
				Kind:   "text",
				Source: obs.Source,
				Status: StatusFailed,
				Error:  merge.ErrInvalidObservation.Error() + ": missing card number",
			})
			continue
		}
		grp := get(number)
		grp.observations = append(grp.observations, obs)
	}
	for _, img := range batch.Images {
		img.CardNumber = strings.TrimSpace(img.CardNumber)
		if id, ok := img.Identifier.Get(); ok {
			if number, pinned := index.Redirect(langOf(img.Language), id); pinned {
				img.CardNumber = number
			}
		}
		if img.CardNumber == "" {
			item := imageItem(img)
			item.Status = StatusFailed
			item.Error = "missing card number"
			rejected = append(rejected, item)
			continue
		}
		grp := get(img.CardNumber)
		grp.images = append(grp.images, img)
	}

	numbers := make([]string, 0, len(byNumber))
	for number := range byNumber {
		numbers = append(numbers, number)
	}
	slices.Sort(numbers)
	groups := make([]*group, len(numbers))
	for i, number := range numbers {
		groups[i] = byNumber[number]
	}
	return groups, rejected
}

func langOf(lang model.Language) model.Language {
	if lang == "" {
		return model.Japanese
	}
	return lang
}

func imageItem(img model.ImageObservation) Item {
	return Item{
		Kind:       "image",
		Source:     img.Source,
		CardNumber: img.CardNumber,
		Language:   langOf(img.Language),
		Rarity:     img.Rarity,
		Identifier: img.Identifier,
	}
}

// prepared is an image ready for placement or matching.
type prepared struct {
	obs         model.ImageObservation
	item        int
	fingerprint string
	// adopted is set when an illustration took over obs.ImgPath.
	adopted bool
}

func (e *Engine) runGroup(ctx context.Context, grp *group, index overrides.Index) (groupResult, error) {
	if err := ctx.Err(); err != nil {
		return groupResult{}, err
	}
	ctx = logging.WithCardNumber(ctx, grp.number)
	logger := logging.WithContext(ctx, e.logger())

	var (
		res        groupResult
		placements []prepared
		queries    []prepared
	)
	for _, img := range grp.images {
		item := imageItem(img)
		p := prepared{obs: img, item: len(res.items)}
		_, hasID := img.Identifier.Get()

		switch {
		case img.FetchErr != nil:
			item.Status = StatusFailed
			item.Error = img.FetchErr.Error()
			res.items = append(res.items, item)
			continue
		case img.Fingerprint != "":
			p.fingerprint = img.Fingerprint
		case len(img.Data) > 0:
			fp, err := imagehash.HashBytes(img.Data, img.Format)
			if err != nil {
				if !hasID {
					item.Status = StatusFailed
					item.Error = err.Error()
					res.items = append(res.items, item)
					continue
				}
				item.Error = err.Error()
				logging.WarnWithContext(logger, "image could not be decoded", "image_decode_failed",
					logging.String("rarity", img.Rarity),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "placing by identifier only"))
			}
			p.fingerprint = fp
		case !hasID:
			item.Status = StatusFailed
			item.Error = errNoImage.Error()
			res.items = append(res.items, item)
			continue
		}

		if p.fingerprint != "" && !imagehash.Valid(p.fingerprint) {
			if !hasID {
				item.Status = StatusFailed
				item.Error = "unusable fingerprint"
				res.items = append(res.items, item)
				continue
			}
			p.fingerprint = ""
		}
		if index.Skip(img, p.fingerprint) {
			item.Status = StatusSkipped
			item.Error = "skip-listed by override"
			logger.Info("image skipped",
				logging.Args(append(logging.DecisionAttrs("override", "skipped", item.Error),
					logging.String(logging.FieldSource, img.Source),
					logging.String("rarity", img.Rarity))...)...)
			res.items = append(res.items, item)
			continue
		}
		res.items = append(res.items, item)
		if p.fingerprint == "" {
			placements = append(placements, p)
		} else {
			queries = append(queries, p)
		}
	}

	if len(placements) == 0 && len(queries) == 0 && len(grp.observations) == 0 {
		return res, nil
	}

	merger := e.merger()
	err := e.Store.UpdateLinked(grp.number, func(card *model.Card, link *store.Link) error {
		for _, p := range placements {
			e.place(card, link, p, &res.items[p.item])
		}
		if len(queries) > 0 {
			res.warnings = append(res.warnings, e.assign(ctx, card, link, queries, res.items)...)
		}
		for _, obs := range grp.observations {
			item := Item{Kind: "text", Source: obs.Source, CardNumber: grp.number, Language: langOf(obs.Language), Status: StatusMerged}
			warnings, err := merger.Merge(ctx, card, obs)
			if err != nil {
				item.Status = StatusFailed
				item.Error = err.Error()
				logging.WarnWithContext(logger, "observation skipped", "observation_invalid",
					logging.String(logging.FieldSource, obs.Source),
					logging.Error(err))
			}
			item.Warnings = len(warnings)
			res.warnings = append(res.warnings, warnings...)
			res.items = append(res.items, item)
		}
		if len(card.Illustrations) == 0 && len(grp.observations) == 0 {
			return store.ErrUnchanged
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("update %s: %w", grp.number, err)
	}
	e.saveImages(logger, queries, res.items)
	logger.Debug("card reconciled",
		logging.Int("images", len(grp.images)),
		logging.Int("observations", len(grp.observations)),
		logging.Int("warnings", len(res.warnings)))
	return res, nil
}

// place binds an identifier-bearing reference that has no usable image.
// The identifier is authoritative, so other cards lose it.
func (e *Engine) place(card *model.Card, link *store.Link, p prepared, item *Item) {
	lang := langOf(p.obs.Language)
	id, _ := p.obs.Identifier.Get()
	item.Stripped = link.Strip(lang, id)

	bound := card.FindByID(lang, id) >= 0
	placed := merge.Place(card, merge.Placement{
		CardNumber: card.CardNumber,
		Language:   lang,
		Identifier: id,
		Rarity:     p.obs.Rarity,
		ImgPath:    p.obs.ImgPath,
	})
	if p.obs.LastModified != "" {
		card.Illustrations[placed.Index].ImgLastModified = p.obs.LastModified
	}
	switch {
	case placed.Created:
		item.Status = StatusCreated
	case bound:
		item.Status = StatusBound
	default:
		item.Status = StatusMatched
	}
}

// assign runs the matcher for the fingerprinted images of one card and
// applies its decisions.
func (e *Engine) assign(ctx context.Context, card *model.Card, link *store.Link, queries []prepared, items []Item) []merge.Warning {
	req := match.Request{
		CardNumber: card.CardNumber,
		Targets:    match.TargetsFrom(card),
		Tolerances: e.Tolerances,
		Holder:     link.Holder,
	}
	for i, q := range queries {
		req.Queries = append(req.Queries, match.Query{
			Key:         fmt.Sprintf("%s#%d", q.obs.Source, i),
			Fingerprint: q.fingerprint,
			Rarity:      q.obs.Rarity,
			Language:    langOf(q.obs.Language),
			Identifier:  q.obs.Identifier,
		})
	}
	result := match.Assign(req)

	var (
		created  []model.Illustration
		warnings []merge.Warning
	)
	for _, a := range result.Assignments {
		q := queries[a.Query]
		item := &items[q.item]
		lang := langOf(q.obs.Language)
		id, hasID := q.obs.Identifier.Get()

		switch a.Outcome {
		case match.OutcomeUnmatched:
			item.Status = StatusUnmatched
			item.Holder = a.Holder
			continue
		case match.OutcomeNew:
			illust := model.Illustration{CardNumber: card.CardNumber, Rarity: q.obs.Rarity}
			if hasID {
				item.Stripped = link.Strip(lang, id)
				illust.AddID(lang, id)
			}
			queries[a.Query].adopted = applyImage(&illust, q, lang)
			created = append(created, illust)
			item.Status = StatusCreated
			continue
		}

		illust := &card.Illustrations[a.Target]
		if hasID {
			item.Stripped = link.Strip(lang, id)
			card.StripID(lang, id, a.Target)
			if !illust.Released() {
				illust.Rarity = q.obs.Rarity
			}
			illust.AddID(lang, id)
		}
		if !hasID && illust.Released() {
			adopted, found := keepReleased(card.CardNumber, illust, q, lang)
			queries[a.Query].adopted = adopted
			item.Warnings = len(found)
			warnings = append(warnings, found...)
		} else {
			queries[a.Query].adopted = applyImage(illust, q, lang)
		}
		item.Distance = a.Distance
		item.Status = StatusMatched
		if a.Outcome == match.OutcomeBound {
			item.Status = StatusBound
		}
	}
	card.Illustrations = append(card.Illustrations, created...)

	if sink := e.merger().Sink; sink != nil {
		for _, w := range warnings {
			sink.Warn(ctx, w)
		}
	}
	return warnings
}

// keepReleased handles an unidentified image matched to a released
// illustration. Only an unset image path is filled; the stored fingerprint
// stays, and a differing path is reported instead of replaced.
func keepReleased(number string, illust *model.Illustration, q prepared, lang model.Language) (bool, []merge.Warning) {
	path := strings.TrimSpace(q.obs.ImgPath)
	if path == "" {
		return false, nil
	}
	current := illust.ImgPath.Value(lang)
	switch current {
	case "":
		illust.ImgPath.Set(lang, path)
		return true, nil
	case path:
		return true, nil
	}
	return false, []merge.Warning{{
		CardNumber: number,
		Source:     q.obs.Source,
		Field:      "img_path." + string(lang),
		Observed:   path,
		Kept:       current,
	}}
}

// applyImage copies the image fields of q onto illust and reports whether
// illust now points at q's image path.
func applyImage(illust *model.Illustration, q prepared, lang model.Language) bool {
	if q.fingerprint != "" && imagehash.Valid(q.fingerprint) {
		illust.ImgHash = q.fingerprint
	}
	if q.obs.LastModified != "" {
		illust.ImgLastModified = q.obs.LastModified
	}
	path := strings.TrimSpace(q.obs.ImgPath)
	if path == "" {
		return false
	}
	illust.ImgPath.Set(lang, path)
	return true
}

// saveImages writes the downloaded bytes of every adopted image below its
// language's images directory. Images no illustration took are never
// written.
func (e *Engine) saveImages(logger *slog.Logger, queries []prepared, items []Item) {
	for _, q := range queries {
		if !q.adopted || len(q.obs.Data) == 0 {
			continue
		}
		dir := e.ImageDirs[langOf(q.obs.Language)]
		if dir == "" {
			continue
		}
		target := filepath.Join(dir, filepath.FromSlash(strings.TrimSpace(q.obs.ImgPath)))
		if err := fileutil.WriteAtomic(target, q.obs.Data, 0o644); err != nil {
			items[q.item].Error = fmt.Sprintf("save artwork: %v", err)
			logging.WarnWithContext(logger, "artwork not saved", "artwork_save_failed",
				logging.String(logging.FieldSource, q.obs.Source),
				logging.String("path", target),
				logging.Error(err))
			continue
		}
		logger.Debug("artwork saved",
			logging.String(logging.FieldSource, q.obs.Source),
			logging.String("path", target))
	}
}
