package decklog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"hocgassets/internal/classify"
	"hocgassets/internal/logging"
	"hocgassets/internal/model"
	"hocgassets/internal/sources"
)

const (
	searchPath = "/system/app/api/search/9"
	// maxPages bounds a deck type in case the API never returns an empty page.
	maxPages = 500
)

// DeckTypes are the search partitions; together they cover every card.
var DeckTypes = []string{"N", "OSHI", "YELL"}

// Config selects the API endpoint and the search filters.
type Config struct {
	BaseURL string
	Referer string
	// Expansion limits the search to one expansion code. Empty searches all.
	Expansion string
	// Keyword limits the search to card numbers containing it.
	Keyword string
	// OptimizedImages keeps the .png image paths instead of the .webp ones.
	OptimizedImages   bool
	RequestsPerSecond float64
	TimeoutSeconds    int
}

// Card is one search result.
type Card struct {
	ManageID   flexUint `json:"manage_id"`
	CardNumber string   `json:"card_number"`
	CardKind   string   `json:"card_kind"`
	Name       string   `json:"name"`
	Rare       string   `json:"rare"`
	Img        string   `json:"img"`
	BloomLevel string   `json:"bloom_level"`
	Max        flexUint `json:"max"`
}

type searchRequest struct {
	Page  int         `json:"page"`
	Param searchParam `json:"param"`
}

type searchParam struct {
	DeckParam1  string   `json:"deck_param1"`
	DeckType    string   `json:"deck_type"`
	Keyword     string   `json:"keyword"`
	KeywordType []string `json:"keyword_type"`
	Expansion   string   `json:"expansion"`
}

// Source reads the deck-building site search API.
type Source struct {
	cfg    Config
	client *sources.Client
	logger *slog.Logger
}

// New returns a deck-log source.
func New(cfg Config, logger *slog.Logger, opts ...sources.Option) *Source {
	if logger == nil {
		logger = logging.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	client := sources.NewClient(sources.ClientConfig{
		Referer:           cfg.Referer,
		RequestsPerSecond: cfg.RequestsPerSecond,
		TimeoutSeconds:    cfg.TimeoutSeconds,
	}, opts...)
	return &Source{cfg: cfg, client: client, logger: logging.NewComponentLogger(logger, "decklog")}
}

// Name implements sources.Source.
func (s *Source) Name() string { return "decklog" }

// Fetch walks every deck type page by page until an empty page comes back.
func (s *Source) Fetch(ctx context.Context) (model.Batch, error) {
	if s.cfg.BaseURL == "" {
		return model.Batch{}, sources.Wrap(sources.ErrConfiguration, "decklog", "fetch", "base url is empty", nil)
	}
	perType := make([][]Card, len(DeckTypes))
	g, gctx := errgroup.WithContext(ctx)
	for i, deckType := range DeckTypes {
		g.Go(func() error {
			cards, err := s.search(gctx, deckType)
			perType[i] = cards
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return model.Batch{}, err
	}

	var batch model.Batch
	for _, cards := range perType {
		for _, card := range cards {
			obs, img, ok := s.convert(card)
			if !ok {
				continue
			}
			batch.Observations = append(batch.Observations, obs)
			if img != nil {
				batch.Images = append(batch.Images, *img)
			}
		}
	}
	return batch, nil
}

func (s *Source) search(ctx context.Context, deckType string) ([]Card, error) {
	var all []Card
	for page := 1; page <= maxPages; page++ {
		req := searchRequest{
			Page: page,
			Param: searchParam{
				DeckParam1:  "S",
				DeckType:    deckType,
				Keyword:     s.cfg.Keyword,
				KeywordType: []string{"no"},
				Expansion:   s.cfg.Expansion,
			},
		}
		var cards []Card
		if err := s.client.PostJSON(ctx, s.cfg.BaseURL+searchPath, req, &cards); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, sources.Wrap(sources.ErrTransient, "decklog", "search", fmt.Sprintf("deck type %s page %d", deckType, page), err)
		}
		s.logger.Debug("search page",
			logging.String("deck_type", deckType),
			logging.Int("page", page),
			logging.Int("cards", len(cards)))
		if len(cards) == 0 {
			return all, nil
		}
		all = append(all, cards...)
	}
	s.logger.Warn("page limit reached",
		logging.String(logging.FieldEventType, "decklog_page_limit"),
		logging.String("deck_type", deckType),
		logging.Int("pages", maxPages),
		logging.String(logging.FieldErrorHint, "narrow the search with an expansion filter"),
		logging.String(logging.FieldImpact, "later pages were not read"))
	return all, nil
}

// convert maps a search result to a Japanese observation plus an image
// reference when the result carries an identifier.
func (s *Source) convert(card Card) (model.Observation, *model.ImageObservation, bool) {
	number := strings.TrimSpace(card.CardNumber)
	if number == "" {
		s.logger.Debug("result without card number skipped", logging.String("name", card.Name))
		return model.Observation{}, nil, false
	}
	cardType := classify.CardType(model.Japanese, card.CardKind)
	obs := model.Observation{
		Source:   s.Name(),
		Language: model.Japanese,
		Card: model.Card{
			CardNumber: number,
			Name:       model.Loc(model.Japanese, strings.TrimSpace(card.Name)),
			CardType:   model.Known(cardType),
			Buzz:       model.Known(classify.Buzz(card.CardKind)),
			Limited:    model.Known(classify.Limited(card.CardKind)),
		},
	}
	if level, ok := classify.BloomLevel(card.BloomLevel); ok {
		obs.Card.BloomLevel = model.Known(level)
	}
	if card.Max.Valid {
		limit := card.Max.Value
		if cardType == model.TypeOshi {
			limit = min(limit, 1)
		}
		obs.Card.MaxAmount = model.Known(limit)
	}

	if !card.ManageID.Valid {
		return obs, nil, true
	}
	img := strings.TrimSpace(card.Img)
	if !s.cfg.OptimizedImages {
		img = strings.ReplaceAll(img, ".png", ".webp")
	}
	return obs, &model.ImageObservation{
		Source:     s.Name(),
		CardNumber: number,
		Rarity:     strings.TrimSpace(card.Rare),
		Language:   model.Japanese,
		Identifier: model.Known(card.ManageID.Value),
		ImgPath:    img,
	}, true
}
