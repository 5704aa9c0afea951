package sheet

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"hocgassets/internal/classify"
	"hocgassets/internal/logging"
	"hocgassets/internal/model"
	"hocgassets/internal/sources"
)

const (
	sourceName = "sheet"
	// UnreleasedDir holds artwork saved from the sheet, relative to an
	// images directory.
	UnreleasedDir   = "unreleased"
	defaultReferer  = "https://docs.google.com/"
	defaultDownload = 4
)

// Config lists the sheet exports and how their artwork is downloaded.
type Config struct {
	// Files are local paths or http(s) URLs of CSV exports.
	Files             []string
	SkipImages        bool
	Referer           string
	RequestsPerSecond float64
	TimeoutSeconds    int
	Workers           int
}

// Source reads the community spreadsheet.
type Source struct {
	cfg    Config
	client *sources.Client
	logger *slog.Logger
}

// New returns a sheet source.
func New(cfg Config, logger *slog.Logger, opts ...sources.Option) *Source {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.Referer == "" {
		cfg.Referer = defaultReferer
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultDownload
	}
	client := sources.NewClient(sources.ClientConfig{
		Referer:           cfg.Referer,
		RequestsPerSecond: cfg.RequestsPerSecond,
		TimeoutSeconds:    cfg.TimeoutSeconds,
	}, opts...)
	return &Source{cfg: cfg, client: client, logger: logging.NewComponentLogger(logger, sourceName)}
}

// Name implements sources.Source.
func (s *Source) Name() string { return sourceName }

// Fetch parses every export, then downloads the artwork of each row.
func (s *Source) Fetch(ctx context.Context) (model.Batch, error) {
	if len(s.cfg.Files) == 0 {
		return model.Batch{}, sources.Wrap(sources.ErrConfiguration, sourceName, "fetch", "no exports configured", nil)
	}
	var rows []Row
	for _, file := range s.cfg.Files {
		data, err := s.read(ctx, file)
		if err != nil {
			return model.Batch{}, err
		}
		parsed, err := Parse(bytes.NewReader(data))
		if err != nil {
			return model.Batch{}, sources.Wrap(sources.ErrValidation, sourceName, "parse", file, err)
		}
		s.logger.Info("sheet export parsed",
			logging.String("file", file),
			logging.Int("rows", len(parsed)))
		rows = append(rows, parsed...)
	}

	batch := model.Batch{Observations: Observations(rows, s.logger)}
	if s.cfg.SkipImages {
		return batch, nil
	}
	images, err := s.images(ctx, rows)
	if err != nil {
		return model.Batch{}, err
	}
	batch.Images = images
	return batch, nil
}

func (s *Source) read(ctx context.Context, file string) ([]byte, error) {
	if strings.HasPrefix(file, "http://") || strings.HasPrefix(file, "https://") {
		resp, err := s.client.Get(ctx, file)
		if err != nil {
			return nil, sources.Wrap(sources.ErrTransient, sourceName, "download export", file, err)
		}
		return resp.Body, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, sources.Wrap(sources.ErrNotFound, sourceName, "read export", file, err)
	}
	return data, nil
}

// Observations converts rows into English text-only observations. Rows that
// repeat a set code for an alternate art collapse into the first one. Cheer
// names spread from the "<set>-001" cheer to the rest of the set.
func Observations(rows []Row, logger *slog.Logger) []model.Observation {
	if logger == nil {
		logger = logging.NewNop()
	}
	seen := make(map[string]struct{}, len(rows))
	cheerNames := make(map[string]string)
	var out []model.Observation
	for _, row := range rows {
		if _, dup := seen[row.SetCode]; dup {
			continue
		}
		seen[row.SetCode] = struct{}{}
		obs := observation(row, logger)
		if obs.Card.CardType.Or(model.TypeOther) == model.TypeCheer {
			if set, num, ok := strings.Cut(row.SetCode, "-"); ok && num == "001" {
				if name, ok := obs.Card.Name.Get(model.English); ok {
					cheerNames[set] = name
				}
			}
		}
		out = append(out, obs)
	}
	for i := range out {
		card := &out[i].Card
		if card.CardType.Or(model.TypeOther) != model.TypeCheer {
			continue
		}
		set, _, _ := strings.Cut(card.CardNumber, "-")
		if name, ok := cheerNames[set]; ok {
			card.Name = model.Loc(model.English, name)
		}
	}
	return out
}

func observation(row Row, logger *slog.Logger) model.Observation {
	_, en := splitName(row.Name)
	cardType := classify.CardType(model.English, row.Type)
	card := model.Card{
		CardNumber: row.SetCode,
		Name:       model.Loc(model.English, en),
		CardType:   model.Known(cardType),
		Buzz:       model.Known(classify.Buzz(row.Type)),
		Limited:    model.Known(classify.LimitedText(row.Text)),
	}
	if colors := classify.Colors(row.Color); len(colors) > 0 {
		card.Colors = model.Known(colors)
	}
	if level, ok := classify.BloomLevel(row.Type); ok {
		card.BloomLevel = model.Known(level)
	}
	if n, err := strconv.ParseUint(row.LifeHP, 10, 32); err == nil {
		switch cardType.Kind {
		case model.KindOshi:
			card.Life = model.Known(uint32(n))
		case model.KindHoloMem:
			card.HP = model.Known(uint32(n))
		}
	}
	if tags := splitTags(row.Tags); len(tags) > 0 {
		card.Tags = model.Known(tags)
	}

	text := parseText(row.Text)
	for _, problem := range text.problems {
		logger.Debug("unreadable text section",
			logging.String(logging.FieldCardNumber, row.SetCode),
			logging.Int("line", row.Line),
			logging.String("section", problem))
	}
	if len(text.oshiSkills) > 0 {
		card.OshiSkills = model.Known(text.oshiSkills)
	}
	if len(text.keywords) > 0 {
		card.Keywords = model.Known(text.keywords)
	}
	if len(text.arts) > 0 {
		card.Arts = model.Known(text.arts)
	}
	if text.extra != "" {
		card.Extra = model.Known(model.Loc(model.English, text.extra))
	}
	if text.ability != "" {
		card.AbilityText = model.Loc(model.English, text.ability)
	}
	return model.Observation{
		Source:   sourceName,
		Language: model.English,
		OnlyText: true,
		Card:     card,
	}
}

type pending struct {
	row   Row
	image Image
}

// images downloads every artwork cell. A failed download becomes an image
// observation carrying the error so the engine reports it per item.
func (s *Source) images(ctx context.Context, rows []Row) ([]model.ImageObservation, error) {
	var work []pending
	for _, row := range rows {
		for _, img := range row.Images {
			work = append(work, pending{row: row, image: img})
		}
	}
	names := storageNames(work)
	out := make([]model.ImageObservation, len(work))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, item := range work {
		g.Go(func() error {
			out[i] = s.download(gctx, item, names[i])
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// storageNames gives each artwork a stable file stem below UnreleasedDir.
// Repeats of the same number and rarity get a counter from 2 upwards.
func storageNames(work []pending) []string {
	used := make(map[string]int)
	names := make([]string, len(work))
	for i, item := range work {
		stem := sanitizeFileName(item.row.SetCode + "_" + item.image.Rarity)
		key := string(item.row.Language) + "/" + stem
		used[key]++
		if n := used[key]; n > 1 {
			stem = fmt.Sprintf("%s_%d", stem, n)
		}
		names[i] = stem
	}
	return names
}

func (s *Source) download(ctx context.Context, item pending, stem string) model.ImageObservation {
	obs := model.ImageObservation{
		Source:     sourceName,
		CardNumber: item.row.SetCode,
		Rarity:     item.image.Rarity,
		Language:   item.row.Language,
	}
	resp, err := s.client.Get(ctx, item.image.URL)
	if err != nil {
		obs.FetchErr = fmt.Errorf("download %s: %w", item.image.URL, err)
		s.logger.Debug("artwork download failed",
			logging.String(logging.FieldCardNumber, item.row.SetCode),
			logging.Int("line", item.row.Line),
			logging.Error(err))
		return obs
	}
	obs.Data = resp.Body
	obs.Format = detectFormat(resp.Body)
	obs.ImgPath = path.Join(UnreleasedDir, stem+"."+extension(obs.Format))
	obs.LastModified = strings.TrimSpace(resp.Header.Get("Last-Modified"))
	return obs
}

func detectFormat(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpeg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return ""
	}
}

func extension(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	case "":
		return "bin"
	default:
		return format
	}
}

func sanitizeFileName(name string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", "*", "-", "?", "", "\"", "", "<", "", ">", "", "|", "", " ", "_")
	return strings.TrimSpace(replacer.Replace(strings.TrimSpace(name)))
}
