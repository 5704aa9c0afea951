package artwork

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"hocgassets/internal/fileutil"
	"hocgassets/internal/imagehash"
	"hocgassets/internal/logging"
	"hocgassets/internal/model"
	"hocgassets/internal/sources"
	"hocgassets/internal/store"
)

const (
	defaultWorkers = 4
	// UnreleasedPrefix marks artwork saved from community sources; it has no
	// official download.
	UnreleasedPrefix = "unreleased/"
)

// Config controls where artwork comes from and where it is saved.
type Config struct {
	BaseURL   string
	ImagesDir string
	// Force downloads even when Last-Modified says the image is unchanged.
	Force   bool
	Workers int
	Client  sources.ClientConfig
}

// Result counts what a download pass did.
type Result struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Downloader refreshes the official artwork of stored illustrations.
type Downloader struct {
	store  *store.Store
	client *sources.Client
	cfg    Config
	logger *slog.Logger
}

// New returns a Downloader saving under cfg.ImagesDir.
func New(st *store.Store, cfg Config, logger *slog.Logger, opts ...sources.Option) *Downloader {
	if logger == nil {
		logger = logging.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &Downloader{
		store:  st,
		client: sources.NewClient(cfg.Client, opts...),
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "artwork"),
	}
}

type target struct {
	number       string
	imgPath      string
	lastModified string
}

// Run downloads the artwork of the given cards, or of every card when
// numbers is empty. Per-image failures are logged and counted; only
// cancellation and store errors abort the pass.
func (d *Downloader) Run(ctx context.Context, numbers ...string) (Result, error) {
	if d.cfg.BaseURL == "" || d.cfg.ImagesDir == "" {
		return Result{}, sources.Wrap(sources.ErrConfiguration, "artwork", "download", "base url and images dir are required", nil)
	}
	targets := d.targets(numbers)
	d.logger.Info("artwork download started",
		logging.String(logging.FieldEventType, "artwork_start"),
		logging.Int("images", len(targets)),
		logging.Bool("force", d.cfg.Force))
	started := time.Now()

	var downloaded, skipped, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers())
	for _, t := range targets {
		g.Go(func() error {
			changed, err := d.fetch(gctx, t)
			switch {
			case err == nil && changed:
				n := downloaded.Add(1)
				if n%10 == 0 {
					d.logger.Info("artwork progress",
						logging.Int64("downloaded", n),
						logging.Int64("skipped", skipped.Load()))
				}
			case err == nil:
				skipped.Add(1)
			case gctx.Err() != nil:
				return gctx.Err()
			case errors.Is(err, errStore):
				return err
			default:
				failed.Add(1)
				logging.WarnWithContext(d.logger, "artwork download failed", "artwork_failed",
					logging.String(logging.FieldCardNumber, t.number),
					logging.String("img_path", t.imgPath),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "rerun the download or check the artwork base url"),
					logging.String(logging.FieldImpact, "the stored image and fingerprint stay as they were"))
			}
			return nil
		})
	}
	err := g.Wait()
	res := Result{
		Downloaded: int(downloaded.Load()),
		Skipped:    int(skipped.Load()),
		Failed:     int(failed.Load()),
	}
	if err != nil {
		return res, err
	}
	d.logger.Info("artwork download finished",
		logging.String(logging.FieldEventType, "artwork_complete"),
		logging.Int("downloaded", res.Downloaded),
		logging.Int("skipped", res.Skipped),
		logging.Int("failed", res.Failed),
		logging.Duration("elapsed", time.Since(started)))
	return res, nil
}

func (d *Downloader) workers() int {
	if d.cfg.Workers <= 0 {
		return defaultWorkers
	}
	return d.cfg.Workers
}

// targets lists each official Japanese image path once.
func (d *Downloader) targets(numbers []string) []target {
	wanted := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		wanted[strings.TrimSpace(n)] = struct{}{}
	}
	seen := make(map[string]struct{})
	var out []target
	d.store.Range(func(card *model.Card) bool {
		if len(wanted) > 0 {
			if _, ok := wanted[card.CardNumber]; !ok {
				return true
			}
		}
		for _, illust := range card.Illustrations {
			img := illust.ImgPath.Value(model.Japanese)
			if img == "" || strings.HasPrefix(img, UnreleasedPrefix) {
				continue
			}
			if _, dup := seen[img]; dup {
				continue
			}
			seen[img] = struct{}{}
			out = append(out, target{number: card.CardNumber, imgPath: img, lastModified: illust.ImgLastModified})
		}
		return true
	})
	slices.SortFunc(out, func(a, b target) int { return strings.Compare(a.imgPath, b.imgPath) })
	return out
}

var errStore = errors.New("artwork: store update failed")

// RemoteURL maps a stored image path to its official download location. The
// site serves PNG files even when the database records WebP paths.
func RemoteURL(baseURL, imgPath string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.ReplaceAll(strings.TrimLeft(imgPath, "/"), ".webp", ".png")
}

// fetch reports whether the image was downloaded.
func (d *Downloader) fetch(ctx context.Context, t target) (bool, error) {
	remote := RemoteURL(d.cfg.BaseURL, t.imgPath)
	local := filepath.Join(d.cfg.ImagesDir, filepath.FromSlash(t.imgPath))

	lastModified := t.lastModified
	if !d.cfg.Force {
		head, err := d.client.Head(ctx, remote)
		if err != nil {
			return false, fmt.Errorf("check %s: %w", remote, err)
		}
		remoteModified := strings.TrimSpace(head.Header.Get("Last-Modified"))
		if unchanged(remoteModified, t.lastModified) && exists(local) {
			return false, nil
		}
		if remoteModified != "" {
			lastModified = remoteModified
		}
	}

	resp, err := d.client.Get(ctx, remote)
	if err != nil {
		return false, err
	}
	if lm := strings.TrimSpace(resp.Header.Get("Last-Modified")); lm != "" {
		lastModified = lm
	}
	img, err := imagehash.Decode(resp.Body, "")
	if err != nil {
		return false, err
	}
	fingerprint := imagehash.Hash(img)
	if err := fileutil.WriteAtomic(local, resp.Body, 0o644); err != nil {
		return false, fmt.Errorf("save %s: %w", local, err)
	}

	err = d.store.Update(t.number, func(card *model.Card) error {
		touched := false
		for i := range card.Illustrations {
			illust := &card.Illustrations[i]
			if illust.ImgPath.Value(model.Japanese) != t.imgPath {
				continue
			}
			illust.ImgLastModified = lastModified
			illust.ImgHash = fingerprint
			touched = true
		}
		if !touched {
			return store.ErrUnchanged
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", errStore, err)
	}
	return true, nil
}

// unchanged reports whether the remote image is not newer than the stored
// one. Unparseable dates count as changed.
func unchanged(remote, stored string) bool {
	if remote == "" || stored == "" {
		return false
	}
	remoteTime, err := http.ParseTime(remote)
	if err != nil {
		return false
	}
	storedTime, err := http.ParseTime(stored)
	if err != nil {
		return false
	}
	return !remoteTime.After(storedTime)
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
