package artwork

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"hocgassets/internal/fileutil"
	"hocgassets/internal/imagehash"
	"hocgassets/internal/logging"
	"hocgassets/internal/model"
	"hocgassets/internal/sources"
	"hocgassets/internal/store"
)

// ProxiesPrefix is where proxy scans are stored below the English images
// directory.
const ProxiesPrefix = "proxies/"

// ProxyConfig locates the English proxy scans.
type ProxyConfig struct {
	// Dir holds scans named after the stem of the Japanese image they stand
	// in for. Folders named blank or blanks are ignored.
	Dir string
	// ImagesDir is the English images directory copies are written to.
	ImagesDir string
}

// ProxyResult counts what a proxy pass did.
type ProxyResult struct {
	Copied  int `json:"copied"`
	Missing int `json:"missing"`
	Failed  int `json:"failed"`
}

// PrepareProxies copies the scan of every released illustration that has one
// into the English tree and points its English img_path at the copy.
// Illustrations with an English image from another source are left alone.
func PrepareProxies(ctx context.Context, st *store.Store, cfg ProxyConfig, logger *slog.Logger) (ProxyResult, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "proxies")
	if cfg.Dir == "" || cfg.ImagesDir == "" {
		return ProxyResult{}, sources.Wrap(sources.ErrConfiguration, "proxies", "prepare", "proxy dir and english images dir are required", nil)
	}
	scans, err := scanProxies(cfg.Dir)
	if err != nil {
		return ProxyResult{}, err
	}

	var res ProxyResult
	copies := make(map[string]string)
	for _, jp := range proxyTargets(st) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		scan, ok := scans[stem(jp)]
		if !ok {
			res.Missing++
			continue
		}
		rel, err := copyProxy(scan, jp, cfg.ImagesDir)
		if err != nil {
			res.Failed++
			logging.WarnWithContext(logger, "proxy not copied", "proxy_failed",
				logging.String("img_path", jp),
				logging.String("scan", scan),
				logging.Error(err))
			continue
		}
		copies[jp] = rel
		res.Copied++
	}

	err = st.UpdateAll(func(db model.Database) error {
		for _, card := range db {
			for i := range card.Illustrations {
				illust := &card.Illustrations[i]
				rel, ok := copies[illust.ImgPath.Value(model.Japanese)]
				if ok && illust.Released() && proxyable(illust) {
					illust.ImgPath.Set(model.English, rel)
				}
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	logger.Info("proxy images prepared",
		logging.Int("copied", res.Copied),
		logging.Int("missing", res.Missing),
		logging.Int("failed", res.Failed))
	return res, nil
}

// scanProxies maps file stems to scan paths. The first file of a stem in
// lexical walk order wins.
func scanProxies(dir string) (map[string]string, error) {
	scans := make(map[string]string)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch strings.ToLower(d.Name()) {
			case "blank", "blanks":
				return filepath.SkipDir
			}
			return nil
		}
		if s := stem(d.Name()); s != "" {
			if _, ok := scans[s]; !ok {
				scans[s] = p
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan proxies %s: %w", dir, err)
	}
	return scans, nil
}

// proxyTargets lists the Japanese image paths of released illustrations that
// may take a proxy, once each.
func proxyTargets(st *store.Store) []string {
	seen := make(map[string]struct{})
	var out []string
	st.Range(func(card *model.Card) bool {
		for i := range card.Illustrations {
			illust := &card.Illustrations[i]
			jp := illust.ImgPath.Value(model.Japanese)
			if jp == "" || !illust.Released() || !proxyable(illust) {
				continue
			}
			if _, dup := seen[jp]; !dup {
				seen[jp] = struct{}{}
				out = append(out, jp)
			}
		}
		return true
	})
	slices.Sort(out)
	return out
}

func proxyable(illust *model.Illustration) bool {
	en := illust.ImgPath.Value(model.English)
	return en == "" || strings.HasPrefix(en, ProxiesPrefix)
}

// copyProxy writes scan below imagesDir at the Japanese path, keeping the
// scan's own format, and returns the stored relative path.
func copyProxy(scan, jp, imagesDir string) (string, error) {
	data, err := os.ReadFile(scan)
	if err != nil {
		return "", err
	}
	if _, err := imagehash.Decode(data, ""); err != nil {
		return "", err
	}
	rel := ProxiesPrefix + strings.TrimSuffix(jp, path.Ext(jp)) + strings.ToLower(filepath.Ext(scan))
	if err := fileutil.WriteAtomic(filepath.Join(imagesDir, filepath.FromSlash(rel)), data, 0o644); err != nil {
		return "", err
	}
	return rel, nil
}

func stem(name string) string {
	base := path.Base(filepath.ToSlash(name))
	return strings.TrimSuffix(base, path.Ext(base))
}
