package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"hocgassets/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Options selects the optional network checks.
type Options struct {
	Network bool
}

// RunAll executes all applicable preflight checks for the given config.
// Source checks only run when the source is enabled.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Assets directory", cfg.Paths.AssetsDir),
		CheckDirectoryAccess("Images (jp)", cfg.Paths.ImagesJP),
		CheckDirectoryAccess("Images (en)", cfg.Paths.ImagesEN),
		CheckDirectoryAccess("Database directory", filepath.Dir(cfg.Paths.Database)),
		CheckLock("Database lock", cfg.Paths.LockFile),
	}

	if cfg.Sheet.Enabled {
		for _, file := range cfg.Sheet.Files {
			if isRemote(file) {
				if opts.Network {
					results = append(results, CheckEndpoint(ctx, "Sheet export", file, ""))
				}
				continue
			}
			results = append(results, CheckFileReadable("Sheet export", file))
		}
	}
	if cfg.Holodelta.Enabled {
		results = append(results, CheckFileReadable("holoDelta database", cfg.Holodelta.DBPath))
	}
	if cfg.Yuyutei.Enabled {
		results = append(results, CheckFileReadable("Yuyutei listings", cfg.Yuyutei.ListingsPath))
	}
	if cfg.Overrides.Path != "" {
		if _, err := os.Stat(cfg.Overrides.Path); err == nil {
			results = append(results, CheckFileReadable("Overrides catalog", cfg.Overrides.Path))
		}
	}

	if opts.Network {
		if cfg.Decklog.Enabled {
			results = append(results, CheckEndpoint(ctx, "Decklog API", cfg.Decklog.BaseURL, cfg.Decklog.Referer))
		}
		if cfg.Artwork.Enabled {
			results = append(results, CheckEndpoint(ctx, "Artwork site", cfg.Artwork.BaseURL, cfg.Artwork.Referer))
		}
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func isRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
