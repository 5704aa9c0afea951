package testsupport

import (
	"path/filepath"
	"testing"

	"hocgassets/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Every network source is disabled and the directories exist.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.AssetsDir = filepath.Join(base, "assets")
	cfgVal.Paths.Database = filepath.Join(cfgVal.Paths.AssetsDir, "hocg_cards.json")
	cfgVal.Paths.ImagesJP = filepath.Join(cfgVal.Paths.AssetsDir, "img")
	cfgVal.Paths.ImagesEN = filepath.Join(cfgVal.Paths.AssetsDir, "img_en")
	cfgVal.Paths.LockFile = cfgVal.Paths.Database + ".lock"
	cfgVal.Logging.Dir = filepath.Join(base, "logs")
	cfgVal.Overrides.Path = ""
	cfgVal.Decklog.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("create config directories: %v", err)
	}
	return builder.cfg
}

// WithDecklog enables the deck-log source against baseURL.
func WithDecklog(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Decklog.Enabled = true
		b.cfg.Decklog.BaseURL = baseURL
		b.cfg.Decklog.Referer = baseURL + "/"
		b.cfg.Decklog.RequestsPerSecond = 1000
	}
}

// WithSheetFiles enables the spreadsheet source.
func WithSheetFiles(files ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sheet.Enabled = true
		b.cfg.Sheet.Files = files
	}
}

// WithArtwork enables artwork downloads from baseURL.
func WithArtwork(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Artwork.Enabled = true
		b.cfg.Artwork.BaseURL = baseURL
		b.cfg.Artwork.RequestsPerSecond = 1000
	}
}

// WithOfficialCredits enables the illustrator credit stage.
func WithOfficialCredits(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Official.Enabled = true
		b.cfg.Official.CreditsPath = path
	}
}

// WithProxies enables English proxy preparation from dir.
func WithProxies(dir string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Proxies.Enabled = true
		b.cfg.Proxies.Dir = dir
	}
}

// WithOverrides points the config at a rule catalog.
func WithOverrides(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Overrides.Path = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.AssetsDir)
}
