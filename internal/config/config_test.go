package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"hocgassets/internal/config"
)

func TestLoadDefaultConfigExpandsPathsUnderAssets(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "hocg", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}

	assets := filepath.Join(tempHome, ".local", "share", "hocg", "assets")
	if cfg.Paths.AssetsDir != assets {
		t.Fatalf("unexpected assets dir: got %q want %q", cfg.Paths.AssetsDir, assets)
	}
	if cfg.Paths.Database != filepath.Join(assets, "hocg_cards.json") {
		t.Fatalf("unexpected database path: %q", cfg.Paths.Database)
	}
	if cfg.Paths.ImagesJP != filepath.Join(assets, "img") || cfg.Paths.ImagesEN != filepath.Join(assets, "img_en") {
		t.Fatalf("unexpected image dirs: %q %q", cfg.Paths.ImagesJP, cfg.Paths.ImagesEN)
	}
	if cfg.Paths.LockFile != cfg.Paths.Database+".lock" {
		t.Fatalf("unexpected lock file: %q", cfg.Paths.LockFile)
	}
	if cfg.Matching.SameRarity != 256 || cfg.Matching.DiffRarity != 4096 {
		t.Fatalf("unexpected tolerances: %+v", cfg.Matching)
	}
	if !cfg.Matching.TrustUnreleasedSameRarity {
		t.Fatal("expected unreleased same-rarity trust by default")
	}
	if cfg.ImageDir("en") != cfg.Paths.ImagesEN || cfg.ImageDir("jp") != cfg.Paths.ImagesJP {
		t.Fatal("ImageDir did not map languages to image roots")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.AssetsDir, cfg.Paths.ImagesJP, cfg.Paths.ImagesEN} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "hocg.toml")
	assets := filepath.Join(tempDir, "assets")

	type payload struct {
		Paths struct {
			AssetsDir string `toml:"assets_dir"`
			ImagesEN  string `toml:"images_en"`
		} `toml:"paths"`
		Matching struct {
			SameRarity uint64 `toml:"same_rarity"`
			DiffRarity uint64 `toml:"diff_rarity"`
		} `toml:"matching"`
		Yuyutei struct {
			Mode string `toml:"mode"`
		} `toml:"yuyutei"`
	}
	custom := payload{}
	custom.Paths.AssetsDir = assets
	custom.Paths.ImagesEN = "/srv/cards/en"
	custom.Matching.SameRarity = 100
	custom.Matching.DiffRarity = 2000
	custom.Yuyutei.Mode = " IMAGES "
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.Database != filepath.Join(assets, "hocg_cards.json") {
		t.Fatalf("expected database under custom assets dir, got %q", cfg.Paths.Database)
	}
	if cfg.Paths.ImagesEN != "/srv/cards/en" {
		t.Fatalf("expected absolute images_en to be kept, got %q", cfg.Paths.ImagesEN)
	}
	if cfg.Matching.SameRarity != 100 || cfg.Matching.DiffRarity != 2000 {
		t.Fatalf("expected tolerances from file, got %+v", cfg.Matching)
	}
	if cfg.Yuyutei.Mode != "images" {
		t.Fatalf("expected normalized yuyutei mode, got %q", cfg.Yuyutei.Mode)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "hocg.toml")
	if err := os.WriteFile(configPath, []byte("[matching]\nsame_rarty = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestEnvFallbacks(t *testing.T) {
	assets := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HOCG_ASSETS_DIR", assets)
	t.Setenv("HOLODELTA_DB_PATH", "/data/holodelta.db")
	t.Setenv("HOCG_LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.AssetsDir != assets {
		t.Fatalf("expected assets dir from env, got %q", cfg.Paths.AssetsDir)
	}
	if cfg.Holodelta.DBPath != "/data/holodelta.db" {
		t.Fatalf("expected holodelta path from env, got %q", cfg.Holodelta.DBPath)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected log level from env, got %q", cfg.Logging.Level)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[matching]") {
		t.Fatalf("sample config missing matching section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	defaults := config.Default()
	if cfg.Matching != defaults.Matching {
		t.Fatalf("sample matching section drifted from defaults: %+v vs %+v", cfg.Matching, defaults.Matching)
	}
	if cfg.Workers != defaults.Workers {
		t.Fatalf("sample workers section drifted from defaults: %+v", cfg.Workers)
	}

	// The sample must load cleanly with unknown-field checks on.
	t.Setenv("HOME", t.TempDir())
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"zero same rarity": func(c *config.Config) { c.Matching.SameRarity = 0 },
		"diff below same":  func(c *config.Config) { c.Matching.DiffRarity = c.Matching.SameRarity - 1 },
		"decklog rate":     func(c *config.Config) { c.Decklog.RequestsPerSecond = 0 },
		"sheet without files": func(c *config.Config) {
			c.Sheet.Enabled = true
		},
		"holodelta without db": func(c *config.Config) {
			c.Holodelta.Enabled = true
		},
		"official without credits": func(c *config.Config) {
			c.Official.Enabled = true
		},
		"proxies without dir": func(c *config.Config) {
			c.Proxies.Enabled = true
		},
		"yuyutei mode":       func(c *config.Config) { c.Yuyutei.Mode = "scrape" },
		"log format":         func(c *config.Config) { c.Logging.Format = "xml" },
		"log level":          func(c *config.Config) { c.Logging.Level = "loud" },
		"same image roots":   func(c *config.Config) { c.Paths.ImagesEN = c.Paths.ImagesJP },
		"negative retention": func(c *config.Config) { c.Logging.RetentionDays = -1 },
	}
	for name, mutate := range cases {
		cfg := config.Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
