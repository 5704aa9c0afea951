package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths locates the card database and the image trees. Relative entries are
// resolved against AssetsDir.
type Paths struct {
	AssetsDir string `toml:"assets_dir"`
	Database  string `toml:"database"`
	ImagesJP  string `toml:"images_jp"`
	ImagesEN  string `toml:"images_en"`
	LockFile  string `toml:"lock_file"`
}

// Matching holds the candidate matcher tolerances.
type Matching struct {
	SameRarity                uint64 `toml:"same_rarity"`
	DiffRarity                uint64 `toml:"diff_rarity"`
	CoAssign                  uint64 `toml:"co_assign"`
	ProxyRarity               string `toml:"proxy_rarity"`
	TrustUnreleasedSameRarity bool   `toml:"trust_unreleased_same_rarity"`
}

// Workers bounds the parallel stages.
type Workers struct {
	Reconcile int `toml:"reconcile"`
	Downloads int `toml:"downloads"`
}

// Decklog configures the deck-building API client.
type Decklog struct {
	Enabled           bool    `toml:"enabled"`
	BaseURL           string  `toml:"base_url"`
	Referer           string  `toml:"referer"`
	Expansion         string  `toml:"expansion"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	OptimizedImages   bool    `toml:"optimized_images"`
}

// Sheet points at the community spreadsheet exports.
type Sheet struct {
	Enabled bool     `toml:"enabled"`
	Files   []string `toml:"files"`
}

// Holodelta points at the third-party SQLite database.
type Holodelta struct {
	Enabled bool   `toml:"enabled"`
	DBPath  string `toml:"db_path"`
}

// Yuyutei configures marketplace listing pairing.
type Yuyutei struct {
	Enabled      bool   `toml:"enabled"`
	ListingsPath string `toml:"listings_path"`
	Mode         string `toml:"mode"`
}

// Official points at the illustrator credits taken from the official card
// pages.
type Official struct {
	Enabled     bool   `toml:"enabled"`
	CreditsPath string `toml:"credits_path"`
}

// Proxies points at the English proxy scans.
type Proxies struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Artwork configures image downloads.
type Artwork struct {
	Enabled           bool    `toml:"enabled"`
	BaseURL           string  `toml:"base_url"`
	Referer           string  `toml:"referer"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	Force             bool    `toml:"force"`
}

// Overrides points at an optional curated rule catalog.
type Overrides struct {
	Path string `toml:"path"`
}

// Logging configures logging behavior.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	Dir           string `toml:"dir"`
	RetentionDays int    `toml:"retention_days"`
}

// Config holds every setting the hocg CLI reads.
//
// Sections:
//   - Paths: database and image locations
//   - Matching: image matcher tolerances
//   - Workers: parallelism bounds
//   - Decklog, Sheet, Holodelta, Yuyutei, Official: source adapters
//   - Artwork, Proxies: image downloads and English proxy scans
//   - Overrides: curated rule catalog
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	Matching  Matching  `toml:"matching"`
	Workers   Workers   `toml:"workers"`
	Decklog   Decklog   `toml:"decklog"`
	Sheet     Sheet     `toml:"sheet"`
	Holodelta Holodelta `toml:"holodelta"`
	Yuyutei   Yuyutei   `toml:"yuyutei"`
	Official  Official  `toml:"official"`
	Artwork   Artwork   `toml:"artwork"`
	Proxies   Proxies   `toml:"proxies"`
	Overrides Overrides `toml:"overrides"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/hocg/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has every path expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("hocg.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the asset and image directories and the log
// directory when one is configured.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.AssetsDir, c.Paths.ImagesJP, c.Paths.ImagesEN, filepath.Dir(c.Paths.Database)}
	if strings.TrimSpace(c.Logging.Dir) != "" {
		dirs = append(dirs, c.Logging.Dir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ImageDir returns the image root for a language code ("jp" or "en").
func (c *Config) ImageDir(lang string) string {
	if lang == "en" {
		return c.Paths.ImagesEN
	}
	return c.Paths.ImagesJP
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// expandUnder expands pathValue, joining relative values onto base.
func expandUnder(base, pathValue string) (string, error) {
	trimmed := strings.TrimSpace(pathValue)
	if trimmed == "" || strings.HasPrefix(trimmed, "~") || filepath.IsAbs(trimmed) {
		return expandPath(trimmed)
	}
	return expandPath(filepath.Join(base, trimmed))
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
