package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMatching()
	c.normalizeDecklog()
	if err := c.normalizeSources(); err != nil {
		return err
	}
	c.normalizeArtwork()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("HOCG_ASSETS_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.AssetsDir = value
	}
	if strings.TrimSpace(c.Paths.AssetsDir) == "" {
		c.Paths.AssetsDir = defaultAssetsDir
	}

	var err error
	if c.Paths.AssetsDir, err = expandPath(strings.TrimSpace(c.Paths.AssetsDir)); err != nil {
		return fmt.Errorf("paths.assets_dir: %w", err)
	}
	base := c.Paths.AssetsDir

	if strings.TrimSpace(c.Paths.Database) == "" {
		c.Paths.Database = defaultDatabase
	}
	if c.Paths.Database, err = expandUnder(base, c.Paths.Database); err != nil {
		return fmt.Errorf("paths.database: %w", err)
	}
	if strings.TrimSpace(c.Paths.ImagesJP) == "" {
		c.Paths.ImagesJP = defaultImagesJP
	}
	if c.Paths.ImagesJP, err = expandUnder(base, c.Paths.ImagesJP); err != nil {
		return fmt.Errorf("paths.images_jp: %w", err)
	}
	if strings.TrimSpace(c.Paths.ImagesEN) == "" {
		c.Paths.ImagesEN = defaultImagesEN
	}
	if c.Paths.ImagesEN, err = expandUnder(base, c.Paths.ImagesEN); err != nil {
		return fmt.Errorf("paths.images_en: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockFile) == "" {
		c.Paths.LockFile = c.Paths.Database + ".lock"
	}
	if c.Paths.LockFile, err = expandUnder(base, c.Paths.LockFile); err != nil {
		return fmt.Errorf("paths.lock_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeMatching() {
	c.Matching.ProxyRarity = strings.TrimSpace(c.Matching.ProxyRarity)
	if c.Matching.ProxyRarity == "" {
		c.Matching.ProxyRarity = defaultProxyRarity
	}
	if c.Workers.Reconcile <= 0 {
		c.Workers.Reconcile = defaultReconcileWorkers
	}
	if c.Workers.Downloads <= 0 {
		c.Workers.Downloads = defaultDownloadWorkers
	}
}

func (c *Config) normalizeDecklog() {
	c.Decklog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Decklog.BaseURL), "/")
	if c.Decklog.BaseURL == "" {
		c.Decklog.BaseURL = defaultDecklogBaseURL
	}
	c.Decklog.Referer = strings.TrimSpace(c.Decklog.Referer)
	if c.Decklog.Referer == "" {
		c.Decklog.Referer = c.Decklog.BaseURL + "/"
	}
	c.Decklog.Expansion = strings.TrimSpace(c.Decklog.Expansion)
}

func (c *Config) normalizeSources() error {
	var err error
	for i, file := range c.Sheet.Files {
		file = strings.TrimSpace(file)
		if strings.HasPrefix(file, "http://") || strings.HasPrefix(file, "https://") {
			c.Sheet.Files[i] = file
			continue
		}
		if c.Sheet.Files[i], err = expandPath(file); err != nil {
			return fmt.Errorf("sheet.files[%d]: %w", i, err)
		}
	}
	if c.Holodelta.DBPath == "" {
		if value, ok := os.LookupEnv("HOLODELTA_DB_PATH"); ok {
			c.Holodelta.DBPath = strings.TrimSpace(value)
		}
	}
	if c.Holodelta.DBPath, err = expandPath(strings.TrimSpace(c.Holodelta.DBPath)); err != nil {
		return fmt.Errorf("holodelta.db_path: %w", err)
	}
	if c.Yuyutei.ListingsPath, err = expandPath(strings.TrimSpace(c.Yuyutei.ListingsPath)); err != nil {
		return fmt.Errorf("yuyutei.listings_path: %w", err)
	}
	c.Yuyutei.Mode = strings.ToLower(strings.TrimSpace(c.Yuyutei.Mode))
	if c.Yuyutei.Mode == "" {
		c.Yuyutei.Mode = defaultYuyuteiMode
	}
	if c.Official.CreditsPath, err = expandPath(strings.TrimSpace(c.Official.CreditsPath)); err != nil {
		return fmt.Errorf("official.credits_path: %w", err)
	}
	if c.Proxies.Dir, err = expandPath(strings.TrimSpace(c.Proxies.Dir)); err != nil {
		return fmt.Errorf("proxies.dir: %w", err)
	}
	if c.Overrides.Path, err = expandPath(strings.TrimSpace(c.Overrides.Path)); err != nil {
		return fmt.Errorf("overrides.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeArtwork() {
	c.Artwork.BaseURL = strings.TrimRight(strings.TrimSpace(c.Artwork.BaseURL), "/")
	if c.Artwork.BaseURL == "" {
		c.Artwork.BaseURL = defaultArtworkBaseURL
	}
	c.Artwork.Referer = strings.TrimSpace(c.Artwork.Referer)
	if c.Artwork.Referer == "" {
		c.Artwork.Referer = defaultDecklogReferer
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if value, ok := os.LookupEnv("HOCG_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(value))
	}
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
