package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.AssetsDir) == "" {
		return errors.New("paths.assets_dir must be set")
	}
	if strings.TrimSpace(c.Paths.Database) == "" {
		return errors.New("paths.database must be set")
	}
	if c.Paths.ImagesJP == c.Paths.ImagesEN {
		return errors.New("paths.images_jp and paths.images_en must differ")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.SameRarity == 0 {
		return errors.New("matching.same_rarity must be positive")
	}
	if c.Matching.DiffRarity < c.Matching.SameRarity {
		return errors.New("matching.diff_rarity must be at least matching.same_rarity")
	}
	if c.Workers.Reconcile > 256 {
		return errors.New("workers.reconcile must be at most 256")
	}
	return nil
}

func (c *Config) validateSources() error {
	if c.Decklog.Enabled {
		if c.Decklog.RequestsPerSecond <= 0 {
			return errors.New("decklog.requests_per_second must be positive")
		}
		if c.Decklog.TimeoutSeconds <= 0 {
			return errors.New("decklog.timeout_seconds must be positive")
		}
	}
	if c.Sheet.Enabled && len(c.Sheet.Files) == 0 {
		return errors.New("sheet.files must list at least one CSV export when sheet.enabled is true")
	}
	if c.Holodelta.Enabled && c.Holodelta.DBPath == "" {
		return errors.New("holodelta.db_path must be set when holodelta.enabled is true (or set HOLODELTA_DB_PATH)")
	}
	switch c.Yuyutei.Mode {
	case "quick", "images":
	default:
		return fmt.Errorf("yuyutei.mode must be quick or images, got %q", c.Yuyutei.Mode)
	}
	if c.Yuyutei.Enabled && c.Yuyutei.ListingsPath == "" {
		return errors.New("yuyutei.listings_path must be set when yuyutei.enabled is true")
	}
	if c.Official.Enabled && c.Official.CreditsPath == "" {
		return errors.New("official.credits_path must be set when official.enabled is true")
	}
	if c.Proxies.Enabled && c.Proxies.Dir == "" {
		return errors.New("proxies.dir must be set when proxies.enabled is true")
	}
	if c.Artwork.Enabled {
		if c.Artwork.RequestsPerSecond <= 0 {
			return errors.New("artwork.requests_per_second must be positive")
		}
		if c.Artwork.TimeoutSeconds <= 0 {
			return errors.New("artwork.timeout_seconds must be positive")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}
