package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"hocgassets/internal/config"
	"hocgassets/internal/logging"
	"hocgassets/internal/model"
	"hocgassets/internal/store"
)

type commandContext struct {
	configFlag *string
	envFlag    *string

	envOnce sync.Once
	envErr  error

	configOnce sync.Once
	config     *config.Config
	configErr  error
	configPath string
	configSeen bool

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, envFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		envFlag:    envFlag,
	}
}

// loadEnv reads the .env file before the config so its variables can feed
// the config fallbacks. A missing default file is fine; a missing explicit
// one is not.
func (c *commandContext) loadEnv() error {
	c.envOnce.Do(func() {
		path := ""
		if c.envFlag != nil {
			path = strings.TrimSpace(*c.envFlag)
		}
		if path == "" {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				c.envErr = fmt.Errorf("load .env: %w", err)
			}
			return
		}
		if err := godotenv.Load(path); err != nil {
			c.envErr = fmt.Errorf("load env file %s: %w", path, err)
		}
	})
	return c.envErr
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = err
			return
		}
		if cfg.Logging.Dir != "" {
			logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, cfg.Logging.Dir, "hocg-warnings-*.json", filepath.Join(cfg.Logging.Dir, logging.LogFileName))
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// openStore takes the database lock; callers must Close the store.
func (c *commandContext) openStore(clean bool) (*store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return store.Open(store.Options{
		Path:     cfg.Paths.Database,
		LockPath: cfg.Paths.LockFile,
		Clean:    clean,
		Logger:   logger,
	})
}

// readDatabase loads a snapshot of the card file.
func (c *commandContext) readDatabase() (model.Database, error) {
	st, err := c.openStore(false)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Snapshot(), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func parseLanguage(value string) (model.Language, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return model.Japanese, nil
	}
	return model.ParseLanguage(value)
}
