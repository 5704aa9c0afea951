package overrides

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"hocgassets/internal/logging"
)

// Catalog loads user-authored rules from a JSON or YAML file and reloads them
// when the file changes.
type Catalog struct {
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
	loaded time.Time
	rules  []Rule
}

// NewCatalog returns a catalog backed by path, or nil when path is empty.
func NewCatalog(path string, logger *slog.Logger) *Catalog {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Catalog{path: trimmed, logger: logging.NewComponentLogger(logger, "overrides")}
}

// Path returns the backing file.
func (c *Catalog) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Rules returns the current rules. A missing file yields no rules.
func (c *Catalog) Rules() ([]Rule, error) {
	if c == nil {
		return nil, nil
	}
	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Rule(nil), c.rules...), nil
}

func (c *Catalog) ensureLoaded() error {
	info, err := os.Stat(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.mu.Lock()
			c.rules, c.loaded = nil, time.Time{}
			c.mu.Unlock()
			return nil
		}
		return err
	}

	c.mu.RLock()
	current := !c.loaded.IsZero() && c.loaded.Equal(info.ModTime())
	c.mu.RUnlock()
	if current {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}
	rules, err := parseRules(data, formatOf(c.path))
	if err != nil {
		return fmt.Errorf("overrides %s: %w", c.path, err)
	}

	c.mu.Lock()
	c.rules = rules
	c.loaded = info.ModTime()
	c.mu.Unlock()
	c.logger.Info("loaded override rules", logging.String("path", c.path), logging.Int("count", len(rules)))
	return nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// parseRules accepts a bare list or an object with an "overrides" list.
func parseRules(data []byte, format string) ([]Rule, error) {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var (
		rules   []Rule
		wrapper struct {
			Overrides []Rule `json:"overrides" yaml:"overrides"`
		}
	)
	switch format {
	case "yaml":
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, err
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.MappingNode {
			if err := node.Decode(&wrapper); err != nil {
				return nil, err
			}
			rules = wrapper.Overrides
		} else if err := node.Decode(&rules); err != nil {
			return nil, err
		}
	default:
		trimmed := bytes.TrimSpace(data)
		if trimmed[0] == '{' {
			if err := json.Unmarshal(trimmed, &wrapper); err != nil {
				return nil, err
			}
			rules = wrapper.Overrides
		} else if err := json.Unmarshal(trimmed, &rules); err != nil {
			return nil, err
		}
	}

	normalized := make([]Rule, 0, len(rules))
	for i, rule := range rules {
		rule.normalize()
		if err := rule.validate(); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i+1, rule.Label(), err)
		}
		normalized = append(normalized, rule)
	}
	return normalized, nil
}
