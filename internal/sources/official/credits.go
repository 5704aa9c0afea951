package official

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Credit is the illustrator line of one official card page.
type Credit struct {
	ManageID    uint32 `json:"manage_id" yaml:"manage_id"`
	Illustrator string `json:"illustrator" yaml:"illustrator"`
}

// Lister supplies the credits.
type Lister interface {
	Credits(ctx context.Context) ([]Credit, error)
}

// FileLister reads credits from a file. .yaml and .yml files are YAML;
// anything else is JSON holding either an array or an object with a
// "credits" array.
type FileLister struct {
	Path string
}

// Credits implements Lister.
func (f FileLister) Credits(ctx context.Context) ([]Credit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read credits: %w", err)
	}
	var wrapper struct {
		Credits []Credit `json:"credits" yaml:"credits"`
	}
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".yaml", ".yml":
		var credits []Credit
		if err := yaml.Unmarshal(data, &credits); err == nil {
			return credits, nil
		}
		if err := yaml.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("parse credits %s: %w", f.Path, err)
		}
		return wrapper.Credits, nil
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("parse credits %s: %w", f.Path, err)
		}
		return wrapper.Credits, nil
	}
	var credits []Credit
	if err := json.Unmarshal(data, &credits); err != nil {
		return nil, fmt.Errorf("parse credits %s: %w", f.Path, err)
	}
	return credits, nil
}

// StaticLister serves a fixed list.
type StaticLister []Credit

// Credits implements Lister.
func (s StaticLister) Credits(context.Context) ([]Credit, error) {
	return s, nil
}

// clean trims names, drops credits without an identifier and keeps the first
// credit of each identifier.
func clean(credits []Credit) []Credit {
	seen := make(map[uint32]struct{}, len(credits))
	out := make([]Credit, 0, len(credits))
	for _, c := range credits {
		if c.ManageID == 0 {
			continue
		}
		if _, dup := seen[c.ManageID]; dup {
			continue
		}
		seen[c.ManageID] = struct{}{}
		c.Illustrator = strings.TrimSpace(c.Illustrator)
		out = append(out, c)
	}
	return out
}
