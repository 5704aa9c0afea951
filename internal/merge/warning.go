package merge

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"hocgassets/internal/logging"
)

// Warning records one data mismatch between an observation and the stored card.
type Warning struct {
	CardNumber string `json:"card_number"`
	Source     string `json:"source,omitempty"`
	Field      string `json:"field"`
	Observed   string `json:"observed,omitempty"`
	Kept       string `json:"kept,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

func (w Warning) String() string {
	if w.Detail != "" {
		return fmt.Sprintf("%s %s: %s", w.CardNumber, w.Field, w.Detail)
	}
	return fmt.Sprintf("%s %s mismatch: observed %s, kept %s", w.CardNumber, w.Field, w.Observed, w.Kept)
}

// WarningSink receives mismatch warnings as they are detected.
type WarningSink interface {
	Warn(ctx context.Context, w Warning)
}

// LogSink writes warnings through the structured logger.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Warn(ctx context.Context, w Warning) {
	logger := logging.WithContext(ctx, s.Logger)
	attrs := []logging.Attr{
		logging.String(logging.FieldCardNumber, w.CardNumber),
		logging.String("field", w.Field),
		logging.String(logging.FieldImpact, "stored value kept; review the source data"),
		logging.String(logging.FieldErrorHint, "fix the upstream record or add a curated override"),
	}
	if w.Source != "" {
		attrs = append(attrs, logging.String(logging.FieldSource, w.Source))
	}
	if w.Observed != "" || w.Kept != "" {
		attrs = append(attrs, logging.String("observed", w.Observed), logging.String("kept", w.Kept))
	}
	msg := "card field mismatch"
	if w.Detail != "" {
		msg = w.Detail
	}
	logging.WarnWithContext(logger, msg, "merge_mismatch", attrs...)
}

// Collector keeps warnings in memory. It is safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	warnings []Warning
}

func (c *Collector) Warn(_ context.Context, w Warning) {
	c.mu.Lock()
	c.warnings = append(c.warnings, w)
	c.mu.Unlock()
}

// Warnings returns a copy of everything collected so far.
func (c *Collector) Warnings() []Warning {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.warnings)
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.warnings)
}

// MultiSink fans a warning out to several sinks.
type MultiSink []WarningSink

func (m MultiSink) Warn(ctx context.Context, w Warning) {
	for _, sink := range m {
		if sink != nil {
			sink.Warn(ctx, w)
		}
	}
}
