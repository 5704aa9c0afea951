package logging

import (
	"context"
	"log/slog"
	"strings"
)

type contextKey int

const (
	runIDKey contextKey = iota
	sourceKey
	cardNumberKey
)

// WithRunID attaches the run identifier to ctx.
func WithRunID(ctx context.Context, id string) context.Context {
	return withString(ctx, runIDKey, id)
}

// RunIDFromContext returns the run identifier attached to ctx.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, runIDKey)
}

// WithSource attaches the source adapter name to ctx.
func WithSource(ctx context.Context, source string) context.Context {
	return withString(ctx, sourceKey, source)
}

// SourceFromContext returns the source adapter name attached to ctx.
func SourceFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, sourceKey)
}

// WithCardNumber attaches the card being reconciled to ctx.
func WithCardNumber(ctx context.Context, number string) context.Context {
	return withString(ctx, cardNumberKey, number)
}

// CardNumberFromContext returns the card attached to ctx.
func CardNumberFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, cardNumberKey)
}

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(key).(string)
	return value, ok && value != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if source, ok := SourceFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSource, source))
	}
	if number, ok := CardNumberFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCardNumber, number))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
