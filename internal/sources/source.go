package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hocgassets/internal/logging"
	"hocgassets/internal/model"
)

// Source is implemented by every upstream adapter. Each one maps its own
// format into observations and image observations.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (model.Batch, error)
}

// Collect fetches every source in order and concatenates their batches. A
// failing source is logged and skipped; its error is returned joined with the
// others once all sources ran. Cancellation stops immediately.
func Collect(ctx context.Context, logger *slog.Logger, srcs ...Source) (model.Batch, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "sources")

	var (
		batch model.Batch
		errs  []error
	)
	for _, src := range srcs {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		started := time.Now()
		srcCtx := logging.WithSource(ctx, src.Name())
		srcLogger := logging.WithContext(srcCtx, logger)
		srcLogger.Info("fetch started", logging.String(logging.FieldEventType, "source_fetch_start"))

		got, err := src.Fetch(srcCtx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return batch, err
			}
			logging.ErrorWithContext(srcLogger, "source failed", "source_fetch_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check network access and the source settings in config"),
				logging.String(logging.FieldImpact, "records from this source are missing from the run"))
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		batch.Append(got)
		srcLogger.Info("fetch finished",
			logging.String(logging.FieldEventType, "source_fetch_complete"),
			logging.Int("observations", len(got.Observations)),
			logging.Int("images", len(got.Images)),
			logging.Duration("elapsed", time.Since(started)))
	}
	return batch, errors.Join(errs...)
}
