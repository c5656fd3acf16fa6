package batch

import (
	"context"

	"go.uber.org/zap"
)

// FetchFunc reads the durable store on each tick, merges any newly
// available results into caller-visible state, and returns how many of the
// requested items now have records. Partial results become visible on
// every tick, never all-or-nothing at the end.
type FetchFunc func(ctx context.Context) (observed int, err error)

// Poll drives fetch at a fixed interval until the observed count reaches
// want or the attempt budget runs out. Exhausting the budget is a partial
// result, not a failure: the final observed count is returned either way.
// Fetch errors are logged and the tick is retried; the durable store's
// idempotent upserts make that safe.
func Poll(ctx context.Context, opts Options, want int, fetch FetchFunc) (observed int, complete bool, err error) {
	opts = opts.withDefaults()

	if want <= 0 {
		return 0, true, nil
	}

	for attempt := 1; attempt <= opts.MaxPollAttempts; attempt++ {
		n, fetchErr := fetch(ctx)
		if fetchErr != nil {
			zap.L().Warn("batch: poll tick failed",
				zap.Int("attempt", attempt),
				zap.Error(fetchErr),
			)
		} else {
			observed = n
			if observed >= want {
				return observed, true, nil
			}
		}

		if attempt == opts.MaxPollAttempts {
			break
		}
		if !sleep(ctx, opts.PollInterval) {
			return observed, false, ctx.Err()
		}
	}

	zap.L().Info("batch: poll budget exhausted with partial results",
		zap.Int("observed", observed),
		zap.Int("want", want),
	)
	return observed, false, nil
}
