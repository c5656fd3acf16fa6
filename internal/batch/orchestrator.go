// Package batch drives singly-dispatched, rate-limited, cacheable calls
// over a slice of items and polls a durable store for asynchronous
// completion. It is deliberately sequential: external providers enforce
// per-call rate and time limits, so items are never dispatched
// concurrently.
package batch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Outcome is the terminal state of one item in a run.
type Outcome string

const (
	OutcomeCached    Outcome = "cached"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Options tunes one orchestration run. Zero values fall back to defaults.
type Options struct {
	// ChunkSize is the number of items per dispatch group. Providers are
	// rate-limited per call, so this stays at 1.
	ChunkSize int

	// InterItemDelay is the pause between consecutive dispatches. A flow
	// control throttle, not a backoff.
	InterItemDelay time.Duration

	// PollInterval and MaxPollAttempts bound completion polling.
	PollInterval    time.Duration
	MaxPollAttempts int
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 1
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}
	if o.MaxPollAttempts <= 0 {
		o.MaxPollAttempts = 30
	}
	return o
}

// Result is the per-item outcome. Value carries the cached or freshly
// produced record; Err is set only for failed items.
type Result[T, R any] struct {
	Item    T
	Outcome Outcome
	Value   R
	Err     error
}

// Meta summarizes one run.
type Meta struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Cached    int `json:"cached"`
}

// RunResult is the full outcome of one orchestration run. Results always
// holds exactly one entry per input item, in input order.
type RunResult[T, R any] struct {
	Results []Result[T, R]
	Meta    Meta
}

// CacheFunc reports a non-stale durable record for an item, if one exists.
// Lookup errors are treated as a cache miss by the orchestrator: the
// upsert downstream is idempotent, so re-dispatching is safe.
type CacheFunc[T, R any] func(ctx context.Context, item T) (R, bool, error)

// CallFunc performs the external call for one item. Implementations must
// persist the resulting record (success or terminal failure) before
// returning: completion is only ever reported on top of a queryable row.
type CallFunc[T, R any] func(ctx context.Context, item T) (R, error)

// Run executes the per-item state machine PENDING -> CACHED|DISPATCHED ->
// SUCCEEDED|FAILED over items, strictly sequentially. A failed item never
// aborts its siblings; it stays terminally failed until the caller
// re-submits it. Context cancellation stops dispatching and marks the
// remaining items failed with ctx.Err().
func Run[T, R any](ctx context.Context, items []T, opts Options, cached CacheFunc[T, R], call CallFunc[T, R]) RunResult[T, R] {
	opts = opts.withDefaults()

	out := RunResult[T, R]{
		Results: make([]Result[T, R], 0, len(items)),
		Meta:    Meta{Total: len(items)},
	}

	dispatched := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			out.Results = append(out.Results, Result[T, R]{Item: item, Outcome: OutcomeFailed, Err: err})
			out.Meta.Failed++
			continue
		}

		if cached != nil {
			if value, hit, err := cached(ctx, item); err != nil {
				zap.L().Warn("batch: cache lookup failed, treating as miss", zap.Error(err))
			} else if hit {
				out.Results = append(out.Results, Result[T, R]{Item: item, Outcome: OutcomeCached, Value: value})
				out.Meta.Cached++
				continue
			}
		}

		// Throttle between dispatches only; cache hits cost nothing.
		if dispatched > 0 && opts.InterItemDelay > 0 {
			if !sleep(ctx, opts.InterItemDelay) {
				out.Results = append(out.Results, Result[T, R]{Item: item, Outcome: OutcomeFailed, Err: ctx.Err()})
				out.Meta.Failed++
				continue
			}
		}
		dispatched++

		value, err := call(ctx, item)
		if err != nil {
			out.Results = append(out.Results, Result[T, R]{Item: item, Outcome: OutcomeFailed, Err: err})
			out.Meta.Failed++
			continue
		}
		out.Results = append(out.Results, Result[T, R]{Item: item, Outcome: OutcomeSucceeded, Value: value})
		out.Meta.Succeeded++
	}

	return out
}

// sleep waits for d or until ctx is done, reporting whether the full delay
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
