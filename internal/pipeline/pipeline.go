// Package pipeline wires the durable store, the enrichment provider and
// the scoring provider into the batch orchestration flows behind the
// enrich, analyze and cis commands.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/leadscore-cli/internal/batch"
	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/resilience"
	"github.com/sells-group/leadscore-cli/internal/store"
	"github.com/sells-group/leadscore-cli/pkg/anthropic"
	"github.com/sells-group/leadscore-cli/pkg/mql"
)

// Config tunes the pipeline's orchestration and scoring behavior.
type Config struct {
	Model        string
	MaxTokens    int64
	BrandContext string

	// AnalysisOpts paces the LLM path; EnrichOpts paces the provider path.
	AnalysisOpts batch.Options
	EnrichOpts   batch.Options

	// StoreRetry bounds in-run retries of durable writes. Upserts are
	// idempotent, so retrying is always safe.
	StoreRetry resilience.RetryConfig
}

// DefaultConfig returns the production pacing: analysis throttled at 2 s
// between dispatches with a 3 s x 60 poll budget, enrichment at 200 ms
// with a 5 s x 30 budget.
func DefaultConfig() Config {
	return Config{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 4096,
		AnalysisOpts: batch.Options{
			ChunkSize:       1,
			InterItemDelay:  2 * time.Second,
			PollInterval:    3 * time.Second,
			MaxPollAttempts: 60,
		},
		EnrichOpts: batch.Options{
			ChunkSize:       1,
			InterItemDelay:  200 * time.Millisecond,
			PollInterval:    5 * time.Second,
			MaxPollAttempts: 30,
		},
		// Upserts are idempotent, so any store error is retryable.
		StoreRetry: resilience.RetryConfig{
			MaxAttempts: 2,
			Delay:       time.Second,
			ShouldRetry: func(error) bool { return true },
		},
	}
}

// Pipeline drives enrichment and AI scoring for one project at a time.
type Pipeline struct {
	store store.Store
	llm   anthropic.Client
	mql   mql.Client
	cfg   Config
}

// New assembles a pipeline. Either provider may be nil when the
// corresponding flow is not used (e.g. analytics-only invocations).
func New(st store.Store, llm anthropic.Client, enricher mql.Client, cfg Config) *Pipeline {
	return &Pipeline{store: st, llm: llm, mql: enricher, cfg: cfg}
}

// persistEnrichment upserts with bounded retry. A store failure after
// retries is logged and reported; the record is then simply absent and the
// item re-dispatches on the next run.
func (p *Pipeline) persistEnrichment(ctx context.Context, rec model.EnrichmentRecord) error {
	return resilience.Do(ctx, p.cfg.StoreRetry, func(ctx context.Context) error {
		return p.store.UpsertEnrichment(ctx, rec)
	})
}

func (p *Pipeline) persistAnalysis(ctx context.Context, rec model.AnalysisRecord) error {
	return resilience.Do(ctx, p.cfg.StoreRetry, func(ctx context.Context) error {
		return p.store.UpsertAnalysis(ctx, rec)
	})
}

// newID returns a record ID.
func newID() string {
	return uuid.NewString()
}

// logRunMeta emits the standard end-of-run summary line.
func logRunMeta(flow, projectID string, meta batch.Meta, observed int, complete bool) {
	zap.L().Info("pipeline: run finished",
		zap.String("flow", flow),
		zap.String("project_id", projectID),
		zap.Int("total", meta.Total),
		zap.Int("succeeded", meta.Succeeded),
		zap.Int("failed", meta.Failed),
		zap.Int("cached", meta.Cached),
		zap.Int("observed", observed),
		zap.Bool("complete", complete),
	)
}
